// Package errors provides structured, actionable errors for vtree.
//
// Every failure the reconciler can report carries a stable code:
//
//   - R001: a Component node reached mount or patch
//   - R002: a node's child shape disagrees with its children
//   - R003: a render surface call failed
//   - R004: duplicate sibling keys under the strict key policy
//   - R005: unmount of a container that has no rendered tree
//   - R006: a property value the reconciler cannot apply
//
// Configuration, fixture, protocol and snapshot errors use the C, F, P and
// S ranges.
//
// # Usage
//
//	err := errors.New("R003").
//	    WithDetail("InsertBefore(div, li)").
//	    Wrap(surfaceErr)
//
//	if errors.Is(err, errors.ErrSurfaceFailure) {
//	    fmt.Println(err.Format())
//	}
//
// Errors compare equal under errors.Is when their codes match, so callers can
// test against the exported sentinels without caring about detail text.
package errors

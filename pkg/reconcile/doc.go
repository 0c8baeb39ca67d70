// Package reconcile turns virtual trees into surface mutations.
//
// A Renderer remembers the last tree rendered into each container. The first
// Render into a container mounts the tree; later renders patch the recorded
// tree into the new one, reusing surface nodes wherever the node kind, tag
// and key allow it.
//
// # Children
//
// A node's children are classified once, at construction, as None, Single or
// Multiple. Reconciling two child lists dispatches on the pair of shapes:
//
//	old \ new   None        Single            Multiple
//	None        -           mount             mount all
//	Single      remove      patch             remove, mount all
//	Multiple    remove all  remove all, mount keyed diff
//
// The keyed diff walks the new children in order. Each new child is matched
// with the first unused old child carrying the same key (unkeyed children
// match unkeyed children in order). A matched child found before the highest
// old position matched so far is moved behind the previous new child;
// unmatched children are mounted there. Old children left unmatched are
// removed. The walk is a single forward pass, so the number of moves is not
// minimal, but the final order always matches the new tree.
//
// # Errors
//
// Every failure is an *errors.Error from internal/errors. The render stops at
// the first failure without undoing the mutations already issued, and the
// container's record is dropped so the next Render mounts from scratch.
//
// # Concurrency
//
// A Renderer is not safe for concurrent use. Trees passed to Render belong
// to the Renderer afterwards and must not be mutated by the caller.
package reconcile

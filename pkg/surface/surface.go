// Package surface defines the render surface the reconciler drives.
//
// A Surface is the stateful target being updated: a browser DOM bridge, a
// terminal widget tree, an in-memory tree for tests. The reconciler never
// inspects a surface beyond the calls below; every node it creates is
// referred to through an opaque Handle returned by the surface.
//
// Implementations are not required to be safe for concurrent use. The
// reconciler issues calls from a single goroutine and never suspends midway
// through a render.
package surface

import "reflect"

// Handle is an opaque reference to a realized surface node.
//
// Handles must be comparable; the reconciler and the recorder use them as
// map keys and compare them with ==.
type Handle any

// Event is delivered to listeners bound with AddEventListener.
type Event struct {
	// Type is the event name without the binding prefix ("click").
	Type string

	// Target is the node the event was dispatched on.
	Target Handle

	// Detail carries surface-specific payload.
	Detail any
}

// Listener receives events. Listeners are compared by identity: binding the
// same listener value twice is a no-op for surfaces that deduplicate, and
// RemoveEventListener must be given the value that was added.
type Listener interface {
	HandleEvent(Event)
}

// Surface is the capability set the reconciler uses to realize effects.
//
// A non-nil error from any method aborts the current render.
type Surface interface {
	// CreateElement creates a detached element node.
	CreateElement(tag string) (Handle, error)

	// CreateText creates a detached text node.
	CreateText(text string) (Handle, error)

	// SetAttribute sets a generic attribute.
	SetAttribute(h Handle, name, value string) error

	// RemoveAttribute removes a generic attribute.
	RemoveAttribute(h Handle, name string) error

	// SetStyle sets one style property.
	SetStyle(h Handle, name, value string) error

	// ClearStyle resets one style property to the empty value.
	ClearStyle(h Handle, name string) error

	// SetClass replaces the class attribute wholesale.
	SetClass(h Handle, class string) error

	// AddEventListener binds l for the named event.
	AddEventListener(h Handle, event string, l Listener) error

	// RemoveEventListener unbinds l for the named event.
	RemoveEventListener(h Handle, event string, l Listener) error

	// AppendChild appends child to parent, detaching it from any previous
	// position first.
	AppendChild(parent, child Handle) error

	// InsertBefore inserts child into parent before ref, detaching it from
	// any previous position first. A nil ref appends.
	InsertBefore(parent, child, ref Handle) error

	// RemoveChild detaches child from parent.
	RemoveChild(parent, child Handle) error

	// SetText overwrites a text node's payload.
	SetText(h Handle, text string) error

	// NextSibling returns the node following h in its parent, or nil.
	NextSibling(h Handle) (Handle, error)
}

// SameListener reports whether a and b are the same listener. Listeners of
// non-comparable dynamic types (func or map based) are never the same.
func SameListener(a, b Listener) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

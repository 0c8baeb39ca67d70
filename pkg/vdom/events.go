package vdom

import "github.com/vango-dev/vtree/pkg/surface"

// Handler is an event listener bound through an "@event" property.
//
// Handlers are compared by pointer, so reusing the same *Handler across
// renders leaves the surface binding untouched while a fresh Handler
// replaces it.
type Handler struct {
	// Name identifies handlers decoded from fixtures; it is informational.
	Name string

	fn func(surface.Event)
}

// NewHandler wraps fn.
func NewHandler(fn func(surface.Event)) *Handler {
	return &Handler{fn: fn}
}

// HandleEvent implements surface.Listener.
func (h *Handler) HandleEvent(ev surface.Event) {
	if h != nil && h.fn != nil {
		h.fn(ev)
	}
}

// Bind binds an existing listener to the named event.
func Bind(event string, l surface.Listener) Attr {
	return Prop(EventPrefix+event, l)
}

// On binds fn to the named event through a new Handler.
func On(event string, fn func(surface.Event)) Attr {
	return Bind(event, NewHandler(fn))
}

// OnClick handles click events.
func OnClick(fn func(surface.Event)) Attr { return On("click", fn) }

// OnInput handles input events.
func OnInput(fn func(surface.Event)) Attr { return On("input", fn) }

// OnChange handles change events.
func OnChange(fn func(surface.Event)) Attr { return On("change", fn) }

// OnSubmit handles form submit events.
func OnSubmit(fn func(surface.Event)) Attr { return On("submit", fn) }

// OnKeyDown handles keydown events.
func OnKeyDown(fn func(surface.Event)) Attr { return On("keydown", fn) }

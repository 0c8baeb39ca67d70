package reconcile

import (
	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/surface"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// patch brings old's surface node in line with next. On return next owns the
// surface node and old is dead.
func (r *Renderer) patch(old, next *vdom.VNode, container surface.Handle) error {
	if old == next {
		return nil
	}
	if old.Bound == nil {
		return unbound(old)
	}
	if old.Kind != next.Kind || old.Tag != next.Tag {
		return r.replace(old, next, container)
	}

	switch next.Kind {
	case vdom.KindElement:
		if err := checkShape(old); err != nil {
			return err
		}
		if err := checkShape(next); err != nil {
			return err
		}
		h := old.Bound
		old.Bound = nil
		next.Bound = h
		if err := r.applyProps(h, next, old.Props, next.Props); err != nil {
			return err
		}
		if err := r.reconcileChildren(old, next, h); err != nil {
			return err
		}

	case vdom.KindText:
		h := old.Bound
		old.Bound = nil
		next.Bound = h
		if old.Text != next.Text {
			if err := r.surf.SetText(h, next.Text); err != nil {
				return surfaceErr("set text", next, err)
			}
		}

	default:
		return unsupported(next)
	}

	r.stats.Patched++
	return nil
}

// replace swaps old's surface node for a fresh realization of next at the
// same position.
func (r *Renderer) replace(old, next *vdom.VNode, container surface.Handle) error {
	if next.Kind != vdom.KindElement && next.Kind != vdom.KindText {
		return unsupported(next)
	}
	ref, err := r.surf.NextSibling(old.Bound)
	if err != nil {
		return surfaceErr("next sibling", old, err)
	}
	if err := r.surf.RemoveChild(container, old.Bound); err != nil {
		return surfaceErr("remove", old, err)
	}
	release(old)
	r.logger.Debug("replace", "old", old.String(), "new", next.String())
	if err := r.mount(next, container, ref); err != nil {
		return err
	}
	r.stats.Replaced++
	return nil
}

func unbound(node *vdom.VNode) error {
	return errors.New("R002").WithDetailf("%s is not bound to a surface node", node)
}

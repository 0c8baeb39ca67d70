package reconcile

import (
	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/surface"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// reconcileChildren dispatches on the old and new child shapes.
func (r *Renderer) reconcileChildren(old, next *vdom.VNode, parent surface.Handle) error {
	oc, nc := old.Children, next.Children

	switch old.Shape {
	case vdom.ShapeNone:
		return r.mountAll(nc, parent)

	case vdom.ShapeSingle:
		switch next.Shape {
		case vdom.ShapeNone:
			return r.remove(oc[0], parent)
		case vdom.ShapeSingle:
			return r.patch(oc[0], nc[0], parent)
		default:
			if err := r.remove(oc[0], parent); err != nil {
				return err
			}
			return r.mountAll(nc, parent)
		}

	default:
		switch next.Shape {
		case vdom.ShapeNone:
			return r.removeAll(oc, parent)
		case vdom.ShapeSingle:
			if err := r.removeAll(oc, parent); err != nil {
				return err
			}
			return r.mount(nc[0], parent, nil)
		default:
			return r.keyedDiff(oc, nc, parent)
		}
	}
}

// keyedDiff reconciles two non-empty child lists.
func (r *Renderer) keyedDiff(oldC, newC []*vdom.VNode, parent surface.Handle) error {
	if err := r.checkKeys(oldC); err != nil {
		return err
	}
	if err := r.checkKeys(newC); err != nil {
		return err
	}

	consumed := make([]bool, len(oldC))
	lastIndex := 0

	for i, nc := range newC {
		j := matchChild(oldC, consumed, nc)
		if j >= 0 {
			consumed[j] = true
			if err := r.patch(oldC[j], nc, parent); err != nil {
				return err
			}
			if j < lastIndex {
				ref, err := r.after(newC[i-1])
				if err != nil {
					return err
				}
				if err := r.surf.InsertBefore(parent, nc.Bound, ref); err != nil {
					return surfaceErr("move", nc, err)
				}
				r.stats.Moved++
				r.logger.Debug("move", "node", nc.String(), "from", j, "to", i)
			} else {
				lastIndex = j
			}
			continue
		}

		var ref surface.Handle
		if i == 0 {
			ref = oldC[0].Bound
		} else {
			var err error
			if ref, err = r.after(newC[i-1]); err != nil {
				return err
			}
		}
		if err := r.mount(nc, parent, ref); err != nil {
			return err
		}
	}

	for j, oc := range oldC {
		if !consumed[j] {
			if err := r.remove(oc, parent); err != nil {
				return err
			}
		}
	}
	return nil
}

// after returns the surface node following node's, or nil at the end.
func (r *Renderer) after(node *vdom.VNode) (surface.Handle, error) {
	next, err := r.surf.NextSibling(node.Bound)
	if err != nil {
		return nil, surfaceErr("next sibling", node, err)
	}
	return next, nil
}

// matchChild returns the index of the first unconsumed old child that nc can
// reuse, or -1. Keyed children match equal keys; unkeyed children match the
// next unkeyed child.
func matchChild(oldC []*vdom.VNode, consumed []bool, nc *vdom.VNode) int {
	for j, oc := range oldC {
		if consumed[j] || oc.HasKey != nc.HasKey {
			continue
		}
		if !nc.HasKey || oc.Key == nc.Key {
			return j
		}
	}
	return -1
}

// checkKeys enforces KeysStrict on one sibling list.
func (r *Renderer) checkKeys(children []*vdom.VNode) error {
	if r.keyPolicy != KeysStrict || len(children) < 2 {
		return nil
	}
	seen := make(map[string]struct{}, len(children))
	for _, c := range children {
		if !c.HasKey {
			continue
		}
		if _, dup := seen[c.Key]; dup {
			return errors.New("R004").WithDetailf("key %q", c.Key).
				WithSuggestion("Give every sibling a distinct key, or use the first-match key policy")
		}
		seen[c.Key] = struct{}{}
	}
	return nil
}

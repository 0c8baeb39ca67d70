package reconcile

import (
	"github.com/vango-dev/vtree/pkg/surface"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// mount realizes node and inserts it into container before ref, or at the
// end when ref is nil.
func (r *Renderer) mount(node *vdom.VNode, container, ref surface.Handle) error {
	switch node.Kind {
	case vdom.KindElement:
		if err := checkShape(node); err != nil {
			return err
		}
		if err := r.checkKeys(node.Children); err != nil {
			return err
		}
		h, err := r.surf.CreateElement(node.Tag)
		if err != nil {
			return surfaceErr("create", node, err)
		}
		node.Bound = h
		if err := r.applyProps(h, node, nil, node.Props); err != nil {
			return err
		}
		for _, c := range node.Children {
			if err := r.mount(c, h, nil); err != nil {
				return err
			}
		}

	case vdom.KindText:
		h, err := r.surf.CreateText(node.Text)
		if err != nil {
			return surfaceErr("create", node, err)
		}
		node.Bound = h

	default:
		return unsupported(node)
	}

	if err := r.insert(container, node, ref); err != nil {
		return err
	}
	r.stats.Mounted++
	r.logger.Debug("mount", "node", node.String())
	return nil
}

func (r *Renderer) insert(container surface.Handle, node *vdom.VNode, ref surface.Handle) error {
	var err error
	if ref == nil {
		err = r.surf.AppendChild(container, node.Bound)
	} else {
		err = r.surf.InsertBefore(container, node.Bound, ref)
	}
	if err != nil {
		return surfaceErr("insert", node, err)
	}
	return nil
}

// remove detaches node's surface node from container.
func (r *Renderer) remove(node *vdom.VNode, container surface.Handle) error {
	if node.Bound == nil {
		return unbound(node)
	}
	if err := r.surf.RemoveChild(container, node.Bound); err != nil {
		return surfaceErr("remove", node, err)
	}
	release(node)
	r.stats.Removed++
	r.logger.Debug("remove", "node", node.String())
	return nil
}

func (r *Renderer) removeAll(nodes []*vdom.VNode, container surface.Handle) error {
	for _, n := range nodes {
		if err := r.remove(n, container); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) mountAll(nodes []*vdom.VNode, container surface.Handle) error {
	for _, n := range nodes {
		if err := r.mount(n, container, nil); err != nil {
			return err
		}
	}
	return nil
}

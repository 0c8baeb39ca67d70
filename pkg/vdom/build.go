package vdom

import "fmt"

// H builds an element node.
//
// children may be nil, a *VNode, a Component, a []*VNode, a []any of nodes
// and strings, or any other value, which becomes a single text child. Slices
// produce ShapeMultiple unless they are empty after dropping nil entries, in
// which case the node has no children.
func H(tag string, props Props, children any) *VNode {
	if props == nil {
		props = Props{}
	}
	node := &VNode{
		Kind:  KindElement,
		Tag:   tag,
		Props: props,
	}
	node.Key, node.HasKey = keyOf(props)
	node.Children, node.Shape = normalizeChildren(children)
	return node
}

// Text creates a text node.
func Text(content string) *VNode {
	return &VNode{
		Kind: KindText,
		Text: content,
	}
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *VNode {
	return Text(fmt.Sprintf(format, args...))
}

// Comp wraps a component in a node. Component nodes cannot be mounted.
func Comp(c Component) *VNode {
	return &VNode{
		Kind: KindComponent,
		Comp: c,
	}
}

// normalizeChildren classifies the children argument of H.
func normalizeChildren(children any) ([]*VNode, ChildShape) {
	switch v := children.(type) {
	case nil:
		return nil, ShapeNone

	case *VNode:
		if v == nil {
			return nil, ShapeNone
		}
		return []*VNode{v}, ShapeSingle

	case Component:
		return []*VNode{Comp(v)}, ShapeSingle

	case []*VNode:
		out := make([]*VNode, 0, len(v))
		for _, c := range v {
			if c != nil {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			return nil, ShapeNone
		}
		return out, ShapeMultiple

	case []any:
		out := make([]*VNode, 0, len(v))
		for _, item := range v {
			if c := childNode(item); c != nil {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			return nil, ShapeNone
		}
		return out, ShapeMultiple

	case string:
		return []*VNode{Text(v)}, ShapeSingle

	default:
		return []*VNode{Text(fmt.Sprint(v))}, ShapeSingle
	}
}

// childNode converts one entry of a []any child list.
func childNode(item any) *VNode {
	switch v := item.(type) {
	case nil:
		return nil
	case *VNode:
		return v
	case Component:
		return Comp(v)
	case string:
		return Text(v)
	default:
		return Text(fmt.Sprint(v))
	}
}

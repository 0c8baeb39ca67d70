package memsurface

import (
	"maps"

	"github.com/vango-dev/vtree/pkg/surface"
)

// Node is one node of the in-memory tree. Handles issued by Surface are
// *Node values.
type Node struct {
	id     int
	owner  *Surface
	tag    string
	text   string
	isText bool

	attrs     map[string]string
	style     map[string]string
	class     string
	listeners map[string][]surface.Listener

	parent   *Node
	children []*Node
}

// ID returns the creation sequence number of the node. The root is 0.
func (n *Node) ID() int { return n.id }

// Tag returns the element tag, or "" for text nodes.
func (n *Node) Tag() string { return n.tag }

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.isText }

// Text returns the payload of a text node.
func (n *Node) Text() string { return n.text }

// Class returns the class attribute.
func (n *Node) Class() string { return n.class }

// Parent returns the parent node, or nil when detached.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Attr returns a generic attribute.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// Attrs returns a copy of the generic attributes.
func (n *Node) Attrs() map[string]string { return maps.Clone(n.attrs) }

// Style returns one style property, or "" when unset.
func (n *Node) Style(name string) string { return n.style[name] }

// Styles returns a copy of the style properties.
func (n *Node) Styles() map[string]string { return maps.Clone(n.style) }

// Listeners returns the listeners bound for event.
func (n *Node) Listeners(event string) []surface.Listener {
	out := make([]surface.Listener, len(n.listeners[event]))
	copy(out, n.listeners[event])
	return out
}

// Events returns the names of events with at least one listener.
func (n *Node) Events() []string {
	out := make([]string, 0, len(n.listeners))
	for name, ls := range n.listeners {
		if len(ls) > 0 {
			out = append(out, name)
		}
	}
	return out
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

func (n *Node) detach() {
	if n.parent == nil {
		return
	}
	p := n.parent
	if i := p.indexOf(n); i >= 0 {
		p.children = append(p.children[:i], p.children[i+1:]...)
	}
	n.parent = nil
}

// contains reports whether other is n or one of its descendants.
func (n *Node) contains(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

package vdom

import (
	"fmt"
	"strings"

	"github.com/vango-dev/vtree/pkg/surface"
)

// Reserved property keys.
const (
	KeyProp     = "key"
	StyleProp   = "style"
	ClassProp   = "class"
	EventPrefix = "@"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement   Kind = iota // <div>, <button>, etc.
	KindText                  // Plain text node
	KindComponent             // Nested component (not reconcilable)
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// ChildShape classifies a node's children.
type ChildShape uint8

const (
	ShapeNone     ChildShape = iota // No children
	ShapeSingle                     // Exactly one child given as a single value
	ShapeMultiple                   // A non-empty slice of children
)

// String returns the string representation of the ChildShape.
func (s ChildShape) String() string {
	switch s {
	case ShapeNone:
		return "None"
	case ShapeSingle:
		return "Single"
	case ShapeMultiple:
		return "Multiple"
	default:
		return "Unknown"
	}
}

// VNode is a virtual node.
type VNode struct {
	Kind     Kind       // Node type
	Tag      string     // Element tag name (e.g., "div")
	Props    Props      // Attributes, style, class and event bindings
	Key      string     // Reconciliation key, taken from Props["key"]
	HasKey   bool       // Whether Props carried a key
	Children []*VNode   // Child nodes
	Shape    ChildShape // Fixed at construction
	Text     string     // For KindText
	Comp     Component  // For KindComponent

	// Bound is the realized surface node. It is nil until the node is
	// mounted or takes over its predecessor's binding during patch.
	Bound surface.Handle
}

// Props holds attributes, style, class and event bindings.
type Props map[string]any

// Component is anything that can render to a VNode.
type Component interface {
	Render() *VNode
}

// FuncComponent wraps a render function.
type FuncComponent struct {
	render func() *VNode
}

// Render implements Component.
func (f *FuncComponent) Render() *VNode {
	return f.render()
}

// Func creates a component from a render function.
func Func(render func() *VNode) Component {
	return &FuncComponent{render: render}
}

// ShapeConsistent reports whether Shape still agrees with Children.
func (v *VNode) ShapeConsistent() bool {
	switch v.Shape {
	case ShapeNone:
		return len(v.Children) == 0
	case ShapeSingle:
		return len(v.Children) == 1 && v.Children[0] != nil
	case ShapeMultiple:
		if len(v.Children) == 0 {
			return false
		}
		for _, c := range v.Children {
			if c == nil {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String returns a compact description for logs and test failures.
func (v *VNode) String() string {
	if v == nil {
		return "<nil>"
	}
	switch v.Kind {
	case KindText:
		return fmt.Sprintf("%q", v.Text)
	case KindElement:
		if v.HasKey {
			return fmt.Sprintf("<%s key=%s>", v.Tag, v.Key)
		}
		return "<" + v.Tag + ">"
	default:
		return v.Kind.String()
	}
}

// IsEvent returns true if the property key is an event binding.
func IsEvent(key string) bool {
	return len(key) > len(EventPrefix) && strings.HasPrefix(key, EventPrefix)
}

// EventName strips the binding prefix from an event property key.
func EventName(key string) string {
	return strings.TrimPrefix(key, EventPrefix)
}

// keyOf extracts the reconciliation key from props.
func keyOf(props Props) (string, bool) {
	v, ok := props[KeyProp]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

package vdom

import (
	"testing"

	"github.com/vango-dev/vtree/pkg/surface"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindElement, "Element"},
		{KindText, "Text"},
		{KindComponent, "Component"},
		{Kind(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestHChildShape(t *testing.T) {
	tests := []struct {
		name      string
		children  any
		wantShape ChildShape
		wantLen   int
	}{
		{"nil", nil, ShapeNone, 0},
		{"nil node", (*VNode)(nil), ShapeNone, 0},
		{"single node", Text("a"), ShapeSingle, 1},
		{"empty slice", []*VNode{}, ShapeNone, 0},
		{"slice of nils", []*VNode{nil, nil}, ShapeNone, 0},
		{"slice of one", []*VNode{Text("a")}, ShapeMultiple, 1},
		{"slice drops nil", []*VNode{Text("a"), nil, Text("b")}, ShapeMultiple, 2},
		{"any slice", []any{"a", Text("b"), nil, 3}, ShapeMultiple, 3},
		{"empty any slice", []any{}, ShapeNone, 0},
		{"string", "hello", ShapeSingle, 1},
		{"number", 42, ShapeSingle, 1},
		{"component", Func(func() *VNode { return nil }), ShapeSingle, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := H("div", nil, tt.children)
			if node.Shape != tt.wantShape {
				t.Errorf("Shape = %v, want %v", node.Shape, tt.wantShape)
			}
			if len(node.Children) != tt.wantLen {
				t.Errorf("len(Children) = %d, want %d", len(node.Children), tt.wantLen)
			}
			if !node.ShapeConsistent() {
				t.Error("ShapeConsistent() = false after construction")
			}
		})
	}
}

func TestHScalarChildIsText(t *testing.T) {
	node := H("p", nil, 42)
	if node.Children[0].Kind != KindText {
		t.Fatalf("child kind = %v, want Text", node.Children[0].Kind)
	}
	if node.Children[0].Text != "42" {
		t.Errorf("child text = %q, want 42", node.Children[0].Text)
	}
}

func TestHKey(t *testing.T) {
	n := H("li", Props{"key": 7}, nil)
	if !n.HasKey || n.Key != "7" {
		t.Errorf("Key = %q (has=%v), want 7", n.Key, n.HasKey)
	}

	n = H("li", Props{"key": "a"}, nil)
	if !n.HasKey || n.Key != "a" {
		t.Errorf("Key = %q (has=%v), want a", n.Key, n.HasKey)
	}

	n = H("li", nil, nil)
	if n.HasKey {
		t.Error("HasKey = true for node without key")
	}
	if n.Props == nil {
		t.Error("Props should be non-nil")
	}
}

func TestShapeConsistent(t *testing.T) {
	n := H("ul", nil, []*VNode{Text("a"), Text("b")})
	n.Children = nil
	if n.ShapeConsistent() {
		t.Error("Multiple with no children should be inconsistent")
	}

	n = H("ul", nil, nil)
	n.Children = []*VNode{Text("x")}
	if n.ShapeConsistent() {
		t.Error("None with children should be inconsistent")
	}

	n = H("ul", nil, Text("a"))
	n.Children = append(n.Children, Text("b"))
	if n.ShapeConsistent() {
		t.Error("Single with two children should be inconsistent")
	}
}

func TestEventKeys(t *testing.T) {
	if !IsEvent("@click") {
		t.Error(`IsEvent("@click") = false`)
	}
	if IsEvent("@") || IsEvent("onclick") {
		t.Error("IsEvent should reject bare prefix and on* keys")
	}
	if got := EventName("@click"); got != "click" {
		t.Errorf("EventName = %q, want click", got)
	}
}

func TestVNodeString(t *testing.T) {
	tests := []struct {
		node *VNode
		want string
	}{
		{nil, "<nil>"},
		{Text("hi"), `"hi"`},
		{Div(), "<div>"},
		{Li(Key(3)), "<li key=3>"},
		{Comp(Func(func() *VNode { return nil })), "Component"},
	}
	for _, tt := range tests {
		if got := tt.node.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestHandler(t *testing.T) {
	var got string
	h := NewHandler(func(ev surface.Event) { got = ev.Type })
	h.HandleEvent(surface.Event{Type: "click"})
	if got != "click" {
		t.Errorf("handler saw %q, want click", got)
	}

	var nilHandler *Handler
	nilHandler.HandleEvent(surface.Event{Type: "click"})
	(&Handler{Name: "inert"}).HandleEvent(surface.Event{})
}

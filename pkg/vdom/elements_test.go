package vdom

import (
	"testing"

	"github.com/vango-dev/vtree/pkg/surface"
)

func TestElShapes(t *testing.T) {
	tests := []struct {
		name      string
		node      *VNode
		wantShape ChildShape
		wantLen   int
	}{
		{"no children", Div(Class("a")), ShapeNone, 0},
		{"lone string", P("hello"), ShapeSingle, 1},
		{"lone node", Div(Span()), ShapeSingle, 1},
		{"two children", Div(Span(), "x"), ShapeMultiple, 2},
		{"slice of one", Ul([]*VNode{Li()}), ShapeMultiple, 1},
		{"empty slice", Ul([]*VNode{}), ShapeNone, 0},
		{"nil child", Div(nil), ShapeNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.node.Shape != tt.wantShape {
				t.Errorf("Shape = %v, want %v", tt.node.Shape, tt.wantShape)
			}
			if len(tt.node.Children) != tt.wantLen {
				t.Errorf("len(Children) = %d, want %d", len(tt.node.Children), tt.wantLen)
			}
		})
	}
}

func TestElAttributes(t *testing.T) {
	click := func(surface.Event) {}
	node := Button(
		ID("save"),
		Class("btn", "primary"),
		Style("color", "red", "margin", "0"),
		Key(1),
		Props{"title": "Save"},
		[]Attr{Disabled(false), Prop("", "ignored")},
		OnClick(click),
		"Save",
	)

	if node.Props["id"] != "save" {
		t.Errorf("id = %v", node.Props["id"])
	}
	if node.Props["class"] != "btn primary" {
		t.Errorf("class = %v", node.Props["class"])
	}
	style, ok := node.Props["style"].(map[string]string)
	if !ok || style["color"] != "red" || style["margin"] != "0" {
		t.Errorf("style = %v", node.Props["style"])
	}
	if !node.HasKey || node.Key != "1" {
		t.Errorf("Key = %q", node.Key)
	}
	if node.Props["title"] != "Save" {
		t.Errorf("title = %v", node.Props["title"])
	}
	if _, ok := node.Props[""]; ok {
		t.Error("empty attribute key should be dropped")
	}
	if _, ok := node.Props["@click"].(*Handler); !ok {
		t.Errorf("@click = %T, want *Handler", node.Props["@click"])
	}
	if node.Shape != ShapeSingle || node.Children[0].Text != "Save" {
		t.Errorf("children = %v", node.Children)
	}
}

func TestMerge(t *testing.T) {
	props := Merge(Class("a"), Class("b"), Prop("", 1))
	if props["class"] != "b" {
		t.Errorf("class = %v, want b", props["class"])
	}
	if len(props) != 1 {
		t.Errorf("len = %d, want 1", len(props))
	}
}

func TestIsVoidElement(t *testing.T) {
	if !IsVoidElement("br") || IsVoidElement("div") {
		t.Error("IsVoidElement mismatch")
	}
}

func TestKeyed(t *testing.T) {
	items := []string{"a", "b"}
	nodes := Keyed(items, func(s string) any { return s }, func(s string) *VNode {
		return Li(s)
	})
	if len(nodes) != 2 {
		t.Fatalf("len = %d, want 2", len(nodes))
	}
	for i, n := range nodes {
		if !n.HasKey || n.Key != items[i] {
			t.Errorf("node %d key = %q", i, n.Key)
		}
	}

	pre := Keyed(items, func(s string) any { return s }, func(s string) *VNode {
		return Li(Key("fixed-"+s), s)
	})
	if pre[0].Key != "fixed-a" {
		t.Errorf("existing key overwritten: %q", pre[0].Key)
	}
}

func TestConditionalHelpers(t *testing.T) {
	n := Span()
	if If(true, n) != n || If(false, n) != nil {
		t.Error("If mismatch")
	}
	alt := Div()
	if IfElse(false, n, alt) != alt {
		t.Error("IfElse mismatch")
	}
	called := false
	When(false, func() *VNode { called = true; return n })
	if called {
		t.Error("When should not call fn on false")
	}
	if got := Repeat(3, func(i int) *VNode { return Li(i) }); len(got) != 3 {
		t.Errorf("Repeat len = %d", len(got))
	}
	if Repeat(0, func(int) *VNode { return n }) != nil {
		t.Error("Repeat(0) should be nil")
	}
	got := Range([]int{1, 2, 3}, func(v, _ int) *VNode { return If(v != 2, Li(v)) })
	if len(got) != 2 {
		t.Errorf("Range len = %d, want 2", len(got))
	}
}

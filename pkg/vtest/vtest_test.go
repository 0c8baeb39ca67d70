package vtest_test

import (
	"testing"

	"github.com/vango-dev/vtree/pkg/reconcile"
	"github.com/vango-dev/vtree/pkg/record"
	"github.com/vango-dev/vtree/pkg/vdom"
	"github.com/vango-dev/vtree/pkg/vtest"
)

func todoList(items ...string) *vdom.VNode {
	return vdom.Ul(vdom.Keyed(items,
		func(s string) any { return s },
		func(s string) *vdom.VNode { return vdom.Li(s) },
	))
}

func TestHarnessRender(t *testing.T) {
	h := vtest.New(t)

	h.Render(todoList("a", "b"))
	h.ExpectHTML("<ul><li>a</li><li>b</li></ul>")
	h.ExpectOps(record.OpCreateElement, 3)
	h.ExpectOps(record.OpCreateText, 2)

	h.Render(todoList("b", "a"))
	h.ExpectHTML("<ul><li>b</li><li>a</li></ul>")
	h.ExpectMutations(1)
	h.ExpectOps(record.OpInsertBefore, 1)
	h.ExpectMatchesFresh(todoList("b", "a"))

	h.ExpectNoChange(todoList("b", "a"))
}

func TestHarnessOps(t *testing.T) {
	h := vtest.New(t)
	h.Render(vdom.P("hello"))
	h.Render(vdom.P("world"))

	ops := h.Ops()
	if len(ops) != 1 || ops[0].Kind != record.OpSetText || ops[0].Value != "world" {
		t.Errorf("Ops() = %v, want one SetText", ops)
	}
	h.ExpectContains("world")
}

func TestHarnessErrors(t *testing.T) {
	h := vtest.New(t, reconcile.WithKeyPolicy(reconcile.KeysStrict))

	err := h.RenderErr(vdom.Ul(vdom.Li(vdom.Key(1)), vdom.Li(vdom.Key(1))))
	vtest.ExpectCode(t, err, "R004")

	vtest.ExpectCode(t, h.RenderErr(vdom.Comp(vdom.Func(func() *vdom.VNode { return nil }))), "R001")
	vtest.ExpectCode(t, h.RenderErr(vdom.P("ok")), "")
}

func TestRenderToString(t *testing.T) {
	html := vtest.RenderToString(vdom.Div(vdom.Class("card"), "Hello"))
	if html != `<div class="card">Hello</div>` {
		t.Errorf("RenderToString() = %q", html)
	}

	if got := vtest.RenderToString(vdom.Comp(vdom.Func(func() *vdom.VNode { return nil }))); got != "" {
		t.Errorf("RenderToString(component) = %q, want empty", got)
	}
}

func TestExpectHelpers(t *testing.T) {
	node := vdom.Button(vdom.Class("btn-primary"), vdom.Type("submit"), "Save")

	vtest.ExpectContains(t, node, "Save")
	vtest.ExpectNotContains(t, node, "Cancel")
	vtest.ExpectElement(t, node, "button")
	vtest.ExpectAttribute(t, node, "class", "btn-primary")
	vtest.ExpectAttribute(t, node, "type", "submit")
}

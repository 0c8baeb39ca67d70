package reconcile

import (
	"testing"

	"github.com/vango-dev/vtree/pkg/memsurface"
	"github.com/vango-dev/vtree/pkg/record"
	"github.com/vango-dev/vtree/pkg/vdom"
)

type harness struct {
	t   *testing.T
	mem *memsurface.Surface
	rec *record.Surface
	r   *Renderer
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	mem := memsurface.New()
	rec := record.New(mem, mem.Root())
	return &harness{t: t, mem: mem, rec: rec, r: New(rec, opts...)}
}

func (h *harness) render(tree *vdom.VNode) {
	h.t.Helper()
	if err := h.r.Render(tree, h.mem.Root()); err != nil {
		h.t.Fatalf("Render() error = %v", err)
	}
}

func (h *harness) html() string {
	return h.mem.InnerHTML(h.mem.Root())
}

// freshHTML mounts tree on a new surface and returns the result, which is
// what any patch ending in tree must produce.
func freshHTML(t *testing.T, tree *vdom.VNode) string {
	t.Helper()
	mem := memsurface.New()
	if err := New(mem).Render(tree, mem.Root()); err != nil {
		t.Fatalf("fresh Render() error = %v", err)
	}
	return mem.InnerHTML(mem.Root())
}

func li(key, text string) *vdom.VNode {
	return vdom.Li(vdom.Key(key), text)
}

func list(items ...*vdom.VNode) *vdom.VNode {
	return vdom.Ul(items)
}

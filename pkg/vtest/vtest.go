package vtest

import (
	"strings"
	"testing"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/memsurface"
	"github.com/vango-dev/vtree/pkg/reconcile"
	"github.com/vango-dev/vtree/pkg/record"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Harness renders trees into one container of a recorded memsurface.
type Harness struct {
	t        *testing.T
	surf     *memsurface.Surface
	rec      *record.Surface
	renderer *reconcile.Renderer
	last     []record.Op
}

// New creates a harness. Options are passed to reconcile.New.
//
// Example:
//
//	h := vtest.New(t, reconcile.WithKeyPolicy(reconcile.KeysStrict))
func New(t *testing.T, opts ...reconcile.Option) *Harness {
	surf := memsurface.New()
	rec := record.New(surf, surf.Root())
	return &Harness{
		t:        t,
		surf:     surf,
		rec:      rec,
		renderer: reconcile.New(rec, opts...),
	}
}

// Surface returns the underlying surface.
func (h *Harness) Surface() *memsurface.Surface { return h.surf }

// Recorder returns the recording wrapper.
func (h *Harness) Recorder() *record.Surface { return h.rec }

// Renderer returns the renderer.
func (h *Harness) Renderer() *reconcile.Renderer { return h.renderer }

// Render renders tree and fails the test on error. The ops it produced are
// available through Ops until the next render.
func (h *Harness) Render(tree *vdom.VNode) *Harness {
	h.t.Helper()
	if err := h.RenderErr(tree); err != nil {
		h.t.Fatalf("Render(%v) error = %v", tree, err)
	}
	return h
}

// RenderErr renders tree and returns the error.
func (h *Harness) RenderErr(tree *vdom.VNode) error {
	err := h.renderer.Render(tree, h.surf.Root())
	h.last = h.rec.Reset()
	return err
}

// Ops returns the ops of the last render.
func (h *Harness) Ops() []record.Op {
	return h.last
}

// HTML returns the container's markup.
func (h *Harness) HTML() string {
	return h.surf.InnerHTML(h.surf.Root())
}

// ExpectHTML asserts the container's markup.
func (h *Harness) ExpectHTML(want string) {
	h.t.Helper()
	if got := h.HTML(); got != want {
		h.t.Errorf("HTML = %q, want %q", got, want)
	}
}

// ExpectContains asserts that the container's markup contains expected.
func (h *Harness) ExpectContains(expected string) {
	h.t.Helper()
	if html := h.HTML(); !strings.Contains(html, expected) {
		h.t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectMutations asserts the number of ops of the last render.
func (h *Harness) ExpectMutations(n int) {
	h.t.Helper()
	if len(h.last) != n {
		h.t.Errorf("mutations = %d, want %d\n%s", len(h.last), n, dump(h.last))
	}
}

// ExpectOps asserts how many ops of kind the last render produced.
//
// Example:
//
//	h.ExpectOps(record.OpInsertBefore, 1)
func (h *Harness) ExpectOps(kind record.OpKind, n int) {
	h.t.Helper()
	got := 0
	for _, op := range h.last {
		if op.Kind == kind {
			got++
		}
	}
	if got != n {
		h.t.Errorf("%s ops = %d, want %d\n%s", kind, got, n, dump(h.last))
	}
}

// ExpectNoChange re-renders tree and asserts that nothing was mutated.
func (h *Harness) ExpectNoChange(tree *vdom.VNode) {
	h.t.Helper()
	h.Render(tree)
	h.ExpectMutations(0)
}

// ExpectMatchesFresh asserts that the container's markup equals that of
// tree mounted into an empty surface.
func (h *Harness) ExpectMatchesFresh(tree *vdom.VNode) {
	h.t.Helper()
	want, err := render(tree)
	if err != nil {
		h.t.Fatalf("fresh render error = %v", err)
	}
	h.ExpectHTML(want)
}

// ExpectCode asserts that err carries the given error code.
//
// Example:
//
//	vtest.ExpectCode(t, h.RenderErr(tree), "R004")
func ExpectCode(t *testing.T, err error, code string) {
	t.Helper()
	if got := errors.CodeOf(err); got != code {
		t.Errorf("error code = %q, want %q (err = %v)", got, code, err)
	}
}

// RenderToString mounts node into an empty surface and returns its HTML.
// Render errors yield "".
//
// Example:
//
//	html := vtest.RenderToString(Card("Hello"))
func RenderToString(node *vdom.VNode) string {
	html, err := render(node)
	if err != nil {
		return ""
	}
	return html
}

func render(node *vdom.VNode) (string, error) {
	surf := memsurface.New()
	if err := reconcile.New(surf).Render(node, surf.Root()); err != nil {
		return "", err
	}
	return surf.InnerHTML(surf.Root()), nil
}

// ExpectContains asserts that rendered output contains expected substring.
func ExpectContains(t *testing.T, node *vdom.VNode, expected string) {
	t.Helper()
	html := RenderToString(node)
	if !strings.Contains(html, expected) {
		t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that rendered output does not contain substring.
func ExpectNotContains(t *testing.T, node *vdom.VNode, unexpected string) {
	t.Helper()
	html := RenderToString(node)
	if strings.Contains(html, unexpected) {
		t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that rendered output contains a specific tag.
func ExpectElement(t *testing.T, node *vdom.VNode, tag string) {
	t.Helper()
	html := RenderToString(node)
	if !strings.Contains(html, "<"+tag) {
		t.Errorf("expected rendered output to contain <%s> element, got:\n%s", tag, truncate(html, 500))
	}
}

// ExpectAttribute asserts that rendered output contains an attribute value.
//
// Example:
//
//	vtest.ExpectAttribute(t, Button(), "class", "btn-primary")
func ExpectAttribute(t *testing.T, node *vdom.VNode, attr, value string) {
	t.Helper()
	html := RenderToString(node)
	needle := attr + `="` + value + `"`
	if !strings.Contains(html, needle) {
		t.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(html, 500))
	}
}

func dump(ops []record.Op) string {
	var b strings.Builder
	for _, op := range ops {
		b.WriteString("  ")
		b.WriteString(op.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

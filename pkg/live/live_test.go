package live

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/memsurface"
	"github.com/vango-dev/vtree/pkg/metrics"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/reconcile"
	"github.com/vango-dev/vtree/pkg/surface"
	"github.com/vango-dev/vtree/pkg/vdom"
)

const listA = `
tag: ul
props:
  class: list
  style:
    color: red
children:
  - tag: li
    key: a
    children: A
  - tag: li
    key: b
    children: B
  - tag: li
    key: c
    children: C
`

const listB = `
tag: ul
props:
  class: list big
children:
  - tag: li
    key: c
    children: C
  - tag: li
    key: a
    props:
      title: first
    children: A!
  - tag: li
    key: d
    children: D
`

func newTestServer(t *testing.T, cfg Config) (*Hub, *httptest.Server) {
	t.Helper()
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.NewRegistry()
	}
	hub := New(cfg)
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *Mirror {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

// next applies one frame, failing the test instead of blocking forever.
func next(t *testing.T, m *Mirror) error {
	t.Helper()
	m.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return m.Next()
}

func do(t *testing.T, method, url, contentType, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func TestRenderBroadcastsToMirrors(t *testing.T) {
	hub, srv := newTestServer(t, Config{})

	status, body := do(t, http.MethodPost, srv.URL+"/render", "application/yaml", listA)
	if status != http.StatusOK {
		t.Fatalf("POST /render status = %d, body = %s", status, body)
	}
	if !strings.Contains(body, `"ops":`) {
		t.Errorf("POST /render body = %s", body)
	}

	// Joins after the first render: the snapshot frame carries the tree.
	m := dial(t, srv)
	if got, want := m.HTML(), hub.HTML(); got != want {
		t.Fatalf("mirror after snapshot = %q, want %q", got, want)
	}

	if status, body := do(t, http.MethodPost, srv.URL+"/render", "", listB); status != http.StatusOK {
		t.Fatalf("POST /render status = %d, body = %s", status, body)
	}
	if err := next(t, m); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got, want := m.HTML(), hub.HTML(); got != want {
		t.Errorf("mirror after patch = %q, want %q", got, want)
	}

	_, snap := do(t, http.MethodGet, srv.URL+"/snapshot", "", "")
	if snap != hub.HTML() {
		t.Errorf("GET /snapshot = %q, want %q", snap, hub.HTML())
	}
	if !strings.Contains(snap, `title="first"`) || !strings.Contains(snap, "A!") {
		t.Errorf("GET /snapshot = %q, missing patched content", snap)
	}
}

func TestMirrorJoinsEmpty(t *testing.T) {
	hub, srv := newTestServer(t, Config{})

	m := dial(t, srv)
	if m.HTML() != "" {
		t.Errorf("mirror of empty hub = %q, want empty", m.HTML())
	}
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", hub.ClientCount())
	}

	tree, err := vdom.DecodeYAML([]byte(listA), hub.Handlers())
	if err != nil {
		t.Fatal(err)
	}
	n, err := hub.Render(context.Background(), tree)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if n == 0 {
		t.Error("Render() broadcast no ops")
	}
	if err := next(t, m); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got, want := m.HTML(), hub.HTML(); got != want {
		t.Errorf("mirror = %q, want %q", got, want)
	}
}

func TestEventsReachServerHandlers(t *testing.T) {
	clicks := make(chan surface.Event, 4)
	handlers := vdom.HandlerSet{
		"ping": vdom.NewHandler(func(ev surface.Event) { clicks <- ev }),
	}
	hub, srv := newTestServer(t, Config{Handlers: handlers})

	tree := `
tag: div
props:
  "@click": ping
children:
  - tag: button
    children: go
`
	if status, body := do(t, http.MethodPost, srv.URL+"/render", "", tree); status != http.StatusOK {
		t.Fatalf("POST /render status = %d, body = %s", status, body)
	}

	m := dial(t, srv)
	button := m.Surface().Find(m.Surface().Root(), func(n *memsurface.Node) bool {
		return n.Tag() == "button"
	})
	if button == nil {
		t.Fatalf("mirror has no button: %q", m.HTML())
	}

	// The listener sits on the parent; the event bubbles to it on the
	// mirror and is sent to the hub once.
	if err := m.Dispatch(button, "click"); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	select {
	case ev := <-clicks:
		if ev.Type != "click" {
			t.Errorf("event type = %q, want click", ev.Type)
		}
		target := ev.Target.(*memsurface.Node)
		if target.Tag() != "button" {
			t.Errorf("event target = <%s>, want <button>", target.Tag())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}

	select {
	case <-clicks:
		t.Error("handler called twice for one dispatch")
	case <-time.After(50 * time.Millisecond):
	}

	if err := hub.Dispatch(protocol.Event{Node: 999, Type: "click"}); errors.CodeOf(err) != "P001" {
		t.Errorf("Dispatch(unknown node) error = %v, want P001", err)
	}
}

func TestUnmount(t *testing.T) {
	hub, srv := newTestServer(t, Config{})

	status, body := do(t, http.MethodDelete, srv.URL+"/render", "", "")
	if status != http.StatusNotFound || !strings.Contains(body, `"R005"`) {
		t.Errorf("DELETE /render on empty hub = %d %s, want 404 R005", status, body)
	}

	do(t, http.MethodPost, srv.URL+"/render", "", listA)
	m := dial(t, srv)

	if status, body := do(t, http.MethodDelete, srv.URL+"/render", "", ""); status != http.StatusOK {
		t.Fatalf("DELETE /render status = %d, body = %s", status, body)
	}
	if hub.Mounted() {
		t.Error("Mounted() = true after unmount")
	}
	if err := next(t, m); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if m.HTML() != "" {
		t.Errorf("mirror after unmount = %q, want empty", m.HTML())
	}
}

func TestBadRequests(t *testing.T) {
	_, srv := newTestServer(t, Config{KeyPolicy: reconcile.KeysStrict})

	dupKeys := `
tag: ul
children:
  - tag: li
    key: x
  - tag: li
    key: x
`
	tests := []struct {
		name        string
		contentType string
		body        string
		status      int
		code        string
	}{
		{"invalid yaml", "", "tag: [", http.StatusBadRequest, "F001"},
		{"invalid json", "application/json", "{", http.StatusBadRequest, "F001"},
		{"two html roots", "text/html", "<p>a</p><p>b</p>", http.StatusBadRequest, "F002"},
		{"duplicate keys", "", dupKeys, http.StatusUnprocessableEntity, "R004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, http.MethodPost, srv.URL+"/render", tt.contentType, tt.body)
			if status != tt.status {
				t.Errorf("status = %d, want %d (body %s)", status, tt.status, body)
			}
			if !strings.Contains(body, `"code":"`+tt.code+`"`) {
				t.Errorf("body = %s, want code %s", body, tt.code)
			}
		})
	}
}

func TestHTMLBody(t *testing.T) {
	hub, srv := newTestServer(t, Config{})

	status, body := do(t, http.MethodPost, srv.URL+"/render", "text/html; charset=utf-8", `<p class="x">hi <b>there</b></p>`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %s", status, body)
	}
	if got := hub.HTML(); !strings.Contains(got, `class="x"`) || !strings.Contains(got, "<b>there</b>") {
		t.Errorf("HTML() = %q", got)
	}
}

func TestRenderErrorFrame(t *testing.T) {
	hub, srv := newTestServer(t, Config{KeyPolicy: reconcile.KeysStrict})
	m := dial(t, srv)

	tree := vdom.Ul(vdom.Li(vdom.Key("x")), vdom.Li(vdom.Key("x")))
	if _, err := hub.Render(context.Background(), tree); errors.CodeOf(err) != "R004" {
		t.Fatalf("Render() error = %v, want R004", err)
	}

	// Partial ops may precede the error frame.
	var err error
	for i := 0; i < 2 && err == nil; i++ {
		err = next(t, m)
	}
	if errors.CodeOf(err) != "P001" || !strings.Contains(err.Error(), "R004") {
		t.Errorf("Next() error = %v, want P001 carrying R004", err)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, srv := newTestServer(t, Config{
		Metrics:  metrics.New(metrics.WithRegistry(reg)),
		Gatherer: reg,
	})

	do(t, http.MethodPost, srv.URL+"/render", "", listA)

	status, body := do(t, http.MethodGet, srv.URL+"/metrics", "", "")
	if status != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", status)
	}
	if !strings.Contains(body, `vtree_renders_total{mode="mount",status="success"} 1`) {
		t.Errorf("GET /metrics missing render counter:\n%s", body)
	}
}

func TestClose(t *testing.T) {
	hub, srv := newTestServer(t, Config{})
	m := dial(t, srv)

	hub.Close()
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
	if err := next(t, m); err == nil {
		t.Error("Next() after Close should fail")
	}
}

func TestSnapshotOpsRebuildTree(t *testing.T) {
	hub := New(Config{Gatherer: prometheus.NewRegistry()})
	defer hub.Close()

	tree := vdom.Div(
		vdom.ID("root"),
		vdom.Class("card", "wide"),
		vdom.Style("color", "red", "margin", "0"),
		vdom.OnClick(func(surface.Event) {}),
		vdom.P("text ", vdom.Strong("bold")),
		vdom.Input(vdom.Type("text"), vdom.Disabled(true)),
	)
	if _, err := hub.Render(context.Background(), tree); err != nil {
		t.Fatal(err)
	}

	hub.mu.Lock()
	ops := hub.snapshotOps()
	hub.mu.Unlock()

	mirror := memsurface.New()
	if err := protocol.Replay(ops, mirror, mirror.Root()); err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if got, want := mirror.InnerHTML(mirror.Root()), hub.HTML(); got != want {
		t.Errorf("rebuilt = %q, want %q", got, want)
	}

	div := mirror.Find(mirror.Root(), func(n *memsurface.Node) bool { return n.Tag() == "div" })
	if div == nil || len(div.Listeners("click")) != 1 {
		t.Error("rebuilt div should carry one click listener")
	}
}

func countNodes(n *memsurface.Node) int {
	total := 1
	for _, child := range n.Children() {
		total += countNodes(child)
	}
	return total
}

func TestReplacedNodesAreForgotten(t *testing.T) {
	hub, srv := newTestServer(t, Config{})

	for i := 0; i < 1000; i++ {
		var tree *vdom.VNode
		if i%2 == 0 {
			tree = vdom.Div(vdom.Li("a"), vdom.Li("b"))
		} else {
			tree = vdom.Span(vdom.Li("a"), vdom.Li("b"))
		}
		if _, err := hub.Render(context.Background(), tree); err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
	}

	live := countNodes(hub.Surface().RootNode())
	if got := hub.Tracked(); got != live {
		t.Errorf("Tracked() = %d after 1000 replacements, want %d live nodes", got, live)
	}

	fresh := dial(t, srv)
	if got, want := fresh.HTML(), hub.HTML(); got != want {
		t.Errorf("mirror = %q, want %q", got, want)
	}
	if got := fresh.replayer.Tracked(); got != live {
		t.Errorf("mirror Tracked() = %d, want %d", got, live)
	}

	if _, err := hub.Unmount(); err != nil {
		t.Fatal(err)
	}
	if got := hub.Tracked(); got != 1 {
		t.Errorf("Tracked() after Unmount = %d, want 1", got)
	}
}

func TestMirrorFollowsReplacements(t *testing.T) {
	hub, srv := newTestServer(t, Config{})
	m := dial(t, srv)

	for i := 0; i < 150; i++ {
		click := vdom.OnClick(func(surface.Event) {})
		tree := vdom.Div(click, vdom.Li("a"), vdom.Li("b"))
		if i%2 == 1 {
			tree = vdom.Span(click, vdom.Li("a"), vdom.Li("b"))
		}
		if _, err := hub.Render(context.Background(), tree); err != nil {
			t.Fatal(err)
		}
		if err := next(t, m); err != nil {
			t.Fatalf("render %d: Next() error = %v", i, err)
		}
	}
	if got, want := m.HTML(), hub.HTML(); got != want {
		t.Errorf("mirror = %q, want %q", got, want)
	}
	if got, want := m.replayer.Tracked(), hub.Tracked(); got != want {
		t.Errorf("mirror Tracked() = %d, want %d", got, want)
	}
	if n := hub.rec.Listeners(); n > 2+listenerSlack {
		t.Errorf("listener numbers = %d after 150 renders, want at most %d", n, 2+listenerSlack)
	}

	root := m.Surface().Find(m.Surface().Root(), func(n *memsurface.Node) bool { return n.Tag() != "li" && !n.IsText() && n.Parent() != nil })
	if root == nil || len(root.Listeners("click")) != 1 {
		t.Error("mirrored root should carry exactly one click listener")
	}
}

func TestLargeTreeReachesMirrors(t *testing.T) {
	hub, srv := newTestServer(t, Config{})
	m := dial(t, srv)

	items := make([]*vdom.VNode, 30000)
	for i := range items {
		items[i] = vdom.Li("x")
	}
	n, err := hub.Render(context.Background(), vdom.Ul(items))
	if err != nil {
		t.Fatal(err)
	}
	if n <= protocol.MaxOpCount {
		t.Fatalf("Render() = %d ops, want more than %d", n, protocol.MaxOpCount)
	}

	if err := next(t, m); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	want := hub.HTML()
	if m.HTML() != want {
		t.Error("mirror differs from the hub after a large render")
	}

	// The snapshot of the same tree is split as well.
	late := dial(t, srv)
	if late.HTML() != want {
		t.Error("late mirror differs from the hub")
	}
}

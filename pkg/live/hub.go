package live

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/memsurface"
	"github.com/vango-dev/vtree/pkg/metrics"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/reconcile"
	"github.com/vango-dev/vtree/pkg/record"
	"github.com/vango-dev/vtree/pkg/surface"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Defaults for Config fields left zero.
const (
	DefaultWriteTimeout = 5 * time.Second
	DefaultMaxBodyBytes = 1 << 20
)

// Config configures a Hub.
type Config struct {
	// Logger receives connection and render logs. Nil discards them.
	Logger *slog.Logger

	// Metrics is passed to the renderer. Nil disables render metrics.
	Metrics *metrics.Metrics

	// Gatherer backs GET /metrics. Nil uses prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Tracer is passed to the renderer when set.
	Tracer trace.Tracer

	// KeyPolicy selects how duplicate sibling keys are handled.
	KeyPolicy reconcile.KeyPolicy

	// Handlers resolves handler names in trees posted to /render.
	// Preregistered handlers run when clients send events.
	Handlers vdom.HandlerSet

	// WriteTimeout bounds each WebSocket write.
	WriteTimeout time.Duration

	// MaxBodyBytes limits POST /render bodies.
	MaxBodyBytes int64

	// CheckOrigin validates WebSocket upgrade origins. Nil allows all.
	CheckOrigin func(r *http.Request) bool
}

// Hub holds the served tree and its WebSocket clients. All renders and
// frame writes are serialized by one lock.
type Hub struct {
	mu       sync.Mutex
	surf     *memsurface.Surface
	rec      *record.Surface
	renderer *reconcile.Renderer
	clients  map[*websocket.Conn]struct{}
	closed   bool

	// Listener count after the last prune.
	heldListeners int

	handlers     vdom.HandlerSet
	logger       *slog.Logger
	gatherer     prometheus.Gatherer
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	maxBody      int64
	router       chi.Router
}

// New creates a Hub with an empty tree.
func New(cfg Config) *Hub {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Handlers == nil {
		cfg.Handlers = vdom.HandlerSet{}
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.CheckOrigin == nil {
		cfg.CheckOrigin = func(*http.Request) bool { return true }
	}

	surf := memsurface.New()
	rec := record.New(surf, surf.Root())

	opts := []reconcile.Option{
		reconcile.WithLogger(cfg.Logger),
		reconcile.WithMetrics(cfg.Metrics),
		reconcile.WithKeyPolicy(cfg.KeyPolicy),
	}
	if cfg.Tracer != nil {
		opts = append(opts, reconcile.WithTracer(cfg.Tracer))
	}

	h := &Hub{
		surf:     surf,
		rec:      rec,
		renderer: reconcile.New(rec, opts...),
		clients:  make(map[*websocket.Conn]struct{}),
		handlers: cfg.Handlers,
		logger:   cfg.Logger,
		gatherer: cfg.Gatherer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
		writeTimeout: cfg.WriteTimeout,
		maxBody:      cfg.MaxBodyBytes,
	}
	h.router = h.routes()
	return h
}

// Handler returns the HTTP handler serving the hub's routes.
func (h *Hub) Handler() http.Handler {
	return h.router
}

// Surface returns the server-side surface.
func (h *Hub) Surface() *memsurface.Surface {
	return h.surf
}

// Handlers returns the handler set used to decode posted trees.
func (h *Hub) Handlers() vdom.HandlerSet {
	return h.handlers
}

// Render reconciles the served tree to tree and broadcasts the resulting
// ops. A nil tree unmounts. It returns the number of ops broadcast.
//
// On failure the ops applied before the error are still broadcast, followed
// by an error frame, so clients keep matching the server surface.
func (h *Hub) Render(ctx context.Context, tree *vdom.VNode) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	err := h.renderer.RenderContext(ctx, tree, h.surf.Root())
	return h.flush(err), err
}

// Unmount removes the served tree. It fails with R005 when nothing is
// mounted.
func (h *Hub) Unmount() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	err := h.renderer.Unmount(h.surf.Root())
	return h.flush(err), err
}

// flush broadcasts the recorded ops, and err if not nil.
func (h *Hub) flush(err error) int {
	h.release(h.rec.Ops())
	h.pruneListeners()
	ops := h.rec.Reset()
	if len(ops) > 0 {
		h.broadcast(protocol.EncodeOps(ops)...)
	}
	if err != nil {
		h.logger.Error("render failed", "code", errors.CodeOf(err), "error", err)
		h.broadcast(protocol.EncodeError(err.Error()))
	}
	return len(ops)
}

// release forgets the nodes a render created or removed that ended up
// outside the tree, with their subtrees. The renderer never reuses a node
// it removed, and a failed render drops everything it created, so these
// numbers are not referenced again.
func (h *Hub) release(ops []record.Op) {
	for _, op := range ops {
		switch op.Kind {
		case record.OpCreateElement, record.OpCreateText, record.OpRemoveChild:
		default:
			continue
		}
		handle, ok := h.rec.Handle(op.Node)
		if !ok {
			continue
		}
		if n, ok := handle.(*memsurface.Node); ok && n.Parent() == nil {
			h.forget(n)
		}
	}
}

func (h *Hub) forget(n *memsurface.Node) {
	for _, child := range n.Children() {
		h.forget(child)
	}
	h.rec.Forget(n)
}

// listenerSlack is the growth of the listener table tolerated before a
// prune walks the tree.
const listenerSlack = 64

// pruneListeners forgets the numbers of listeners no node in the tree
// holds. It walks the tree only once the table has doubled since the last
// pass.
func (h *Hub) pruneListeners() {
	if h.rec.Listeners() <= 2*h.heldListeners+listenerSlack {
		return
	}
	var held []surface.Listener
	var walk func(n *memsurface.Node)
	walk = func(n *memsurface.Node) {
		for _, event := range n.Events() {
			held = append(held, n.Listeners(event)...)
		}
		for _, child := range n.Children() {
			walk(child)
		}
	}
	walk(h.surf.RootNode())

	h.rec.RetainListeners(held)
	h.heldListeners = h.rec.Listeners()
}

// Tracked returns the number of nodes holding a wire number, the root
// included.
func (h *Hub) Tracked() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rec.Tracked()
}

// HTML returns the served tree as HTML.
func (h *Hub) HTML() string {
	return h.surf.InnerHTML(h.surf.Root())
}

// Mounted reports whether a tree is mounted.
func (h *Hub) Mounted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.renderer.Current(h.surf.Root()) != nil
}

// Dispatch raises ev on the server surface. Listeners run without the hub
// lock held, so they may call Render.
func (h *Hub) Dispatch(ev protocol.Event) error {
	h.mu.Lock()
	target, ok := h.rec.Handle(ev.Node)
	h.mu.Unlock()
	if !ok {
		return errors.New("P001").WithDetailf("event %q on unknown node #%d", ev.Type, ev.Node)
	}

	h.logger.Debug("event", "node", ev.Node, "type", ev.Type)
	return h.surf.Dispatch(target, surface.Event{Type: ev.Type})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client. Later connections are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing")
	for conn := range h.clients {
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.writeTimeout))
		conn.Close()
		delete(h.clients, conn)
	}
}

// broadcast sends frames to all clients. Clients that fail are dropped.
// Callers hold h.mu.
func (h *Hub) broadcast(frames ...[]byte) {
	for conn := range h.clients {
		if err := h.write(conn, frames...); err != nil {
			h.logger.Error("websocket write failed", "remote", conn.RemoteAddr().String(), "error", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, frames ...[]byte) error {
	for _, frame := range frames {
		conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return err
		}
	}
	return nil
}

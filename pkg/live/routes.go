package live

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// RenderResponse is the body of a successful POST or DELETE /render.
type RenderResponse struct {
	Ops     int `json:"ops"`
	Clients int `json:"clients"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

func (h *Hub) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/render", h.handleRender)
	r.Delete("/render", h.handleUnmount)
	r.Get("/snapshot", h.handleSnapshot)
	r.Get("/ws", h.HandleWebSocket)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	return r
}

func (h *Hub) handleRender(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}

	tree, err := h.decodeTree(r.Header.Get("Content-Type"), body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	n, err := h.Render(r.Context(), tree)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, RenderResponse{Ops: n, Clients: h.ClientCount()})
}

func (h *Hub) handleUnmount(w http.ResponseWriter, r *http.Request) {
	n, err := h.Unmount()
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.CodeOf(err) == "R005" {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, RenderResponse{Ops: n, Clients: h.ClientCount()})
}

func (h *Hub) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, h.HTML())
}

// decodeTree decodes a posted tree. HTML bodies must hold exactly one root
// node; anything else is read as YAML, which also accepts JSON.
func (h *Hub) decodeTree(contentType string, body []byte) (*vdom.VNode, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/json":
		return vdom.DecodeJSON(body, h.handlers)
	case "text/html":
		nodes, err := vdom.ParseHTML(bytes.NewReader(body), h.handlers)
		if err != nil {
			return nil, err
		}
		if len(nodes) != 1 {
			return nil, errors.New("F002").WithDetailf("expected exactly one root node, found %d", len(nodes))
		}
		return nodes[0], nil
	default:
		return vdom.DecodeYAML(body, h.handlers)
	}
}

// HandleWebSocket upgrades the request and streams op frames to the client,
// starting with a snapshot of the current tree.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	err = h.write(conn, protocol.EncodeFrames(protocol.FrameSnapshot, h.snapshotOps())...)
	if err == nil {
		h.clients[conn] = struct{}{}
	}
	clients := len(h.clients)
	h.mu.Unlock()

	if err != nil {
		h.logger.Error("websocket write failed", "remote", r.RemoteAddr, "error", err)
		conn.Close()
		return
	}
	h.logger.Info("client connected", "remote", r.RemoteAddr, "clients", clients)

	h.readLoop(conn)

	h.mu.Lock()
	delete(h.clients, conn)
	clients = len(h.clients)
	h.mu.Unlock()
	conn.Close()

	h.logger.Info("client disconnected", "remote", r.RemoteAddr, "clients", clients)
}

// readLoop handles event frames until the connection fails.
func (h *Hub) readLoop(conn *websocket.Conn) {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}

		ev, err := protocol.DecodeEvent(data)
		if err == nil {
			err = h.Dispatch(ev)
		}
		if err != nil {
			h.logger.Warn("bad event from client", "remote", conn.RemoteAddr().String(), "error", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Code: errors.CodeOf(err), Error: err.Error()})
}

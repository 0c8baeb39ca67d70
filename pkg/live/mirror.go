package live

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vtree/pkg/memsurface"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/surface"
)

// Mirror is a client that keeps a copy of a hub's tree in its own surface.
// Events dispatched on the copy are sent back to the hub. Next and Dispatch
// must not be called concurrently.
type Mirror struct {
	conn     *websocket.Conn
	surf     *memsurface.Surface
	replayer *protocol.Replayer

	mu      sync.Mutex
	pending bool
	sendErr error
}

// Dial connects to a hub's /ws endpoint, e.g. "ws://localhost:7070/ws".
// The snapshot frame is applied before Dial returns.
func Dial(ctx context.Context, url string) (*Mirror, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	surf := memsurface.New()
	m := &Mirror{
		conn:     conn,
		surf:     surf,
		replayer: protocol.NewReplayer(surf, surf.Root()),
	}
	m.replayer.OnEvent(m.forward)

	if err := m.Next(); err != nil {
		conn.Close()
		return nil, err
	}
	return m, nil
}

// Surface returns the mirrored surface.
func (m *Mirror) Surface() *memsurface.Surface {
	return m.surf
}

// HTML returns the mirrored tree as HTML.
func (m *Mirror) HTML() string {
	return m.surf.InnerHTML(m.surf.Root())
}

// Next reads frames until one batch is complete and applies it. Error
// frames are returned as P001 errors; the mirror stays usable.
func (m *Mirror) Next() error {
	for {
		_, data, err := m.conn.ReadMessage()
		if err != nil {
			return err
		}
		if err := m.replayer.ApplyFrame(data); err != nil {
			return err
		}
		if !m.replayer.Pending() {
			return nil
		}
	}
}

// Dispatch raises an event on a mirrored node. When a listener on the node
// or one of its ancestors receives it, the event is sent to the hub once.
func (m *Mirror) Dispatch(h surface.Handle, eventType string) error {
	m.mu.Lock()
	m.pending = true
	m.sendErr = nil
	m.mu.Unlock()

	if err := m.surf.Dispatch(h, surface.Event{Type: eventType}); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = false
	return m.sendErr
}

// forward is the RemoteListener callback.
func (m *Mirror) forward(_ int, ev surface.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.pending {
		return
	}
	m.pending = false

	id, ok := m.replayer.ID(ev.Target)
	if !ok {
		return
	}
	m.sendErr = m.conn.WriteMessage(websocket.BinaryMessage, protocol.EncodeEvent(protocol.Event{Node: id, Type: ev.Type}))
}

// Close closes the connection.
func (m *Mirror) Close() error {
	return m.conn.Close()
}

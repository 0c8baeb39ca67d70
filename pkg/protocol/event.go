package protocol

import (
	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/record"
)

// Event is an event raised on a mirrored node.
type Event struct {
	Node int    // Node number as assigned by record.Surface
	Type string // Event name without the binding prefix
}

// EncodeEvent encodes ev as a FrameEvent frame.
func EncodeEvent(ev Event) []byte {
	e := NewEncoder()
	e.WriteUvarint(uint64(ev.Node))
	e.WriteString(ev.Type)
	return NewFrame(FrameEvent, e.Bytes()).Encode()
}

// DecodeEvent decodes a FrameEvent frame.
func DecodeEvent(data []byte) (Event, error) {
	f, err := DecodeFrame(data)
	if err != nil {
		return Event{}, malformed("frame", err)
	}
	if f.Type != FrameEvent {
		return Event{}, malformed("frame", ErrInvalidFrameType).WithDetailf("unexpected %s frame", f.Type)
	}

	d := NewDecoder(f.Payload)
	node, err := d.ReadInt()
	if err != nil {
		return Event{}, malformed("event node", err)
	}
	typ, err := d.ReadString()
	if err != nil {
		return Event{}, malformed("event type", err)
	}
	if !d.EOF() {
		return Event{}, errors.New("P001").WithDetailf("event: %d trailing bytes", d.Remaining())
	}
	if node == 0 || node == record.RootID || typ == "" {
		return Event{}, errors.New("P001").WithDetailf("event: invalid target #%d %q", node, typ)
	}
	return Event{Node: node, Type: typ}, nil
}

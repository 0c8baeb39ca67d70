package protocol

import (
	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/record"
	"github.com/vango-dev/vtree/pkg/surface"
)

// RemoteListener stands in for a listener that lives in another process.
// Replayed trees carry one per recorded listener number; it ignores events
// unless the Replayer was given an event callback.
type RemoteListener struct {
	ID int

	owner *Replayer
}

// HandleEvent implements surface.Listener.
func (l *RemoteListener) HandleEvent(ev surface.Event) {
	if l.owner != nil && l.owner.onEvent != nil {
		l.owner.onEvent(l.ID, ev)
	}
}

// Replayer applies op streams to a surface, keeping node numbers across
// frames.
type Replayer struct {
	surf      surface.Surface
	root      surface.Handle
	nodes     map[int]surface.Handle
	listeners map[int]*RemoteListener
	rootKids  map[int]struct{}
	onEvent   func(id int, ev surface.Event)

	// Ops of frames received without FlagFinal.
	batch     []record.Op
	batchType FrameType
	partial   bool
}

// NewReplayer creates a Replayer that maps record.RootID to root.
func NewReplayer(s surface.Surface, root surface.Handle) *Replayer {
	r := &Replayer{
		surf:      s,
		root:      root,
		listeners: make(map[int]*RemoteListener),
	}
	r.reset()
	return r
}

// OnEvent sets the callback invoked when a RemoteListener of this Replayer
// receives an event.
func (r *Replayer) OnEvent(fn func(id int, ev surface.Event)) {
	r.onEvent = fn
}

// Handle returns the local handle for a remote node number.
func (r *Replayer) Handle(id int) (surface.Handle, bool) {
	h, ok := r.nodes[id]
	return h, ok
}

// Tracked returns the number of node numbers held, the root included.
func (r *Replayer) Tracked() int {
	return len(r.nodes)
}

// ID returns the remote node number of a local handle.
func (r *Replayer) ID(h surface.Handle) (int, bool) {
	for id, local := range r.nodes {
		if local == h {
			return id, true
		}
	}
	return 0, false
}

func (r *Replayer) reset() {
	r.nodes = map[int]surface.Handle{record.RootID: r.root}
	r.rootKids = make(map[int]struct{})
}

// ApplyFrame decodes one frame. Ops frames without FlagFinal are held back
// and applied together with the rest of their batch when the final frame
// arrives. A FrameSnapshot batch empties the root and forgets all node
// numbers first; a FrameError drops any held frames and is returned as a
// P001 error carrying the message.
func (r *Replayer) ApplyFrame(data []byte) error {
	f, err := DecodeFrame(data)
	if err != nil {
		return malformed("frame", err)
	}
	switch f.Type {
	case FrameError:
		r.dropBatch()
		return errors.New("P001").WithDetail("remote: " + string(f.Payload))
	case FrameEvent:
		return malformed("frame", ErrInvalidFrameType).WithDetail("unexpected Event frame")
	}
	if r.partial && f.Type != r.batchType {
		r.dropBatch()
		return malformed("frame", ErrInvalidFrameType).WithDetailf("%s frame inside a %s batch", f.Type, r.batchType)
	}

	ops, err := DecodePayload(f.Payload)
	if err != nil {
		r.dropBatch()
		return err
	}
	if !f.Flags.Has(FlagFinal) {
		r.partial = true
		r.batchType = f.Type
		r.batch = append(r.batch, ops...)
		return nil
	}
	if r.partial {
		ops = append(r.batch, ops...)
		r.dropBatch()
	}

	if f.Type == FrameSnapshot {
		if err := r.clearRoot(); err != nil {
			return err
		}
		r.reset()
	}
	return r.Apply(ops)
}

// Pending reports whether frames of an unfinished batch are held back.
func (r *Replayer) Pending() bool {
	return r.partial
}

func (r *Replayer) dropBatch() {
	r.batch = nil
	r.partial = false
}

// clearRoot detaches every node this Replayer attached to the root.
func (r *Replayer) clearRoot() error {
	for id := range r.rootKids {
		if err := r.surf.RemoveChild(r.root, r.nodes[id]); err != nil {
			return errors.New("P001").WithDetailf("clear root #%d", id).Wrap(err)
		}
		delete(r.rootKids, id)
	}
	return nil
}

// Apply applies ops in order, stopping at the first failure.
func (r *Replayer) Apply(ops []record.Op) error {
	for i, op := range ops {
		if err := r.apply(op); err != nil {
			return errors.New("P001").WithDetailf("op %d: %s", i, op).Wrap(err)
		}
		r.track(op)
	}
	return nil
}

func (r *Replayer) apply(op record.Op) error {
	switch op.Kind {
	case record.OpCreateElement:
		h, err := r.surf.CreateElement(op.Name)
		if err != nil {
			return err
		}
		r.nodes[op.Node] = h
		return nil
	case record.OpCreateText:
		h, err := r.surf.CreateText(op.Value)
		if err != nil {
			return err
		}
		r.nodes[op.Node] = h
		return nil
	case record.OpForget:
		if op.Listener != 0 {
			delete(r.listeners, op.Listener)
			return nil
		}
		if op.Node == record.RootID {
			return errors.Newf(errors.CategoryProtocol, "cannot forget the root")
		}
		if _, err := r.lookup(op.Node); err != nil {
			return err
		}
		delete(r.nodes, op.Node)
		return nil
	}

	node, err := r.lookup(op.Node)
	if err != nil {
		return err
	}
	switch op.Kind {
	case record.OpSetAttribute:
		return r.surf.SetAttribute(node, op.Name, op.Value)
	case record.OpRemoveAttribute:
		return r.surf.RemoveAttribute(node, op.Name)
	case record.OpSetStyle:
		return r.surf.SetStyle(node, op.Name, op.Value)
	case record.OpClearStyle:
		return r.surf.ClearStyle(node, op.Name)
	case record.OpSetClass:
		return r.surf.SetClass(node, op.Value)
	case record.OpSetText:
		return r.surf.SetText(node, op.Value)
	case record.OpAddListener:
		return r.surf.AddEventListener(node, op.Name, r.listener(op.Listener))
	case record.OpRemoveListener:
		return r.surf.RemoveEventListener(node, op.Name, r.listener(op.Listener))
	}

	parent, err := r.lookup(op.Parent)
	if err != nil {
		return err
	}
	switch op.Kind {
	case record.OpAppendChild:
		return r.surf.AppendChild(parent, node)
	case record.OpInsertBefore:
		var ref surface.Handle
		if op.Ref != 0 {
			if ref, err = r.lookup(op.Ref); err != nil {
				return err
			}
		}
		return r.surf.InsertBefore(parent, node, ref)
	case record.OpRemoveChild:
		return r.surf.RemoveChild(parent, node)
	default:
		return errors.Newf(errors.CategoryProtocol, "unknown op kind %d", op.Kind)
	}
}

// track follows which nodes sit directly under the root.
func (r *Replayer) track(op record.Op) {
	switch op.Kind {
	case record.OpAppendChild, record.OpInsertBefore:
		if op.Parent == record.RootID {
			r.rootKids[op.Node] = struct{}{}
		} else {
			delete(r.rootKids, op.Node)
		}
	case record.OpRemoveChild, record.OpForget:
		delete(r.rootKids, op.Node)
	}
}

func (r *Replayer) lookup(id int) (surface.Handle, error) {
	h, ok := r.nodes[id]
	if !ok {
		return nil, errors.Newf(errors.CategoryProtocol, "unknown node #%d", id)
	}
	return h, nil
}

func (r *Replayer) listener(id int) *RemoteListener {
	l, ok := r.listeners[id]
	if !ok {
		l = &RemoteListener{ID: id, owner: r}
		r.listeners[id] = l
	}
	return l
}

// Replay applies ops to a fresh Replayer rooted at root.
func Replay(ops []record.Op, s surface.Surface, root surface.Handle) error {
	return NewReplayer(s, root).Apply(ops)
}

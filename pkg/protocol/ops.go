package protocol

import (
	"io"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/record"
)

// Field mask bits of an encoded op.
const (
	fieldNode byte = 1 << iota
	fieldParent
	fieldRef
	fieldName
	fieldValue
	fieldListener

	fieldAll = fieldNode | fieldParent | fieldRef | fieldName | fieldValue | fieldListener
)

// maxChunkBytes bounds the op bytes packed into one frame. One op holds at
// most two MaxStringSize strings, so a chunk that crosses the bound still
// fits MaxPayloadSize.
const maxChunkBytes = MaxPayloadSize / 2

// EncodeOps encodes ops as FrameOps frames.
func EncodeOps(ops []record.Op) [][]byte {
	return EncodeFrames(FrameOps, ops)
}

// EncodeFrames encodes ops as a batch of frames of type ft. A frame holds
// at most MaxOpCount ops and maxChunkBytes of op data; only the last one
// carries FlagFinal. No ops give a single empty final frame.
func EncodeFrames(ft FrameType, ops []record.Op) [][]byte {
	var frames [][]byte
	body := NewEncoder()
	n := 0
	emit := func(flags FrameFlags) {
		e := NewEncoder()
		e.WriteUvarint(uint64(n))
		e.WriteBytes(body.Bytes())
		f := NewFrame(ft, e.Bytes())
		f.Flags = flags
		frames = append(frames, f.Encode())
		body.Reset()
		n = 0
	}

	for i, op := range ops {
		appendOp(body, op)
		n++
		if i < len(ops)-1 && (n == MaxOpCount || body.Len() >= maxChunkBytes) {
			emit(0)
		}
	}
	emit(FlagFinal)
	return frames
}

// ReadOps reads frames from r until one carries FlagFinal and returns the
// ops of the whole batch.
func ReadOps(r io.Reader) ([]record.Op, error) {
	var ops []record.Op
	for {
		f, err := ReadFrame(r)
		if err != nil {
			return nil, malformed("frame", err)
		}
		if f.Type != FrameOps && f.Type != FrameSnapshot {
			return nil, malformed("frame", ErrInvalidFrameType).WithDetailf("unexpected %s frame", f.Type)
		}
		chunk, err := DecodePayload(f.Payload)
		if err != nil {
			return nil, err
		}
		ops = append(ops, chunk...)
		if f.Flags.Has(FlagFinal) {
			return ops, nil
		}
	}
}

// EncodeError encodes msg as a FrameError frame.
func EncodeError(msg string) []byte {
	return NewFrame(FrameError, []byte(msg)).Encode()
}

// AppendOps appends an ops payload to e.
func AppendOps(e *Encoder, ops []record.Op) {
	e.WriteUvarint(uint64(len(ops)))
	for _, op := range ops {
		appendOp(e, op)
	}
}

func appendOp(e *Encoder, op record.Op) {
	var mask byte
	if op.Node != 0 {
		mask |= fieldNode
	}
	if op.Parent != 0 {
		mask |= fieldParent
	}
	if op.Ref != 0 {
		mask |= fieldRef
	}
	if op.Name != "" {
		mask |= fieldName
	}
	if op.Value != "" {
		mask |= fieldValue
	}
	if op.Listener != 0 {
		mask |= fieldListener
	}

	e.WriteByte(byte(op.Kind))
	e.WriteByte(mask)
	if mask&fieldNode != 0 {
		e.WriteUvarint(uint64(op.Node))
	}
	if mask&fieldParent != 0 {
		e.WriteUvarint(uint64(op.Parent))
	}
	if mask&fieldRef != 0 {
		e.WriteUvarint(uint64(op.Ref))
	}
	if mask&fieldName != 0 {
		e.WriteString(op.Name)
	}
	if mask&fieldValue != 0 {
		e.WriteString(op.Value)
	}
	if mask&fieldListener != 0 {
		e.WriteUvarint(uint64(op.Listener))
	}
}

// DecodeOps decodes a single FrameOps or FrameSnapshot frame. Use a
// Replayer or ReadOps for batches split over several frames.
func DecodeOps(data []byte) ([]record.Op, error) {
	f, err := DecodeFrame(data)
	if err != nil {
		return nil, malformed("frame", err)
	}
	if f.Type != FrameOps && f.Type != FrameSnapshot {
		return nil, malformed("frame", ErrInvalidFrameType).WithDetailf("unexpected %s frame", f.Type)
	}
	return DecodePayload(f.Payload)
}

// DecodePayload decodes an ops payload without a frame header.
func DecodePayload(payload []byte) ([]record.Op, error) {
	d := NewDecoder(payload)
	n, err := d.ReadCount()
	if err != nil {
		return nil, malformed("op count", err)
	}
	ops := make([]record.Op, 0, n)
	for i := 0; i < n; i++ {
		op, err := readOp(d)
		if err != nil {
			return nil, malformed("op", err).WithDetailf("op %d at byte %d", i, d.Position())
		}
		ops = append(ops, op)
	}
	if !d.EOF() {
		return nil, malformed("payload", nil).WithDetailf("%d trailing bytes", d.Remaining())
	}
	return ops, nil
}

func readOp(d *Decoder) (record.Op, error) {
	var op record.Op
	kind, err := d.ReadByte()
	if err != nil {
		return op, err
	}
	op.Kind = record.OpKind(kind)
	if !op.Kind.Valid() {
		return op, errors.Newf(errors.CategoryProtocol, "unknown op kind %d", kind)
	}
	mask, err := d.ReadByte()
	if err != nil {
		return op, err
	}
	if mask&^fieldAll != 0 {
		return op, errors.Newf(errors.CategoryProtocol, "invalid field mask %#x", mask)
	}

	if mask&fieldNode != 0 {
		if op.Node, err = d.ReadInt(); err != nil {
			return op, err
		}
	}
	if mask&fieldParent != 0 {
		if op.Parent, err = d.ReadInt(); err != nil {
			return op, err
		}
	}
	if mask&fieldRef != 0 {
		if op.Ref, err = d.ReadInt(); err != nil {
			return op, err
		}
	}
	if mask&fieldName != 0 {
		if op.Name, err = d.ReadString(); err != nil {
			return op, err
		}
	}
	if mask&fieldValue != 0 {
		if op.Value, err = d.ReadString(); err != nil {
			return op, err
		}
	}
	if mask&fieldListener != 0 {
		if op.Listener, err = d.ReadInt(); err != nil {
			return op, err
		}
	}
	return op, nil
}

func malformed(what string, err error) *errors.Error {
	e := errors.New("P001").WithDetail("bad " + what)
	if err != nil {
		e = e.Wrap(err)
	}
	return e
}

package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// Frame constants.
const (
	// FrameHeaderSize is the size of the frame header in bytes.
	FrameHeaderSize = 6

	// MaxPayloadSize is the largest payload accepted by ReadFrame (16MB).
	MaxPayloadSize = 16 << 20
)

// FrameType identifies the type of frame.
type FrameType uint8

const (
	FrameOps      FrameType = 0x01 // Ops of one render
	FrameSnapshot FrameType = 0x02 // Ops rebuilding the tree from an empty root
	FrameError    FrameType = 0x03 // Error message
	FrameEvent    FrameType = 0x04 // Event raised on a mirrored node (client to server)
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameOps:
		return "Ops"
	case FrameSnapshot:
		return "Snapshot"
	case FrameError:
		return "Error"
	case FrameEvent:
		return "Event"
	default:
		return "Unknown"
	}
}

// FrameFlags are optional flags for frame processing.
type FrameFlags uint8

const (
	FlagFinal FrameFlags = 0x01 // Last frame of a batch
)

// Has returns true if the flags contain the specified flag.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

// Frame is a header plus payload.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// NewFrame creates a frame with no flags.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode encodes the frame to bytes including the header.
func (f *Frame) Encode() []byte {
	buf := make([]byte, FrameHeaderSize+len(f.Payload))
	buf[0] = byte(f.Type)
	buf[1] = byte(f.Flags)
	binary.BigEndian.PutUint32(buf[2:FrameHeaderSize], uint32(len(f.Payload)))
	copy(buf[FrameHeaderSize:], f.Payload)
	return buf
}

// DecodeFrame decodes one frame. Trailing bytes after the payload are an
// error.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, io.ErrUnexpectedEOF
	}
	ft := FrameType(data[0])
	if ft.String() == "Unknown" {
		return nil, ErrInvalidFrameType
	}
	length := binary.BigEndian.Uint32(data[2:FrameHeaderSize])
	if length > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	end := FrameHeaderSize + int(length)
	if len(data) < end {
		return nil, io.ErrUnexpectedEOF
	}
	if len(data) > end {
		return nil, errors.New("protocol: trailing bytes after frame")
	}

	payload := make([]byte, length)
	copy(payload, data[FrameHeaderSize:end])
	return &Frame{
		Type:    ft,
		Flags:   FrameFlags(data[1]),
		Payload: payload,
	}, nil
}

// ReadFrame reads a complete frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(header[2:])
	if length > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, FrameHeaderSize+int(length))
	copy(buf, header)
	if _, err := io.ReadFull(r, buf[FrameHeaderSize:]); err != nil {
		return nil, err
	}
	return DecodeFrame(buf)
}

// WriteFrame writes a complete frame to w.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}

// Package protocol encodes recorded surface operations for the wire.
//
// The live server streams every render to its WebSocket clients as a frame
// of ops; a client applies the frames to its own surface with a Replayer and
// ends up with the same tree.
//
// # Wire Format
//
// Every message is one frame with a 6-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (4 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameOps (0x01): ops produced by one render
//   - FrameSnapshot (0x02): ops rebuilding the whole tree from an empty root
//   - FrameError (0x03): a UTF-8 error message
//   - FrameEvent (0x04): an event raised on a client's mirror, sent back
//     to the server as [Node: varint][Type: len-prefixed]
//
// # Batches
//
// The ops of one render, or one snapshot, form a batch. A batch is split
// over several frames of the same type when it exceeds MaxOpCount ops or
// half of MaxPayloadSize; FlagFinal marks its last frame. Replayer holds
// the frames of a batch back until the final one arrives.
//
// # Ops
//
// An ops payload is a varint count followed by that many ops. Each op is
// its kind byte, a field mask byte and the fields named by the mask, in
// order:
//
//	[Kind: 1][Mask: 1][Node: varint][Parent: varint][Ref: varint]
//	[Name: len-prefixed][Value: len-prefixed][Listener: varint]
//
// Node numbers are the ones assigned by record.Surface; record.RootID is
// the container the stream is rooted at. A Forget op retires a number once
// its node has left the tree for good; numbers are never reassigned.
package protocol

// Package record wraps a surface.Surface and logs every mutation it
// forwards.
//
// Handles are numbered in creation order so a log can be printed, compared
// in tests or encoded for another process (see pkg/protocol). ID 0 stands
// for "no node", RootID for the container given to New.
package record

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/vango-dev/vtree/pkg/surface"
)

// RootID is the ID of the container passed to New.
const RootID = 1

// OpKind identifies a surface call.
type OpKind uint8

const (
	OpCreateElement OpKind = iota + 1
	OpCreateText
	OpSetAttribute
	OpRemoveAttribute
	OpSetStyle
	OpClearStyle
	OpSetClass
	OpAddListener
	OpRemoveListener
	OpAppendChild
	OpInsertBefore
	OpRemoveChild
	OpSetText
	OpForget
)

var opNames = map[OpKind]string{
	OpCreateElement:   "CreateElement",
	OpCreateText:      "CreateText",
	OpSetAttribute:    "SetAttribute",
	OpRemoveAttribute: "RemoveAttribute",
	OpSetStyle:        "SetStyle",
	OpClearStyle:      "ClearStyle",
	OpSetClass:        "SetClass",
	OpAddListener:     "AddEventListener",
	OpRemoveListener:  "RemoveEventListener",
	OpAppendChild:     "AppendChild",
	OpInsertBefore:    "InsertBefore",
	OpRemoveChild:     "RemoveChild",
	OpSetText:         "SetText",
	OpForget:          "Forget",
}

// String returns the surface method name.
func (k OpKind) String() string {
	if name, ok := opNames[k]; ok {
		return name
	}
	return fmt.Sprintf("OpKind(%d)", uint8(k))
}

// Valid reports whether k is a known kind.
func (k OpKind) Valid() bool {
	_, ok := opNames[k]
	return ok
}

// Op is one recorded surface call. Fields that do not apply to Kind are zero.
type Op struct {
	Kind     OpKind
	Node     int    // Node created or modified; the child for tree operations
	Parent   int    // Parent for tree operations
	Ref      int    // InsertBefore reference, 0 for append
	Name     string // Tag, attribute, style property or event name
	Value    string // Text payload, attribute, style or class value
	Listener int    // Listener number for listener operations
}

// String formats the op for logs, e.g. `SetAttribute #3 id="a"`.
func (op Op) String() string {
	switch op.Kind {
	case OpCreateElement:
		return fmt.Sprintf("%s #%d <%s>", op.Kind, op.Node, op.Name)
	case OpCreateText, OpSetText:
		return fmt.Sprintf("%s #%d %q", op.Kind, op.Node, op.Value)
	case OpSetAttribute, OpSetStyle:
		return fmt.Sprintf("%s #%d %s=%q", op.Kind, op.Node, op.Name, op.Value)
	case OpRemoveAttribute, OpClearStyle:
		return fmt.Sprintf("%s #%d %s", op.Kind, op.Node, op.Name)
	case OpSetClass:
		return fmt.Sprintf("%s #%d %q", op.Kind, op.Node, op.Value)
	case OpAddListener, OpRemoveListener:
		return fmt.Sprintf("%s #%d %s L%d", op.Kind, op.Node, op.Name, op.Listener)
	case OpAppendChild, OpRemoveChild:
		return fmt.Sprintf("%s #%d #%d", op.Kind, op.Parent, op.Node)
	case OpInsertBefore:
		return fmt.Sprintf("%s #%d #%d before #%d", op.Kind, op.Parent, op.Node, op.Ref)
	case OpForget:
		if op.Listener != 0 {
			return fmt.Sprintf("%s L%d", op.Kind, op.Listener)
		}
		return fmt.Sprintf("%s #%d", op.Kind, op.Node)
	default:
		return op.Kind.String()
	}
}

// Surface records the calls it forwards to an inner surface. Failed calls
// are not recorded. It is not safe for concurrent use.
type Surface struct {
	inner     surface.Surface
	ids       map[surface.Handle]int
	handles   map[int]surface.Handle
	listeners map[int]surface.Listener
	nextID    int
	nextL     int
	ops       []Op
}

var _ surface.Surface = (*Surface)(nil)

// New wraps inner. root, when not nil, is registered as RootID.
func New(inner surface.Surface, root surface.Handle) *Surface {
	s := &Surface{
		inner:     inner,
		ids:       make(map[surface.Handle]int),
		handles:   make(map[int]surface.Handle),
		listeners: make(map[int]surface.Listener),
		nextID:    RootID,
	}
	if root != nil {
		s.register(root)
	} else {
		s.nextID = RootID + 1
	}
	return s
}

// Inner returns the wrapped surface.
func (s *Surface) Inner() surface.Surface { return s.inner }

// Ops returns a copy of the log.
func (s *Surface) Ops() []Op {
	out := make([]Op, len(s.ops))
	copy(out, s.ops)
	return out
}

// Reset clears the log and returns what it held. Node and listener numbers
// are kept.
func (s *Surface) Reset() []Op {
	ops := s.ops
	s.ops = nil
	return ops
}

// Mutations returns the number of recorded calls.
func (s *Surface) Mutations() int { return len(s.ops) }

// Count returns the number of recorded calls of the given kinds.
func (s *Surface) Count(kinds ...OpKind) int {
	n := 0
	for _, op := range s.ops {
		for _, k := range kinds {
			if op.Kind == k {
				n++
				break
			}
		}
	}
	return n
}

// IDOf returns the number assigned to h, or 0 when h was never seen.
func (s *Surface) IDOf(h surface.Handle) int {
	if h == nil {
		return 0
	}
	return s.ids[h]
}

// Tracked returns the number of handles holding a number, the root
// included.
func (s *Surface) Tracked() int { return len(s.ids) }

// Forget drops the number of h and logs an OpForget so replayers can drop
// theirs. A later call naming h assigns it a new number. The root and
// unknown handles are ignored. It reports whether h was dropped.
func (s *Surface) Forget(h surface.Handle) bool {
	id, ok := s.ids[h]
	if !ok || id == RootID {
		return false
	}
	delete(s.ids, h)
	delete(s.handles, id)
	s.add(Op{Kind: OpForget, Node: id})
	return true
}

// Handle returns the handle numbered id.
func (s *Surface) Handle(id int) (surface.Handle, bool) {
	h, ok := s.handles[id]
	return h, ok
}

// ListenerID returns the number of l, assigning one on first sight.
func (s *Surface) ListenerID(l surface.Listener) int {
	for id, existing := range s.listeners {
		if surface.SameListener(existing, l) {
			return id
		}
	}
	s.nextL++
	s.listeners[s.nextL] = l
	return s.nextL
}

// Listeners returns the number of listeners holding a number.
func (s *Surface) Listeners() int { return len(s.listeners) }

// RetainListeners drops the number of every listener not in held and logs
// an OpForget for each, in number order. Listeners of non-comparable types
// never match again and are always dropped.
func (s *Surface) RetainListeners(held []surface.Listener) {
	keep := make(map[surface.Listener]bool, len(held))
	for _, l := range held {
		if isComparable(l) {
			keep[l] = true
		}
	}
	var drop []int
	for id, l := range s.listeners {
		if !isComparable(l) || !keep[l] {
			drop = append(drop, id)
		}
	}
	slices.Sort(drop)
	for _, id := range drop {
		delete(s.listeners, id)
		s.add(Op{Kind: OpForget, Listener: id})
	}
}

func isComparable(l surface.Listener) bool {
	return l != nil && reflect.TypeOf(l).Comparable()
}

// Dump formats the log one op per line.
func (s *Surface) Dump() string {
	var b strings.Builder
	for _, op := range s.ops {
		b.WriteString(op.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (s *Surface) register(h surface.Handle) int {
	id := s.nextID
	s.nextID++
	s.ids[h] = id
	s.handles[id] = h
	return id
}

// id returns the number of h, registering handles created outside the
// recorder.
func (s *Surface) id(h surface.Handle) int {
	if h == nil {
		return 0
	}
	if id, ok := s.ids[h]; ok {
		return id
	}
	return s.register(h)
}

func (s *Surface) add(op Op) {
	s.ops = append(s.ops, op)
}

// CreateElement implements surface.Surface.
func (s *Surface) CreateElement(tag string) (surface.Handle, error) {
	h, err := s.inner.CreateElement(tag)
	if err != nil {
		return nil, err
	}
	s.add(Op{Kind: OpCreateElement, Node: s.register(h), Name: tag})
	return h, nil
}

// CreateText implements surface.Surface.
func (s *Surface) CreateText(text string) (surface.Handle, error) {
	h, err := s.inner.CreateText(text)
	if err != nil {
		return nil, err
	}
	s.add(Op{Kind: OpCreateText, Node: s.register(h), Value: text})
	return h, nil
}

// SetAttribute implements surface.Surface.
func (s *Surface) SetAttribute(h surface.Handle, name, value string) error {
	if err := s.inner.SetAttribute(h, name, value); err != nil {
		return err
	}
	s.add(Op{Kind: OpSetAttribute, Node: s.id(h), Name: name, Value: value})
	return nil
}

// RemoveAttribute implements surface.Surface.
func (s *Surface) RemoveAttribute(h surface.Handle, name string) error {
	if err := s.inner.RemoveAttribute(h, name); err != nil {
		return err
	}
	s.add(Op{Kind: OpRemoveAttribute, Node: s.id(h), Name: name})
	return nil
}

// SetStyle implements surface.Surface.
func (s *Surface) SetStyle(h surface.Handle, name, value string) error {
	if err := s.inner.SetStyle(h, name, value); err != nil {
		return err
	}
	s.add(Op{Kind: OpSetStyle, Node: s.id(h), Name: name, Value: value})
	return nil
}

// ClearStyle implements surface.Surface.
func (s *Surface) ClearStyle(h surface.Handle, name string) error {
	if err := s.inner.ClearStyle(h, name); err != nil {
		return err
	}
	s.add(Op{Kind: OpClearStyle, Node: s.id(h), Name: name})
	return nil
}

// SetClass implements surface.Surface.
func (s *Surface) SetClass(h surface.Handle, class string) error {
	if err := s.inner.SetClass(h, class); err != nil {
		return err
	}
	s.add(Op{Kind: OpSetClass, Node: s.id(h), Value: class})
	return nil
}

// AddEventListener implements surface.Surface.
func (s *Surface) AddEventListener(h surface.Handle, event string, l surface.Listener) error {
	if err := s.inner.AddEventListener(h, event, l); err != nil {
		return err
	}
	s.add(Op{Kind: OpAddListener, Node: s.id(h), Name: event, Listener: s.ListenerID(l)})
	return nil
}

// RemoveEventListener implements surface.Surface.
func (s *Surface) RemoveEventListener(h surface.Handle, event string, l surface.Listener) error {
	if err := s.inner.RemoveEventListener(h, event, l); err != nil {
		return err
	}
	s.add(Op{Kind: OpRemoveListener, Node: s.id(h), Name: event, Listener: s.ListenerID(l)})
	return nil
}

// AppendChild implements surface.Surface.
func (s *Surface) AppendChild(parent, child surface.Handle) error {
	if err := s.inner.AppendChild(parent, child); err != nil {
		return err
	}
	s.add(Op{Kind: OpAppendChild, Parent: s.id(parent), Node: s.id(child)})
	return nil
}

// InsertBefore implements surface.Surface.
func (s *Surface) InsertBefore(parent, child, ref surface.Handle) error {
	if err := s.inner.InsertBefore(parent, child, ref); err != nil {
		return err
	}
	s.add(Op{Kind: OpInsertBefore, Parent: s.id(parent), Node: s.id(child), Ref: s.id(ref)})
	return nil
}

// RemoveChild implements surface.Surface.
func (s *Surface) RemoveChild(parent, child surface.Handle) error {
	if err := s.inner.RemoveChild(parent, child); err != nil {
		return err
	}
	s.add(Op{Kind: OpRemoveChild, Parent: s.id(parent), Node: s.id(child)})
	return nil
}

// SetText implements surface.Surface.
func (s *Surface) SetText(h surface.Handle, text string) error {
	if err := s.inner.SetText(h, text); err != nil {
		return err
	}
	s.add(Op{Kind: OpSetText, Node: s.id(h), Value: text})
	return nil
}

// NextSibling implements surface.Surface. Queries are not recorded.
func (s *Surface) NextSibling(h surface.Handle) (surface.Handle, error) {
	return s.inner.NextSibling(h)
}

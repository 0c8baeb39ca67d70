package memsurface

import (
	"fmt"
	"sync"

	"github.com/vango-dev/vtree/pkg/surface"
)

// RootTag is the tag of the container returned by Root.
const RootTag = "root"

// Surface is an in-memory surface.Surface. It is safe for concurrent use;
// each call holds an internal lock.
type Surface struct {
	mu     sync.Mutex
	root   *Node
	nextID int
	count  int
}

var _ surface.Surface = (*Surface)(nil)

// New creates an empty surface with a root container.
func New() *Surface {
	s := &Surface{}
	s.root = s.newNode()
	s.root.tag = RootTag
	return s
}

// Root returns the container handle.
func (s *Surface) Root() surface.Handle {
	return s.root
}

// RootNode returns the container node.
func (s *Surface) RootNode() *Node {
	return s.root
}

// Created returns the number of nodes created, not counting the root.
func (s *Surface) Created() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Surface) newNode() *Node {
	n := &Node{id: s.nextID, owner: s}
	s.nextID++
	return n
}

func (s *Surface) node(h surface.Handle) (*Node, error) {
	n, ok := h.(*Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("memsurface: invalid handle %v (%T)", h, h)
	}
	if n.owner != s {
		return nil, fmt.Errorf("memsurface: node %d belongs to another surface", n.id)
	}
	return n, nil
}

func (s *Surface) element(h surface.Handle) (*Node, error) {
	n, err := s.node(h)
	if err != nil {
		return nil, err
	}
	if n.isText {
		return nil, fmt.Errorf("memsurface: node %d is a text node", n.id)
	}
	return n, nil
}

// CreateElement implements surface.Surface.
func (s *Surface) CreateElement(tag string) (surface.Handle, error) {
	if tag == "" {
		return nil, fmt.Errorf("memsurface: empty tag")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.newNode()
	n.tag = tag
	s.count++
	return n, nil
}

// CreateText implements surface.Surface.
func (s *Surface) CreateText(text string) (surface.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.newNode()
	n.isText = true
	n.text = text
	s.count++
	return n, nil
}

// SetAttribute implements surface.Surface.
func (s *Surface) SetAttribute(h surface.Handle, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.element(h)
	if err != nil {
		return err
	}
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[name] = value
	return nil
}

// RemoveAttribute implements surface.Surface.
func (s *Surface) RemoveAttribute(h surface.Handle, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.element(h)
	if err != nil {
		return err
	}
	delete(n.attrs, name)
	return nil
}

// SetStyle implements surface.Surface.
func (s *Surface) SetStyle(h surface.Handle, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.element(h)
	if err != nil {
		return err
	}
	if value == "" {
		delete(n.style, name)
		return nil
	}
	if n.style == nil {
		n.style = make(map[string]string)
	}
	n.style[name] = value
	return nil
}

// ClearStyle implements surface.Surface.
func (s *Surface) ClearStyle(h surface.Handle, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.element(h)
	if err != nil {
		return err
	}
	delete(n.style, name)
	return nil
}

// SetClass implements surface.Surface.
func (s *Surface) SetClass(h surface.Handle, class string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.element(h)
	if err != nil {
		return err
	}
	n.class = class
	return nil
}

// AddEventListener implements surface.Surface. Adding a listener that is
// already bound for the event is a no-op.
func (s *Surface) AddEventListener(h surface.Handle, event string, l surface.Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.element(h)
	if err != nil {
		return err
	}
	if l == nil {
		return fmt.Errorf("memsurface: nil listener for %q", event)
	}
	for _, existing := range n.listeners[event] {
		if surface.SameListener(existing, l) {
			return nil
		}
	}
	if n.listeners == nil {
		n.listeners = make(map[string][]surface.Listener)
	}
	n.listeners[event] = append(n.listeners[event], l)
	return nil
}

// RemoveEventListener implements surface.Surface. Removing a listener that
// is not bound is a no-op.
func (s *Surface) RemoveEventListener(h surface.Handle, event string, l surface.Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.element(h)
	if err != nil {
		return err
	}
	ls := n.listeners[event]
	for i, existing := range ls {
		if surface.SameListener(existing, l) {
			n.listeners[event] = append(ls[:i], ls[i+1:]...)
			break
		}
	}
	return nil
}

// AppendChild implements surface.Surface.
func (s *Surface) AppendChild(parent, child surface.Handle) error {
	return s.InsertBefore(parent, child, nil)
}

// InsertBefore implements surface.Surface.
func (s *Surface) InsertBefore(parent, child, ref surface.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.element(parent)
	if err != nil {
		return err
	}
	c, err := s.node(child)
	if err != nil {
		return err
	}
	if c == s.root {
		return fmt.Errorf("memsurface: cannot insert the root")
	}
	if c.contains(p) {
		return fmt.Errorf("memsurface: node %d cannot be inserted into its own subtree", c.id)
	}

	var r *Node
	if ref != nil {
		if r, err = s.node(ref); err != nil {
			return err
		}
		if r.parent != p {
			return fmt.Errorf("memsurface: ref %d is not a child of %d", r.id, p.id)
		}
		if r == c {
			return nil
		}
	}

	c.detach()
	c.parent = p
	if r == nil {
		p.children = append(p.children, c)
		return nil
	}
	i := p.indexOf(r)
	p.children = append(p.children, nil)
	copy(p.children[i+1:], p.children[i:])
	p.children[i] = c
	return nil
}

// RemoveChild implements surface.Surface.
func (s *Surface) RemoveChild(parent, child surface.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.element(parent)
	if err != nil {
		return err
	}
	c, err := s.node(child)
	if err != nil {
		return err
	}
	if c.parent != p {
		return fmt.Errorf("memsurface: node %d is not a child of %d", c.id, p.id)
	}
	c.detach()
	return nil
}

// SetText implements surface.Surface.
func (s *Surface) SetText(h surface.Handle, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(h)
	if err != nil {
		return err
	}
	if !n.isText {
		return fmt.Errorf("memsurface: node %d is not a text node", n.id)
	}
	n.text = text
	return nil
}

// NextSibling implements surface.Surface.
func (s *Surface) NextSibling(h surface.Handle) (surface.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(h)
	if err != nil {
		return nil, err
	}
	if n.parent == nil {
		return nil, nil
	}
	i := n.parent.indexOf(n)
	if i+1 >= len(n.parent.children) {
		return nil, nil
	}
	return n.parent.children[i+1], nil
}

// Dispatch delivers ev to the listeners of h and then to those of its
// ancestors. ev.Target is set to h.
func (s *Surface) Dispatch(h surface.Handle, ev surface.Event) error {
	s.mu.Lock()
	n, err := s.node(h)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	ev.Target = h
	var calls []surface.Listener
	for p := n; p != nil; p = p.parent {
		calls = append(calls, p.listeners[ev.Type]...)
	}
	s.mu.Unlock()

	for _, l := range calls {
		l.HandleEvent(ev)
	}
	return nil
}

// Find returns the first node under h, in document order, for which match
// returns true.
func (s *Surface) Find(h surface.Handle, match func(*Node) bool) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(h)
	if err != nil {
		return nil
	}
	return find(n, match)
}

func find(n *Node, match func(*Node) bool) *Node {
	for _, c := range n.children {
		if match(c) {
			return c
		}
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

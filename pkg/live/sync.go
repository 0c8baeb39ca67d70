package live

import (
	"slices"

	"github.com/vango-dev/vtree/pkg/memsurface"
	"github.com/vango-dev/vtree/pkg/record"
)

// snapshotOps returns ops that rebuild the current tree under an empty root,
// using the node and listener numbers already assigned by the recorder so
// later op frames apply on top. Callers hold h.mu.
func (h *Hub) snapshotOps() []record.Op {
	var ops []record.Op
	for _, child := range h.surf.RootNode().Children() {
		ops = h.appendNode(ops, child, record.RootID)
	}
	return ops
}

func (h *Hub) appendNode(ops []record.Op, n *memsurface.Node, parent int) []record.Op {
	id := h.rec.IDOf(n)
	if n.IsText() {
		ops = append(ops, record.Op{Kind: record.OpCreateText, Node: id, Value: n.Text()})
		return append(ops, record.Op{Kind: record.OpAppendChild, Parent: parent, Node: id})
	}

	ops = append(ops, record.Op{Kind: record.OpCreateElement, Node: id, Name: n.Tag()})

	attrs := n.Attrs()
	for _, name := range sortedNames(attrs) {
		ops = append(ops, record.Op{Kind: record.OpSetAttribute, Node: id, Name: name, Value: attrs[name]})
	}
	styles := n.Styles()
	for _, name := range sortedNames(styles) {
		ops = append(ops, record.Op{Kind: record.OpSetStyle, Node: id, Name: name, Value: styles[name]})
	}
	if class := n.Class(); class != "" {
		ops = append(ops, record.Op{Kind: record.OpSetClass, Node: id, Value: class})
	}
	events := n.Events()
	slices.Sort(events)
	for _, event := range events {
		for _, l := range n.Listeners(event) {
			ops = append(ops, record.Op{Kind: record.OpAddListener, Node: id, Name: event, Listener: h.rec.ListenerID(l)})
		}
	}

	for _, child := range n.Children() {
		ops = h.appendNode(ops, child, id)
	}
	return append(ops, record.Op{Kind: record.OpAppendChild, Parent: parent, Node: id})
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

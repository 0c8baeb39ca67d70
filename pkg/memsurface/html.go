package memsurface

import (
	"sort"
	"strings"

	"github.com/vango-dev/vtree/pkg/surface"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// HTML serializes h and its subtree. Attributes are written in name order;
// the inline style is written as sorted "name: value" declarations and
// listeners are not written. An invalid handle yields "".
func (s *Surface) HTML(h surface.Handle) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(h)
	if err != nil {
		return ""
	}
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

// InnerHTML serializes the children of h.
func (s *Surface) InnerHTML(h surface.Handle) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(h)
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, c := range n.children {
		writeNode(&b, c)
	}
	return b.String()
}

func writeNode(b *strings.Builder, n *Node) {
	if n.isText {
		b.WriteString(escapeHTML(n.text))
		return
	}

	b.WriteByte('<')
	b.WriteString(n.tag)
	for _, a := range attrList(n) {
		b.WriteByte(' ')
		b.WriteString(a.name)
		if a.value != "" {
			b.WriteString(`="`)
			b.WriteString(escapeAttr(a.value))
			b.WriteByte('"')
		}
	}
	b.WriteByte('>')

	if vdom.IsVoidElement(n.tag) && len(n.children) == 0 {
		return
	}
	for _, c := range n.children {
		writeNode(b, c)
	}
	b.WriteString("</")
	b.WriteString(n.tag)
	b.WriteByte('>')
}

type attr struct {
	name, value string
}

func attrList(n *Node) []attr {
	list := make([]attr, 0, len(n.attrs)+2)
	for name, v := range n.attrs {
		if name == "class" || name == "style" {
			continue
		}
		list = append(list, attr{name, v})
	}
	if n.class != "" {
		list = append(list, attr{"class", n.class})
	}
	if len(n.style) > 0 {
		list = append(list, attr{"style", styleString(n.style)})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].name < list[j].name })
	return list
}

func styleString(style map[string]string) string {
	names := make([]string, 0, len(style))
	for name := range style {
		names = append(names, name)
	}
	sort.Strings(names)
	decls := make([]string, len(names))
	for i, name := range names {
		decls[i] = name + ": " + style[name]
	}
	return strings.Join(decls, "; ")
}

// escapeHTML escapes text content.
func escapeHTML(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}

// escapeAttr escapes a double-quoted attribute value, including the
// whitespace characters that would otherwise be normalized.
func escapeAttr(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		case '\n':
			buf.WriteString("&#10;")
		case '\r':
			buf.WriteString("&#13;")
		case '\t':
			buf.WriteString("&#9;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}

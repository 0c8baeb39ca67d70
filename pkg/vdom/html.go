package vdom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/vtree/internal/errors"
)

// ParseHTML reads an HTML fragment and converts its top-level nodes to
// VNodes, using handlers to resolve "@event" attributes by value.
//
// Whitespace-only text and comments are dropped. An element with exactly one
// unkeyed child gets ShapeSingle; anything with more children, or with keyed
// children, gets ShapeMultiple.
func ParseHTML(r io.Reader, handlers HandlerSet) ([]*VNode, error) {
	if handlers == nil {
		handlers = HandlerSet{}
	}
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, ctx)
	if err != nil {
		return nil, errors.New("F001").Wrap(fmt.Errorf("error parsing HTML: %w", err))
	}

	var out []*VNode
	for _, n := range nodes {
		if v := convertHTML(n, handlers); v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

// ParseHTMLString is ParseHTML over a string.
func ParseHTMLString(s string, handlers HandlerSet) ([]*VNode, error) {
	return ParseHTML(strings.NewReader(s), handlers)
}

func convertHTML(n *html.Node, handlers HandlerSet) *VNode {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			return nil
		}
		return Text(n.Data)
	case html.ElementNode:
	default:
		return nil
	}

	props := make(Props, len(n.Attr))
	for _, a := range n.Attr {
		switch {
		case a.Key == StyleProp:
			props[StyleProp] = ParseStyle(a.Val)
		case IsEvent(a.Key):
			props[a.Key] = handlers.Get(a.Val)
		default:
			props[a.Key] = a.Val
		}
	}

	var children []*VNode
	keyed := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if v := convertHTML(c, handlers); v != nil {
			keyed = keyed || v.HasKey
			children = append(children, v)
		}
	}

	if len(children) == 1 && !keyed {
		return H(n.Data, props, children[0])
	}
	return H(n.Data, props, children)
}

// ParseStyle splits a CSS declaration list into a style map.
func ParseStyle(s string) map[string]string {
	style := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		style[name] = strings.TrimSpace(value)
	}
	return style
}

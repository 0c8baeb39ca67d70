// Package vdom provides the virtual node model reconciled by vtree.
//
// A VNode describes one node of a declarative tree: an element with a tag,
// properties and children, or a literal text node. Trees are cheap values
// built on every state change and handed to reconcile.Renderer, which diffs
// them against the previously rendered tree.
//
// # Building Trees
//
// H mirrors the classic hyperscript signature and applies the child
// normalization rules the reconciler depends on:
//
//	H("ul", Props{"class": "list"}, []*VNode{
//	    H("li", Props{"key": 1}, "one"),
//	    H("li", Props{"key": 2}, "two"),
//	})
//
// Element factories accept attributes and children variadically:
//
//	Ul(Class("list"),
//	    Li(Key(1), "one"),
//	    Li(Key(2), "two", OnClick(handler)),
//	)
//
// # Child Shape
//
// Every element records a ChildShape when it is built: ShapeNone for no
// children, ShapeSingle for exactly one non-slice child and ShapeMultiple for a
// slice. The shape is never recomputed; it selects the branch the children
// reconciler takes.
//
// # Properties
//
// Props keys with special meaning: "style" holds a map of style properties,
// "class" holds the class string, "key" holds the reconciliation key and keys
// starting with "@" bind event listeners. Everything else is a plain
// attribute.
//
// # Fixtures
//
// Decode and ParseHTML build trees from YAML/JSON documents and HTML
// fragments, for tooling and tests.
package vdom

// Package memsurface is an in-memory surface.Surface.
//
// It keeps a plain tree of nodes with attributes, inline style, a class
// string and event listeners, and renders that tree back to HTML. The live
// server renders into it, and tests use it to check what a reconciler did.
//
//	s := memsurface.New()
//	r := reconcile.New(s)
//	_ = r.Render(tree, s.Root())
//	fmt.Println(s.InnerHTML(s.Root()))
//
// Every call validates its handles: a handle from another surface, a text
// node used as a parent or a child removed from the wrong parent is an
// error, not a panic.
package memsurface

// Package vtest provides testing helpers for code that builds vdom trees.
//
// A Harness renders trees into a recorded in-memory surface, so a test can
// assert both on the resulting HTML and on the mutations a render needed.
//
// # Quick Start
//
//	func TestTodoList(t *testing.T) {
//	    h := vtest.New(t)
//	    h.Render(TodoList([]string{"a", "b"}))
//	    h.ExpectHTML("<ul><li>a</li><li>b</li></ul>")
//
//	    h.Render(TodoList([]string{"b", "a"}))
//	    h.ExpectOps(record.OpCreateElement, 0)
//	    h.ExpectMatchesFresh(TodoList([]string{"b", "a"}))
//	}
//
// # One-Shot Assertions
//
// For checking a tree's markup without a harness:
//
//	vtest.ExpectContains(t, Card("Hello"), "Hello")
//	vtest.ExpectAttribute(t, Card("Hello"), "class", "card")
package vtest

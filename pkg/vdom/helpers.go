package vdom

// If returns the node if condition is true, nil otherwise.
func If(condition bool, node *VNode) *VNode {
	if condition {
		return node
	}
	return nil
}

// IfElse returns the first node if condition is true, the second otherwise.
func IfElse(condition bool, ifTrue, ifFalse *VNode) *VNode {
	if condition {
		return ifTrue
	}
	return ifFalse
}

// When is like If but only builds the node when condition is true.
func When(condition bool, fn func() *VNode) *VNode {
	if condition {
		return fn()
	}
	return nil
}

// Range maps a slice to nodes, dropping nil results.
func Range[T any](items []T, fn func(item T, index int) *VNode) []*VNode {
	result := make([]*VNode, 0, len(items))
	for i, item := range items {
		if node := fn(item, i); node != nil {
			result = append(result, node)
		}
	}
	return result
}

// Keyed maps a slice to nodes and stamps each with the key returned by keyFn.
// Nodes that already carry a key keep it.
func Keyed[T any](items []T, keyFn func(item T) any, fn func(item T) *VNode) []*VNode {
	result := make([]*VNode, 0, len(items))
	for _, item := range items {
		node := fn(item)
		if node == nil {
			continue
		}
		if !node.HasKey && node.Kind == KindElement {
			if node.Props == nil {
				node.Props = Props{}
			}
			k := Key(keyFn(item))
			node.Props[KeyProp] = k.Value
			node.Key, node.HasKey = keyOf(node.Props)
		}
		result = append(result, node)
	}
	return result
}

// Repeat creates n nodes using the given function.
func Repeat(n int, fn func(i int) *VNode) []*VNode {
	if n <= 0 {
		return nil
	}
	result := make([]*VNode, 0, n)
	for i := 0; i < n; i++ {
		if node := fn(i); node != nil {
			result = append(result, node)
		}
	}
	return result
}

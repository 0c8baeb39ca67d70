package vdom

import (
	"fmt"
	"strings"
)

// Attr is a single property produced by the attribute helpers.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// Prop creates an arbitrary property.
func Prop(key string, value any) Attr { return Attr{Key: key, Value: value} }

// ID sets the id attribute.
func ID(id string) Attr { return Prop("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return Prop(ClassProp, strings.Join(classes, " ")) }

// Style sets the style map. Pairs are name, value, name, value...; an odd
// trailing name is ignored.
func Style(pairs ...string) Attr {
	m := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		m[pairs[i]] = pairs[i+1]
	}
	return Prop(StyleProp, m)
}

// StyleMap sets the style map from an existing map.
func StyleMap(m map[string]string) Attr { return Prop(StyleProp, m) }

// Key sets the reconciliation key. Non-string keys are stringified.
func Key(key any) Attr {
	if s, ok := key.(string); ok {
		return Prop(KeyProp, s)
	}
	return Prop(KeyProp, fmt.Sprint(key))
}

// Data creates a data-* attribute.
func Data(key, value string) Attr { return Prop("data-"+key, value) }

// Hidden sets the hidden attribute.
func Hidden() Attr { return Prop("hidden", true) }

// Disabled sets or clears the disabled attribute.
func Disabled(disabled bool) Attr { return Prop("disabled", disabled) }

// Href sets the href attribute.
func Href(url string) Attr { return Prop("href", url) }

// Type sets the type attribute.
func Type(t string) Attr { return Prop("type", t) }

// Value sets the value attribute.
func Value(v string) Attr { return Prop("value", v) }

// Role sets the role attribute.
func Role(role string) Attr { return Prop("role", role) }

// AriaLabel sets the aria-label attribute.
func AriaLabel(label string) Attr { return Prop("aria-label", label) }

// Merge combines attributes into Props. Later attributes win.
func Merge(attrs ...Attr) Props {
	props := make(Props, len(attrs))
	for _, a := range attrs {
		if !a.IsEmpty() {
			props[a.Key] = a.Value
		}
	}
	return props
}

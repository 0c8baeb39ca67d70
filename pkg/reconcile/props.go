package reconcile

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/surface"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// applyProps reconciles every key of next against old, then clears the keys
// only old has. Keys are visited in sorted order so the emitted operations
// are deterministic.
func (r *Renderer) applyProps(h surface.Handle, node *vdom.VNode, old, next vdom.Props) error {
	for _, k := range sortedKeys(next) {
		if err := r.applyProperty(h, node, k, old[k], next[k]); err != nil {
			return err
		}
	}
	for _, k := range sortedKeys(old) {
		if _, ok := next[k]; ok {
			continue
		}
		if err := r.applyProperty(h, node, k, old[k], nil); err != nil {
			return err
		}
	}
	return nil
}

// applyProperty applies one property change. A nil value means absent.
func (r *Renderer) applyProperty(h surface.Handle, node *vdom.VNode, key string, old, next any) error {
	switch {
	case key == vdom.KeyProp:
		return nil
	case key == vdom.StyleProp:
		return r.applyStyle(h, node, old, next)
	case key == vdom.ClassProp:
		return r.applyClass(h, node, old, next)
	case vdom.IsEvent(key):
		return r.applyListener(h, node, key, old, next)
	}

	ov, oset, err := attrValue(key, old)
	if err != nil {
		return err
	}
	nv, nset, err := attrValue(key, next)
	if err != nil {
		return err
	}
	if ov == nv && oset == nset {
		return nil
	}
	if nset {
		err = r.surf.SetAttribute(h, key, nv)
	} else {
		err = r.surf.RemoveAttribute(h, key)
	}
	if err != nil {
		return surfaceErr("attribute "+key+" on", node, err)
	}
	r.stats.PropsChanged++
	return nil
}

func (r *Renderer) applyStyle(h surface.Handle, node *vdom.VNode, old, next any) error {
	om, err := styleMap(old)
	if err != nil {
		return err
	}
	nm, err := styleMap(next)
	if err != nil {
		return err
	}
	for _, name := range sortedKeys(nm) {
		if v, ok := om[name]; ok && v == nm[name] {
			continue
		}
		if err := r.surf.SetStyle(h, name, nm[name]); err != nil {
			return surfaceErr("style "+name+" on", node, err)
		}
		r.stats.PropsChanged++
	}
	for _, name := range sortedKeys(om) {
		if _, ok := nm[name]; ok {
			continue
		}
		if err := r.surf.ClearStyle(h, name); err != nil {
			return surfaceErr("style "+name+" on", node, err)
		}
		r.stats.PropsChanged++
	}
	return nil
}

func (r *Renderer) applyClass(h surface.Handle, node *vdom.VNode, old, next any) error {
	oc, nc := classValue(old), classValue(next)
	if oc == nc {
		return nil
	}
	if err := r.surf.SetClass(h, nc); err != nil {
		return surfaceErr("class on", node, err)
	}
	r.stats.PropsChanged++
	return nil
}

// applyListener rebinds an event listener. The old listener is always
// removed before the new one is added.
func (r *Renderer) applyListener(h surface.Handle, node *vdom.VNode, key string, old, next any) error {
	ol, err := listenerValue(key, old)
	if err != nil {
		return err
	}
	nl, err := listenerValue(key, next)
	if err != nil {
		return err
	}
	if surface.SameListener(ol, nl) {
		return nil
	}
	event := vdom.EventName(key)
	if ol != nil {
		if err := r.surf.RemoveEventListener(h, event, ol); err != nil {
			return surfaceErr("unbind "+event+" on", node, err)
		}
		r.stats.PropsChanged++
	}
	if nl != nil {
		if err := r.surf.AddEventListener(h, event, nl); err != nil {
			return surfaceErr("bind "+event+" on", node, err)
		}
		r.stats.PropsChanged++
	}
	return nil
}

// attrValue converts a generic attribute value to its surface form. nil and
// false mean the attribute is absent; true is the empty string.
func attrValue(key string, v any) (string, bool, error) {
	switch val := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return val, true, nil
	case bool:
		return "", val, nil
	case int:
		return strconv.Itoa(val), true, nil
	case int64:
		return strconv.FormatInt(val, 10), true, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true, nil
	case fmt.Stringer:
		return val.String(), true, nil
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return "", false, errors.New("R006").WithDetailf("attribute %s cannot hold a %T", key, v)
	}
	return fmt.Sprint(v), true, nil
}

func classValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// styleMap accepts a map[string]string, a map[string]any or a CSS
// declaration string.
func styleMap(v any) (map[string]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return val, nil
	case map[string]any:
		m := make(map[string]string, len(val))
		for k, x := range val {
			if x != nil {
				m[k] = fmt.Sprint(x)
			}
		}
		return m, nil
	case string:
		return vdom.ParseStyle(val), nil
	default:
		return nil, errors.New("R006").WithDetailf("style must be a map or a string, got %T", v)
	}
}

// listenerValue checks that an event property holds a listener the surface
// can later unbind, which requires a comparable dynamic type.
func listenerValue(key string, v any) (surface.Listener, error) {
	if v == nil {
		return nil, nil
	}
	l, ok := v.(surface.Listener)
	if !ok {
		return nil, errors.New("R006").WithDetailf("%s must be a surface.Listener, got %T", key, v).
			WithSuggestion("Use vdom.On or vdom.NewHandler to build event listeners")
	}
	if !reflect.TypeOf(l).Comparable() {
		return nil, errors.New("R006").WithDetailf("%s listener of type %T is not comparable", key, v)
	}
	return l, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

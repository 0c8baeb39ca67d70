package vdom

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vtree/internal/errors"
)

// HandlerSet resolves handler names used in fixtures to Handlers. The same
// name always yields the same *Handler, so two trees decoded with one set
// share listeners and re-render without event churn.
type HandlerSet map[string]*Handler

// Get returns the handler registered under name, creating an inert one if
// needed.
func (s HandlerSet) Get(name string) *Handler {
	if h, ok := s[name]; ok {
		return h
	}
	h := &Handler{Name: name}
	s[name] = h
	return h
}

// fixtureNode is the mapping form of a fixture node.
type fixtureNode struct {
	Tag      string         `mapstructure:"tag"`
	Text     *string        `mapstructure:"text"`
	Key      any            `mapstructure:"key"`
	Props    map[string]any `mapstructure:"props"`
	Children any            `mapstructure:"children"`
}

// yaml.v3 reports parser errors as text only; mapping and type errors are
// located through yaml.Node positions instead.
var yamlSyntaxLineRe = regexp.MustCompile(`^yaml: line (\d+):`)

// LoadFile reads a tree from a .yaml, .yml, .json or .html file.
func LoadFile(path string, handlers HandlerSet) (*VNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("F001").WithDetail(path).Wrap(err)
	}

	var node *VNode
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		nodes, perr := ParseHTML(bytes.NewReader(data), handlers)
		if perr != nil {
			return nil, perr
		}
		if len(nodes) != 1 {
			return nil, errors.New("F002").
				WithDetailf("%s: expected exactly one root node, found %d", path, len(nodes))
		}
		node = nodes[0]
	case ".json":
		node, err = DecodeJSON(data, handlers)
	default:
		node, err = DecodeYAML(data, handlers)
	}
	if err != nil {
		ve := errors.FromError(err, "F001")
		if loc := ve.Location; loc != nil && loc.File == "" {
			ve.WithLocation(path, loc.Line, loc.Column)
		}
		return nil, ve
	}
	return node, nil
}

// DecodeYAML decodes a fixture tree from YAML. Errors carry the line and
// column of the offending node, without a file name.
func DecodeYAML(data []byte, handlers HandlerSet) (*VNode, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		e := errors.New("F001").Wrap(err)
		if m := yamlSyntaxLineRe.FindStringSubmatch(err.Error()); m != nil {
			line, _ := strconv.Atoi(m[1])
			e.Location = &errors.Location{Line: line}
		}
		return nil, e
	}

	d := newDecoder(handlers)
	if len(doc.Content) > 0 {
		if err := d.index(doc.Content[0], "$"); err != nil {
			return nil, err
		}
	}

	var raw any
	if err := doc.Decode(&raw); err != nil {
		var te *yaml.TypeError
		if errors.As(err, &te) {
			return nil, errors.New("F002").WithDetail(strings.Join(te.Errors, "; "))
		}
		return nil, errors.New("F001").Wrap(err)
	}
	return d.node(raw, "$")
}

// DecodeJSON decodes a fixture tree from JSON. Syntax errors carry the line
// and column of the offending byte.
func DecodeJSON(data []byte, handlers HandlerSet) (*VNode, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		e := errors.New("F001").Wrap(err)
		var se *json.SyntaxError
		if errors.As(err, &se) {
			line, col := offsetPosition(data, se.Offset)
			e.Location = &errors.Location{Line: line, Column: col}
		}
		return nil, e
	}
	return Decode(raw, handlers)
}

// offsetPosition converts a byte offset into a 1-based line and column.
func offsetPosition(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	before := data[:offset]
	line = bytes.Count(before, []byte{'\n'}) + 1
	col = len(before) - bytes.LastIndexByte(before, '\n')
	return line, col
}

// Decode builds a tree from a generic document value.
//
// A node is either a string (text) or a mapping with the fields tag, text,
// key, props and children. children may be a list (ShapeMultiple) or a single
// node or scalar (ShapeSingle). Props keys starting with "@" name handlers
// resolved through handlers.
func Decode(raw any, handlers HandlerSet) (*VNode, error) {
	return newDecoder(handlers).node(raw, "$")
}

// decoder builds trees from document values. For YAML input it knows the
// source node behind each fixture path, so errors can point at it.
type decoder struct {
	handlers HandlerSet
	sources  map[string]*yaml.Node
}

func newDecoder(handlers HandlerSet) *decoder {
	if handlers == nil {
		handlers = HandlerSet{}
	}
	return &decoder{handlers: handlers, sources: make(map[string]*yaml.Node)}
}

// index records the YAML node behind path and its children and props, and
// rejects mapping keys defined twice.
func (d *decoder) index(n *yaml.Node, path string) error {
	d.sources[path] = n
	if n.Kind != yaml.MappingNode {
		return nil
	}
	seen := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if prev, ok := seen[k.Value]; ok {
			return d.failAt(k, "%s: key %q already defined at line %d", path, k.Value, prev.Line)
		}
		seen[k.Value] = k

		switch k.Value {
		case "children":
			if v.Kind == yaml.SequenceNode {
				for j, item := range v.Content {
					if err := d.index(item, fmt.Sprintf("%s.children[%d]", path, j)); err != nil {
						return err
					}
				}
			} else if err := d.index(v, path+".children"); err != nil {
				return err
			}
		case "props":
			if err := d.indexProps(v, path); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *decoder) indexProps(n *yaml.Node, path string) error {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	seen := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if prev, ok := seen[k.Value]; ok {
			return d.failAt(k, "%s: prop %q already defined at line %d", path, k.Value, prev.Line)
		}
		seen[k.Value] = k
		d.sources[propPath(path, k.Value)] = v
	}
	return nil
}

func propPath(path, key string) string {
	return path + ".props." + key
}

// fail returns an F002 error for the node at path, located when the source
// is known.
func (d *decoder) fail(path, format string, args ...any) *errors.Error {
	return d.failAt(d.sources[path], format, args...)
}

func (d *decoder) failAt(src *yaml.Node, format string, args ...any) *errors.Error {
	e := errors.New("F002").WithDetailf(format, args...)
	if src != nil {
		e.Location = &errors.Location{Line: src.Line, Column: src.Column}
	}
	return e
}

func (d *decoder) node(raw any, path string) (*VNode, error) {
	switch v := raw.(type) {
	case nil:
		return nil, d.fail(path, "%s: null node", path)
	case string:
		return Text(v), nil
	case bool, int, int64, float64:
		return Text(fmt.Sprint(v)), nil
	case map[string]any:
		return d.mapping(v, path)
	default:
		return nil, d.fail(path, "%s: unsupported node type %T", path, raw)
	}
}

func (d *decoder) mapping(m map[string]any, path string) (*VNode, error) {
	var fn fixtureNode
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &fn,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, d.fail(path, "%s", path).Wrap(err)
	}

	if fn.Text != nil {
		if fn.Tag != "" || fn.Children != nil || len(fn.Props) > 0 {
			return nil, d.fail(path, "%s: text nodes carry only text", path)
		}
		return Text(*fn.Text), nil
	}
	if fn.Tag == "" {
		return nil, d.fail(path, "%s: missing tag", path)
	}

	props := make(Props, len(fn.Props)+1)
	for k, val := range fn.Props {
		pv, err := d.prop(k, val, path)
		if err != nil {
			return nil, err
		}
		props[k] = pv
	}
	if fn.Key != nil {
		props[KeyProp] = fn.Key
	}

	var children any
	switch c := fn.Children.(type) {
	case nil:
	case []any:
		list := make([]*VNode, 0, len(c))
		for i, item := range c {
			child, err := d.node(item, fmt.Sprintf("%s.children[%d]", path, i))
			if err != nil {
				return nil, err
			}
			list = append(list, child)
		}
		children = list
	default:
		child, err := d.node(c, path+".children")
		if err != nil {
			return nil, err
		}
		children = child
	}

	return H(fn.Tag, props, children), nil
}

func (d *decoder) prop(key string, val any, path string) (any, error) {
	switch {
	case IsEvent(key):
		name, ok := val.(string)
		if !ok {
			return nil, d.fail(propPath(path, key), "%s: handler %s must be a name", path, key)
		}
		return d.handlers.Get(name), nil
	case key == StyleProp:
		m, ok := val.(map[string]any)
		if !ok {
			return nil, d.fail(propPath(path, key), "%s: style must be a mapping", path)
		}
		style := make(map[string]string, len(m))
		for name, sv := range m {
			style[name] = fmt.Sprint(sv)
		}
		return style, nil
	default:
		return val, nil
	}
}

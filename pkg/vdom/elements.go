package vdom

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// El creates an element from variadic arguments.
//
// Arguments can be: nil, Attr, []Attr, Props, *VNode, []*VNode, Component or
// string. A lone non-slice child gives ShapeSingle; anything else with
// children gives ShapeMultiple.
func El(tag string, args ...any) *VNode {
	props := Props{}
	var children []any
	single := true

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue

		case Attr:
			if !v.IsEmpty() {
				props[v.Key] = v.Value
			}

		case []Attr:
			for _, a := range v {
				if !a.IsEmpty() {
					props[a.Key] = a.Value
				}
			}

		case Props:
			for k, val := range v {
				props[k] = val
			}

		case []*VNode:
			single = false
			for _, c := range v {
				if c != nil {
					children = append(children, c)
				}
			}

		case *VNode:
			if v != nil {
				children = append(children, v)
			}

		default:
			children = append(children, v)
		}
	}

	if single && len(children) == 1 {
		return H(tag, props, children[0])
	}
	return H(tag, props, children)
}

// Document structure elements

func Body(args ...any) *VNode    { return El("body", args...) }
func Header(args ...any) *VNode  { return El("header", args...) }
func Footer(args ...any) *VNode  { return El("footer", args...) }
func Main(args ...any) *VNode    { return El("main", args...) }
func Nav(args ...any) *VNode     { return El("nav", args...) }
func Section(args ...any) *VNode { return El("section", args...) }
func Article(args ...any) *VNode { return El("article", args...) }
func H1(args ...any) *VNode      { return El("h1", args...) }
func H2(args ...any) *VNode      { return El("h2", args...) }
func H3(args ...any) *VNode      { return El("h3", args...) }

// Text content elements

func Div(args ...any) *VNode  { return El("div", args...) }
func P(args ...any) *VNode    { return El("p", args...) }
func Span(args ...any) *VNode { return El("span", args...) }
func Pre(args ...any) *VNode  { return El("pre", args...) }
func Ul(args ...any) *VNode   { return El("ul", args...) }
func Ol(args ...any) *VNode   { return El("ol", args...) }
func Li(args ...any) *VNode   { return El("li", args...) }
func Hr(args ...any) *VNode   { return El("hr", args...) }

// Inline elements

func A(args ...any) *VNode      { return El("a", args...) }
func Strong(args ...any) *VNode { return El("strong", args...) }
func Em(args ...any) *VNode     { return El("em", args...) }
func Code(args ...any) *VNode   { return El("code", args...) }
func Br(args ...any) *VNode     { return El("br", args...) }
func Img(args ...any) *VNode    { return El("img", args...) }

// Form elements

func Form(args ...any) *VNode     { return El("form", args...) }
func Input(args ...any) *VNode    { return El("input", args...) }
func Button(args ...any) *VNode   { return El("button", args...) }
func Label(args ...any) *VNode    { return El("label", args...) }
func Select(args ...any) *VNode   { return El("select", args...) }
func Option(args ...any) *VNode   { return El("option", args...) }
func Textarea(args ...any) *VNode { return El("textarea", args...) }

// Table elements

func Table(args ...any) *VNode { return El("table", args...) }
func Thead(args ...any) *VNode { return El("thead", args...) }
func Tbody(args ...any) *VNode { return El("tbody", args...) }
func Tr(args ...any) *VNode    { return El("tr", args...) }
func Th(args ...any) *VNode    { return El("th", args...) }
func Td(args ...any) *VNode    { return El("td", args...) }

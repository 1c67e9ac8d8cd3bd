package memdom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hazyhaar/domsurface/surface/element"
	"github.com/hazyhaar/domsurface/surface/internal/hostdom"
)

// Node is one element of a static document. It satisfies
// hostdom.Element; identity is pointer identity.
type Node struct {
	doc    *Document
	tag    string
	attrs  map[string]string
	style  map[string]string
	parent *Node
	scope  *Shadow // non-nil for shadow content
	serial int

	children []*Node
	text     []string // own text segments, in order

	shadow      *Shadow
	sub         *Document
	crossOrigin bool
}

var inlineDisplay = map[string]string{
	"a": "inline", "span": "inline", "label": "inline", "b": "inline",
	"i": "inline", "em": "inline", "strong": "inline", "small": "inline",
	"u": "inline", "code": "inline", "sub": "inline", "sup": "inline",
	"input": "inline-block", "button": "inline-block", "select": "inline-block",
	"textarea": "inline-block", "img": "inline-block",
}

func (n *Node) Tag() string { return n.tag }

func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.attrs[strings.ToLower(name)]
	return v, ok
}

func (n *Node) Text() (string, error) {
	var b strings.Builder
	n.collectText(&b, false)
	return b.String(), nil
}

// RenderedText skips subtrees hidden by display or visibility, the way
// laid-out text does.
func (n *Node) RenderedText() (string, error) {
	var b strings.Builder
	n.collectText(&b, true)
	return b.String(), nil
}

func (n *Node) collectText(b *strings.Builder, renderedOnly bool) {
	if renderedOnly && n.hiddenByStyle() {
		return
	}
	for _, t := range n.text {
		b.WriteString(t)
	}
	for _, c := range n.children {
		c.collectText(b, renderedOnly)
	}
}

func (n *Node) hiddenByStyle() bool {
	st, _ := n.Style("display", "visibility")
	return st["display"] == "none" || st["visibility"] == "hidden"
}

func (n *Node) Value() (string, bool) {
	switch n.tag {
	case "textarea":
		t, _ := n.Text()
		return t, true
	case "input":
		v, ok := n.attrs["value"]
		return v, ok
	}
	return "", false
}

// Rect reads the declarative box: left/top/width/height from inline
// style, in document coordinates. Unspecified sides are zero.
func (n *Node) Rect() (element.Rect, error) {
	return element.NewRect(
		n.styleLength("left"),
		n.styleLength("top"),
		n.styleLength("width"),
		n.styleLength("height"),
	), nil
}

func (n *Node) styleLength(prop string) float64 {
	v, ok := n.style[prop]
	if !ok {
		return 0
	}
	f, _ := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	return f
}

// Style resolves computed values: display defaults by tag, visibility
// and pointer-events inherit, opacity defaults to 1, and width/height
// fall back to the declarative box size.
func (n *Node) Style(props ...string) (map[string]string, error) {
	out := make(map[string]string, len(props))
	for _, p := range props {
		out[p] = n.computed(strings.ToLower(p))
	}
	return out, nil
}

func (n *Node) computed(prop string) string {
	switch prop {
	case "display":
		if v, ok := n.style[prop]; ok {
			return v
		}
		// The UA stylesheet maps the hidden attribute to display:none;
		// inline style outranks it.
		if _, ok := n.attrs["hidden"]; ok {
			return "none"
		}
		if v, ok := inlineDisplay[n.tag]; ok {
			return v
		}
		return "block"
	case "visibility", "pointer-events":
		for cur := n; cur != nil; cur = cur.parent {
			if v, ok := cur.style[prop]; ok {
				return v
			}
		}
		if prop == "visibility" {
			return "visible"
		}
		return "auto"
	case "opacity":
		if v, ok := n.style[prop]; ok {
			return v
		}
		return "1"
	case "width", "height":
		if v, ok := n.style[prop]; ok {
			return v
		}
		return fmt.Sprintf("%gpx", n.styleLength(prop))
	default:
		return n.style[prop]
	}
}

func (n *Node) Parent() hostdom.Element {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Children() []hostdom.Element {
	out := make([]hostdom.Element, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *Node) HasVisibleChild() bool {
	for _, c := range n.children {
		if c.hiddenByStyle() {
			continue
		}
		if r, err := c.Rect(); err == nil && !r.Empty() {
			return true
		}
	}
	return false
}

func (n *Node) ShadowRoot() (hostdom.ShadowRoot, bool) {
	if n.shadow == nil {
		return nil, false
	}
	return n.shadow, true
}

// ContentDocument opens an iframe's embedded document. Frames marked
// cross-origin and frames with no parsed subdocument both refuse access.
func (n *Node) ContentDocument() (hostdom.Document, error) {
	if !hostdom.EmbedderTags[n.tag] {
		return nil, fmt.Errorf("memdom: %s is not an embedding element", n.tag)
	}
	if n.crossOrigin || n.sub == nil {
		return nil, hostdom.ErrCrossOrigin
	}
	return n.sub, nil
}

func (n *Node) Owner() hostdom.Document { return n.doc }

// Contains follows flattened parent links, so shadow content counts as
// contained by its host. Content of embedded documents does not.
func (n *Node) Contains(other hostdom.Element) bool {
	o, ok := other.(*Node)
	if !ok {
		return false
	}
	for cur := o; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

func (n *Node) SameAs(other hostdom.Element) bool {
	o, ok := other.(*Node)
	return ok && o == n
}

func (n *Node) ID() string {
	return fmt.Sprintf("%s-%d", n.doc.docTag, n.serial)
}

var disableableTags = map[string]bool{
	"input": true, "select": true, "textarea": true, "button": true,
	"option": true, "optgroup": true, "fieldset": true,
}

func (n *Node) Disabled() bool {
	if !disableableTags[n.tag] {
		return false
	}
	_, ok := n.attrs["disabled"]
	return ok
}

func (n *Node) HasClickHandler() bool {
	_, ok := n.attrs["onclick"]
	return ok
}

// Options resolves a select's option texts. No options at all is the
// malformed-select condition.
func (n *Node) Options() (selected []string, all []string, err error) {
	if n.tag != "select" {
		return nil, nil, hostdom.ErrMalformedSelect
	}
	var opts []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, c := range cur.children {
			if c.tag == "option" {
				opts = append(opts, c)
				continue
			}
			if c.tag == "optgroup" {
				walk(c)
			}
		}
	}
	walk(n)
	if len(opts) == 0 {
		return nil, nil, hostdom.ErrMalformedSelect
	}

	for _, o := range opts {
		all = append(all, o.optionText())
		if _, ok := o.attrs["selected"]; ok {
			selected = append(selected, o.optionText())
		}
	}
	if len(selected) == 0 {
		// Browsers select the first option by default.
		selected = all[:1]
	}
	return selected, all, nil
}

func (n *Node) optionText() string {
	t, _ := n.Text()
	t = strings.Join(strings.Fields(t), " ")
	if t == "" {
		t = n.attrs["value"]
	}
	return t
}

// parseInlineStyle splits a style attribute into a property map.
func parseInlineStyle(s string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

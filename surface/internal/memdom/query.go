package memdom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hazyhaar/domsurface/surface/internal/hostdom"
)

// QueryAll matches a CSS selector list against this document's own
// scope: shadow content and embedded documents are excluded, matching
// querySelectorAll semantics.
//
// Supported grammar: comma-separated compound selectors built from a
// tag or "*", "#id", ".class", "[attr]", and "[attr=value]". That is
// the subset the engine itself emits; anything else fails loudly.
func (d *Document) QueryAll(selector string) ([]hostdom.Element, error) {
	return d.queryScope(selector, nil)
}

// QueryAll on a shadow scope matches only the shadow tree's own nodes,
// not nested shadow roots.
func (s *Shadow) QueryAll(selector string) ([]hostdom.Element, error) {
	return s.host.doc.queryScope(selector, s)
}

func (d *Document) queryScope(selector string, scope *Shadow) ([]hostdom.Element, error) {
	sels, err := parseSelectorList(selector)
	if err != nil {
		return nil, err
	}
	var out []hostdom.Element
	for _, n := range d.nodes {
		if n.scope != scope {
			continue
		}
		if matchAny(n, sels) {
			out = append(out, n)
		}
	}
	return out, nil
}

// ClickTargets returns the scope's elements carrying a legacy onclick
// handler.
func (d *Document) ClickTargets() ([]hostdom.Element, error) {
	return d.clickTargets(nil)
}

func (s *Shadow) ClickTargets() ([]hostdom.Element, error) {
	return s.host.doc.clickTargets(s)
}

func (d *Document) clickTargets(scope *Shadow) ([]hostdom.Element, error) {
	var out []hostdom.Element
	for _, n := range d.nodes {
		if n.scope == scope && n.HasClickHandler() {
			out = append(out, n)
		}
	}
	return out, nil
}

// ElementFromPoint returns the topmost rendered element at a point in
// this document's coordinates: highest z-index wins, later document
// order breaks ties. Shadow content participates; embedded documents do
// not — their iframe element is the deepest hit, as in a real document.
func (d *Document) ElementFromPoint(x, y float64) (hostdom.Element, error) {
	var hit *Node
	hitZ := 0
	for _, n := range d.nodes {
		if !n.hitTestable() {
			continue
		}
		r, err := n.Rect()
		if err != nil || r.Empty() {
			continue
		}
		if x < r.Min.X || x >= r.Max.X || y < r.Min.Y || y >= r.Max.Y {
			continue
		}
		z := n.zIndex()
		if hit == nil || z >= hitZ {
			hit, hitZ = n, z
		}
	}
	if hit == nil {
		return nil, nil
	}
	return hit, nil
}

func (n *Node) hitTestable() bool {
	st, _ := n.Style("visibility", "pointer-events")
	if st["visibility"] == "hidden" || st["pointer-events"] == "none" {
		return false
	}
	// display:none removes the whole subtree from rendering, whether it
	// comes from inline style or the hidden attribute.
	for cur := n; cur != nil; cur = cur.parent {
		if cur.computed("display") == "none" {
			return false
		}
	}
	return true
}

func (n *Node) zIndex() int {
	v, ok := n.style["z-index"]
	if !ok {
		return 0
	}
	z, _ := strconv.Atoi(strings.TrimSpace(v))
	return z
}

// --- selector parsing ---

type simpleSel struct {
	tag     string // "" or "*" matches any
	id      string
	classes []string
	attrs   map[string]string // value "" means presence-only
}

func parseSelectorList(s string) ([]simpleSel, error) {
	var out []simpleSel
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sel, err := parseCompound(part)
		if err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("memdom: empty selector")
	}
	return out, nil
}

func parseCompound(s string) (simpleSel, error) {
	sel := simpleSel{attrs: make(map[string]string)}
	i := 0
	// Leading tag or universal.
	for i < len(s) && s[i] != '#' && s[i] != '.' && s[i] != '[' {
		i++
	}
	if tag := strings.TrimSpace(s[:i]); tag != "" && tag != "*" {
		if strings.ContainsAny(tag, " >+~:") {
			return simpleSel{}, fmt.Errorf("memdom: unsupported selector %q", s)
		}
		sel.tag = strings.ToLower(tag)
	}

	for i < len(s) {
		switch s[i] {
		case '#', '.':
			kind := s[i]
			j := i + 1
			for j < len(s) && s[j] != '#' && s[j] != '.' && s[j] != '[' {
				j++
			}
			name := s[i+1 : j]
			if kind == '#' {
				sel.id = name
			} else {
				sel.classes = append(sel.classes, name)
			}
			i = j
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return simpleSel{}, fmt.Errorf("memdom: unterminated attribute in %q", s)
			}
			body := s[i+1 : i+end]
			name, val, hasVal := strings.Cut(body, "=")
			name = strings.ToLower(strings.TrimSpace(name))
			if hasVal {
				sel.attrs[name] = strings.Trim(strings.TrimSpace(val), `"'`)
			} else {
				sel.attrs[name] = ""
			}
			i += end + 1
		default:
			return simpleSel{}, fmt.Errorf("memdom: unsupported selector %q", s)
		}
	}
	return sel, nil
}

func matchAny(n *Node, sels []simpleSel) bool {
	for _, sel := range sels {
		if matchCompound(n, sel) {
			return true
		}
	}
	return false
}

func matchCompound(n *Node, sel simpleSel) bool {
	if sel.tag != "" && n.tag != sel.tag {
		return false
	}
	if sel.id != "" && n.attrs["id"] != sel.id {
		return false
	}
	for _, class := range sel.classes {
		if !hasClass(n.attrs["class"], class) {
			return false
		}
	}
	for name, want := range sel.attrs {
		got, ok := n.attrs[name]
		if !ok {
			return false
		}
		if want != "" && got != want {
			return false
		}
	}
	return true
}

func hasClass(classAttr, class string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == class {
			return true
		}
	}
	return false
}

// matchSelector reports whether a single node matches a selector list,
// regardless of scope. Used by Focus.
func matchSelector(n *Node, selector string) bool {
	sels, err := parseSelectorList(selector)
	if err != nil {
		return false
	}
	return matchAny(n, sels)
}

// Package memdom implements the hostdom capability surface over parsed
// HTML, with no browser attached. Geometry is declarative: elements take
// their boxes from inline left/top/width/height styles, in document
// coordinates. Declarative shadow roots (<template shadowrootmode="open">)
// become shadow scopes, iframes with srcdoc become same-origin embedded
// documents, and iframes marked data-cross-origin refuse access the way
// a real cross-origin frame does.
//
// memdom serves two purposes: replaying captured HTML without Chrome,
// and giving the engine a fully controllable DOM in tests.
package memdom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domsurface/surface/internal/hostdom"
)

// Document is a static document implementing hostdom.Document.
type Document struct {
	root   *Node
	body   *Node
	active *Node

	viewportW float64
	viewportH float64

	// nodes lists every element of this document in document order,
	// shadow content included, embedded documents excluded.
	nodes []*Node

	serial int
	docTag string // identity token prefix, unique per document
}

var docCount int

// Parse builds a Document from HTML source.
func Parse(src string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("memdom: parse: %w", err)
	}

	docCount++
	d := &Document{
		viewportW: 1280,
		viewportH: 800,
		docTag:    fmt.Sprintf("d%d", docCount),
	}

	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "html" {
			d.root = d.build(c, nil, nil)
			break
		}
	}
	if d.root == nil {
		return nil, fmt.Errorf("memdom: no document element")
	}

	for _, n := range d.nodes {
		if n.tag == "body" && d.body == nil {
			d.body = n
		}
	}
	if v, ok := d.root.Attr("data-viewport"); ok {
		fmt.Sscanf(v, "%fx%f", &d.viewportW, &d.viewportH)
	}
	return d, nil
}

// MustParse is Parse for fixtures known to be well-formed.
func MustParse(src string) *Document {
	d, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return d
}

// build converts one html.Node element into a memdom Node, recursing
// through children, declarative shadow roots, and srcdoc iframes.
func (d *Document) build(src *html.Node, parent *Node, scope *Shadow) *Node {
	d.serial++
	n := &Node{
		doc:    d,
		tag:    strings.ToLower(src.Data),
		attrs:  make(map[string]string, len(src.Attr)),
		parent: parent,
		scope:  scope,
		serial: d.serial,
	}
	for _, a := range src.Attr {
		n.attrs[strings.ToLower(a.Key)] = a.Val
	}
	n.style = parseInlineStyle(n.attrs["style"])
	d.nodes = append(d.nodes, n)

	if _, ok := n.attrs["autofocus"]; ok && d.active == nil {
		d.active = n
	}

	if n.tag == "iframe" {
		d.buildEmbed(n)
	}

	for c := src.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			n.text = append(n.text, c.Data)
		case html.ElementNode:
			if strings.ToLower(c.Data) == "template" {
				d.buildTemplate(c, n)
				continue
			}
			child := d.build(c, n, scope)
			n.children = append(n.children, child)
		}
	}
	return n
}

// buildEmbed wires an iframe's embedded document: srcdoc parses into a
// same-origin subdocument; data-cross-origin marks the embed opaque.
func (d *Document) buildEmbed(n *Node) {
	if _, ok := n.attrs["data-cross-origin"]; ok {
		n.crossOrigin = true
		return
	}
	srcdoc, ok := n.attrs["srcdoc"]
	if !ok {
		return
	}
	sub, err := Parse(srcdoc)
	if err == nil {
		n.sub = sub
	}
}

// buildTemplate turns <template shadowrootmode="open"> into a shadow
// scope on the enclosing element. Closed shadow roots are dropped: the
// engine cannot reach them, matching real encapsulation.
func (d *Document) buildTemplate(src *html.Node, host *Node) {
	mode := ""
	for _, a := range src.Attr {
		if strings.ToLower(a.Key) == "shadowrootmode" {
			mode = strings.ToLower(a.Val)
		}
	}
	if mode != "open" {
		return
	}

	sr := &Shadow{host: host}
	host.shadow = sr
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		// Shadow content's flattened parent is the host.
		child := d.build(c, host, sr)
		sr.children = append(sr.children, child)
	}
}

// SetViewport overrides the viewport size.
func (d *Document) SetViewport(w, h float64) {
	d.viewportW, d.viewportH = w, h
}

// Focus marks the first element matching the selector as focused, in
// this document (shadow content included) or any same-origin
// subdocument. Focus inside a subdocument leaves the embedding iframe
// as this document's active element, the way real focus delegation
// works.
func (d *Document) Focus(selector string) bool {
	for _, n := range d.nodes {
		if matchSelector(n, selector) {
			d.active = n
			return true
		}
	}
	for _, n := range d.nodes {
		if n.sub != nil && n.sub.Focus(selector) {
			d.active = n
			return true
		}
	}
	return false
}

// First returns the first element matching the selector, for tests.
func (d *Document) First(selector string) *Node {
	els, err := d.QueryAll(selector)
	if err != nil || len(els) == 0 {
		return nil
	}
	return els[0].(*Node)
}

// --- hostdom.Document ---

func (d *Document) Root() hostdom.Element { return d.root }

func (d *Document) Body() hostdom.Element {
	if d.body == nil {
		return nil
	}
	return d.body
}

func (d *Document) Viewport() (float64, float64, error) {
	return d.viewportW, d.viewportH, nil
}

func (d *Document) SameAs(other hostdom.Document) bool {
	o, ok := other.(*Document)
	return ok && o == d
}

// ActiveElement reports the focused element the way a real document
// does: focus inside a shadow tree is retargeted to the outermost host,
// and nothing focused reads as the body.
func (d *Document) ActiveElement() (hostdom.Element, error) {
	if d.active == nil {
		if d.body == nil {
			return nil, nil
		}
		return d.body, nil
	}
	n := d.active
	for n.scope != nil {
		n = n.scope.host
	}
	return n, nil
}

// Shadow is an open shadow scope implementing hostdom.ShadowRoot.
type Shadow struct {
	host     *Node
	children []*Node
}

func (s *Shadow) Host() hostdom.Element { return s.host }

func (s *Shadow) Children() []hostdom.Element {
	out := make([]hostdom.Element, len(s.children))
	for i, c := range s.children {
		out[i] = c
	}
	return out
}

// ActiveElement returns the focused element as retargeted to this
// shadow scope: the focused node itself when it sits directly in the
// scope, or the host of the next shadow level down.
func (s *Shadow) ActiveElement() (hostdom.Element, error) {
	n := s.host.doc.active
	if n == nil {
		return nil, nil
	}
	for n.scope != nil {
		if n.scope == s {
			return n, nil
		}
		n = n.scope.host
	}
	return nil, nil
}

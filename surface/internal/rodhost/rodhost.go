package rodhost

import (
	"fmt"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/domsurface/surface/element"
	"github.com/hazyhaar/domsurface/surface/internal/hostdom"
)

const clickTargetsJS = `() => {
	const root = this instanceof Element || this instanceof ShadowRoot ? this : document;
	return [...root.querySelectorAll('*')].filter(n => typeof n.onclick === 'function');
}`

// document adapts a rod.Page to the host document interface. One
// instance per frame: the top page and each same-origin iframe get
// their own.
type document struct {
	page    *rod.Page
	frameID string
}

// NewDocument wraps a rod page.
func NewDocument(page *rod.Page) hostdom.Document {
	return &document{page: page, frameID: string(page.FrameID)}
}

func (d *document) QueryAll(selector string) ([]hostdom.Element, error) {
	els, err := d.page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("rodhost: query %q: %w", selector, err)
	}
	return d.wrapAll(els)
}

func (d *document) ClickTargets() ([]hostdom.Element, error) {
	els, err := d.page.ElementsByJS(rod.Eval(clickTargetsJS))
	if err != nil {
		return nil, fmt.Errorf("rodhost: click targets: %w", err)
	}
	return d.wrapAll(els)
}

func (d *document) ActiveElement() (hostdom.Element, error) {
	res, err := d.page.Eval(`() => !!document.activeElement`)
	if err != nil {
		return nil, fmt.Errorf("rodhost: active element: %w", err)
	}
	if !res.Value.Bool() {
		return nil, nil
	}
	el, err := d.page.ElementByJS(rod.Eval(`() => document.activeElement`))
	if err != nil {
		return nil, fmt.Errorf("rodhost: active element: %w", err)
	}
	return d.wrap(el)
}

func (d *document) Root() hostdom.Element {
	el, err := d.page.ElementByJS(rod.Eval(`() => document.documentElement`))
	if err != nil {
		return nil
	}
	e, err := d.wrap(el)
	if err != nil {
		return nil
	}
	return e
}

func (d *document) Body() hostdom.Element {
	res, err := d.page.Eval(`() => !!document.body`)
	if err != nil || !res.Value.Bool() {
		return nil
	}
	el, err := d.page.ElementByJS(rod.Eval(`() => document.body`))
	if err != nil {
		return nil
	}
	e, err := d.wrap(el)
	if err != nil {
		return nil
	}
	return e
}

func (d *document) Viewport() (float64, float64, error) {
	res, err := d.page.Eval(`() => ({w: window.innerWidth, h: window.innerHeight})`)
	if err != nil {
		return 0, 0, fmt.Errorf("rodhost: viewport: %w", err)
	}
	return res.Value.Get("w").Num(), res.Value.Get("h").Num(), nil
}

func (d *document) ElementFromPoint(x, y float64) (hostdom.Element, error) {
	res, err := d.page.Eval(`(x, y) => document.elementFromPoint(x, y) !== null`, x, y)
	if err != nil {
		return nil, fmt.Errorf("rodhost: element from point: %w", err)
	}
	if !res.Value.Bool() {
		return nil, nil
	}
	el, err := d.page.ElementByJS(rod.Eval(`(x, y) => document.elementFromPoint(x, y)`, x, y))
	if err != nil {
		return nil, fmt.Errorf("rodhost: element from point: %w", err)
	}
	return d.wrap(el)
}

func (d *document) SameAs(other hostdom.Document) bool {
	o, ok := other.(*document)
	return ok && d.frameID == o.frameID
}

func (d *document) wrap(el *rod.Element) (hostdom.Element, error) {
	node, err := el.Describe(0, false)
	if err != nil {
		return nil, fmt.Errorf("rodhost: describe node: %w", err)
	}
	attrs := make(map[string]string, len(node.Attributes)/2)
	for i := 0; i+1 < len(node.Attributes); i += 2 {
		attrs[node.Attributes[i]] = node.Attributes[i+1]
	}
	return &elem{
		el:    el,
		doc:   d,
		tag:   node.LocalName,
		id:    fmt.Sprintf("%s-%d", d.frameID, node.BackendNodeID),
		attrs: attrs,
	}, nil
}

func (d *document) wrapAll(els rod.Elements) ([]hostdom.Element, error) {
	out := make([]hostdom.Element, 0, len(els))
	for _, el := range els {
		e, err := d.wrap(el)
		if err != nil {
			// Node vanished between query and describe; skip it.
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// shadow adapts an open shadow root.
type shadow struct {
	host *elem
	root *rod.Element
}

func (s *shadow) QueryAll(selector string) ([]hostdom.Element, error) {
	els, err := s.root.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("rodhost: shadow query %q: %w", selector, err)
	}
	return s.host.doc.wrapAll(els)
}

func (s *shadow) ClickTargets() ([]hostdom.Element, error) {
	els, err := s.host.doc.page.ElementsByJS(rod.Eval(clickTargetsJS).This(s.root.Object))
	if err != nil {
		return nil, fmt.Errorf("rodhost: shadow click targets: %w", err)
	}
	return s.host.doc.wrapAll(els)
}

func (s *shadow) ActiveElement() (hostdom.Element, error) {
	res, err := s.host.el.Eval(`() => !!(this.shadowRoot && this.shadowRoot.activeElement)`)
	if err != nil {
		return nil, fmt.Errorf("rodhost: shadow active element: %w", err)
	}
	if !res.Value.Bool() {
		return nil, nil
	}
	el, err := s.host.el.ElementByJS(rod.Eval(`() => this.shadowRoot.activeElement`))
	if err != nil {
		return nil, fmt.Errorf("rodhost: shadow active element: %w", err)
	}
	return s.host.doc.wrap(el)
}

func (s *shadow) Host() hostdom.Element { return s.host }

func (s *shadow) Children() []hostdom.Element {
	els, err := s.root.Elements(":scope > *")
	if err != nil {
		return nil
	}
	out, _ := s.host.doc.wrapAll(els)
	return out
}

// elem adapts a rod.Element. Tag and attributes are captured at wrap
// time; value, geometry, and style always go to the live node.
type elem struct {
	el    *rod.Element
	doc   *document
	tag   string
	id    string
	attrs map[string]string
}

func (e *elem) Tag() string { return e.tag }

func (e *elem) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *elem) Text() (string, error) {
	res, err := e.el.Eval(`() => this.textContent || ''`)
	if err != nil {
		return "", fmt.Errorf("rodhost: text: %w", err)
	}
	return res.Value.Str(), nil
}

func (e *elem) RenderedText() (string, error) {
	res, err := e.el.Eval(`() => this.innerText !== undefined ? this.innerText : (this.textContent || '')`)
	if err != nil {
		return "", fmt.Errorf("rodhost: rendered text: %w", err)
	}
	return res.Value.Str(), nil
}

func (e *elem) Value() (string, bool) {
	res, err := e.el.Eval(`() => ('value' in this) ? String(this.value) : null`)
	if err != nil || res.Value.Nil() {
		return "", false
	}
	return res.Value.Str(), true
}

func (e *elem) Rect() (element.Rect, error) {
	res, err := e.el.Eval(`() => {
		const r = this.getBoundingClientRect();
		return {x: r.x, y: r.y, w: r.width, h: r.height};
	}`)
	if err != nil {
		return element.Rect{}, fmt.Errorf("rodhost: rect: %w", err)
	}
	v := res.Value
	return element.NewRect(v.Get("x").Num(), v.Get("y").Num(), v.Get("w").Num(), v.Get("h").Num()), nil
}

func (e *elem) Style(props ...string) (map[string]string, error) {
	res, err := e.el.Eval(`(props) => {
		const cs = getComputedStyle(this);
		const out = {};
		for (const p of props) out[p] = cs.getPropertyValue(p);
		return out;
	}`, props)
	if err != nil {
		return nil, fmt.Errorf("rodhost: computed style: %w", err)
	}
	out := make(map[string]string, len(props))
	for _, p := range props {
		out[p] = res.Value.Get(p).Str()
	}
	return out, nil
}

// Parent follows the flattened tree: crossing out of a shadow root
// yields the host element.
func (e *elem) Parent() hostdom.Element {
	res, err := e.el.Eval(`() => {
		if (this.parentElement) return true;
		return this.getRootNode() instanceof ShadowRoot;
	}`)
	if err != nil || !res.Value.Bool() {
		return nil
	}
	el, err := e.el.ElementByJS(rod.Eval(`() => this.parentElement || this.getRootNode().host`))
	if err != nil {
		return nil
	}
	p, err := e.doc.wrap(el)
	if err != nil {
		return nil
	}
	return p
}

func (e *elem) Children() []hostdom.Element {
	els, err := e.el.Elements(":scope > *")
	if err != nil {
		return nil
	}
	out, _ := e.doc.wrapAll(els)
	return out
}

func (e *elem) HasVisibleChild() bool {
	res, err := e.el.Eval(`() => {
		for (const c of this.children) {
			const cs = getComputedStyle(c);
			if (cs.display === 'none' || cs.visibility === 'hidden') continue;
			const r = c.getBoundingClientRect();
			if (r.width > 0 && r.height > 0) return true;
		}
		return false;
	}`)
	return err == nil && res.Value.Bool()
}

func (e *elem) ShadowRoot() (hostdom.ShadowRoot, bool) {
	res, err := e.el.Eval(`() => !!this.shadowRoot`)
	if err != nil || !res.Value.Bool() {
		return nil, false
	}
	root, err := e.el.ShadowRoot()
	if err != nil {
		return nil, false
	}
	return &shadow{host: e, root: root}, true
}

func (e *elem) ContentDocument() (hostdom.Document, error) {
	if !hostdom.EmbedderTags[e.tag] {
		return nil, fmt.Errorf("rodhost: %s is not an embedder", e.tag)
	}
	res, err := e.el.Eval(`() => {
		try { return this.contentDocument != null; } catch (err) { return false; }
	}`)
	if err != nil || !res.Value.Bool() {
		return nil, hostdom.ErrCrossOrigin
	}
	page, err := e.el.Frame()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", hostdom.ErrCrossOrigin, err)
	}
	return NewDocument(page), nil
}

func (e *elem) Owner() hostdom.Document { return e.doc }

// Contains walks the flattened parent chain, so shadow content counts
// as contained in its host.
func (e *elem) Contains(other hostdom.Element) bool {
	for n := other; n != nil; n = n.Parent() {
		if e.SameAs(n) {
			return true
		}
	}
	return false
}

func (e *elem) SameAs(other hostdom.Element) bool {
	o, ok := other.(*elem)
	return ok && e.id == o.id
}

func (e *elem) ID() string { return e.id }

func (e *elem) Disabled() bool {
	res, err := e.el.Eval(`() => !!this.disabled`)
	return err == nil && res.Value.Bool()
}

func (e *elem) HasClickHandler() bool {
	res, err := e.el.Eval(`() => typeof this.onclick === 'function'`)
	return err == nil && res.Value.Bool()
}

func (e *elem) Options() (selected []string, all []string, err error) {
	if e.tag != "select" {
		return nil, nil, hostdom.ErrMalformedSelect
	}
	res, err := e.el.Eval(`() => {
		if (!this.options || this.options.length === 0) return null;
		const all = [...this.options].map(o => o.label || o.text || '');
		const selected = [...this.selectedOptions].map(o => o.label || o.text || '');
		return {selected, all};
	}`)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", hostdom.ErrMalformedSelect, err)
	}
	if res.Value.Nil() {
		return nil, nil, hostdom.ErrMalformedSelect
	}
	for _, v := range res.Value.Get("selected").Arr() {
		selected = append(selected, v.Str())
	}
	for _, v := range res.Value.Get("all").Arr() {
		all = append(all, v.Str())
	}
	return selected, all, nil
}

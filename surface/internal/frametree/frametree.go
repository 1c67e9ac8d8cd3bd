// Package frametree models a rendered page as a forest of frames: the
// top document plus every reachable embedded document, each with an
// accumulated coordinate offset from the top viewport. Cross-origin
// embeds become opaque leaves. The forest and the shadow-host list are
// memoized per session and must be explicitly invalidated after any DOM
// mutation — stale state produces wrong geometry silently, not loudly.
package frametree

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/domsurface/surface/element"
	"github.com/hazyhaar/domsurface/surface/internal/hostdom"
)

// Frame is one node of the document forest.
type Frame struct {
	// Embedder is the iframe/frame/object element hosting this document
	// in its parent. Nil for the top frame.
	Embedder hostdom.Element

	// Doc is the embedded document. Nil when the embed is cross-origin.
	Doc hostdom.Document

	// Offset is the accumulated origin of this document relative to the
	// top viewport: parent offset plus the embedder's box origin in the
	// parent's coordinate space. Shadow boundaries contribute nothing.
	Offset element.Point

	// CrossOrigin marks a frame whose document could not be opened.
	CrossOrigin bool

	Parent   *Frame
	Children []*Frame
}

// AbsoluteRect converts an element's local bounding box into top-viewport
// coordinates. Computed fresh on every call: geometry tracks live layout
// and is cheap, so it is never cached.
func (f *Frame) AbsoluteRect(el hostdom.Element) (element.Rect, error) {
	r, err := el.Rect()
	if err != nil {
		return element.Rect{}, fmt.Errorf("frametree: rect: %w", err)
	}
	return r.Translate(f.Offset.X, f.Offset.Y), nil
}

// ErrNoHitTest reports a frame whose document cannot answer point
// queries, such as a cross-origin leaf.
var ErrNoHitTest = errors.New("frametree: hit testing unavailable")

// HitTest queries the topmost element at an absolute point, translated
// into this frame's local coordinates. A nil element with a nil error
// means nothing renders at the point; ErrNoHitTest means the frame has
// no accessible document and the query could not be asked at all.
func (f *Frame) HitTest(p element.Point) (hostdom.Element, error) {
	if f.Doc == nil {
		return nil, ErrNoHitTest
	}
	el, err := f.Doc.ElementFromPoint(p.X-f.Offset.X, p.Y-f.Offset.Y)
	if err != nil {
		return nil, fmt.Errorf("frametree: hit test: %w", err)
	}
	return el, nil
}

// Forest is the session-scoped cache of the frame tree and the main
// document's shadow-host list. One Forest serves one DOM snapshot; call
// Invalidate before reuse after any page mutation.
type Forest struct {
	top    hostdom.Document
	logger *slog.Logger

	root        *Frame
	shadowHosts []hostdom.Element
	shadowDone  bool
}

// New creates a Forest over the top document. The tree is built lazily
// on first use.
func New(top hostdom.Document, logger *slog.Logger) *Forest {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forest{top: top, logger: logger}
}

// Top returns the top document.
func (s *Forest) Top() hostdom.Document { return s.top }

// Invalidate discards the memoized frame tree and shadow-host list. The
// next access rebuilds both from the live DOM.
func (s *Forest) Invalidate() {
	s.root = nil
	s.shadowHosts = nil
	s.shadowDone = false
}

// Root returns the frame tree, building it on first call.
func (s *Forest) Root() (*Frame, error) {
	if s.root != nil {
		return s.root, nil
	}
	root := &Frame{Doc: s.top}
	s.buildChildren(root)
	s.root = root
	return root, nil
}

// Viewport returns the top document's viewport size.
func (s *Forest) Viewport() (w, h float64, err error) {
	return s.top.Viewport()
}

// FrameFor locates the frame owning the given document. Returns nil when
// the document is not part of the forest.
func (s *Forest) FrameFor(doc hostdom.Document) *Frame {
	root, err := s.Root()
	if err != nil {
		return nil
	}
	return findFrame(root, doc)
}

func findFrame(f *Frame, doc hostdom.Document) *Frame {
	if f.Doc != nil && f.Doc.SameAs(doc) {
		return f
	}
	for _, c := range f.Children {
		if found := findFrame(c, doc); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits every frame depth-first, parents before children.
func (s *Forest) Walk(visit func(*Frame) error) error {
	root, err := s.Root()
	if err != nil {
		return err
	}
	return walkFrame(root, visit)
}

func walkFrame(f *Frame, visit func(*Frame) error) error {
	if err := visit(f); err != nil {
		return err
	}
	for _, c := range f.Children {
		if err := walkFrame(c, visit); err != nil {
			return err
		}
	}
	return nil
}

var embedderSelector = strings.Join(keys(hostdom.EmbedderTags), ", ")

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// buildChildren discovers embedded documents under a frame. Embedders
// inside shadow roots are included: shadow content shares the host
// document's coordinate space, so their rects already compose correctly.
func (s *Forest) buildChildren(parent *Frame) {
	if parent.Doc == nil {
		return
	}
	for _, embed := range s.embeddersIn(parent.Doc) {
		child := s.openFrame(parent, embed)
		parent.Children = append(parent.Children, child)
		if !child.CrossOrigin {
			s.buildChildren(child)
		}
	}
}

// embeddersIn collects embedding elements in a document scope and every
// open shadow scope below it.
func (s *Forest) embeddersIn(doc hostdom.Document) []hostdom.Element {
	var out []hostdom.Element
	var scan func(scope hostdom.Scope)
	scan = func(scope hostdom.Scope) {
		els, err := scope.QueryAll(embedderSelector)
		if err != nil {
			s.logger.Debug("frametree: embedder query failed", "error", err)
		}
		out = append(out, els...)

		hosts, err := scope.QueryAll("*")
		if err != nil {
			return
		}
		for _, h := range hosts {
			if sr, ok := h.ShadowRoot(); ok {
				scan(sr)
			}
		}
	}
	scan(doc)
	return out
}

// openFrame builds a child frame for one embedding element. Access
// failures downgrade to an opaque cross-origin leaf; only the offset
// arithmetic can ever be trusted for such a frame.
func (s *Forest) openFrame(parent *Frame, embed hostdom.Element) *Frame {
	child := &Frame{Embedder: embed, Parent: parent}

	r, err := embed.Rect()
	if err == nil {
		child.Offset = element.Point{
			X: parent.Offset.X + r.Min.X,
			Y: parent.Offset.Y + r.Min.Y,
		}
	} else {
		child.Offset = parent.Offset
	}

	doc, err := embed.ContentDocument()
	if err != nil {
		child.CrossOrigin = true
		if !errors.Is(err, hostdom.ErrCrossOrigin) {
			s.logger.Debug("frametree: embed open failed, treating as opaque",
				"tag", embed.Tag(), "error", err)
		}
		return child
	}
	child.Doc = doc
	return child
}

// ShadowHosts returns the memoized list of shadow-root hosting elements
// in the main document.
func (s *Forest) ShadowHosts() ([]hostdom.Element, error) {
	if s.shadowDone {
		return s.shadowHosts, nil
	}
	all, err := s.top.QueryAll("*")
	if err != nil {
		return nil, fmt.Errorf("frametree: shadow host scan: %w", err)
	}
	var hosts []hostdom.Element
	for _, el := range all {
		if hostdom.IsShadowHost(el) {
			hosts = append(hosts, el)
		}
	}
	s.shadowHosts = hosts
	s.shadowDone = true
	return hosts, nil
}

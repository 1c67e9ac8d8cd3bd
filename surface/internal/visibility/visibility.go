// Package visibility decides whether elements are actually visible on
// screen: hidden by styling, collapsed to zero size, or buried behind
// other content. It also hosts the pairwise foreground judge used by
// downstream consumers to resolve overlapping candidates.
package visibility

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/hazyhaar/domsurface/surface/element"
	"github.com/hazyhaar/domsurface/surface/internal/frametree"
	"github.com/hazyhaar/domsurface/surface/internal/hostdom"
)

// sampleInset keeps sampled points one unit inside box corners to avoid
// edge ambiguity in hit testing.
const sampleInset = 1.0

// Analyzer evaluates visibility against one frame forest snapshot.
type Analyzer struct {
	forest *frametree.Forest
	logger *slog.Logger
}

// New creates an Analyzer bound to a forest.
func New(forest *frametree.Forest, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{forest: forest, logger: logger}
}

// Hidden reports whether an element should be excluded from the
// interactive surface. container relaxes the size rules for embedding
// elements and shadow hosts: their own box can be degenerate while the
// content they host renders on top of them, so only their foreground
// status matters.
//
// Decision order: explicit hiding styles, collapsed geometry, the
// one-pixel / zero-opacity trick, then occlusion sampling. An element
// judged hidden is reclassified visible when it is an inline wrapper
// with at least one visible child — an inline box is not authoritative
// for overflowing children.
func (a *Analyzer) Hidden(el hostdom.Element, frame *frametree.Frame, container bool) bool {
	hidden := a.hiddenNoOverride(el, frame, container)
	if !hidden {
		return false
	}
	if st, err := el.Style("display"); err == nil {
		if strings.HasPrefix(st["display"], "inline") && el.HasVisibleChild() {
			return false
		}
	}
	return true
}

func (a *Analyzer) hiddenNoOverride(el hostdom.Element, frame *frametree.Frame, container bool) bool {
	if _, ok := el.Attr("hidden"); ok {
		return true
	}

	st, err := el.Style("display", "visibility", "opacity", "width", "height")
	if err != nil {
		// No style oracle answer: keep the element rather than silently
		// dropping it.
		a.logger.Debug("visibility: style query failed", "tag", el.Tag(), "error", err)
		return false
	}
	if st["display"] == "none" || st["visibility"] == "hidden" {
		return true
	}

	rect, rectErr := el.Rect()
	cw, cwOK := cssLength(st["width"])
	ch, chOK := cssLength(st["height"])

	// A container's own box says nothing about the content rendered on
	// top of it, which has its own true size.
	if !container && !hostdom.IsShadowHost(el) {
		if cwOK && chOK && (cw <= 0 || ch <= 0) {
			return true
		}
		if rectErr == nil && rect.Empty() {
			return true
		}
	}

	// One device pixel in either dimension, or zero opacity: the usual
	// way to keep an element technically present while visually gone.
	// Input controls legitimately render this way (custom checkboxes),
	// so they are exempt.
	if el.Tag() != "input" {
		if !container && (cwOK && cw == 1 || chOK && ch == 1) {
			return true
		}
		if op, ok := cssNumber(st["opacity"]); ok && op == 0 {
			return true
		}
	}

	if container || rectErr != nil {
		return false
	}

	if neverOccluded(el) {
		return false
	}

	absBox := rect.Translate(frame.Offset.X, frame.Offset.Y)
	if a.offscreen(absBox) {
		// Outside the viewport there is nothing meaningful to sample.
		return false
	}

	return a.Occluded(el, frame, absBox)
}

// Disabled reports whether a control is disabled, via the disabled
// property of kinds that carry one or the aria-disabled attribute.
func Disabled(el hostdom.Element) bool {
	if el.Disabled() {
		return true
	}
	v, _ := el.Attr("aria-disabled")
	return v == "true"
}

// neverOccluded lists controls exempt from occlusion classification:
// selects and check-style inputs frequently have near-zero or decorative
// boxes while remaining interactable through direct dispatch.
func neverOccluded(el hostdom.Element) bool {
	switch el.Tag() {
	case "select":
		return true
	case "input":
		t, _ := el.Attr("type")
		return t == "checkbox" || t == "radio"
	}
	return false
}

func (a *Analyzer) offscreen(absBox element.Rect) bool {
	w, h, err := a.forest.Viewport()
	if err != nil {
		return false
	}
	return absBox.Intersect(element.NewRect(0, 0, w, h)).Empty()
}

// Occluded samples five points of the absolute box, four corners inset
// by one unit plus the center, hit-testing each inside the element's
// own frame. The element is occluded only when it is foreground at none
// of the sampled points; a point where nothing renders counts as not
// foreground there. Degenerate boxes are never occluded, and a frame
// without hit testing (cross-origin container) skips the test.
func (a *Analyzer) Occluded(el hostdom.Element, frame *frametree.Frame, absBox element.Rect) bool {
	if absBox.Empty() {
		return false
	}
	if frame == nil || frame.Doc == nil {
		return false
	}
	for _, p := range samplePoints(absBox) {
		hit, err := frame.HitTest(p)
		if err != nil {
			// Hit testing unavailable: skipped, not failed.
			return false
		}
		if hit == nil {
			continue
		}
		if el.Contains(hit) {
			return false
		}
	}
	return true
}

func samplePoints(b element.Rect) []element.Point {
	return []element.Point{
		{X: b.Min.X + sampleInset, Y: b.Min.Y + sampleInset},
		{X: b.Max.X - sampleInset, Y: b.Min.Y + sampleInset},
		{X: b.Min.X + sampleInset, Y: b.Max.Y - sampleInset},
		{X: b.Max.X - sampleInset, Y: b.Max.Y - sampleInset},
		b.Center(),
	}
}

// cssLength parses a computed pixel length. Non-numeric values such as
// "auto" report ok=false.
func cssLength(v string) (float64, bool) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func cssNumber(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

package visibility

import (
	"github.com/hazyhaar/domsurface/surface/element"
	"github.com/hazyhaar/domsurface/surface/internal/frametree"
	"github.com/hazyhaar/domsurface/surface/internal/hostdom"
)

// Subject is one side of a foreground comparison: a live element, its
// absolute box, and the frame it renders in.
type Subject struct {
	El    hostdom.Element
	Box   element.Rect
	Frame *frametree.Frame
}

// Judge decides which of two overlapping subjects renders on top by
// sampling the overlap region: the intersection's four inset corners
// plus each subject's center when it falls inside the intersection.
//
// Judge(x, y) and Judge(y, x) always have opposite sign or are both
// RelNone. When the two subjects live in different frames the sampling
// happens in the top frame, where an embedded element can only resolve
// to its embedder; such pairs normally come out RelNone.
func (a *Analyzer) Judge(x, y Subject) element.Relation {
	overlap := x.Box.Intersect(y.Box)
	if overlap.Empty() {
		return element.RelNone
	}

	frame := x.Frame
	if frame == nil || y.Frame != frame {
		if root, err := a.forest.Root(); err == nil {
			frame = root
		}
	}
	if frame == nil || frame.Doc == nil {
		return element.RelNone
	}

	points := samplePoints(overlap)[:4]
	if c := x.Box.Center(); overlap.Contains(c) {
		points = append(points, c)
	}
	if c := y.Box.Center(); overlap.Contains(c) {
		points = append(points, c)
	}

	var forX, forY int
	for _, p := range points {
		hit, err := frame.HitTest(p)
		if err != nil || hit == nil {
			continue
		}
		switch classify(x.El, y.El, hit) {
		case pickFirst:
			forX++
		case pickSecond:
			forY++
		}
	}

	switch {
	case forX > forY && forY == 0:
		return element.RelFirstExclusive
	case forX > forY:
		return element.RelFirstAbove
	case forY > forX && forX == 0:
		return element.RelSecondExclusive
	case forY > forX:
		return element.RelSecondAbove
	default:
		return element.RelNone
	}
}

type pick int

const (
	pickNeither pick = iota
	pickFirst
	pickSecond
)

// classify attributes a hit result to one of the two subjects by
// ancestor-or-self containment. When both contain the hit but neither
// is it, the subject that does not contain the other wins: a containing
// ancestor is assumed to render further back than its contained
// descendant. That assumption mirrors observed browser stacking, not a
// guarantee.
func classify(x, y hostdom.Element, hit hostdom.Element) pick {
	if hit.SameAs(x) {
		return pickFirst
	}
	if hit.SameAs(y) {
		return pickSecond
	}
	inX := x.Contains(hit)
	inY := y.Contains(hit)
	switch {
	case inX && inY:
		if x.Contains(y) {
			return pickSecond
		}
		if y.Contains(x) {
			return pickFirst
		}
		return pickNeither
	case inX:
		return pickFirst
	case inY:
		return pickSecond
	default:
		return pickNeither
	}
}

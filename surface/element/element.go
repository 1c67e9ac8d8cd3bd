// Package element holds the wire types produced by a discovery pass:
// descriptors, geometry, structural path boundaries, and foreground
// relation codes. Everything here is serializable; live handles never
// appear in this package.
package element

import "fmt"

// Point is a position in absolute top-viewport coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned box given by two corner points.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// NewRect builds a Rect from an origin and a size.
func NewRect(x, y, w, h float64) Rect {
	return Rect{Min: Point{X: x, Y: y}, Max: Point{X: x + w, Y: y + h}}
}

// Width returns the horizontal extent of the rect.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent of the rect.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Center returns the midpoint of the rect.
func (r Rect) Center() Point {
	return Point{X: r.Min.X + r.Width()/2, Y: r.Min.Y + r.Height()/2}
}

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Translate returns the rect shifted by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{
		Min: Point{X: r.Min.X + dx, Y: r.Min.Y + dy},
		Max: Point{X: r.Max.X + dx, Y: r.Max.Y + dy},
	}
}

// Intersect returns the overlap of two rects. The result is Empty when
// the rects do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		Min: Point{X: maxf(r.Min.X, o.Min.X), Y: maxf(r.Min.Y, o.Min.Y)},
		Max: Point{X: minf(r.Max.X, o.Max.X), Y: minf(r.Max.Y, o.Max.Y)},
	}
	if out.Max.X < out.Min.X {
		out.Max.X = out.Min.X
	}
	if out.Max.Y < out.Min.Y {
		out.Max.Y = out.Min.Y
	}
	return out
}

// Contains reports whether the point lies inside the rect (inclusive min,
// exclusive max).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// TagInfo identifies what kind of element a descriptor refers to.
type TagInfo struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
	Type string `json:"type,omitempty"`
}

func (t TagInfo) String() string {
	s := t.Name
	if t.Type != "" {
		s = fmt.Sprintf("%s[type=%s]", s, t.Type)
	}
	if t.Role != "" {
		s = fmt.Sprintf("%s[role=%s]", s, t.Role)
	}
	return s
}

// Descriptor is the handle-free summary of one discovered interactive
// element. Index is only valid within the discovery pass that produced
// the descriptor; the owning session can re-resolve the live handle for
// an index while the pass is current.
type Descriptor struct {
	Index       int     `json:"index"`
	Tag         TagInfo `json:"tag"`
	Description string  `json:"description,omitempty"`
	Box         Rect    `json:"box"`
	Center      Point   `json:"center"`
	Path        string  `json:"path"`
}

// Relation is the five-way outcome of a pairwise foreground comparison.
type Relation int

const (
	// RelNone means the boxes do not overlap, or sampling was a tie.
	RelNone Relation = 0
	// RelFirstAbove means the first element is foreground at more sampled
	// points, but not at all of them.
	RelFirstAbove Relation = 1
	// RelFirstExclusive means the first element is foreground at every
	// sampled point.
	RelFirstExclusive Relation = 2
	// RelSecondAbove and RelSecondExclusive are the symmetric cases.
	RelSecondAbove     Relation = -1
	RelSecondExclusive Relation = -2
)

func (r Relation) String() string {
	switch r {
	case RelFirstExclusive:
		return "first-exclusive"
	case RelFirstAbove:
		return "first-above"
	case RelSecondAbove:
		return "second-above"
	case RelSecondExclusive:
		return "second-exclusive"
	default:
		return "none"
	}
}

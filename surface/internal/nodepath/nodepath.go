// Package nodepath builds structural paths from the top document down to
// an element. Segments address nodes by tag plus positional index among
// like-tagged siblings. Shadow-root and iframe crossings are encoded as
// explicit markers so a path is unambiguous across the whole forest.
package nodepath

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/domsurface/surface/internal/frametree"
	"github.com/hazyhaar/domsurface/surface/internal/hostdom"
)

const (
	// ShadowMarker separates a host element's path from its shadow
	// content's path.
	ShadowMarker = "#shadow-root"

	// DocumentMarker separates an embedding element's path from its
	// embedded document's content.
	DocumentMarker = "#document"

	// CorruptedMarker replaces an iframe crossing whose embedding element
	// can no longer be resolved. Defensive: emitted instead of failing
	// when a recorded chain went stale.
	CorruptedMarker = "#corrupted-iframe-chain"
)

// Resolve builds the full path for an element rendered in the given
// frame. An element with no shadow or iframe ancestry resolves to its
// plain structural path with no markers.
func Resolve(el hostdom.Element, frame *frametree.Frame) string {
	local := localPath(el)
	if frame == nil || frame.Parent == nil {
		return local
	}
	if frame.Embedder == nil {
		// A non-top frame must have an embedding element; a recorded
		// chain missing one is corrupt, not fatal.
		return "/" + CorruptedMarker + local
	}
	return Resolve(frame.Embedder, frame.Parent) + "/" + DocumentMarker + local
}

// localPath walks parent links up to the document element, inserting a
// shadow marker wherever the chain crosses out of a shadow tree into
// its host.
func localPath(el hostdom.Element) string {
	var b strings.Builder
	segs := collect(el)
	for _, s := range segs {
		b.WriteString("/")
		b.WriteString(s)
	}
	return b.String()
}

func collect(el hostdom.Element) []string {
	var segs []string
	cur := el
	for cur != nil {
		parent := cur.Parent()
		segs = append([]string{segment(cur, parent)}, segs...)
		if parent != nil && crossesShadow(cur, parent) {
			segs = append([]string{ShadowMarker}, segs...)
		}
		cur = parent
	}
	return segs
}

// crossesShadow reports whether cur sits at the top of parent's shadow
// tree rather than among its light children.
func crossesShadow(cur, parent hostdom.Element) bool {
	sr, ok := parent.ShadowRoot()
	if !ok {
		return false
	}
	for _, c := range sr.Children() {
		if c.SameAs(cur) {
			return true
		}
	}
	return false
}

// segment formats one path step: tag name plus 1-based index among
// like-tagged siblings, index omitted when the tag is unique in its
// scope.
func segment(el hostdom.Element, parent hostdom.Element) string {
	name := el.Tag()
	if parent == nil {
		return name
	}

	siblings := siblingScope(el, parent)
	idx, total := 1, 0
	for _, sib := range siblings {
		if sib.Tag() != name {
			continue
		}
		total++
		if sib.SameAs(el) {
			idx = total
		}
	}
	if total > 1 {
		return fmt.Sprintf("%s[%d]", name, idx)
	}
	return name
}

func siblingScope(el, parent hostdom.Element) []hostdom.Element {
	if crossesShadow(el, parent) {
		sr, _ := parent.ShadowRoot()
		return sr.Children()
	}
	return parent.Children()
}

// Package hostdom defines the capability surface the engine needs from a
// rendered page: computed styles, bounding rects, viewport size, hit
// testing, and selector queries. The engine owns no DOM; it only consumes
// these interfaces. Backends: rodhost (live Chrome over CDP) and memdom
// (static fixtures / replay).
package hostdom

import (
	"errors"

	"github.com/hazyhaar/domsurface/surface/element"
)

var (
	// ErrCrossOrigin marks an embedded document the host refuses to open.
	// Callers degrade the frame to an opaque leaf; this is a normal
	// condition, never fatal.
	ErrCrossOrigin = errors.New("hostdom: cross-origin document access denied")

	// ErrDetached marks an element no longer attached to its document.
	ErrDetached = errors.New("hostdom: element detached from document")

	// ErrMalformedSelect marks a select element whose options cannot be
	// resolved. Description generation degrades to generic handling.
	ErrMalformedSelect = errors.New("hostdom: select element has no resolvable options")
)

// Scope is anything elements can be queried under: a document or a
// shadow root. Queries stay inside the scope — nested shadow roots and
// embedded documents are not descended into.
type Scope interface {
	// QueryAll returns the elements in this scope matching the CSS
	// selector.
	QueryAll(selector string) ([]Element, error)

	// ClickTargets returns elements in this scope carrying a legacy
	// onclick handler property. CSS selectors cannot express that, so it
	// is a separate capability.
	ClickTargets() ([]Element, error)

	// ActiveElement returns the focused element as this scope reports it,
	// without descending into shadow roots or embedded documents. A nil
	// element means nothing is focused in this scope.
	ActiveElement() (Element, error)
}

// Document is one document of the page forest: the top document or a
// same-origin embedded document.
type Document interface {
	Scope

	// Root returns the document element.
	Root() Element

	// Body returns the document body, or nil while the document has none.
	Body() Element

	// Viewport returns the visual viewport size in CSS pixels.
	Viewport() (w, h float64, err error)

	// ElementFromPoint hit-tests document-local coordinates and returns
	// the topmost rendered element, or nil when no element is hit.
	ElementFromPoint(x, y float64) (Element, error)

	// SameAs reports whether two references address the same document.
	SameAs(Document) bool
}

// ShadowRoot is an open shadow subtree attached to a host element. It
// shares its host document's coordinate space and contributes no offset.
type ShadowRoot interface {
	Scope

	// Host returns the element hosting this shadow root.
	Host() Element

	// Children returns the top-level elements of the shadow tree in
	// document order.
	Children() []Element
}

// Element is an opaque reference into a host document. Identity is
// reference identity: compare with SameAs or ID, never structurally.
// Handles are owned by the host runtime and must not be retained across
// a page reload.
type Element interface {
	// Tag returns the lowercase tag name.
	Tag() string

	// Attr returns an attribute value and whether the attribute exists.
	Attr(name string) (string, bool)

	// Text returns the element's raw text content.
	Text() (string, error)

	// RenderedText returns the text as laid out, which can differ from
	// Text for collapsed or clipped content.
	RenderedText() (string, error)

	// Value returns the current value of a value-carrying control.
	Value() (string, bool)

	// Rect returns the bounding box in the element's own document
	// coordinates.
	Rect() (element.Rect, error)

	// Style returns computed style values for the requested properties.
	Style(props ...string) (map[string]string, error)

	// Parent returns the parent element. Crossing out of a shadow root
	// yields the host element, so parent chains follow the flattened
	// tree. Nil at the top of a document.
	Parent() Element

	// Children returns the direct child elements in document order.
	Children() []Element

	// HasVisibleChild reports whether the host runtime considers at
	// least one direct child visible.
	HasVisibleChild() bool

	// ShadowRoot returns the open shadow root hosted by this element.
	ShadowRoot() (ShadowRoot, bool)

	// ContentDocument returns the embedded document of an iframe or
	// frame element. Cross-origin content fails with ErrCrossOrigin.
	ContentDocument() (Document, error)

	// Owner returns the document this element belongs to. Shadow content
	// reports its host's document.
	Owner() Document

	// Contains reports whether other is a descendant-or-self of this
	// element along the flattened tree.
	Contains(other Element) bool

	// SameAs reports reference identity with another element.
	SameAs(other Element) bool

	// ID returns an identity token: equal tokens address the same node
	// within one analysis session.
	ID() string

	// Disabled reports the control's disabled state for element kinds
	// that have one; false for everything else.
	Disabled() bool

	// HasClickHandler reports a legacy onclick handler property.
	HasClickHandler() bool

	// Options returns the selected option texts and the full option list
	// of a select element. Non-select elements and selects with no
	// resolvable options fail with ErrMalformedSelect.
	Options() (selected []string, all []string, err error)
}

// EmbedderTags lists tag names that embed another document.
var EmbedderTags = map[string]bool{
	"iframe": true,
	"frame":  true,
	"object": true,
	"embed":  true,
}

// IsEmbedder reports whether the element can host an embedded document.
func IsEmbedder(el Element) bool {
	return EmbedderTags[el.Tag()]
}

// IsShadowHost reports whether the element hosts an open shadow root.
func IsShadowHost(el Element) bool {
	_, ok := el.ShadowRoot()
	return ok
}

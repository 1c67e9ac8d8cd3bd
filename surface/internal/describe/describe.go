// Package describe derives short human-readable labels for interactive
// elements, for consumption by an action planner. A description can be
// legitimately unavailable; that is reported as data, never as an error.
package describe

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/domsurface/surface/internal/hostdom"
)

// maxOwnText is the longest normalized text accepted verbatim before
// falling back to rendered text.
const maxOwnText = 80

// textInputTypes lists input types whose value is user-readable text.
var textInputTypes = map[string]bool{
	"":         true,
	"text":     true,
	"search":   true,
	"email":    true,
	"url":      true,
	"tel":      true,
	"password": true,
	"number":   true,
}

// salientAttrs is the fixed attribute priority scanned when an element
// carries no usable text of its own.
var salientAttrs = []string{
	"label",
	"aria-label",
	"aria-labelledby",
	"aria-description",
	"name",
	"placeholder",
	"title",
	"alt",
	"value",
}

// Describe builds a one-line description for an element. ok is false
// when nothing usable was found; callers must treat that as
// "description unavailable", not as a failure.
func Describe(el hostdom.Element) (string, bool) {
	if el.Tag() == "select" {
		if d, ok := describeSelect(el); ok {
			return d, true
		}
		// Malformed select: no resolvable options — fall through to
		// generic handling.
	}

	if d, ok := controlValue(el); ok {
		return d, true
	}

	if d, ok := ownText(el); ok {
		return d, true
	}

	if d, ok := attrScan(el); ok {
		return withParentLine(el, d), true
	}

	if kids := el.Children(); len(kids) > 0 {
		if d, ok := attrScan(kids[0]); ok {
			return withParentLine(el, d), true
		}
	}

	return "", false
}

// describeSelect renders the current selection plus the option list,
// pipe-joined: `Red [Red|Green|Blue]`.
func describeSelect(el hostdom.Element) (string, bool) {
	selected, all, err := el.Options()
	if err != nil || len(all) == 0 {
		return "", false
	}
	cur := strings.Join(selected, ", ")
	return normalize(fmt.Sprintf("%s [%s]", cur, strings.Join(all, "|"))), true
}

func controlValue(el hostdom.Element) (string, bool) {
	switch el.Tag() {
	case "textarea":
	case "input":
		t, _ := el.Attr("type")
		if !textInputTypes[strings.ToLower(t)] {
			return "", false
		}
	default:
		return "", false
	}
	v, ok := el.Value()
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return normalize(v), true
}

// ownText prefers the element's raw text when it is short enough after
// whitespace normalization; an overlong raw text falls back to the
// rendered text, which excludes collapsed or clipped content.
func ownText(el hostdom.Element) (string, bool) {
	raw, err := el.Text()
	if err != nil {
		return "", false
	}
	t := normalize(raw)
	if t == "" {
		return "", false
	}
	if len(t) <= maxOwnText {
		return t, true
	}
	rendered, err := el.RenderedText()
	if err == nil {
		if r := normalize(rendered); r != "" && len(r) <= maxOwnText {
			return r, true
		}
	}
	return "", false
}

func attrScan(el hostdom.Element) (string, bool) {
	for _, name := range salientAttrs {
		if v, ok := el.Attr(name); ok {
			if t := normalize(v); t != "" {
				return t, true
			}
		}
	}
	return "", false
}

// withParentLine prefixes the parent's first line of text, when it has
// one, to give attribute-only descriptions some context.
func withParentLine(el hostdom.Element, d string) string {
	parent := el.Parent()
	if parent == nil {
		return d
	}
	raw, err := parent.Text()
	if err != nil {
		return d
	}
	line := firstLine(raw)
	if line == "" || line == d {
		return d
	}
	return line + " " + d
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := normalize(line); t != "" {
			if len(t) > maxOwnText {
				return ""
			}
			return t
		}
	}
	return ""
}

// normalize collapses runs of whitespace to single spaces and trims.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

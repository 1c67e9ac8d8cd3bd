// Package discover enumerates the interactive elements of a page
// forest: it drives the frame traversal, descends into shadow roots,
// applies the hidden filter, and de-duplicates within each scope. The
// output is an ordered list of candidates the session turns into
// descriptors.
package discover

import (
	"log/slog"
	"strings"

	"github.com/hazyhaar/domsurface/surface/internal/frametree"
	"github.com/hazyhaar/domsurface/surface/internal/hostdom"
	"github.com/hazyhaar/domsurface/surface/internal/visibility"
)

// DefaultSelectors is the stock interactive selector set: native
// controls, ARIA widget roles, and focus/editing affordances.
var DefaultSelectors = []string{
	"a",
	"button",
	"input",
	"select",
	"textarea",
	"option",
	"summary",
	"details",
	"label",
	"[contenteditable]",
	"[tabindex]",
	"[role=button]",
	"[role=link]",
	"[role=textbox]",
	"[role=searchbox]",
	"[role=checkbox]",
	"[role=radio]",
	"[role=combobox]",
	"[role=listbox]",
	"[role=menuitem]",
	"[role=menuitemcheckbox]",
	"[role=menuitemradio]",
	"[role=option]",
	"[role=tab]",
	"[role=switch]",
	"[role=slider]",
	"[role=spinbutton]",
	"[role=treeitem]",
}

// Options controls one discovery pass.
type Options struct {
	// Selectors is the CSS selector set to match. Empty falls back to
	// DefaultSelectors.
	Selectors []string

	// Admit is an optional per-element admission predicate applied after
	// selector matching.
	Admit func(hostdom.Element) bool

	// IncludeHidden keeps elements the visibility analyzer would reject.
	IncludeHidden bool
}

// Candidate is one discovered element together with the frame it
// renders in, so coordinate and path resolution can compose offsets
// and crossings later.
type Candidate struct {
	El    hostdom.Element
	Frame *frametree.Frame
}

// Engine runs discovery passes over one forest snapshot.
type Engine struct {
	forest *frametree.Forest
	vis    *visibility.Analyzer
	logger *slog.Logger
}

// New creates an Engine. vis decides the hidden filter.
func New(forest *frametree.Forest, vis *visibility.Analyzer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{forest: forest, vis: vis, logger: logger}
}

// Run returns the de-duplicated candidates reachable from the top
// document, including shadow and same-origin iframe content. Embedded
// documents are visited before their embedding scope, so nested content
// comes out first. Duplicates within one scope are impossible (identity
// de-dup per scope); duplicates across scopes are not defended against,
// since an element cannot belong to two scopes at once.
//
// The pass is a synchronous snapshot: results are best-effort if the
// DOM mutates mid-traversal. Cross-origin frames contribute nothing and
// raise nothing.
func (e *Engine) Run(opts Options) ([]Candidate, error) {
	selectors := opts.Selectors
	if len(selectors) == 0 {
		selectors = DefaultSelectors
	}
	query := strings.Join(selectors, ", ")

	root, err := e.forest.Root()
	if err != nil {
		return nil, err
	}

	var out []Candidate
	var walk func(f *frametree.Frame)
	walk = func(f *frametree.Frame) {
		for _, child := range f.Children {
			walk(child)
		}
		if f.Doc == nil {
			return
		}
		out = append(out, e.collectScope(f, f.Doc, query, opts)...)
	}
	walk(root)
	return out, nil
}

// collectScope gathers candidates from one scope: nested shadow roots
// first, then selector matches, then legacy click-handler carriers.
func (e *Engine) collectScope(f *frametree.Frame, scope hostdom.Scope, query string, opts Options) []Candidate {
	var out []Candidate

	all, err := scope.QueryAll("*")
	if err != nil {
		e.logger.Debug("discover: scope enumeration failed", "error", err)
	}
	for _, el := range all {
		if sr, ok := el.ShadowRoot(); ok {
			out = append(out, e.collectScope(f, sr, query, opts)...)
		}
	}

	seen := make(map[string]bool)

	matches, err := scope.QueryAll(query)
	if err != nil {
		e.logger.Debug("discover: selector query failed", "error", err)
	}
	clicks, err := scope.ClickTargets()
	if err != nil {
		e.logger.Debug("discover: click-target query failed", "error", err)
	}

	for _, el := range append(matches, clicks...) {
		id := el.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		if !e.admit(el, f, opts) {
			continue
		}
		out = append(out, Candidate{El: el, Frame: f})
	}
	return out
}

func (e *Engine) admit(el hostdom.Element, f *frametree.Frame, opts Options) bool {
	if opts.Admit != nil && !opts.Admit(el) {
		return false
	}
	if opts.IncludeHidden {
		return true
	}
	// Embedding elements and shadow hosts get the container relaxation:
	// their own degenerate box does not disqualify the content rendered
	// on top of them.
	container := hostdom.IsEmbedder(el) || hostdom.IsShadowHost(el)
	return !e.vis.Hidden(el, f, container)
}

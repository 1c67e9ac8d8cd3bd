// Package surface orchestrates one analysis session over a rendered
// page: it owns the frame forest and its caches, runs discovery passes,
// and exposes the predicates downstream consumers build on — hidden,
// disabled, path resolution, and pairwise foreground comparison.
//
// A session serves one DOM snapshot. Callers that mutate the page
// (navigation, agent actions) must call Invalidate before the next
// pass; there is no automatic staleness detection, and a stale session
// silently produces wrong geometry.
package surface

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/domsurface/idgen"
	"github.com/hazyhaar/domsurface/observability"
	"github.com/hazyhaar/domsurface/surface/element"
	"github.com/hazyhaar/domsurface/surface/internal/describe"
	"github.com/hazyhaar/domsurface/surface/internal/discover"
	"github.com/hazyhaar/domsurface/surface/internal/frametree"
	"github.com/hazyhaar/domsurface/surface/internal/hostdom"
	"github.com/hazyhaar/domsurface/surface/internal/nodepath"
	"github.com/hazyhaar/domsurface/surface/internal/visibility"
)

// HostDocument is the capability surface a backend must provide.
type HostDocument = hostdom.Document

// HostElement is an opaque live element handle. Handles never cross a
// serialization boundary; descriptors carry everything that does.
type HostElement = hostdom.Element

// DiscoverOptions controls one discovery pass.
type DiscoverOptions struct {
	// Selectors overrides the stock interactive selector set.
	Selectors []string `json:"selectors,omitempty"`

	// IncludeHidden keeps elements the visibility analyzer rejects.
	IncludeHidden bool `json:"include_hidden,omitempty"`

	// MaxElements truncates the result. Zero means no limit.
	MaxElements int `json:"max_elements,omitempty"`
}

// Session is one analysis session bound to one page snapshot.
type Session struct {
	id     string
	url    string
	logger *slog.Logger
	events *observability.EventLogger

	mu     sync.Mutex
	forest *frametree.Forest
	vis    *visibility.Analyzer
	eng    *discover.Engine

	// pass holds the live handles of the current discovery pass, by
	// descriptor index. Cleared on Invalidate.
	pass []discover.Candidate
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithEvents records scan events to an observability store.
func WithEvents(events *observability.EventLogger) Option {
	return func(s *Session) { s.events = events }
}

// WithPageURL records the page URL on logged scan events.
func WithPageURL(url string) Option {
	return func(s *Session) { s.url = url }
}

// NewSession creates a session over a host document.
func NewSession(doc HostDocument, opts ...Option) *Session {
	s := &Session{
		id:     idgen.Prefixed("ses_", idgen.NanoID(10))(),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.forest = frametree.New(doc, s.logger)
	s.vis = visibility.New(s.forest, s.logger)
	s.eng = discover.New(s.forest, s.vis, s.logger)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Invalidate discards the frame forest, the shadow-host cache, and the
// current pass. Must be called after any page mutation.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forest.Invalidate()
	s.pass = nil
	s.logger.Debug("surface: session invalidated", "session", s.id)
}

// Discover runs a discovery pass and returns descriptors for the
// interactive surface. Descriptor indices are valid until the next
// Discover or Invalidate call on this session.
func (s *Session) Discover(ctx context.Context, opts DiscoverOptions) ([]element.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	cands, err := s.eng.Run(discover.Options{
		Selectors:     opts.Selectors,
		IncludeHidden: opts.IncludeHidden,
	})
	if err != nil {
		return nil, fmt.Errorf("surface: discover: %w", err)
	}
	if opts.MaxElements > 0 && len(cands) > opts.MaxElements {
		cands = cands[:opts.MaxElements]
	}

	descriptors := make([]element.Descriptor, 0, len(cands))
	kept := cands[:0]
	for _, c := range cands {
		d, ok := s.describeCandidate(len(descriptors), c)
		if !ok {
			continue
		}
		descriptors = append(descriptors, d)
		kept = append(kept, c)
	}
	s.pass = kept

	s.logger.Info("surface: discovery pass complete",
		"session", s.id, "elements", len(descriptors),
		"elapsed", time.Since(start))
	if s.events != nil {
		s.events.LogScan(ctx, observability.ScanEvent{
			SessionID:      s.id,
			PageURL:        s.url,
			Elements:       len(descriptors),
			HiddenIncluded: opts.IncludeHidden,
			Duration:       time.Since(start),
		})
	}
	return descriptors, nil
}

// describeCandidate builds one descriptor. Geometry failures drop the
// element; an unavailable description does not.
func (s *Session) describeCandidate(index int, c discover.Candidate) (element.Descriptor, bool) {
	box, err := c.Frame.AbsoluteRect(c.El)
	if err != nil {
		s.logger.Debug("surface: dropping element without geometry",
			"tag", c.El.Tag(), "error", err)
		return element.Descriptor{}, false
	}

	role, _ := c.El.Attr("role")
	typ, _ := c.El.Attr("type")
	desc, _ := describe.Describe(c.El)

	return element.Descriptor{
		Index:       index,
		Tag:         element.TagInfo{Name: c.El.Tag(), Role: role, Type: typ},
		Description: desc,
		Box:         box,
		Center:      box.Center(),
		Path:        nodepath.Resolve(c.El, c.Frame),
	}, true
}

// HandleFor re-resolves the live handle behind a descriptor index of
// the current pass. Out-of-range indices are caller contract
// violations and fail immediately.
func (s *Session) HandleFor(index int) (HostElement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.pass) {
		return nil, fmt.Errorf("surface: index %d out of range for pass of %d elements", index, len(s.pass))
	}
	return s.pass[index].El, nil
}

// IsHidden re-evaluates the hidden predicate for a descriptor of the
// current pass.
func (s *Session) IsHidden(index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.candidate(index)
	if err != nil {
		return false, err
	}
	container := hostdom.IsEmbedder(c.El) || hostdom.IsShadowHost(c.El)
	return s.vis.Hidden(c.El, c.Frame, container), nil
}

// IsDisabled reports the disabled state for a descriptor of the
// current pass.
func (s *Session) IsDisabled(index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.candidate(index)
	if err != nil {
		return false, err
	}
	return visibility.Disabled(c.El), nil
}

// Path resolves the structural path for a descriptor of the current
// pass against live layout.
func (s *Session) Path(index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.candidate(index)
	if err != nil {
		return "", err
	}
	return nodepath.Resolve(c.El, c.Frame), nil
}

// Compare judges which of two descriptors of the current pass renders
// on top where their boxes overlap.
func (s *Session) Compare(first, second int) (element.Relation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.candidate(first)
	if err != nil {
		return element.RelNone, err
	}
	b, err := s.candidate(second)
	if err != nil {
		return element.RelNone, err
	}
	boxA, err := a.Frame.AbsoluteRect(a.El)
	if err != nil {
		return element.RelNone, fmt.Errorf("surface: compare: %w", err)
	}
	boxB, err := b.Frame.AbsoluteRect(b.El)
	if err != nil {
		return element.RelNone, fmt.Errorf("surface: compare: %w", err)
	}
	return s.vis.Judge(
		visibility.Subject{El: a.El, Box: boxA, Frame: a.Frame},
		visibility.Subject{El: b.El, Box: boxB, Frame: b.Frame},
	), nil
}

// Active resolves the truly focused element, descending through shadow
// and iframe boundaries. Returns nil when nothing is focused.
func (s *Session) Active(ctx context.Context) (*element.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, frame, err := s.eng.Active()
	if err != nil {
		return nil, fmt.Errorf("surface: active element: %w", err)
	}
	if el == nil {
		return nil, nil
	}
	d, ok := s.describeCandidate(-1, discover.Candidate{El: el, Frame: frame})
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *Session) candidate(index int) (discover.Candidate, error) {
	if index < 0 || index >= len(s.pass) {
		return discover.Candidate{}, fmt.Errorf("surface: index %d out of range for pass of %d elements", index, len(s.pass))
	}
	return s.pass[index], nil
}

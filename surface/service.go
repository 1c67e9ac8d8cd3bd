package surface

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hazyhaar/domsurface/observability"
	"github.com/hazyhaar/domsurface/surface/element"
)

// Opener produces a host document for a URL. The release func tears
// down whatever backing resource the document holds (a browser tab, a
// parsed snapshot) and must be called exactly once.
type Opener interface {
	Open(ctx context.Context, url string) (HostDocument, func() error, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, url string) (HostDocument, func() error, error)

// Open implements Opener.
func (f OpenerFunc) Open(ctx context.Context, url string) (HostDocument, func() error, error) {
	return f(ctx, url)
}

// Service manages sessions for the HTTP and MCP surfaces. Each session
// is bound to one open page; the service maps session IDs to live
// sessions and owns their teardown.
type Service struct {
	opener Opener
	logger *slog.Logger
	events *observability.EventLogger
	scan   ScanConfig

	mu       sync.Mutex
	sessions map[string]*liveSession
}

type liveSession struct {
	session *Session
	url     string
	release func() error
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the service logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithServiceEvents records scan events to an observability store.
func WithServiceEvents(events *observability.EventLogger) ServiceOption {
	return func(s *Service) { s.events = events }
}

// WithScanDefaults sets the default scan parameters applied when a
// request leaves them unset.
func WithScanDefaults(scan ScanConfig) ServiceOption {
	return func(s *Service) { s.scan = scan }
}

// NewService creates a service over the given opener.
func NewService(opener Opener, opts ...ServiceOption) *Service {
	s := &Service{
		opener:   opener,
		logger:   slog.Default(),
		sessions: make(map[string]*liveSession),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ScanRequest asks for a discovery pass. Exactly one of URL and
// SessionID must be set: URL opens a new session, SessionID rescans an
// existing one.
type ScanRequest struct {
	URL       string `json:"url,omitempty"`
	SessionID string `json:"session_id,omitempty"`

	Selectors     []string `json:"selectors,omitempty"`
	IncludeHidden bool     `json:"include_hidden,omitempty"`
	MaxElements   int      `json:"max_elements,omitempty"`
}

// ScanResult is the outcome of a discovery pass.
type ScanResult struct {
	SessionID string               `json:"session_id"`
	URL       string               `json:"url,omitempty"`
	Elements  []element.Descriptor `json:"elements"`
}

// Scan opens or reuses a session and runs a discovery pass.
func (s *Service) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	if (req.URL == "") == (req.SessionID == "") {
		return nil, fmt.Errorf("surface: scan needs exactly one of url or session_id")
	}

	var live *liveSession
	if req.SessionID != "" {
		var err error
		live, err = s.lookup(req.SessionID)
		if err != nil {
			return nil, err
		}
		// Rescan implies the page may have changed under us.
		live.session.Invalidate()
	} else {
		doc, release, err := s.opener.Open(ctx, req.URL)
		if err != nil {
			return nil, fmt.Errorf("surface: open %s: %w", req.URL, err)
		}
		opts := []Option{WithLogger(s.logger), WithPageURL(req.URL)}
		if s.events != nil {
			opts = append(opts, WithEvents(s.events))
		}
		live = &liveSession{
			session: NewSession(doc, opts...),
			url:     req.URL,
			release: release,
		}
		s.mu.Lock()
		s.sessions[live.session.ID()] = live
		s.mu.Unlock()
		s.logger.Info("surface: session opened", "session", live.session.ID(), "url", req.URL)
	}

	opts := DiscoverOptions{
		Selectors:     req.Selectors,
		IncludeHidden: req.IncludeHidden,
		MaxElements:   req.MaxElements,
	}
	if opts.Selectors == nil {
		opts.Selectors = s.scan.Selectors
	}
	if !opts.IncludeHidden {
		opts.IncludeHidden = s.scan.IncludeHidden
	}
	if opts.MaxElements == 0 {
		opts.MaxElements = s.scan.MaxElements
	}

	descriptors, err := live.session.Discover(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &ScanResult{
		SessionID: live.session.ID(),
		URL:       live.url,
		Elements:  descriptors,
	}, nil
}

// Session returns the live session for an ID.
func (s *Service) Session(id string) (*Session, error) {
	live, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return live.session, nil
}

// Invalidate discards the cached state of a session without closing it.
func (s *Service) Invalidate(id string) error {
	live, err := s.lookup(id)
	if err != nil {
		return err
	}
	live.session.Invalidate()
	return nil
}

// CloseSession tears down a session and its backing page.
func (s *Service) CloseSession(id string) error {
	s.mu.Lock()
	live, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("surface: unknown session %s", id)
	}
	live.session.Invalidate()
	if live.release != nil {
		if err := live.release(); err != nil {
			return fmt.Errorf("surface: close session %s: %w", id, err)
		}
	}
	s.logger.Info("surface: session closed", "session", id)
	return nil
}

// Close tears down all sessions.
func (s *Service) Close() error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := s.CloseSession(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Service) lookup(id string) (*liveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	live, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("surface: unknown session %s", id)
	}
	return live, nil
}

package rodhost

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/domsurface/surface/internal/hostdom"
)

// OpenDocument opens a stealth tab, navigates it, and returns the top
// document plus a release func that closes the tab.
func (m *Manager) OpenDocument(ctx context.Context, pageURL string) (hostdom.Document, func() error, error) {
	b := m.Browser()
	if b == nil {
		return nil, nil, fmt.Errorf("rodhost: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, nil, fmt.Errorf("rodhost: create tab: %w", err)
	}

	if len(m.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, m.cfg.ResourceBlocking); err != nil {
			m.cfg.Logger.Warn("rodhost: resource blocking failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, nil, fmt.Errorf("rodhost: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		m.cfg.Logger.Warn("rodhost: wait load timeout", "url", pageURL, "error", err)
	}

	release := func() error { return page.Close() }
	return NewDocument(page), release, nil
}

// Attach wraps an already-navigated page without taking ownership of
// its lifecycle.
func Attach(page *rod.Page) hostdom.Document {
	return NewDocument(page)
}

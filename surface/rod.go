package surface

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/domsurface/surface/internal/rodhost"
)

// Browser owns a Chrome instance and hands out live host documents.
type Browser struct {
	mgr *rodhost.Manager
}

// StartBrowser launches Chrome (or attaches to a remote instance) per
// the browser config. The context bounds the lifetime of the memory
// monitor, not of individual pages.
func StartBrowser(ctx context.Context, cfg BrowserConfig, logger *slog.Logger) (*Browser, error) {
	mgr := rodhost.NewManager(rodhost.Config{
		RemoteURL:        cfg.Remote,
		MemoryLimit:      cfg.MemoryLimit,
		RecycleInterval:  cfg.RecycleInterval,
		ResourceBlocking: cfg.ResourceBlocking,
		Stealth:          rodhost.ParseStealthLevel(cfg.Stealth),
		XvfbDisplay:      cfg.XvfbDisplay,
		Logger:           logger,
	})
	if err := mgr.Start(ctx); err != nil {
		return nil, fmt.Errorf("surface: start browser: %w", err)
	}
	return &Browser{mgr: mgr}, nil
}

// Opener returns an Opener that navigates a fresh stealth tab per
// session.
func (b *Browser) Opener() Opener {
	return OpenerFunc(b.mgr.OpenDocument)
}

// Close shuts Chrome down.
func (b *Browser) Close() error {
	return b.mgr.Close()
}

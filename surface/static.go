package surface

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hazyhaar/domsurface/surface/internal/memdom"
)

// ParseStatic builds a host document from static HTML. Geometry comes
// from inline styles, embedded documents from srcdoc iframes, and
// shadow trees from declarative shadow roots. Used for replay and
// offline analysis of captured snapshots.
func ParseStatic(src string) (HostDocument, error) {
	return memdom.Parse(src)
}

// StaticOpener opens local HTML snapshots instead of live pages. The
// url is a filesystem path, optionally prefixed with file://.
func StaticOpener() Opener {
	return OpenerFunc(func(_ context.Context, url string) (HostDocument, func() error, error) {
		path := strings.TrimPrefix(url, "file://")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("surface: read snapshot %s: %w", path, err)
		}
		doc, err := memdom.Parse(string(data))
		if err != nil {
			return nil, nil, fmt.Errorf("surface: parse snapshot %s: %w", path, err)
		}
		return doc, func() error { return nil }, nil
	})
}

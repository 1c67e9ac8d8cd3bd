package discover

import (
	"github.com/hazyhaar/domsurface/surface/internal/frametree"
	"github.com/hazyhaar/domsurface/surface/internal/hostdom"
)

// Active resolves the truly focused element by descending through the
// naive active element's shadow root or embedded document, which the
// host runtime's accessor stops at. Returns nil when nothing is focused
// — the top-level body counts as nothing. A cross-origin boundary stops
// the descent at the embedding element itself.
func (e *Engine) Active() (hostdom.Element, *frametree.Frame, error) {
	frame, err := e.forest.Root()
	if err != nil {
		return nil, nil, err
	}

	el, err := e.forest.Top().ActiveElement()
	if err != nil {
		return nil, nil, err
	}
	if el == nil || isTopBody(e.forest.Top(), el) {
		return nil, nil, nil
	}

	for {
		if sr, ok := el.ShadowRoot(); ok {
			inner, err := sr.ActiveElement()
			if err == nil && inner != nil {
				el = inner
				continue
			}
		}
		if hostdom.IsEmbedder(el) {
			doc, err := el.ContentDocument()
			if err != nil {
				// Opaque boundary: the embedder is the best answer.
				return el, frame, nil
			}
			inner, err := doc.ActiveElement()
			if err != nil || inner == nil {
				return el, frame, nil
			}
			if innerFrame := e.forest.FrameFor(doc); innerFrame != nil {
				frame = innerFrame
			}
			el = inner
			continue
		}
		return el, frame, nil
	}
}

func isTopBody(top hostdom.Document, el hostdom.Element) bool {
	body := top.Body()
	return body != nil && body.SameAs(el)
}

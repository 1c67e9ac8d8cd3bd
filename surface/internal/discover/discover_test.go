package discover

import (
	"testing"

	"github.com/hazyhaar/domsurface/surface/internal/frametree"
	"github.com/hazyhaar/domsurface/surface/internal/hostdom"
	"github.com/hazyhaar/domsurface/surface/internal/memdom"
	"github.com/hazyhaar/domsurface/surface/internal/visibility"
)

func engineFor(t *testing.T, src string) (*memdom.Document, *Engine) {
	t.Helper()
	doc := memdom.MustParse(src)
	forest := frametree.New(doc, nil)
	vis := visibility.New(forest, nil)
	return doc, New(forest, vis, nil)
}

func tags(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.El.Tag()
	}
	return out
}

func TestRun_NativeControls(t *testing.T) {
	_, e := engineFor(t, `<html><body>
		<a href="#" style="left:0;top:0;width:60px;height:20px">home</a>
		<button style="left:0;top:30px;width:60px;height:20px">go</button>
		<input style="left:0;top:60px;width:60px;height:20px">
		<p style="left:0;top:90px;width:200px;height:20px">prose</p>
	</body></html>`)
	cands, err := e.Run(Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := tags(cands)
	want := []string{"a", "button", "input"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRun_AriaRolesAndClickHandlers(t *testing.T) {
	_, e := engineFor(t, `<html><body>
		<div role="button" style="left:0;top:0;width:60px;height:20px">fake</div>
		<div onclick="go()" style="left:0;top:30px;width:60px;height:20px">legacy</div>
		<div style="left:0;top:60px;width:60px;height:20px">inert</div>
	</body></html>`)
	cands, err := e.Run(Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2: %v", len(cands), tags(cands))
	}
}

func TestRun_DeduplicatesWithinScope(t *testing.T) {
	// Matches [tabindex], [role=button], and the click-target pass, but
	// must come out once.
	_, e := engineFor(t, `<html><body>
		<div tabindex="0" role="button" onclick="go()"
		     style="left:0;top:0;width:60px;height:20px">x</div>
	</body></html>`)
	cands, err := e.Run(Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cands) != 1 {
		t.Errorf("got %d candidates, want 1", len(cands))
	}
}

func TestRun_HiddenFilter(t *testing.T) {
	src := `<html><body>
		<button style="left:0;top:0;width:60px;height:20px">shown</button>
		<button style="display:none;left:0;top:30px;width:60px;height:20px">gone</button>
	</body></html>`

	_, e := engineFor(t, src)
	cands, err := e.Run(Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}

	_, e = engineFor(t, src)
	cands, err = e.Run(Options{IncludeHidden: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cands) != 2 {
		t.Errorf("IncludeHidden: got %d candidates, want 2", len(cands))
	}
}

func TestRun_AdmitPredicate(t *testing.T) {
	_, e := engineFor(t, `<html><body>
		<a href="#" style="left:0;top:0;width:60px;height:20px">keep</a>
		<button style="left:0;top:30px;width:60px;height:20px">drop</button>
	</body></html>`)
	cands, err := e.Run(Options{
		Admit: func(el hostdom.Element) bool { return el.Tag() == "a" },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cands) != 1 || cands[0].El.Tag() != "a" {
		t.Errorf("got %v, want [a]", tags(cands))
	}
}

func TestRun_CustomSelectors(t *testing.T) {
	_, e := engineFor(t, `<html><body>
		<button style="left:0;top:0;width:60px;height:20px">skip</button>
		<div class="hit" style="left:0;top:30px;width:60px;height:20px">match</div>
	</body></html>`)
	cands, err := e.Run(Options{Selectors: []string{".hit"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cands) != 1 || cands[0].El.Tag() != "div" {
		t.Errorf("got %v, want [div]", tags(cands))
	}
}

func TestRun_EmbeddedContentComesFirst(t *testing.T) {
	_, e := engineFor(t, `<html><body>
		<button id="outer" style="left:0;top:200px;width:60px;height:20px">outer</button>
		<iframe style="left:0;top:0;width:300px;height:150px"
		        srcdoc="<html><body><button id='inner' style='left:5px;top:5px;width:60px;height:20px'>inner</button></body></html>">
		</iframe>
	</body></html>`)
	cands, err := e.Run(Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cands) < 2 {
		t.Fatalf("got %d candidates, want at least 2", len(cands))
	}
	first, _ := cands[0].El.Attr("id")
	if first != "inner" {
		t.Errorf("first candidate id = %q, want inner", first)
	}
	if cands[0].Frame.Parent == nil {
		t.Error("embedded candidate not attributed to a child frame")
	}
}

func TestRun_ShadowContent(t *testing.T) {
	_, e := engineFor(t, `<html><body>
		<div style="left:0;top:0;width:200px;height:100px">
			<template shadowrootmode="open">
				<button style="left:10px;top:10px;width:60px;height:20px">in shadow</button>
			</template>
		</div>
	</body></html>`)
	cands, err := e.Run(Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var found bool
	for _, c := range cands {
		if c.El.Tag() == "button" {
			found = true
		}
	}
	if !found {
		t.Errorf("shadow button not discovered: %v", tags(cands))
	}
}

func TestRun_CrossOriginFramesContributeNothing(t *testing.T) {
	_, e := engineFor(t, `<html><body>
		<button style="left:0;top:0;width:60px;height:20px">go</button>
		<iframe data-cross-origin style="left:0;top:50px;width:300px;height:150px"></iframe>
	</body></html>`)
	cands, err := e.Run(Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The opaque frame raises nothing, and the iframe element itself
	// matches no selector, so only the button remains.
	if len(cands) != 1 || cands[0].El.Tag() != "button" {
		t.Errorf("got %v, want [button]", tags(cands))
	}
}

func TestActive_NothingFocused(t *testing.T) {
	_, e := engineFor(t, `<html><body>
		<input style="left:0;top:0;width:60px;height:20px">
	</body></html>`)
	el, _, err := e.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if el != nil {
		t.Errorf("got %s, want nil", el.Tag())
	}
}

func TestActive_PlainFocus(t *testing.T) {
	doc, e := engineFor(t, `<html><body>
		<input id="q" style="left:0;top:0;width:60px;height:20px">
	</body></html>`)
	if !doc.Focus("#q") {
		t.Fatal("Focus failed")
	}
	el, frame, err := e.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if el == nil || el.Tag() != "input" {
		t.Fatalf("active = %v, want input", el)
	}
	if frame == nil || frame.Parent != nil {
		t.Error("plain focus not attributed to the top frame")
	}
}

func TestActive_DescendsIntoShadow(t *testing.T) {
	doc, e := engineFor(t, `<html><body>
		<div><template shadowrootmode="open">
			<input id="sq" style="left:0;top:0;width:60px;height:20px">
		</template></div>
	</body></html>`)
	if !doc.Focus("#sq") {
		t.Fatal("Focus failed")
	}
	el, _, err := e.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if el == nil || el.Tag() != "input" {
		t.Fatalf("active = %v, want the shadow input", el)
	}
	if id, _ := el.Attr("id"); id != "sq" {
		t.Errorf("active id = %q, want sq", id)
	}
}

func TestActive_DescendsIntoFrame(t *testing.T) {
	doc, e := engineFor(t, `<html><body>
		<iframe style="left:0;top:0;width:300px;height:150px"
		        srcdoc="<html><body><input id='fq' style='left:5px;top:5px;width:60px;height:20px'></body></html>">
		</iframe>
	</body></html>`)
	if !doc.Focus("#fq") {
		t.Fatal("Focus failed")
	}
	el, frame, err := e.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if el == nil || el.Tag() != "input" {
		t.Fatalf("active = %v, want the embedded input", el)
	}
	if frame == nil || frame.Parent == nil {
		t.Error("embedded focus not attributed to its child frame")
	}
}

func TestActive_CrossOriginStopsAtEmbedder(t *testing.T) {
	doc, e := engineFor(t, `<html><body>
		<iframe id="opaque" data-cross-origin
		        style="left:0;top:0;width:300px;height:150px"></iframe>
	</body></html>`)
	if !doc.Focus("#opaque") {
		t.Fatal("Focus failed")
	}
	el, _, err := e.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if el == nil || el.Tag() != "iframe" {
		t.Fatalf("active = %v, want the embedding iframe", el)
	}
}

package describe

import (
	"strings"
	"testing"

	"github.com/hazyhaar/domsurface/surface/internal/memdom"
)

func firstOf(t *testing.T, src, sel string) *memdom.Node {
	t.Helper()
	el := memdom.MustParse("<html><body>" + src + "</body></html>").First(sel)
	if el == nil {
		t.Fatalf("fixture element %q not found", sel)
	}
	return el
}

func TestDescribe_Select(t *testing.T) {
	el := firstOf(t, `<select>
		<option>Red</option>
		<option selected>Green</option>
		<option>Blue</option>
	</select>`, "select")

	got, ok := Describe(el)
	if !ok {
		t.Fatal("ok = false")
	}
	if want := "Green [Red|Green|Blue]"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDescribe_SelectDefaultsToFirstOption(t *testing.T) {
	el := firstOf(t, `<select><option>Red</option><option>Blue</option></select>`, "select")
	got, ok := Describe(el)
	if !ok || got != "Red [Red|Blue]" {
		t.Errorf("got %q, %v, want %q, true", got, ok, "Red [Red|Blue]")
	}
}

func TestDescribe_MalformedSelectDegrades(t *testing.T) {
	// No resolvable options: generic handling still finds the label.
	el := firstOf(t, `<select aria-label="Colour"></select>`, "select")
	got, ok := Describe(el)
	if !ok || got != "Colour" {
		t.Errorf("got %q, %v, want %q, true", got, ok, "Colour")
	}
}

func TestDescribe_InputValue(t *testing.T) {
	el := firstOf(t, `<input type="email" value="a@b.example">`, "input")
	got, ok := Describe(el)
	if !ok || got != "a@b.example" {
		t.Errorf("got %q, %v, want %q, true", got, ok, "a@b.example")
	}
}

func TestDescribe_TextareaValue(t *testing.T) {
	el := firstOf(t, `<textarea>  draft   reply </textarea>`, "textarea")
	got, ok := Describe(el)
	if !ok || got != "draft reply" {
		t.Errorf("got %q, %v, want %q, true", got, ok, "draft reply")
	}
}

func TestDescribe_OwnTextNormalized(t *testing.T) {
	el := firstOf(t, "<button>\n  Submit \t order\n</button>", "button")
	got, ok := Describe(el)
	if !ok || got != "Submit order" {
		t.Errorf("got %q, %v, want %q, true", got, ok, "Submit order")
	}
}

func TestDescribe_OverlongTextFallsBackToRendered(t *testing.T) {
	long := strings.Repeat("x", 200)
	el := firstOf(t, `<a href="#">Open settings<span style="display:none">`+long+`</span></a>`, "a")
	got, ok := Describe(el)
	if !ok || got != "Open settings" {
		t.Errorf("got %q, %v, want %q, true", got, ok, "Open settings")
	}
}

func TestDescribe_OverlongEverywhereIsUnavailable(t *testing.T) {
	long := strings.Repeat("y", 200)
	el := firstOf(t, `<div onclick="go()">`+long+`</div>`, "div")
	if got, ok := Describe(el); ok {
		t.Errorf("got %q, want unavailable", got)
	}
}

func TestDescribe_AttrPriority(t *testing.T) {
	el := firstOf(t, `<input type="checkbox" title="tip" aria-label="Terms" placeholder="p">`, "input")
	got, ok := Describe(el)
	if !ok || got != "Terms" {
		t.Errorf("got %q, %v, want %q, true", got, ok, "Terms")
	}
}

func TestDescribe_ParentLinePrefix(t *testing.T) {
	el := firstOf(t, `<div>Billing address
		<input type="text" placeholder="Street">
	</div>`, "input")
	got, ok := Describe(el)
	if !ok {
		t.Fatal("ok = false")
	}
	if want := "Billing address Street"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDescribe_FirstChildAttrFallback(t *testing.T) {
	el := firstOf(t, `<button><img alt="Search"></button>`, "button")
	got, ok := Describe(el)
	if !ok || got != "Search" {
		t.Errorf("got %q, %v, want %q, true", got, ok, "Search")
	}
}

func TestDescribe_NothingUsable(t *testing.T) {
	el := firstOf(t, `<div class="spacer"></div>`, "div")
	if got, ok := Describe(el); ok {
		t.Errorf("got %q, want unavailable", got)
	}
}

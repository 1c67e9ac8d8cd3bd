package nodepath

import (
	"testing"

	"github.com/hazyhaar/domsurface/surface/internal/frametree"
	"github.com/hazyhaar/domsurface/surface/internal/memdom"
)

func rootFrame(t *testing.T, doc *memdom.Document) (*frametree.Forest, *frametree.Frame) {
	t.Helper()
	forest := frametree.New(doc, nil)
	root, err := forest.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	return forest, root
}

func TestResolve_PlainPath(t *testing.T) {
	doc := memdom.MustParse(`<html><body><div><button>go</button></div></body></html>`)
	_, root := rootFrame(t, doc)

	got := Resolve(doc.First("button"), root)
	if want := "/html/body/div/button"; got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestResolve_IndexOnlyForRepeatedTags(t *testing.T) {
	doc := memdom.MustParse(`<html><body><div>
		<button id="a">a</button>
		<span>x</span>
		<button id="b">b</button>
		<button id="c">c</button>
	</div></body></html>`)
	_, root := rootFrame(t, doc)

	tests := []struct {
		sel  string
		want string
	}{
		{"#a", "/html/body/div/button[1]"},
		{"#b", "/html/body/div/button[2]"},
		{"#c", "/html/body/div/button[3]"},
		{"span", "/html/body/div/span"},
	}
	for _, tt := range tests {
		if got := Resolve(doc.First(tt.sel), root); got != tt.want {
			t.Errorf("Resolve(%s) = %q, want %q", tt.sel, got, tt.want)
		}
	}
}

func TestResolve_ShadowMarker(t *testing.T) {
	doc := memdom.MustParse(`<html><body>
		<div id="host"><template shadowrootmode="open">
			<button>inside</button>
		</template></div>
	</body></html>`)
	_, root := rootFrame(t, doc)

	host := doc.First("#host")
	sr, ok := host.ShadowRoot()
	if !ok {
		t.Fatal("fixture host has no shadow root")
	}
	kids := sr.Children()
	if len(kids) != 1 {
		t.Fatalf("shadow children = %d, want 1", len(kids))
	}
	got := Resolve(kids[0], root)
	if want := "/html/body/div/#shadow-root/button"; got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestResolve_DocumentMarker(t *testing.T) {
	doc := memdom.MustParse(`<html><body>
		<iframe style="left:0;top:0;width:200px;height:100px"
		        srcdoc="<html><body><button>in</button></body></html>"></iframe>
	</body></html>`)
	_, root := rootFrame(t, doc)
	inner := root.Children[0]

	buttons, err := inner.Doc.QueryAll("button")
	if err != nil || len(buttons) != 1 {
		t.Fatalf("QueryAll: %d, %v", len(buttons), err)
	}
	got := Resolve(buttons[0], inner)
	if want := "/html/body/iframe/#document/html/body/button"; got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestResolve_NestedDocumentMarkers(t *testing.T) {
	doc := memdom.MustParse(`<html><body>
		<iframe style="left:0;top:0;width:400px;height:300px"
		        srcdoc="<html><body>
		          <iframe style='left:0;top:0;width:200px;height:100px'
		                  srcdoc='<html><body><a href=x>deep</a></body></html>'></iframe>
		        </body></html>"></iframe>
	</body></html>`)
	_, root := rootFrame(t, doc)
	deep := root.Children[0].Children[0]

	links, err := deep.Doc.QueryAll("a")
	if err != nil || len(links) != 1 {
		t.Fatalf("QueryAll: %d, %v", len(links), err)
	}
	got := Resolve(links[0], deep)
	want := "/html/body/iframe/#document/html/body/iframe/#document/html/body/a"
	if got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestResolve_CorruptedChain(t *testing.T) {
	doc := memdom.MustParse(`<html><body><button>go</button></body></html>`)
	_, root := rootFrame(t, doc)

	// A non-top frame whose embedding element went stale.
	orphan := &frametree.Frame{Doc: doc, Parent: root}

	got := Resolve(doc.First("button"), orphan)
	if want := "/#corrupted-iframe-chain/html/body/button"; got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

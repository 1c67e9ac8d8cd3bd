package surface

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "domsurface-test", Version: "0.1.0"}

func mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	opener := &pagesOpener{pages: map[string]string{
		"https://shop.example/checkout": fixturePage,
	}}
	svc := NewService(opener)
	t.Cleanup(func() { _ = svc.Close() })

	srv := mcp.NewServer(testMCPImpl, nil)
	svc.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if result.IsError {
		t.Fatalf("CallTool(%s) tool error: %v", name, result.Content)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

// mcpScan opens the fixture page and returns the decoded scan result.
func mcpScan(t *testing.T, session *mcp.ClientSession) *ScanResult {
	t.Helper()
	text := mcpCallTool(t, session, "surface_scan", map[string]any{
		"url": "https://shop.example/checkout",
	})
	var res ScanResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("unmarshal scan result: %v", err)
	}
	return &res
}

func TestMCP_ListTools(t *testing.T) {
	session := mcpSession(t)
	tools, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	want := map[string]bool{
		"surface_scan": true, "surface_describe": true, "surface_path": true,
		"surface_compare": true, "surface_active": true, "surface_invalidate": true,
	}
	for _, tool := range tools.Tools {
		if !want[tool.Name] {
			t.Errorf("unexpected tool %q", tool.Name)
		}
		delete(want, tool.Name)
	}
	for name := range want {
		t.Errorf("missing tool %q", name)
	}
}

func TestMCP_Scan(t *testing.T) {
	session := mcpSession(t)
	res := mcpScan(t, session)

	if res.SessionID == "" {
		t.Error("scan result carries no session ID")
	}
	if len(res.Elements) != 3 {
		t.Fatalf("got %d elements, want 3", len(res.Elements))
	}
	if res.Elements[0].Path != "/html/body/iframe/#document/html/body/input" {
		t.Errorf("element 0 path = %q", res.Elements[0].Path)
	}
}

func TestMCP_ScanRejectsAmbiguousTarget(t *testing.T) {
	session := mcpSession(t)
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "surface_scan",
		Arguments: map[string]any{
			"url":        "https://shop.example/checkout",
			"session_id": "ses_x",
		},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Error("ambiguous scan target did not produce a tool error")
	}
}

func TestMCP_Describe(t *testing.T) {
	session := mcpSession(t)
	res := mcpScan(t, session)

	text := mcpCallTool(t, session, "surface_describe", map[string]any{
		"session_id": res.SessionID,
		"index":      2,
	})
	var d describeResponse
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Hidden || d.Disabled {
		t.Errorf("visible enabled button reported hidden=%v disabled=%v", d.Hidden, d.Disabled)
	}
	if d.Path != "/html/body/button" {
		t.Errorf("path = %q", d.Path)
	}
}

func TestMCP_Path(t *testing.T) {
	session := mcpSession(t)
	res := mcpScan(t, session)

	text := mcpCallTool(t, session, "surface_path", map[string]any{
		"session_id": res.SessionID,
		"index":      1,
	})
	var resp struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Path != "/html/body/div/#shadow-root/button" {
		t.Errorf("path = %q", resp.Path)
	}
}

func TestMCP_Compare(t *testing.T) {
	session := mcpSession(t)
	res := mcpScan(t, session)

	// The save button and the shadow button do not overlap.
	text := mcpCallTool(t, session, "surface_compare", map[string]any{
		"session_id": res.SessionID,
		"first":      1,
		"second":     2,
	})
	var resp struct {
		Relation int    `json:"relation"`
		Meaning  string `json:"meaning"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Relation != 0 || resp.Meaning != "none" {
		t.Errorf("relation = %d %q, want 0 none", resp.Relation, resp.Meaning)
	}
}

func TestMCP_ActiveOnIdlePage(t *testing.T) {
	session := mcpSession(t)
	res := mcpScan(t, session)

	text := mcpCallTool(t, session, "surface_active", map[string]any{
		"session_id": res.SessionID,
	})
	if text != "null" {
		t.Errorf("idle page active = %q, want null", text)
	}
}

func TestMCP_Invalidate(t *testing.T) {
	session := mcpSession(t)
	res := mcpScan(t, session)

	text := mcpCallTool(t, session, "surface_invalidate", map[string]any{
		"session_id": res.SessionID,
	})
	var resp map[string]string
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["status"] != "invalidated" {
		t.Errorf("status = %q", resp["status"])
	}

	// The pass is gone until the next scan.
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "surface_describe",
		Arguments: map[string]any{
			"session_id": res.SessionID,
			"index":      0,
		},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Error("stale index did not produce a tool error")
	}
}

func TestMCP_UnknownSession(t *testing.T) {
	session := mcpSession(t)
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "surface_active",
		Arguments: map[string]any{"session_id": "ses_gone"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Error("unknown session did not produce a tool error")
	}
}

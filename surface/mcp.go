package surface

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/domsurface/kit"
)

// RegisterMCP registers surface tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerScanTool(srv)
	s.registerDescribeTool(srv)
	s.registerPathTool(srv)
	s.registerCompareTool(srv)
	s.registerActiveTool(srv)
	s.registerInvalidateTool(srv)
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	sch := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		sch["required"] = required
	}
	return sch
}

// --- scan ---

func (s *Service) registerScanTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "surface_scan",
		Description: "Discover the interactive surface of a page: clickable and fillable elements across iframes and shadow DOM, with absolute geometry and structural paths. Pass url to open a new session or session_id to rescan an existing one.",
		InputSchema: inputSchema(map[string]any{
			"url":            map[string]any{"type": "string", "description": "Page URL to open (new session)"},
			"session_id":     map[string]any{"type": "string", "description": "Existing session to rescan"},
			"selectors":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Override the stock interactive selector set"},
			"include_hidden": map[string]any{"type": "boolean", "description": "Keep elements the visibility analyzer rejects"},
			"max_elements":   map[string]any{"type": "integer", "description": "Truncate the result"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		return s.Scan(ctx, *req.(*ScanRequest))
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r ScanRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- describe ---

type elementRequest struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
}

type describeResponse struct {
	Hidden   bool   `json:"hidden"`
	Disabled bool   `json:"disabled"`
	Path     string `json:"path"`
}

func (s *Service) registerDescribeTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "surface_describe",
		Description: "Re-evaluate one element of the current pass against live layout: hidden state, disabled state, and structural path.",
		InputSchema: inputSchema(map[string]any{
			"session_id": map[string]any{"type": "string", "description": "Session ID from surface_scan"},
			"index":      map[string]any{"type": "integer", "description": "Descriptor index from the current pass"},
		}, []string{"session_id", "index"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*elementRequest)
		ses, err := s.Session(r.SessionID)
		if err != nil {
			return nil, err
		}
		hidden, err := ses.IsHidden(r.Index)
		if err != nil {
			return nil, err
		}
		disabled, err := ses.IsDisabled(r.Index)
		if err != nil {
			return nil, err
		}
		path, err := ses.Path(r.Index)
		if err != nil {
			return nil, err
		}
		return describeResponse{Hidden: hidden, Disabled: disabled, Path: path}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeElementRequest)
}

// --- path ---

func (s *Service) registerPathTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "surface_path",
		Description: "Resolve the structural path of one element of the current pass, with shadow-root and document boundary markers.",
		InputSchema: inputSchema(map[string]any{
			"session_id": map[string]any{"type": "string", "description": "Session ID from surface_scan"},
			"index":      map[string]any{"type": "integer", "description": "Descriptor index from the current pass"},
		}, []string{"session_id", "index"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*elementRequest)
		ses, err := s.Session(r.SessionID)
		if err != nil {
			return nil, err
		}
		path, err := ses.Path(r.Index)
		if err != nil {
			return nil, err
		}
		return map[string]string{"path": path}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeElementRequest)
}

// --- compare ---

type compareRequest struct {
	SessionID string `json:"session_id"`
	First     int    `json:"first"`
	Second    int    `json:"second"`
}

func (s *Service) registerCompareTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "surface_compare",
		Description: "Judge which of two overlapping elements renders on top. Returns a relation from -2 (second fully covers first) to 2 (first fully covers second); 0 means no overlap.",
		InputSchema: inputSchema(map[string]any{
			"session_id": map[string]any{"type": "string", "description": "Session ID from surface_scan"},
			"first":      map[string]any{"type": "integer", "description": "First descriptor index"},
			"second":     map[string]any{"type": "integer", "description": "Second descriptor index"},
		}, []string{"session_id", "first", "second"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*compareRequest)
		ses, err := s.Session(r.SessionID)
		if err != nil {
			return nil, err
		}
		rel, err := ses.Compare(r.First, r.Second)
		if err != nil {
			return nil, err
		}
		return map[string]any{"relation": int(rel), "meaning": rel.String()}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r compareRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- active ---

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Service) registerActiveTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "surface_active",
		Description: "Resolve the truly focused element, descending through shadow roots and same-origin iframes. Returns null when nothing is focused.",
		InputSchema: inputSchema(map[string]any{
			"session_id": map[string]any{"type": "string", "description": "Session ID from surface_scan"},
		}, []string{"session_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*sessionRequest)
		ses, err := s.Session(r.SessionID)
		if err != nil {
			return nil, err
		}
		return ses.Active(ctx)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeSessionRequest)
}

// --- invalidate ---

func (s *Service) registerInvalidateTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "surface_invalidate",
		Description: "Discard a session's cached frame tree and pass after the page mutated. The next surface_scan rebuilds from live state.",
		InputSchema: inputSchema(map[string]any{
			"session_id": map[string]any{"type": "string", "description": "Session ID from surface_scan"},
		}, []string{"session_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*sessionRequest)
		if err := s.Invalidate(r.SessionID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "invalidated"}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeSessionRequest)
}

func decodeElementRequest(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var r elementRequest
	if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
		return nil, err
	}
	return &kit.MCPDecodeResult{Request: &r}, nil
}

func decodeSessionRequest(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var r sessionRequest
	if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
		return nil, err
	}
	return &kit.MCPDecodeResult{Request: &r}, nil
}

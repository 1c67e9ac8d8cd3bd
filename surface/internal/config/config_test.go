package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "surface.yaml")
	if err := os.WriteFile(path, []byte("server:\n  mcp: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Browser.Stealth != "headless" {
		t.Fatalf("stealth default: got %q", cfg.Browser.Stealth)
	}
	if cfg.Browser.RecycleInterval != 4*time.Hour {
		t.Fatalf("recycle default: got %v", cfg.Browser.RecycleInterval)
	}
	if cfg.Scan.MaxElements != 500 {
		t.Fatalf("max elements default: got %d", cfg.Scan.MaxElements)
	}
	if cfg.Server.HTTPAddr != ":8846" {
		t.Fatalf("http addr default: got %q", cfg.Server.HTTPAddr)
	}
	if !cfg.Server.MCP {
		t.Fatal("mcp: got false, want true")
	}
	if cfg.Observability.RetentionDays != 14 {
		t.Fatalf("retention default: got %d", cfg.Observability.RetentionDays)
	}
}

func TestLoadFile_Explicit(t *testing.T) {
	yaml := `
browser:
  remote: ws://127.0.0.1:9222
  stealth: headful
  memory_limit: 2147483648
scan:
  selectors: ["button", "[role=tab]"]
  include_hidden: true
  max_elements: 50
observability:
  db_path: /tmp/obs.db
`
	path := filepath.Join(t.TempDir(), "surface.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Browser.Remote != "ws://127.0.0.1:9222" {
		t.Fatalf("remote: got %q", cfg.Browser.Remote)
	}
	if cfg.Browser.Stealth != "headful" {
		t.Fatalf("stealth: got %q", cfg.Browser.Stealth)
	}
	if len(cfg.Scan.Selectors) != 2 || cfg.Scan.Selectors[1] != "[role=tab]" {
		t.Fatalf("selectors: got %v", cfg.Scan.Selectors)
	}
	if !cfg.Scan.IncludeHidden {
		t.Fatal("include_hidden: got false")
	}
	if cfg.Scan.MaxElements != 50 {
		t.Fatalf("max elements: got %d", cfg.Scan.MaxElements)
	}
	if cfg.Observability.DBPath != "/tmp/obs.db" {
		t.Fatalf("db path: got %q", cfg.Observability.DBPath)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "surface.yaml")
	if err := os.WriteFile(path, []byte(":\tnot yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

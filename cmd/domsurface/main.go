// Command domsurface discovers the interactive surface of web pages.
//
// Usage:
//
//	domsurface -url https://example.com          # one-shot scan, JSON to stdout
//	domsurface -snapshot page.html               # scan a captured HTML snapshot
//	domsurface -serve -config domsurface.yaml    # HTTP + MCP service
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/domsurface/dbopen"
	"github.com/hazyhaar/domsurface/mcpquic"
	"github.com/hazyhaar/domsurface/observability"
	"github.com/hazyhaar/domsurface/surface"
)

func main() {
	configPath := flag.String("config", "", "path to domsurface.yaml config file")
	singleURL := flag.String("url", "", "scan a single URL and exit")
	snapshot := flag.String("snapshot", "", "scan a static HTML snapshot and exit")
	serve := flag.Bool("serve", false, "run the HTTP/MCP service")
	includeHidden := flag.Bool("include-hidden", false, "keep elements the visibility analyzer rejects")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *singleURL, *snapshot, *serve, *includeHidden); err != nil {
		logger.Error("domsurface: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, singleURL, snapshot string, serve, includeHidden bool) error {
	cfg := surface.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = surface.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	if snapshot != "" {
		return runOnce(ctx, logger, cfg, surface.StaticOpener(), snapshot, includeHidden)
	}

	if singleURL != "" {
		browser, err := surface.StartBrowser(ctx, cfg.Browser, logger)
		if err != nil {
			return err
		}
		defer browser.Close()
		return runOnce(ctx, logger, cfg, browser.Opener(), singleURL, includeHidden)
	}

	if serve {
		return runServe(ctx, logger, cfg)
	}

	fmt.Fprintln(os.Stderr, "usage: domsurface -url <url> | -snapshot <file> | -serve -config <file>")
	os.Exit(1)
	return nil
}

func runOnce(ctx context.Context, logger *slog.Logger, cfg *surface.Config, opener surface.Opener, target string, includeHidden bool) error {
	svc := surface.NewService(opener,
		surface.WithServiceLogger(logger),
		surface.WithScanDefaults(cfg.Scan))
	defer svc.Close()

	res, err := svc.Scan(ctx, surface.ScanRequest{
		URL:           target,
		IncludeHidden: includeHidden,
	})
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func runServe(ctx context.Context, logger *slog.Logger, cfg *surface.Config) error {
	db, err := dbopen.Open(cfg.Observability.DBPath, dbopen.WithMkdirAll())
	if err != nil {
		return fmt.Errorf("open observability db: %w", err)
	}
	defer db.Close()
	if err := observability.Init(db); err != nil {
		return fmt.Errorf("init observability schema: %w", err)
	}
	events := observability.NewEventLogger(db)

	if err := observability.Cleanup(ctx, db, observability.RetentionConfig{
		ScanEventsDays: cfg.Observability.RetentionDays,
		HeartbeatsDays: cfg.Observability.RetentionDays,
	}); err != nil {
		logger.Warn("domsurface: retention cleanup failed", "error", err)
	}

	hb := observability.NewHeartbeatWriter(db, "domsurface", cfg.Observability.HeartbeatInterval)
	hb.Start(ctx)
	defer hb.Stop()

	browser, err := surface.StartBrowser(ctx, cfg.Browser, logger)
	if err != nil {
		return err
	}
	defer browser.Close()

	svc := surface.NewService(browser.Opener(),
		surface.WithServiceLogger(logger),
		surface.WithServiceEvents(events),
		surface.WithScanDefaults(cfg.Scan))
	defer svc.Close()

	if cfg.Server.MCP {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "domsurface",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)

		if err := startMCPQUIC(ctx, logger, mcpSrv); err != nil {
			logger.Error("domsurface: mcp quic disabled", "error", err)
		}
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	svc.RegisterHTTP(r)

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("domsurface: http listening", "addr", cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func startMCPQUIC(ctx context.Context, logger *slog.Logger, mcpSrv *mcp.Server) error {
	addr := env("MCP_QUIC_ADDR", ":9444")
	certFile := env("TLS_CERT", "")
	keyFile := env("TLS_KEY", "")

	tlsCfg, err := mcpquic.SelfSignedTLSConfig()
	if certFile != "" && keyFile != "" {
		tlsCfg, err = mcpquic.ServerTLSConfig(certFile, keyFile)
	}
	if err != nil {
		return fmt.Errorf("mcp quic tls: %w", err)
	}

	ql, err := mcpquic.NewListener(addr, tlsCfg, mcpSrv, logger)
	if err != nil {
		return fmt.Errorf("mcp quic listener: %w", err)
	}
	go func() {
		logger.Info("domsurface: mcp quic listening", "addr", addr)
		if err := ql.Serve(ctx); err != nil && ctx.Err() == nil {
			logger.Error("domsurface: mcp quic serve", "error", err)
		}
	}()
	return nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

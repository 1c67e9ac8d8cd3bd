package observability

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/domsurface/dbopen"
	"github.com/hazyhaar/domsurface/idgen"
)

// ScanEvent describes one completed discovery pass.
type ScanEvent struct {
	SessionID      string
	PageURL        string
	Elements       int
	HiddenIncluded bool
	Duration       time.Duration
}

// EventLogger writes scan events and manages retention cleanup.
type EventLogger struct {
	db    *sql.DB
	newID idgen.Generator
}

// EventLoggerOption configures an EventLogger.
type EventLoggerOption func(*EventLogger)

// WithScanIDGenerator sets a custom ID generator for scan IDs.
func WithScanIDGenerator(gen idgen.Generator) EventLoggerOption {
	return func(l *EventLogger) { l.newID = gen }
}

// NewEventLogger creates a logger backed by the given observability database.
func NewEventLogger(db *sql.DB, opts ...EventLoggerOption) *EventLogger {
	l := &EventLogger{
		db:    db,
		newID: idgen.Prefixed("scan_", idgen.Default),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// LogScan records a completed discovery pass. Non-blocking: errors are
// logged via slog but do not propagate, so a failing observability store
// never blocks a scan.
func (l *EventLogger) LogScan(ctx context.Context, event ScanEvent) {
	scanID := l.newID()
	_, err := dbopen.Exec(ctx, l.db, `
		INSERT INTO scan_events (
			scan_id, session_id, page_url, element_count,
			hidden_included, duration_ms, created_at
		) VALUES (?,?,?,?,?,?,?)`,
		scanID, event.SessionID, event.PageURL, event.Elements,
		event.HiddenIncluded, event.Duration.Milliseconds(), time.Now().Unix())
	if err != nil {
		slog.Error("observability scan log failed", "error", err, "session", event.SessionID)
	}
}

// ScanRecord is a stored scan event as read back from the database.
type ScanRecord struct {
	ScanID         string        `json:"scan_id"`
	SessionID      string        `json:"session_id"`
	PageURL        string        `json:"page_url,omitempty"`
	Elements       int           `json:"elements"`
	HiddenIncluded bool          `json:"hidden_included"`
	Duration       time.Duration `json:"duration"`
	CreatedAt      time.Time     `json:"created_at"`
}

// RecentScans returns the most recent scan events, newest first. A
// non-empty sessionID restricts results to that session.
func (l *EventLogger) RecentScans(ctx context.Context, sessionID string, limit int) ([]ScanRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT scan_id, session_id, COALESCE(page_url, ''), element_count,
	             hidden_included, duration_ms, created_at
	      FROM scan_events`
	args := []any{}
	if sessionID != "" {
		q += " WHERE session_id = ?"
		args = append(args, sessionID)
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query scan events: %w", err)
	}
	defer rows.Close()

	var out []ScanRecord
	for rows.Next() {
		var r ScanRecord
		var durMS, createdAt int64
		if err := rows.Scan(&r.ScanID, &r.SessionID, &r.PageURL, &r.Elements,
			&r.HiddenIncluded, &durMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		r.Duration = time.Duration(durMS) * time.Millisecond
		r.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RetentionConfig specifies per-table retention in days. Zero means no cleanup.
type RetentionConfig struct {
	ScanEventsDays int
	HeartbeatsDays int
	RunVacuumAfter bool
}

// Cleanup deletes records exceeding the retention thresholds. All
// deletes run in one transaction so a partial sweep never commits.
func Cleanup(ctx context.Context, db *sql.DB, cfg RetentionConfig) error {
	now := time.Now().Unix()

	// allowedTables and allowedColumns are whitelists to prevent SQL injection
	// if this pattern is ever refactored to accept external input.
	allowedTables := map[string]bool{
		"scan_events":       true,
		"worker_heartbeats": true,
	}
	allowedColumns := map[string]bool{
		"created_at": true,
		"timestamp":  true,
	}

	type cleanupTarget struct {
		table  string
		column string
		days   int
	}
	targets := []cleanupTarget{
		{"scan_events", "created_at", cfg.ScanEventsDays},
		{"worker_heartbeats", "timestamp", cfg.HeartbeatsDays},
	}

	err := dbopen.RunTx(ctx, db, func(tx *sql.Tx) error {
		for _, t := range targets {
			if t.days <= 0 {
				continue
			}
			if !allowedTables[t.table] || !allowedColumns[t.column] {
				return fmt.Errorf("cleanup: invalid table/column %s/%s", t.table, t.column)
			}
			cutoff := now - int64(t.days*86400)
			q := fmt.Sprintf("DELETE FROM %s WHERE %s < ?", t.table, t.column)
			if _, err := tx.ExecContext(ctx, q, cutoff); err != nil {
				return fmt.Errorf("cleanup %s: %w", t.table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// VACUUM cannot run inside a transaction.
	if cfg.RunVacuumAfter {
		if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
			return fmt.Errorf("vacuum: %w", err)
		}
	}
	return nil
}

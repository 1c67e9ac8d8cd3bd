package observability

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/domsurface/dbopen"
)

func setupObsDB(t *testing.T) *sql.DB {
	t.Helper()
	db := dbopen.OpenMemory(t)
	if err := Init(db); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestInit_CreatesAllTables(t *testing.T) {
	db := setupObsDB(t)
	tables := []string{"scan_events", "worker_heartbeats", "_observability_metadata"}
	for _, table := range tables {
		var count int
		db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if count != 1 {
			t.Fatalf("table %s not found", table)
		}
	}
}

func TestEventLogger_LogAndQuery(t *testing.T) {
	db := setupObsDB(t)
	el := NewEventLogger(db)
	ctx := context.Background()

	el.LogScan(ctx, ScanEvent{
		SessionID: "ses_a",
		PageURL:   "https://example.com/login",
		Elements:  14,
		Duration:  120 * time.Millisecond,
	})
	el.LogScan(ctx, ScanEvent{
		SessionID:      "ses_b",
		Elements:       3,
		HiddenIncluded: true,
		Duration:       40 * time.Millisecond,
	})

	all, err := el.RecentScans(ctx, "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("recent scans: got %d, want 2", len(all))
	}

	byS, err := el.RecentScans(ctx, "ses_a", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(byS) != 1 {
		t.Fatalf("session filter: got %d, want 1", len(byS))
	}
	if byS[0].Elements != 14 {
		t.Fatalf("elements: got %d, want 14", byS[0].Elements)
	}
	if byS[0].PageURL != "https://example.com/login" {
		t.Fatalf("page url: got %q", byS[0].PageURL)
	}
	if byS[0].Duration != 120*time.Millisecond {
		t.Fatalf("duration: got %v", byS[0].Duration)
	}
}

func TestEventLogger_CustomIDGenerator(t *testing.T) {
	db := setupObsDB(t)
	el := NewEventLogger(db, WithScanIDGenerator(func() string { return "scan_fixed" }))
	el.LogScan(context.Background(), ScanEvent{SessionID: "ses_x", Elements: 1})

	var id string
	if err := db.QueryRow("SELECT scan_id FROM scan_events").Scan(&id); err != nil {
		t.Fatal(err)
	}
	if id != "scan_fixed" {
		t.Fatalf("scan_id: got %q", id)
	}
}

func TestHeartbeatWriter_WriteAndLatest(t *testing.T) {
	db := setupObsDB(t)
	hw := NewHeartbeatWriter(db, "domsurface", 15*time.Second)
	if err := hw.WriteHeartbeat(); err != nil {
		t.Fatal(err)
	}

	hs, err := LatestHeartbeat(context.Background(), db, "domsurface", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if hs == nil {
		t.Fatal("no heartbeat found")
	}
	if !hs.Alive {
		t.Fatal("heartbeat should be alive")
	}
	if hs.GoroutinesCount <= 0 {
		t.Fatalf("goroutines: got %d", hs.GoroutinesCount)
	}

	missing, err := LatestHeartbeat(context.Background(), db, "absent", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatalf("expected nil status, got %+v", missing)
	}
}

func TestCleanup_Retention(t *testing.T) {
	db := setupObsDB(t)
	old := time.Now().AddDate(0, 0, -30).Unix()
	db.Exec(`INSERT INTO scan_events (scan_id, session_id, element_count, duration_ms, created_at)
	         VALUES ('scan_old', 'ses_old', 1, 10, ?)`, old)
	db.Exec(`INSERT INTO scan_events (scan_id, session_id, element_count, duration_ms, created_at)
	         VALUES ('scan_new', 'ses_new', 1, 10, ?)`, time.Now().Unix())

	if err := Cleanup(context.Background(), db, RetentionConfig{ScanEventsDays: 7}); err != nil {
		t.Fatal(err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM scan_events").Scan(&count)
	if count != 1 {
		t.Fatalf("after cleanup: got %d rows, want 1", count)
	}
	var id string
	db.QueryRow("SELECT scan_id FROM scan_events").Scan(&id)
	if id != "scan_new" {
		t.Fatalf("surviving row: got %q", id)
	}
}

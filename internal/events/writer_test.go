package events_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"fieldline/internal/db"
	"fieldline/internal/events"
	"fieldline/internal/migrate"
	"fieldline/internal/repo"
)

func newWriter(t *testing.T) (events.Writer, repo.Repo) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	w := events.Writer{DB: conn, Now: func() time.Time {
		return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	}}
	return w, repo.Repo{DB: conn}
}

func TestRecordAndTail(t *testing.T) {
	w, r := newWriter(t)
	ctx := context.Background()

	if err := w.Record(ctx, events.TypeReportStarted, "report", "", "pco-1", events.EventPayload{"client_id": 7}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := w.Record(ctx, events.TypeReportQueued, "report", "3", "pco-1", nil); err != nil {
		t.Fatalf("record: %v", err)
	}

	rows, err := r.LatestEvents(ctx, 10, "", "", "")
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 events, got %d", len(rows))
	}
	// newest first
	if rows[0].Type != events.TypeReportQueued || rows[1].Type != events.TypeReportStarted {
		t.Fatalf("order wrong: %+v", rows)
	}
	if rows[0].TS != "2026-03-01T09:30:00Z" {
		t.Fatalf("ts = %q", rows[0].TS)
	}
	if !strings.Contains(rows[1].Payload, `"client_id":7`) {
		t.Fatalf("payload = %q", rows[1].Payload)
	}
	if rows[1].EntityID != "" {
		t.Fatalf("empty entity id must round-trip empty, got %q", rows[1].EntityID)
	}
}

func TestTailFilters(t *testing.T) {
	w, r := newWriter(t)
	ctx := context.Background()

	_ = w.Record(ctx, events.TypeQueueDelivered, "submission", "1", "drainer", nil)
	_ = w.Record(ctx, events.TypeQueueFailed, "submission", "2", "drainer", events.EventPayload{"error": "422"})
	_ = w.Record(ctx, events.TypeStationAdded, "station", "abc", "pco-1", nil)

	rows, err := r.LatestEvents(ctx, 10, events.TypeQueueFailed, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].EntityID != "2" {
		t.Fatalf("type filter: %+v", rows)
	}

	rows, err = r.LatestEvents(ctx, 10, "", "submission", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("kind filter: %+v", rows)
	}
}

package draft_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fieldline/internal/db"
	"fieldline/internal/domain"
	"fieldline/internal/draft"
	"fieldline/internal/migrate"
)

func newTestStore(t *testing.T) *draft.SQLStore {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := draft.NewStore(conn)
	store.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, draft.ErrNoDraft) {
		t.Fatalf("want ErrNoDraft on empty store, got %v", err)
	}

	d := draft.New(testClient(), domain.ReportTypeBait, "2026-03-01")
	if err := draft.AddStation(&d, station(domain.LocationInside, 1)); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, d); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ClientID != 7 || len(got.BaitStations) != 1 {
		t.Fatalf("round trip lost data: %+v", got)
	}
	if got.LastSaved != "2026-03-01T12:00:00Z" {
		t.Fatalf("last saved = %q", got.LastSaved)
	}
	if got.BaitStations[0].StationNumber != 1 {
		t.Fatalf("station mangled: %+v", got.BaitStations[0])
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := draft.New(testClient(), domain.ReportTypeBait, "2026-03-01")
	if err := store.Save(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := draft.New(testClient(), domain.ReportTypeBoth, "2026-03-02")
	if err := store.Save(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.ReportType != domain.ReportTypeBoth || got.ServiceDate != "2026-03-02" {
		t.Fatalf("save did not overwrite: %+v", got)
	}
}

func TestStoreClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear on empty store: %v", err)
	}
	if err := store.Save(ctx, draft.New(testClient(), domain.ReportTypeBait, "2026-03-01")); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, draft.ErrNoDraft) {
		t.Fatalf("want ErrNoDraft after clear, got %v", err)
	}
}

package queue_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"fieldline/internal/api"
	"fieldline/internal/db"
	"fieldline/internal/domain"
	"fieldline/internal/migrate"
	"fieldline/internal/queue"
)

func newTestQueue(t *testing.T) (queue.Queue, *sql.DB) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	q := queue.New(conn)
	q.Now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }
	return q, conn
}

func enqueue(t *testing.T, q queue.Queue, endpoint string, priority int) int64 {
	t.Helper()
	id, err := q.Enqueue(context.Background(), domain.QueuedSubmission{
		Endpoint: endpoint,
		Method:   "POST",
		Body:     json.RawMessage(`{"n":1}`),
		Priority: priority,
		Type:     queue.TypeReport,
	})
	if err != nil {
		t.Fatalf("enqueue %s: %v", endpoint, err)
	}
	return id
}

func TestListOrdersByPriorityThenFIFO(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	low1 := enqueue(t, q, "reports", 0)
	high := enqueue(t, q, "clients/7/counts", 10)
	low2 := enqueue(t, q, "reports", 0)

	items, err := q.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := [3]int64{items[0].ID, items[1].ID, items[2].ID}
	want := [3]int64{high, low1, low2}
	if got != want {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestEnqueueRequiresMethodAndEndpoint(t *testing.T) {
	q, _ := newTestQueue(t)
	if _, err := q.Enqueue(context.Background(), domain.QueuedSubmission{Method: "POST"}); err == nil {
		t.Fatalf("missing endpoint should fail")
	}
	if _, err := q.Enqueue(context.Background(), domain.QueuedSubmission{Endpoint: "reports"}); err == nil {
		t.Fatalf("missing method should fail")
	}
}

func TestRemoveAndRecordFailure(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	id := enqueue(t, q, "reports", 0)
	if err := q.RecordFailure(ctx, id, "422: bad client"); err != nil {
		t.Fatal(err)
	}
	items, err := q.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if items[0].Attempts != 1 || items[0].LastError != "422: bad client" {
		t.Fatalf("failure not recorded: %+v", items[0])
	}

	if err := q.Remove(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := q.Remove(ctx, id); err == nil {
		t.Fatalf("double remove should fail")
	}
	n, err := q.Pending(ctx)
	if err != nil || n != 0 {
		t.Fatalf("pending = %d, %v", n, err)
	}
}

// fakeSender scripts per-endpoint outcomes for drain passes.
type fakeSender struct {
	fail map[string]error
	sent []string
}

func (f *fakeSender) Send(_ context.Context, _, endpoint string, _ json.RawMessage) error {
	f.sent = append(f.sent, endpoint)
	if err, ok := f.fail[endpoint]; ok {
		return err
	}
	return nil
}

func TestDrainOnceDeliversInOrder(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	enqueue(t, q, "reports", 0)
	enqueue(t, q, "clients/7/counts", 0)

	sender := &fakeSender{}
	d := queue.Drainer{Queue: q, Sender: sender}
	res, err := d.DrainOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Delivered != 2 || res.Failed != 0 || res.Offline {
		t.Fatalf("result = %+v", res)
	}
	if len(sender.sent) != 2 || sender.sent[0] != "reports" {
		t.Fatalf("sent = %v", sender.sent)
	}
	n, _ := q.Pending(ctx)
	if n != 0 {
		t.Fatalf("delivered items must leave the queue, %d left", n)
	}
}

func TestDrainOnceRejectionBlocksTier(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	enqueue(t, q, "reports", 0)          // rejected
	enqueue(t, q, "reports/2", 0)        // same tier, must be held back
	enqueue(t, q, "clients/7/counts", 5) // higher tier, delivered first

	sender := &fakeSender{fail: map[string]error{
		"reports": &api.APIError{StatusCode: 422, Message: "validation failed"},
	}}
	d := queue.Drainer{Queue: q, Sender: sender}
	res, err := d.DrainOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Delivered != 1 || res.Failed != 1 || res.Offline {
		t.Fatalf("result = %+v", res)
	}
	// the held-back item was never attempted
	for _, endpoint := range sender.sent {
		if endpoint == "reports/2" {
			t.Fatalf("tier behind a rejection must not be attempted: %v", sender.sent)
		}
	}
	items, _ := q.List(ctx)
	if len(items) != 2 {
		t.Fatalf("rejected and blocked items must stay queued: %+v", items)
	}
	if items[0].Attempts != 1 || items[0].LastError == "" {
		t.Fatalf("rejection must be recorded on the item: %+v", items[0])
	}
	if items[1].Attempts != 0 {
		t.Fatalf("blocked item must not accrue attempts: %+v", items[1])
	}
}

func TestDrainOnceOfflineAbortsPass(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	enqueue(t, q, "reports", 0)
	enqueue(t, q, "clients/7/counts", 0)

	sender := &fakeSender{fail: map[string]error{
		"reports": &url.Error{Op: "Post", URL: "http://10.0.0.1/v1/reports", Err: errors.New("connection refused")},
	}}
	d := queue.Drainer{Queue: q, Sender: sender}
	res, err := d.DrainOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Offline || res.Delivered != 0 || res.Failed != 0 {
		t.Fatalf("result = %+v", res)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("offline must abort after the first transport failure: %v", sender.sent)
	}
	n, _ := q.Pending(ctx)
	if n != 2 {
		t.Fatalf("offline pass must not consume the queue, %d left", n)
	}
	// offline leaves no failure marks either
	items, _ := q.List(ctx)
	if items[0].Attempts != 0 {
		t.Fatalf("offline is not a rejection: %+v", items[0])
	}
}

func TestDrainOnceEmptyQueue(t *testing.T) {
	q, _ := newTestQueue(t)
	d := queue.Drainer{Queue: q, Sender: &fakeSender{}}
	res, err := d.DrainOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Delivered != 0 || res.Failed != 0 || res.Offline {
		t.Fatalf("result = %+v", res)
	}
}

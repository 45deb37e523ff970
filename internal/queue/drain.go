package queue

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"fieldline/internal/api"
	"fieldline/internal/events"
)

// Sender replays a queued submission. *api.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, method, endpoint string, body json.RawMessage) error
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	Delivered int
	Failed    int
	Offline   bool
}

// Drainer flushes the queue when connectivity returns. Ordering guarantee:
// FIFO within a priority tier. A server rejection halts its tier for the
// pass so a later item for the same report cannot overtake an earlier one;
// a transport failure means we are still offline and aborts the pass.
type Drainer struct {
	Queue    Queue
	Sender   Sender
	Events   events.Writer
	Log      *zap.SugaredLogger
	Interval time.Duration
}

// DrainOnce attempts every deliverable item in order.
func (d Drainer) DrainOnce(ctx context.Context) (DrainResult, error) {
	var res DrainResult
	items, err := d.Queue.List(ctx)
	if err != nil {
		return res, err
	}
	blockedTier := -1
	for _, item := range items {
		if item.Priority == blockedTier {
			continue
		}
		err := d.Sender.Send(ctx, item.Method, item.Endpoint, item.Body)
		if err == nil {
			if err := d.Queue.Remove(ctx, item.ID); err != nil {
				return res, err
			}
			res.Delivered++
			d.recordEvent(ctx, events.TypeQueueDelivered, item.ID, item.Type, "")
			d.log().Infow("queued submission delivered", "id", item.ID, "type", item.Type, "endpoint", item.Endpoint)
			continue
		}
		if api.IsOffline(err) {
			res.Offline = true
			d.log().Debugw("still offline, drain pass aborted", "id", item.ID, "error", err)
			return res, nil
		}
		// Server rejected the item. Keep it for retry and hold back the
		// rest of its tier to preserve ordering.
		res.Failed++
		blockedTier = item.Priority
		if recErr := d.Queue.RecordFailure(ctx, item.ID, err.Error()); recErr != nil {
			return res, recErr
		}
		d.recordEvent(ctx, events.TypeQueueFailed, item.ID, item.Type, err.Error())
		d.log().Warnw("queued submission rejected, will retry", "id", item.ID, "type", item.Type, "error", err)
	}
	return res, nil
}

// Run drains on a ticker until the context is done.
func (d Drainer) Run(ctx context.Context) error {
	interval := d.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		res, err := d.DrainOnce(ctx)
		if err != nil {
			d.log().Errorw("drain pass failed", "error", err)
		} else if res.Delivered > 0 {
			d.log().Infow("drain pass complete", "delivered", res.Delivered, "failed", res.Failed)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (d Drainer) recordEvent(ctx context.Context, evtType string, id int64, submissionType, cause string) {
	if d.Events.DB == nil {
		return
	}
	payload := events.EventPayload{"type": submissionType}
	if cause != "" {
		payload["error"] = cause
	}
	if err := d.Events.Record(ctx, evtType, "submission", strconv.FormatInt(id, 10), "drainer", payload); err != nil {
		d.log().Warnw("event append failed", "error", err)
	}
}

func (d Drainer) log() *zap.SugaredLogger {
	if d.Log != nil {
		return d.Log
	}
	return zap.NewNop().Sugar()
}

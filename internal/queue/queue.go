// Package queue is the durable offline submission queue. Items are created
// when a submission attempt cannot reach the network and removed only after
// the server accepts them.
package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fieldline/internal/domain"
)

// Submission types carried as queue metadata.
const (
	TypeReport       = "report"
	TypeCountsUpdate = "counts_update"
)

// Queue persists deferred submissions in the workspace database. Enqueue
// and dequeue-on-success are transactional; a submission is never lost and
// never delivered twice by this process.
type Queue struct {
	DB  *sql.DB
	Now func() time.Time
}

func New(db *sql.DB) Queue {
	return Queue{DB: db, Now: time.Now}
}

func (q Queue) now() time.Time {
	if q.Now != nil {
		return q.Now()
	}
	return time.Now()
}

// Enqueue appends a submission and returns its queue id.
func (q Queue) Enqueue(ctx context.Context, item domain.QueuedSubmission) (int64, error) {
	if item.Method == "" || item.Endpoint == "" {
		return 0, fmt.Errorf("queued submission requires method and endpoint")
	}
	enqueuedAt := q.now().UTC().Format(time.RFC3339)
	res, err := q.DB.ExecContext(ctx,
		`INSERT INTO submission_queue(endpoint,method,body,priority,type,enqueued_at,attempts) VALUES (?,?,?,?,?,?,0)`,
		item.Endpoint, item.Method, string(item.Body), item.Priority, item.Type, enqueuedAt)
	if err != nil {
		return 0, fmt.Errorf("enqueue submission: %w", err)
	}
	return res.LastInsertId()
}

// List returns all queued submissions in delivery order: higher priority
// tiers first, FIFO within a tier.
func (q Queue) List(ctx context.Context) ([]domain.QueuedSubmission, error) {
	rows, err := q.DB.QueryContext(ctx,
		`SELECT id,endpoint,method,body,priority,type,enqueued_at,attempts,COALESCE(last_error,'')
		 FROM submission_queue ORDER BY priority DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.QueuedSubmission
	for rows.Next() {
		var item domain.QueuedSubmission
		var body string
		if err := rows.Scan(&item.ID, &item.Endpoint, &item.Method, &body, &item.Priority,
			&item.Type, &item.EnqueuedAt, &item.Attempts, &item.LastError); err != nil {
			return nil, err
		}
		item.Body = json.RawMessage(body)
		items = append(items, item)
	}
	return items, rows.Err()
}

// Pending returns the number of undelivered submissions.
func (q Queue) Pending(ctx context.Context) (int, error) {
	var n int
	err := q.DB.QueryRowContext(ctx, `SELECT count(*) FROM submission_queue`).Scan(&n)
	return n, err
}

// Remove deletes a delivered submission.
func (q Queue) Remove(ctx context.Context, id int64) error {
	res, err := q.DB.ExecContext(ctx, `DELETE FROM submission_queue WHERE id=?`, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("queued submission %d not found", id)
	}
	return nil
}

// RecordFailure bumps the attempt counter and stores the last error; the
// item stays queued for the next pass.
func (q Queue) RecordFailure(ctx context.Context, id int64, cause string) error {
	_, err := q.DB.ExecContext(ctx,
		`UPDATE submission_queue SET attempts=attempts+1, last_error=? WHERE id=?`, cause, id)
	return err
}

package draft

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fieldline/internal/domain"
)

// ErrNoDraft is returned by Load when no draft exists on the device.
var ErrNoDraft = errors.New("no report draft")

// Store persists the single current report draft. Save is a full
// overwrite, last-write-wins; there are no partial updates. Clearing the
// draft never touches the submission queue.
type Store interface {
	Load(ctx context.Context) (domain.ReportDraft, error)
	Save(ctx context.Context, d domain.ReportDraft) error
	Clear(ctx context.Context) error
}

// SQLStore keeps the draft as one JSON row in the workspace database.
type SQLStore struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db, Now: time.Now}
}

func (s *SQLStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SQLStore) Load(ctx context.Context) (domain.ReportDraft, error) {
	var body string
	err := s.DB.QueryRowContext(ctx, `SELECT body FROM draft WHERE id=1`).Scan(&body)
	if err == sql.ErrNoRows {
		return domain.ReportDraft{}, ErrNoDraft
	}
	if err != nil {
		return domain.ReportDraft{}, err
	}
	var d domain.ReportDraft
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return domain.ReportDraft{}, fmt.Errorf("decode draft: %w", err)
	}
	return d, nil
}

func (s *SQLStore) Save(ctx context.Context, d domain.ReportDraft) error {
	savedAt := s.now().UTC().Format(time.RFC3339)
	d.LastSaved = savedAt
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `INSERT INTO draft(id,body,saved_at) VALUES (1,?,?)
		ON CONFLICT(id) DO UPDATE SET body=excluded.body, saved_at=excluded.saved_at`,
		string(body), savedAt)
	return err
}

func (s *SQLStore) Clear(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM draft WHERE id=1`)
	return err
}

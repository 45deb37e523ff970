// Package submit drives the final submission attempt: deliver online,
// queue offline, preserve the draft on server rejection.
package submit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"fieldline/internal/api"
	"fieldline/internal/domain"
	"fieldline/internal/draft"
	"fieldline/internal/events"
	"fieldline/internal/payload"
	"fieldline/internal/queue"
)

// Poster performs the report submission call. *api.Client satisfies it.
type Poster interface {
	SubmitReport(ctx context.Context, req payload.Request) (api.SubmitResponse, error)
}

// Result is the user-visible outcome of a submission attempt. Queued and
// submitted are distinct terminal states; the UI must show them apart.
type Result struct {
	Queued   bool  `json:"queued"`
	ReportID int64 `json:"report_id,omitempty"`
}

// RejectedError carries a server-side rejection. The draft is preserved so
// the operator can correct and resubmit.
type RejectedError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *RejectedError) Error() string {
	if e.Status >= http.StatusInternalServerError {
		return "server failed to process the report; try again"
	}
	return e.Message
}

// Submitter owns the draft-clear vs draft-preserve decision.
type Submitter struct {
	Store    draft.Store
	Queue    queue.Queue
	API      Poster
	Events   events.Writer
	Log      *zap.SugaredLogger
	Priority int
	ActorID  string
}

// Submit builds the payload from the draft and attempts delivery.
// Online success and successful enqueue both clear the draft; the queued
// copy is the durable record in the latter case. Server rejection leaves
// the draft untouched.
func (s Submitter) Submit(ctx context.Context, d domain.ReportDraft) (Result, error) {
	if err := draft.ReadyForSubmit(d); err != nil {
		return Result{}, err
	}
	req := payload.Build(d)
	resp, err := s.API.SubmitReport(ctx, req)
	if err == nil && !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "server did not accept the report"
		}
		return Result{}, &RejectedError{Status: http.StatusOK, Message: msg, Fields: resp.Errors}
	}
	if err == nil {
		if err := s.Store.Clear(ctx); err != nil {
			return Result{}, fmt.Errorf("clear draft after submit: %w", err)
		}
		s.recordEvent(ctx, events.TypeReportSubmitted, strconv.FormatInt(resp.ReportID, 10), events.EventPayload{
			"client_id": d.ClientID,
		})
		s.log().Infow("report submitted", "report_id", resp.ReportID, "client_id", d.ClientID)
		return Result{ReportID: resp.ReportID}, nil
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return Result{}, &RejectedError{Status: apiErr.StatusCode, Message: apiErr.Message, Fields: apiErr.Errors}
	}
	if !api.IsOffline(err) {
		return Result{}, err
	}

	// Offline: the queued copy becomes the durable record, so clearing
	// the draft here is safe and deliberate.
	body, err := req.MarshalBody()
	if err != nil {
		return Result{}, err
	}
	id, err := s.Queue.Enqueue(ctx, domain.QueuedSubmission{
		Endpoint: req.Endpoint,
		Method:   req.Method,
		Body:     body,
		Priority: s.Priority,
		Type:     queue.TypeReport,
	})
	if err != nil {
		return Result{}, fmt.Errorf("queue offline submission: %w", err)
	}
	if err := s.Store.Clear(ctx); err != nil {
		return Result{}, fmt.Errorf("clear draft after enqueue: %w", err)
	}
	s.recordEvent(ctx, events.TypeReportQueued, strconv.FormatInt(id, 10), events.EventPayload{
		"client_id": d.ClientID,
		"endpoint":  req.Endpoint,
	})
	s.log().Infow("offline, report queued for delivery", "queue_id", id, "client_id", d.ClientID)
	return Result{Queued: true}, nil
}

func (s Submitter) recordEvent(ctx context.Context, evtType, entityID string, payload events.EventPayload) {
	if s.Events.DB == nil {
		return
	}
	actor := s.ActorID
	if actor == "" {
		actor = "pco"
	}
	if err := s.Events.Record(ctx, evtType, "report", entityID, actor, payload); err != nil {
		s.log().Warnw("event append failed", "error", err)
	}
}

func (s Submitter) log() *zap.SugaredLogger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop().Sugar()
}

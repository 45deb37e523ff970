// Package server is a development sync server implementing the field API
// contracts the CLI consumes: client lookup, previous-report pre-fill,
// expected-count updates, and report create/update. It backs local
// development and end-to-end tests of the submit and drain paths.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"fieldline/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Repo     repo.Repo
	BasePath string
	Auth     AuthConfig
	Log      *zap.SugaredLogger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"bad_request"`
	Message string         `json:"message" example:"report_type is required"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the field API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Fieldline Sync API", "0.1.0")
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerClients(group, cfg.Repo)
	registerReports(group, cfg.Repo)
	registerDevAuth(group, cfg.Auth)

	if cfg.Log != nil {
		cfg.Log.Infow("sync api handler ready", "base_path", basePath)
	}
	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	if strings.Contains(lowered, "required") || strings.Contains(lowered, "invalid") {
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerClients(api huma.API, r repo.Repo) {
	type ClientPath struct {
		ClientID int64 `path:"client_id"`
	}

	huma.Register(api, huma.Operation{
		OperationID:   "create-client",
		Method:        http.MethodPost,
		Path:          "/clients",
		Summary:       "Create client",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body CreateClientRequest `json:"body"`
	}) (*struct {
		Body ClientResponse `json:"body"`
	}, error) {
		if input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		id, err := r.InsertClient(ctx, repo.ClientRow{
			Name:                     input.Body.Name,
			Address:                  input.Body.Address,
			TotalStationsInside:      input.Body.TotalStationsInside,
			TotalStationsOutside:     input.Body.TotalStationsOutside,
			TotalInsectMonitorsLight: input.Body.TotalInsectMonitorsLight,
			TotalInsectMonitorsBox:   input.Body.TotalInsectMonitorsBox,
		})
		if err != nil {
			return nil, handleError(err)
		}
		row, err := r.GetClient(ctx, id)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ClientResponse `json:"body"`
		}{Body: clientResponse(row)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-client",
		Method:      http.MethodGet,
		Path:        "/clients/{client_id}",
		Summary:     "Get client",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *ClientPath) (*struct {
		Body ClientResponse `json:"body"`
	}, error) {
		row, err := r.GetClient(ctx, input.ClientID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ClientResponse `json:"body"`
		}{Body: clientResponse(row)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-client-counts",
		Method:      http.MethodPatch,
		Path:        "/clients/{client_id}/counts",
		Summary:     "Update expected equipment counts",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ClientPath
		Body UpdateCountsRequest `json:"body"`
	}) (*struct {
		Body ClientResponse `json:"body"`
	}, error) {
		err := r.UpdateClientCounts(ctx, input.ClientID,
			input.Body.TotalStationsInside, input.Body.TotalStationsOutside,
			input.Body.TotalInsectMonitorsLight, input.Body.TotalInsectMonitorsBox)
		if err != nil {
			return nil, handleError(err)
		}
		row, err := r.GetClient(ctx, input.ClientID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ClientResponse `json:"body"`
		}{Body: clientResponse(row)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "previous-report",
		Method:      http.MethodGet,
		Path:        "/clients/{client_id}/previous-report",
		Summary:     "Last completed report for pre-fill",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *ClientPath) (*struct {
		Body PreviousReportResponse `json:"body"`
	}, error) {
		if _, err := r.GetClient(ctx, input.ClientID); err != nil {
			return nil, handleError(err)
		}
		row, err := r.LatestReportForClient(ctx, input.ClientID)
		if err != nil {
			return nil, handleError(err)
		}
		resp, err := previousReportResponse(row)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body PreviousReportResponse `json:"body"`
		}{Body: resp}, nil
	})
}

func registerReports(api huma.API, r repo.Repo) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-report",
		Method:        http.MethodPost,
		Path:          "/reports",
		Summary:       "Create service report",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		Body json.RawMessage `json:"body"`
	}) (*struct {
		Body SubmitResponse `json:"body"`
	}, error) {
		head, err := validateReportBody(ctx, r, input.Body)
		if err != nil {
			return nil, err
		}
		id, insErr := r.InsertReport(ctx, repo.ReportRow{
			ClientID:    head.ClientID,
			ReportType:  head.ReportType,
			ServiceDate: head.ServiceDate,
			Body:        string(input.Body),
		})
		if insErr != nil {
			return nil, handleError(insErr)
		}
		return &struct {
			Body SubmitResponse `json:"body"`
		}{Body: SubmitResponse{Success: true, ReportID: id}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-report",
		Method:      http.MethodGet,
		Path:        "/reports/{report_id}",
		Summary:     "Get submitted report",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ReportID int64 `path:"report_id"`
	}) (*struct {
		Body ReportResponse `json:"body"`
	}, error) {
		row, err := r.GetReport(ctx, input.ReportID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReportResponse `json:"body"`
		}{Body: reportResponse(row)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-report",
		Method:      http.MethodPut,
		Path:        "/reports/{report_id}",
		Summary:     "Update (resubmit) service report",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ReportID int64           `path:"report_id"`
		Body     json.RawMessage `json:"body"`
	}) (*struct {
		Body SubmitResponse `json:"body"`
	}, error) {
		head, err := validateReportBody(ctx, r, input.Body)
		if err != nil {
			return nil, err
		}
		if updErr := r.UpdateReport(ctx, input.ReportID, head.ReportType, head.ServiceDate, string(input.Body)); updErr != nil {
			return nil, handleError(updErr)
		}
		return &struct {
			Body SubmitResponse `json:"body"`
		}{Body: SubmitResponse{Success: true, ReportID: input.ReportID}}, nil
	})
}

// validateReportBody checks the submission head fields and that the client
// exists; field errors come back as a 422 with per-field detail.
func validateReportBody(ctx context.Context, r repo.Repo, body json.RawMessage) (reportHead, huma.StatusError) {
	var head reportHead
	if err := json.Unmarshal(body, &head); err != nil {
		return head, newAPIError(http.StatusBadRequest, "bad_request", "malformed report body", nil)
	}
	fields := map[string]any{}
	if head.ClientID == 0 {
		fields["client_id"] = "client_id is required"
	}
	switch head.ReportType {
	case "bait_inspection", "fumigation", "both":
	default:
		fields["report_type"] = fmt.Sprintf("unknown report_type %q", head.ReportType)
	}
	if head.ServiceDate == "" {
		fields["service_date"] = "service_date is required"
	}
	if len(fields) > 0 {
		return head, newAPIError(http.StatusUnprocessableEntity, "validation_failed", "report validation failed", fields)
	}
	if _, err := r.GetClient(ctx, head.ClientID); err != nil {
		return head, handleError(err)
	}
	return head, nil
}

type reportHead struct {
	ClientID    int64  `json:"client_id"`
	ReportType  string `json:"report_type"`
	ServiceDate string `json:"service_date"`
}

// Package api is the HTTP client for the field service API. Transport
// failures are classified as the offline condition, distinct from server
// responses; the submission path branches on that distinction.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fieldline/internal/domain"
	"fieldline/internal/payload"
)

// Client is a minimal field API client.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		Timeout: 10 * time.Second,
	}
}

// APIError wraps non-2xx responses. The server reached us; this is never
// the offline condition.
type APIError struct {
	StatusCode int
	Message    string
	Errors     map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: status=%d", e.StatusCode)
}

// IsOffline reports whether err is a transport failure: the request never
// produced a server response. http.Client wraps those in *url.Error, so
// classification is positive. Context cancellation is not offline, and
// neither is anything that happened after a response arrived, such as a
// body decode failure.
func IsOffline(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// ClientWire is the API's client record.
type ClientWire struct {
	ID                       int64  `json:"id"`
	Name                     string `json:"name"`
	Address                  string `json:"address,omitempty"`
	TotalStationsInside      int    `json:"total_stations_inside"`
	TotalStationsOutside     int    `json:"total_stations_outside"`
	TotalInsectMonitorsLight int    `json:"total_insect_monitors_light"`
	TotalInsectMonitorsBox   int    `json:"total_insect_monitors_box"`
}

// Domain converts the wire record into the draft's denormalized snapshot.
func (w ClientWire) Domain() domain.Client {
	return domain.Client{
		ID:                      w.ID,
		Name:                    w.Name,
		Address:                 w.Address,
		ExpectedInsideStations:  w.TotalStationsInside,
		ExpectedOutsideStations: w.TotalStationsOutside,
		ExpectedLightMonitors:   w.TotalInsectMonitorsLight,
		ExpectedBoxMonitors:     w.TotalInsectMonitorsBox,
	}
}

// CountsWire is the PATCH body for updating a client's expected equipment
// counts.
type CountsWire struct {
	TotalStationsInside      int `json:"total_stations_inside"`
	TotalStationsOutside     int `json:"total_stations_outside"`
	TotalInsectMonitorsLight int `json:"total_insect_monitors_light"`
	TotalInsectMonitorsBox   int `json:"total_insect_monitors_box"`
}

// PreviousReportWire is the last completed report for a client, in wire
// format.
type PreviousReportWire struct {
	ReportID       int64                 `json:"report_id"`
	BaitStations   []payload.StationWire `json:"bait_stations"`
	InsectMonitors []payload.MonitorWire `json:"insect_monitors"`
}

// SubmitResponse is the create/update report result.
type SubmitResponse struct {
	Success  bool              `json:"success"`
	ReportID int64             `json:"report_id,omitempty"`
	Message  string            `json:"message,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// GetClient fetches a client record.
func (c *Client) GetClient(ctx context.Context, id int64) (ClientWire, error) {
	var resp ClientWire
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("clients/%d", id), nil, &resp)
	return resp, err
}

// PreviousReport fetches the client's last completed report. Callers treat
// any failure as "no previous data".
func (c *Client) PreviousReport(ctx context.Context, clientID int64) (PreviousReportWire, error) {
	var resp PreviousReportWire
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("clients/%d/previous-report", clientID), nil, &resp)
	return resp, err
}

// UpdateClientCounts persists new expected equipment counts.
func (c *Client) UpdateClientCounts(ctx context.Context, clientID int64, counts CountsWire) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("clients/%d/counts", clientID), counts, nil)
}

// SubmitReport sends a built report payload.
func (c *Client) SubmitReport(ctx context.Context, req payload.Request) (SubmitResponse, error) {
	var resp SubmitResponse
	err := c.do(ctx, req.Method, req.Endpoint, req.Body, &resp)
	return resp, err
}

// Send replays a queued submission exactly as it was enqueued.
func (c *Client) Send(ctx context.Context, method, endpoint string, body json.RawMessage) error {
	return c.doRaw(ctx, method, endpoint, bytes.NewReader(body), nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	return c.doRaw(ctx, method, endpoint, &buf, out)
}

func (c *Client) doRaw(ctx context.Context, method, endpoint string, body io.Reader, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	target := c.base() + "/" + strings.TrimLeft(c.versioned(endpoint), "/")
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, endpoint, err)
		}
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var envelope struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(b, &envelope) == nil {
		apiErr.Message = envelope.Message
		if apiErr.Message == "" {
			apiErr.Message = envelope.Error.Message
		}
		apiErr.Errors = envelope.Errors
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(b))
	}
	return apiErr
}

func (c *Client) versioned(endpoint string) string {
	return "v1/" + strings.TrimLeft(endpoint, "/")
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}

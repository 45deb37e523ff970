package api_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"fieldline/internal/api"
	"fieldline/internal/payload"
)

// closedPortURL reserves a port and closes it so requests are refused.
func closedPortURL(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	url := "http://" + ln.Addr().String()
	ln.Close()
	return url
}

func TestTransportFailureIsOffline(t *testing.T) {
	c := api.New(closedPortURL(t), "")
	c.Timeout = 2 * time.Second

	_, err := c.GetClient(context.Background(), 1)
	if err == nil {
		t.Fatalf("expected a transport error")
	}
	if !api.IsOffline(err) {
		t.Fatalf("connection refused must classify as offline: %v", err)
	}
}

func TestCancellationIsNotOffline(t *testing.T) {
	c := api.New(closedPortURL(t), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetClient(ctx, 1)
	if err == nil {
		t.Fatalf("expected an error from a cancelled context")
	}
	if api.IsOffline(err) {
		t.Fatalf("cancellation must not classify as offline: %v", err)
	}
}

func TestAcceptedResponseDecodeFailureIsNotOffline(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, "created")
	})}
	go srv.Serve(ln)
	t.Cleanup(func() { srv.Close() })

	c := api.New("http://"+ln.Addr().String(), "")
	_, err = c.SubmitReport(context.Background(), payload.Request{Method: http.MethodPost, Endpoint: "reports"})
	if err == nil {
		t.Fatalf("non-JSON 2xx body must surface a decode error")
	}
	if api.IsOffline(err) {
		t.Fatalf("a response arrived; decode failure must not classify as offline: %v", err)
	}
}

func TestServerRejectionIsNotOffline(t *testing.T) {
	err := &api.APIError{StatusCode: 422, Message: "validation failed"}
	if api.IsOffline(err) {
		t.Fatalf("APIError must never be offline")
	}
	if api.IsOffline(nil) {
		t.Fatalf("nil is not offline")
	}
}

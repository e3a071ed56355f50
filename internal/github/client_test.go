package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]string
}

type recorder struct {
	mu   sync.Mutex
	reqs []recordedRequest
}

func (r *recorder) all() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedRequest(nil), r.reqs...)
}

func newTestServer(t *testing.T, status func(n int32) int) (*httptest.Server, *recorder, *int32) {
	t.Helper()
	var calls int32
	rec := &recorder{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		rec.mu.Lock()
		rec.reqs = append(rec.reqs, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		rec.mu.Unlock()

		code := status(n)
		w.WriteHeader(code)
		if code >= 300 {
			_, _ = w.Write([]byte(`{"message":"boom"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return srv, rec, &calls
}

func newTestClient(baseURL string) *Client {
	return NewClient("secret", "VectorSophie/Storytime",
		WithBaseURL(baseURL),
		WithBackoff(time.Millisecond),
		WithRateLimit(6000, 10),
		WithRetry(2))
}

func TestComment(t *testing.T) {
	srv, reqs, _ := newTestServer(t, func(int32) int { return http.StatusCreated })
	c := newTestClient(srv.URL)

	if err := c.Comment(context.Background(), 42, "Added your word!"); err != nil {
		t.Fatalf("Comment() error = %v", err)
	}

	all := reqs.all()
	if len(all) != 1 {
		t.Fatalf("got %d requests, want 1", len(all))
	}
	got := all[0]
	if got.Method != http.MethodPost || got.Path != "/repos/VectorSophie/Storytime/issues/42/comments" {
		t.Errorf("request = %s %s", got.Method, got.Path)
	}
	if got.Auth != "Bearer secret" {
		t.Errorf("Authorization = %q", got.Auth)
	}
	if got.Body["body"] != "Added your word!" {
		t.Errorf("body = %v", got.Body)
	}
}

func TestClose(t *testing.T) {
	srv, reqs, _ := newTestServer(t, func(int32) int { return http.StatusOK })
	c := newTestClient(srv.URL)

	if err := c.Close(context.Background(), 7, ReasonNotPlanned); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	got := reqs.all()[0]
	if got.Method != http.MethodPatch || got.Path != "/repos/VectorSophie/Storytime/issues/7" {
		t.Errorf("request = %s %s", got.Method, got.Path)
	}
	if got.Body["state"] != "closed" || got.Body["state_reason"] != ReasonNotPlanned {
		t.Errorf("body = %v", got.Body)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	srv, _, calls := newTestServer(t, func(n int32) int {
		if n < 3 {
			return http.StatusBadGateway
		}
		return http.StatusCreated
	})
	c := newTestClient(srv.URL)

	if err := c.Comment(context.Background(), 1, "hi"); err != nil {
		t.Fatalf("Comment() error = %v", err)
	}
	if got := atomic.LoadInt32(calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	srv, _, calls := newTestServer(t, func(int32) int { return http.StatusForbidden })
	c := newTestClient(srv.URL)

	err := c.Comment(context.Background(), 1, "hi")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Message != "boom" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	srv, _, calls := newTestServer(t, func(int32) int { return http.StatusServiceUnavailable })
	c := newTestClient(srv.URL)

	if err := c.Close(context.Background(), 1, ReasonCompleted); err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

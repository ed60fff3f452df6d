package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"trailerhub/internal/retry"
)

func statusServer(t *testing.T, codes ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		code := codes[len(codes)-1]
		if n <= len(codes) {
			code = codes[n-1]
		}
		w.WriteHeader(code)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func get(url string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	srv, calls := statusServer(t, http.StatusServiceUnavailable, http.StatusOK)
	d := NewDoer("test-retry", time.Second, retry.Policy{MaxAttempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond})

	body, err := d.Do(context.Background(), "get", get(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `{"ok":true}` || calls.Load() != 2 {
		t.Fatalf("body = %s, calls = %d", body, calls.Load())
	}
}

func TestDo_ClientErrorIsNotRetried(t *testing.T) {
	srv, calls := statusServer(t, http.StatusNotFound)
	d := NewDoer("test-404", time.Second, retry.Policy{MaxAttempts: 3, Initial: time.Millisecond})

	_, err := d.Do(context.Background(), "get", get(srv.URL))
	if !IsNotFound(err) {
		t.Fatalf("err = %v, want 404 StatusError", err)
	}
	if retry.IsPermanent(err) {
		t.Fatal("retry marker should be stripped")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestBreaker_OpensOnServerErrorsOnly(t *testing.T) {
	once := retry.Policy{MaxAttempts: 1}

	srv, calls := statusServer(t, http.StatusBadRequest)
	d := NewDoer("test-4xx", time.Second, once)
	for i := 0; i < 10; i++ {
		_, _ = d.Do(context.Background(), "get", get(srv.URL))
	}
	if d.Breaker.State() != gobreaker.StateClosed || calls.Load() != 10 {
		t.Fatalf("4xx tripped the breaker: state %s, calls %d", d.Breaker.State(), calls.Load())
	}

	srv, calls = statusServer(t, http.StatusBadGateway)
	d = NewDoer("test-5xx", time.Second, once)
	for i := 0; i < 5; i++ {
		_, _ = d.Do(context.Background(), "get", get(srv.URL))
	}
	if d.Breaker.State() != gobreaker.StateOpen {
		t.Fatalf("state = %s, want open", d.Breaker.State())
	}
	_, err := d.Do(context.Background(), "get", get(srv.URL))
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want open state", err)
	}
	if calls.Load() != 5 {
		t.Fatalf("open breaker still hit the server: calls = %d", calls.Load())
	}
}

func TestStatusError_Temporary(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusTooManyRequests, true},
		{http.StatusRequestTimeout, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusNotFound, false},
	}
	for _, tt := range tests {
		if got := (&StatusError{Code: tt.code}).Temporary(); got != tt.want {
			t.Errorf("Temporary(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

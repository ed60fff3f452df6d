// Package remote is the shared plumbing of outbound HTTP clients: a circuit
// breaker per upstream, bounded retries, and typed status errors.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"trailerhub/internal/logging"
	"trailerhub/internal/metrics"
	"trailerhub/internal/retry"
)

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// StatusError is a non-2xx response.
type StatusError struct {
	Client string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Client, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Client, e.Code, body)
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests || e.Code == http.StatusRequestTimeout
}

// IsNotFound reports whether err is a 404 from any client.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

type Doer struct {
	Name    string
	HTTP    *http.Client
	Breaker *gobreaker.CircuitBreaker[[]byte]
	Policy  retry.Policy
}

func NewDoer(name string, timeout time.Duration, policy retry.Policy) *Doer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Doer{
		Name:    name,
		HTTP:    &http.Client{Timeout: timeout},
		Breaker: NewBreaker(name),
		Policy:  policy,
	}
}

// NewBreaker opens after five consecutive failures and probes again after
// thirty seconds. Client errors (4xx other than 408/429) do not count.
func NewBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	metrics.BreakerState.WithLabelValues(name).Set(0)
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return !se.Temporary()
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("component", "remote").
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
}

// Do sends the request built by build through the breaker, retrying
// transient failures per Policy. It returns the body of a 2xx response and a
// *StatusError for anything else. build is called once per attempt.
func (d *Doer) Do(ctx context.Context, op string, build func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	var body []byte
	err := d.Policy.Do(ctx, d.Name+"."+op, func(ctx context.Context) error {
		req, err := build(ctx)
		if err != nil {
			return retry.Permanent(err)
		}
		b, err := d.Breaker.Execute(func() ([]byte, error) { return d.send(req) })
		metrics.RecordRemote(d.Name, err)
		if err != nil {
			return classify(err)
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, unwrapPermanent(err)
	}
	return body, nil
}

func (d *Doer) send(req *http.Request) ([]byte, error) {
	res, err := d.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", d.Name, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return b, &StatusError{Client: d.Name, Code: res.StatusCode, Body: string(b)}
	}
	return b, nil
}

func classify(err error) error {
	var se *StatusError
	switch {
	case errors.As(err, &se) && !se.Temporary():
		return retry.Permanent(err)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return retry.Permanent(err)
	case errors.Is(err, context.Canceled):
		return retry.Permanent(err)
	}
	return err
}

// unwrapPermanent strips the retry marker so callers can match the cause.
func unwrapPermanent(err error) error {
	if retry.IsPermanent(err) {
		return errors.Unwrap(err)
	}
	return err
}

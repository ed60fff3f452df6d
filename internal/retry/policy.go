// Package retry provides bounded exponential backoff, both as a blocking
// helper for outbound clients and as a stateful fetcher for list views.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trailerhub/internal/logging"
	"trailerhub/internal/metrics"
)

// ErrExhausted is wrapped into the error returned once every attempt failed.
var ErrExhausted = errors.New("retry attempts exhausted")

type Policy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
}

// DefaultPolicy gives up after the third failure, waiting 2s then 4s.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	Initial:     time.Second,
	Max:         5 * time.Second,
}

// Backoff is the wait after the given number of failures: Initial*2^failures,
// capped at Max.
func (p Policy) Backoff(failures int) time.Duration {
	if failures < 0 {
		failures = 0
	}
	d := p.Initial
	for i := 0; i < failures; i++ {
		d *= 2
		if p.Max > 0 && d >= p.Max {
			return p.Max
		}
	}
	if p.Max > 0 && d > p.Max {
		return p.Max
	}
	return d
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying; Do returns it straight away.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do calls fn until it succeeds, returns a permanent error, the context ends,
// or MaxAttempts calls have failed.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for failures := 0; failures < attempts; failures++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return err
		}

		if failures+1 < attempts {
			delay := p.Backoff(failures + 1)
			metrics.RetryAttempts.WithLabelValues(op).Inc()
			logging.Warn().Err(err).
				Str("op", op).
				Int("attempt", failures+1).
				Int("max_attempts", attempts).
				Dur("delay", delay).
				Msg("retrying")

			t := time.NewTimer(delay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrExhausted, err)
}

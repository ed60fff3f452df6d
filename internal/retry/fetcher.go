package retry

import (
	"context"
	"slices"
	"sync"
	"time"

	"trailerhub/internal/logging"
	"trailerhub/internal/metrics"
)

type State int

const (
	Idle State = iota
	Loading
	Success
	// TransientError means a retry is pending; it is never shown to users.
	TransientError
	PersistentError
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case TransientError:
		return "transient_error"
	case PersistentError:
		return "persistent_error"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the fetcher state. Err is only set in PersistentError.
type Snapshot[T any] struct {
	State    State
	Key      string
	Items    []T
	Err      error
	Attempts int
}

type FetchFunc[T any] func(ctx context.Context, key string) ([]T, error)

// Scheduler runs f after d. Tests swap in a manual implementation.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type clock struct{}

func (clock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

type FetcherOptions[T any] struct {
	Policy    Policy
	Scheduler Scheduler
	// OnChange receives every state transition, outside the fetcher lock.
	OnChange func(Snapshot[T])
}

// Fetcher loads a keyed list and retries failures in the background. Only
// the most recent Load counts: completions from a superseded or cancelled
// load are dropped.
type Fetcher[T any] struct {
	fetch    FetchFunc[T]
	policy   Policy
	sched    Scheduler
	onChange func(Snapshot[T])

	mu       sync.Mutex
	snap     Snapshot[T]
	inFlight bool
	gen      uint64
	timer    Timer
	ctx      context.Context
	cancel   context.CancelFunc
	closed   bool
}

func NewFetcher[T any](fetch FetchFunc[T], opts FetcherOptions[T]) *Fetcher[T] {
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = DefaultPolicy
	}
	if opts.Scheduler == nil {
		opts.Scheduler = clock{}
	}
	return &Fetcher[T]{
		fetch:    fetch,
		policy:   opts.Policy,
		sched:    opts.Scheduler,
		onChange: opts.OnChange,
	}
}

// Load fetches key, running the first attempt on the calling goroutine.
// If a fetch for the same key is already running Load does nothing.
// Otherwise any pending retry is cancelled and the attempt count reset.
func (f *Fetcher[T]) Load(ctx context.Context, key string) Snapshot[T] {
	f.mu.Lock()
	if f.closed || (f.inFlight && f.snap.Key == key) {
		s := f.snapshotLocked()
		f.mu.Unlock()
		return s
	}

	f.resetLocked()
	f.ctx, f.cancel = context.WithCancel(ctx)
	if f.snap.Key != key {
		f.snap.Items = nil
	}
	f.snap.Key = key
	f.snap.State = Loading
	f.snap.Err = nil
	f.snap.Attempts = 0
	f.inFlight = true
	gen, loadCtx := f.gen, f.ctx
	s := f.snapshotLocked()
	f.mu.Unlock()

	f.notify(s)
	f.attempt(loadCtx, gen, key)
	return f.Snapshot()
}

// Cancel abandons the current load and any pending retry, returning to Idle.
// Items from the last success are kept.
func (f *Fetcher[T]) Cancel() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.resetLocked()
	f.snap.State = Idle
	s := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(s)
}

// Close cancels everything. The fetcher cannot be used afterwards.
func (f *Fetcher[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.resetLocked()
	f.closed = true
}

func (f *Fetcher[T]) Snapshot() Snapshot[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// resetLocked invalidates the current generation.
func (f *Fetcher[T]) resetLocked() {
	f.gen++
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.inFlight = false
}

func (f *Fetcher[T]) snapshotLocked() Snapshot[T] {
	s := f.snap
	s.Items = slices.Clone(f.snap.Items)
	return s
}

func (f *Fetcher[T]) notify(s Snapshot[T]) {
	if f.onChange != nil {
		f.onChange(s)
	}
}

func (f *Fetcher[T]) attempt(ctx context.Context, gen uint64, key string) {
	items, err := f.fetch(ctx, key)

	f.mu.Lock()
	if gen != f.gen || f.closed {
		f.mu.Unlock()
		return
	}
	f.inFlight = false

	switch {
	case err == nil:
		f.snap.State = Success
		f.snap.Items = items
		f.snap.Err = nil
		f.snap.Attempts = 0
		if f.timer != nil {
			f.timer.Stop()
			f.timer = nil
		}

	case ctx.Err() != nil:
		f.snap.State = Idle

	default:
		f.snap.Attempts++
		if f.snap.Attempts < f.policy.MaxAttempts {
			f.snap.State = TransientError
			delay := f.policy.Backoff(f.snap.Attempts)
			f.timer = f.sched.AfterFunc(delay, func() { f.retry(gen) })
			metrics.RetryAttempts.WithLabelValues("fetcher").Inc()
			logging.Debug().Err(err).
				Str("key", key).
				Int("attempt", f.snap.Attempts).
				Dur("delay", delay).
				Msg("fetch failed, retry scheduled")
		} else {
			f.snap.State = PersistentError
			f.snap.Err = err
			f.snap.Items = nil
			logging.Warn().Err(err).
				Str("key", key).
				Int("attempts", f.snap.Attempts).
				Msg("fetch failed, giving up")
		}
	}

	s := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(s)
}

func (f *Fetcher[T]) retry(gen uint64) {
	f.mu.Lock()
	if gen != f.gen || f.closed || f.inFlight {
		f.mu.Unlock()
		return
	}
	f.timer = nil
	f.inFlight = true
	f.snap.State = Loading
	ctx, key := f.ctx, f.snap.Key
	s := f.snapshotLocked()
	f.mu.Unlock()

	f.notify(s)
	f.attempt(ctx, gen, key)
}

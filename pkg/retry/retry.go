package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ErrAttemptTimeout is returned for an attempt that lost the race against Config.AttemptTimeout.
var ErrAttemptTimeout = errors.New("attempt timed out")

type Operation = func(ctx context.Context) error

type State int

const (
	StateIdle State = iota
	StateAttempting
	StateRetrying
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAttempting:
		return "attempting"
	case StateRetrying:
		return "retrying"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Event is reported to the observer on every state transition.
// Attempt is 1-based; Delay is only set for StateRetrying.
type Event struct {
	State   State
	Attempt int
	Delay   time.Duration
	Err     error
}

type Observer func(Event)

type Config struct {
	MaxRetries     int
	BackoffFactor  float64
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Jitter         time.Duration
	AttemptTimeout time.Duration
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxRetries:    5,
		BackoffFactor: 2.15,
		InitialDelay:  300 * time.Millisecond,
		MaxDelay:      20 * time.Second,
		Jitter:        50 * time.Millisecond,
	}
}

// NextDelay returns the backoff before the retry that follows the given failed attempt:
// InitialDelay * BackoffFactor^(attempt-1), capped at MaxDelay when it is set. Jitter is not included.
func (c *Config) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	factor := c.BackoffFactor
	if factor <= 0 {
		factor = 1
	}
	d := time.Duration(float64(c.InitialDelay) * math.Pow(factor, float64(attempt-1)))
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

type Retrier struct {
	config    *Config
	observer  Observer
	retryable func(error) bool
	sleep     func(ctx context.Context, d time.Duration) error
	rnd       *rand.Rand
}

func NewRetrier(config *Config) *Retrier {
	return &Retrier{
		config: config,
		sleep:  sleepCtx,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func NewDefaultRetrier() *Retrier {
	return NewRetrier(NewDefaultConfig())
}

func (r *Retrier) WithObserver(o Observer) *Retrier {
	r.observer = o
	return r
}

// WithSleep replaces the backoff wait, mostly for tests that assert the schedule.
func (r *Retrier) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Retrier {
	r.sleep = fn
	return r
}

// WithRetryable restricts retries to errors accepted by fn. Others fail immediately.
func (r *Retrier) WithRetryable(fn func(error) bool) *Retrier {
	r.retryable = fn
	return r
}

// Do runs op until it succeeds or MaxRetries+1 attempts have failed.
// The last attempt error is returned unchanged.
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	_, err := r.DoCount(ctx, op)
	return err
}

// DoCount is Do that also reports how many attempts were made.
func (r *Retrier) DoCount(ctx context.Context, op Operation) (int, error) {
	r.emit(Event{State: StateIdle})

	var err error
	for attempt := 1; ; attempt++ {
		r.emit(Event{State: StateAttempting, Attempt: attempt})

		err = r.attempt(ctx, op)
		if err == nil {
			r.emit(Event{State: StateSucceeded, Attempt: attempt})
			return attempt, nil
		}

		if ctx.Err() != nil {
			r.emit(Event{State: StateFailed, Attempt: attempt, Err: ctx.Err()})
			return attempt, ctx.Err()
		}

		if attempt > r.config.MaxRetries || (r.retryable != nil && !r.retryable(err)) {
			r.emit(Event{State: StateFailed, Attempt: attempt, Err: err})
			return attempt, err
		}

		delay := r.config.NextDelay(attempt)
		if r.config.Jitter > 0 {
			delay += time.Duration(r.rnd.Float64() * float64(r.config.Jitter))
		}
		r.emit(Event{State: StateRetrying, Attempt: attempt, Delay: delay, Err: err})

		if serr := r.sleep(ctx, delay); serr != nil {
			r.emit(Event{State: StateFailed, Attempt: attempt, Err: serr})
			return attempt, serr
		}
	}
}

// attempt races op against the per-attempt timer; whichever finishes first wins.
func (r *Retrier) attempt(ctx context.Context, op Operation) error {
	if r.config.AttemptTimeout <= 0 {
		return op(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, r.config.AttemptTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(attemptCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrAttemptTimeout
	}
}

func (r *Retrier) emit(e Event) {
	if r.observer != nil {
		r.observer(e)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

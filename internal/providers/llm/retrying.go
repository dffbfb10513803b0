package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sandevgo/tuskqa/internal/core"
	"github.com/sandevgo/tuskqa/pkg/log"
	"github.com/sandevgo/tuskqa/pkg/retry"
)

type Options struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
}

func DefaultOptions() Options {
	return Options{
		Timeout:        15 * time.Second,
		MaxRetries:     3,
		InitialBackoff: time.Second,
	}
}

// RetryingClient layers a per-attempt timeout, bounded retries and doubling
// backoff over an LLMTransport. It keeps no state between calls.
type RetryingClient struct {
	transport core.LLMTransport
	opts      Options
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewRetryingClient(transport core.LLMTransport, opts Options) *RetryingClient {
	return &RetryingClient{transport: transport, opts: opts}
}

func (c *RetryingClient) Execute(ctx context.Context, prompt string) (string, error) {
	return c.ExecuteWith(ctx, prompt, c.opts)
}

// ExecuteWith runs at most MaxRetries+1 attempts. Failures come back as *RetryError,
// except when ctx itself ends, in which case its error is returned wrapped.
func (c *RetryingClient) ExecuteWith(ctx context.Context, prompt string, opts Options) (string, error) {
	logger := log.FromCtx(ctx)
	start := time.Now()
	defer func() { llmCallLatency.Observe(time.Since(start).Seconds()) }()

	retrier := retry.NewRetrier(&retry.Config{
		MaxRetries:     opts.MaxRetries,
		BackoffFactor:  2,
		InitialDelay:   opts.InitialBackoff,
		AttemptTimeout: opts.Timeout,
	}).WithObserver(func(e retry.Event) {
		switch e.State {
		case retry.StateRetrying:
			err := classify(e.Err, opts.Timeout)
			llmAttemptFailures.WithLabelValues(failureClass(err)).Inc()
			logger.Warn().
				Err(err).
				Int("attempt", e.Attempt).
				Dur("backoff", e.Delay).
				Msg("llm attempt failed, retrying")
		case retry.StateFailed:
			if ctx.Err() == nil {
				llmAttemptFailures.WithLabelValues(failureClass(classify(e.Err, opts.Timeout))).Inc()
			}
		}
	})
	if c.sleep != nil {
		retrier.WithSleep(c.sleep)
	}

	var (
		mu  sync.Mutex
		out string
	)
	attempts, err := retrier.DoCount(ctx, func(attemptCtx context.Context) error {
		text, err := c.transport.Generate(attemptCtx, prompt)
		if err != nil {
			if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return retry.ErrAttemptTimeout
			}
			return fmt.Errorf("%w: %w", ErrTransport, err)
		}
		mu.Lock()
		out = text
		mu.Unlock()
		return nil
	})

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			llmCalls.WithLabelValues("abandoned").Inc()
			return "", fmt.Errorf("llm call abandoned after %d attempts: %w", attempts, ctxErr)
		}
		llmCalls.WithLabelValues("exhausted").Inc()
		rerr := &RetryError{Attempts: attempts, Err: classify(err, opts.Timeout)}
		logger.Error().Err(rerr).Msg("llm retries exhausted")
		return "", rerr
	}

	llmCalls.WithLabelValues("ok").Inc()
	mu.Lock()
	defer mu.Unlock()
	return out, nil
}

func classify(err error, timeout time.Duration) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrTransport):
		return err
	case errors.Is(err, retry.ErrAttemptTimeout):
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	default:
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
}

func failureClass(err error) string {
	if errors.Is(err, ErrTimeout) {
		return "timeout"
	}
	return "transport"
}

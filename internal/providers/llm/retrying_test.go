package llm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sandevgo/tuskqa/pkg/retry"
)

type fakeTransport struct {
	calls   atomic.Int32
	respond func(ctx context.Context, call int) (string, error)
}

func (f *fakeTransport) Generate(ctx context.Context, _ string) (string, error) {
	n := int(f.calls.Add(1))
	return f.respond(ctx, n)
}

func recordingSleep() (func(context.Context, time.Duration) error, func() []time.Duration) {
	var (
		mu  sync.Mutex
		got []time.Duration
	)
	sleep := func(_ context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, d)
		return nil
	}
	return sleep, func() []time.Duration {
		mu.Lock()
		defer mu.Unlock()
		return append([]time.Duration(nil), got...)
	}
}

func TestRetryingClient_Success(t *testing.T) {
	tr := &fakeTransport{respond: func(context.Context, int) (string, error) {
		return `{"answer":"ok"}`, nil
	}}
	c := NewRetryingClient(tr, DefaultOptions())

	out, err := c.Execute(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"answer":"ok"}`, out)
	assert.Equal(t, int32(1), tr.calls.Load())
}

func TestRetryingClient_RecoversAfterTransportErrors(t *testing.T) {
	tr := &fakeTransport{respond: func(_ context.Context, n int) (string, error) {
		if n < 3 {
			return "", errors.New("connection reset")
		}
		return "third time", nil
	}}
	sleep, sleeps := recordingSleep()
	c := NewRetryingClient(tr, DefaultOptions())
	c.sleep = sleep

	out, err := c.Execute(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "third time", out)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps())
}

func TestRetryingClient_BackoffAndExhaustion(t *testing.T) {
	tr := &fakeTransport{respond: func(context.Context, int) (string, error) {
		return "", errors.New("503 service unavailable")
	}}
	sleep, sleeps := recordingSleep()
	c := NewRetryingClient(tr, DefaultOptions())
	c.sleep = sleep

	_, err := c.Execute(context.Background(), "prompt")
	require.Error(t, err)

	var rerr *RetryError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 4, rerr.Attempts)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "failed after 4 attempts")
	assert.Contains(t, err.Error(), "503 service unavailable")

	assert.Equal(t, int32(4), tr.calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, sleeps())
}

func TestRetryingClient_TimeoutIsRetried(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	tr := &fakeTransport{respond: func(ctx context.Context, _ int) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	c := NewRetryingClient(tr, Options{
		Timeout:        20 * time.Millisecond,
		MaxRetries:     1,
		InitialBackoff: time.Millisecond,
	})

	_, err := c.Execute(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)

	var rerr *RetryError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 2, rerr.Attempts)
	assert.Equal(t, int32(2), tr.calls.Load())
}

func TestRetryingClient_SlowThenFast(t *testing.T) {
	tr := &fakeTransport{respond: func(ctx context.Context, n int) (string, error) {
		if n == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "fast", nil
	}}
	c := NewRetryingClient(tr, Options{
		Timeout:        20 * time.Millisecond,
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
	})

	out, err := c.Execute(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "fast", out)
}

func TestRetryingClient_CallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tr := &fakeTransport{respond: func(context.Context, int) (string, error) {
		cancel()
		return "", errors.New("boom")
	}}
	c := NewRetryingClient(tr, DefaultOptions())

	_, err := c.Execute(ctx, "prompt")
	require.ErrorIs(t, err, context.Canceled)

	var rerr *RetryError
	assert.False(t, errors.As(err, &rerr))
	assert.Equal(t, int32(1), tr.calls.Load())
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil, time.Second))
	assert.ErrorIs(t, classify(errors.New("x"), time.Second), ErrTransport)

	timeout := classify(retry.ErrAttemptTimeout, 15*time.Second)
	assert.ErrorIs(t, timeout, ErrTimeout)
	assert.Equal(t, "llm timeout after 15s", timeout.Error())
	assert.Equal(t, "timeout", failureClass(timeout))
	assert.Equal(t, "transport", failureClass(classify(errors.New("x"), time.Second)))
}

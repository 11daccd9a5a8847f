// internal/agentbus/bus_test.go
package agentbus

import (
	"context"
	"testing"
	"time"

	"travelsure-agents/internal/common/errors"
	"travelsure-agents/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T, opts Options) *Bus {
	t.Helper()
	b := New(opts, logger.NewNoOpLogger())
	t.Cleanup(b.Close)
	return b
}

func TestRequestRoundTrip(t *testing.T) {
	bus := newTestBus(t, Options{})

	bus.Register("echo", func(ctx context.Context, msg interface{}) (interface{}, error) {
		return msg, nil
	})

	got, err := bus.Request(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.Equal(t, 0, bus.PendingCount())
}

func TestRequestHandlerError(t *testing.T) {
	bus := newTestBus(t, Options{})

	bus.Register("failing", func(ctx context.Context, msg interface{}) (interface{}, error) {
		return nil, errors.NewScheduleFetchFailedError(assert.AnError)
	})

	_, err := bus.Request(context.Background(), "failing", "anything")
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeScheduleFetchFailed, stdErr.Code)
}

func TestRequestUnknownAgent(t *testing.T) {
	bus := newTestBus(t, Options{})

	_, err := bus.Request(context.Background(), "nobody", "msg")
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeUnknownAgent, stdErr.Code)
}

func TestRequestContextCancellation(t *testing.T) {
	bus := newTestBus(t, Options{})

	bus.Register("slow", func(ctx context.Context, msg interface{}) (interface{}, error) {
		select {
		case <-time.After(5 * time.Second):
			return "late", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := bus.Request(ctx, "slow", "msg")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, bus.PendingCount())
}

func TestRequestExpiry(t *testing.T) {
	bus := newTestBus(t, Options{
		RequestTTL:  30 * time.Millisecond,
		JanitorTick: 10 * time.Millisecond,
	})

	bus.Register("stuck", func(ctx context.Context, msg interface{}) (interface{}, error) {
		time.Sleep(500 * time.Millisecond)
		return "never delivered", nil
	})

	_, err := bus.Request(context.Background(), "stuck", "msg")
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeRequestExpired, stdErr.Code)
	assert.Equal(t, 0, bus.PendingCount())
}

func TestRegisterReplacesHandler(t *testing.T) {
	bus := newTestBus(t, Options{})

	bus.Register("agent", func(ctx context.Context, msg interface{}) (interface{}, error) {
		return "first", nil
	})
	bus.Register("agent", func(ctx context.Context, msg interface{}) (interface{}, error) {
		return "second", nil
	})

	got, err := bus.Request(context.Background(), "agent", "msg")
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestConcurrentRequests(t *testing.T) {
	bus := newTestBus(t, Options{})

	bus.Register("echo", func(ctx context.Context, msg interface{}) (interface{}, error) {
		return msg, nil
	})

	const n = 20
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(v int) {
			got, err := bus.Request(context.Background(), "echo", v)
			if err == nil && got != v {
				err = assert.AnError
			}
			results <- err
		}(i)
	}

	for i := 0; i < n; i++ {
		assert.NoError(t, <-results)
	}
	assert.Equal(t, 0, bus.PendingCount())
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rentcar-intake/internal/apperr"
	"rentcar-intake/internal/config"
)

func noDelay(int) time.Duration { return time.Millisecond }

func TestLocalQueueDelivers(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	q := NewLocalQueue(config.QueueConfig{MaxRetry: 2, Concurrency: 3}, func(_ context.Context, id string) error {
		mu.Lock()
		seen[id]++
		mu.Unlock()
		return nil
	}, zap.NewNop().Sugar(), WithBackoff(noDelay))

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, q.EnqueueDelivery(context.Background(), id))
	}
	require.NoError(t, q.Close(context.Background()))
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1, "d": 1}, seen)
}

func TestLocalQueueRetriesUpToMax(t *testing.T) {
	var calls atomic.Int32
	q := NewLocalQueue(config.QueueConfig{MaxRetry: 3, Concurrency: 1}, func(context.Context, string) error {
		calls.Add(1)
		return errors.New("smtp down")
	}, zap.NewNop().Sugar(), WithBackoff(noDelay))

	require.NoError(t, q.EnqueueDelivery(context.Background(), "x"))
	require.NoError(t, q.Close(context.Background()))
	assert.EqualValues(t, 4, calls.Load())
}

func TestLocalQueueSucceedsAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	q := NewLocalQueue(config.QueueConfig{MaxRetry: 5, Concurrency: 1}, func(context.Context, string) error {
		if calls.Add(1) < 3 {
			return errors.New("temporary")
		}
		return nil
	}, zap.NewNop().Sugar(), WithBackoff(noDelay))

	require.NoError(t, q.EnqueueDelivery(context.Background(), "x"))
	require.NoError(t, q.Close(context.Background()))
	assert.EqualValues(t, 3, calls.Load())
}

func TestLocalQueueDoesNotRetryUnknownRecord(t *testing.T) {
	var calls atomic.Int32
	q := NewLocalQueue(config.QueueConfig{MaxRetry: 5, Concurrency: 1}, func(context.Context, string) error {
		calls.Add(1)
		return apperr.ErrNotFound
	}, zap.NewNop().Sugar(), WithBackoff(noDelay))

	require.NoError(t, q.EnqueueDelivery(context.Background(), "gone"))
	require.NoError(t, q.Close(context.Background()))
	assert.EqualValues(t, 1, calls.Load())
}

func TestLocalQueueRejectsAfterClose(t *testing.T) {
	q := NewLocalQueue(config.QueueConfig{Concurrency: 1}, func(context.Context, string) error { return nil }, zap.NewNop().Sugar())
	require.NoError(t, q.Close(context.Background()))
	assert.ErrorIs(t, q.EnqueueDelivery(context.Background(), "late"), ErrQueueClosed)
	assert.NoError(t, q.Close(context.Background()))
}

func TestLocalQueueCloseTimesOut(t *testing.T) {
	release := make(chan struct{})
	q := NewLocalQueue(config.QueueConfig{Concurrency: 1}, func(ctx context.Context, _ string) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, zap.NewNop().Sugar())
	require.NoError(t, q.EnqueueDelivery(context.Background(), "slow"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Close(ctx), context.DeadlineExceeded)
	close(release)
}

func TestHandleDeliver(t *testing.T) {
	var got string
	h := HandleDeliver(func(_ context.Context, id string) error { got = id; return nil })
	task, err := NewDeliverTask("abc")
	require.NoError(t, err)
	require.NoError(t, h.ProcessTask(context.Background(), task))
	assert.Equal(t, "abc", got)

	var p DeliverPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "abc", p.ClientID)
	assert.Equal(t, TypeDeliver, task.Type())
}

func TestHandleDeliverSkipsRetryForPermanentErrors(t *testing.T) {
	h := HandleDeliver(func(context.Context, string) error { return apperr.ErrNotFound })
	task, _ := NewDeliverTask("gone")
	err := h.ProcessTask(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	h = HandleDeliver(func(context.Context, string) error { return errors.New("smtp down") })
	err = h.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)

	err = HandleDeliver(nil).ProcessTask(context.Background(), asynq.NewTask(TypeDeliver, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

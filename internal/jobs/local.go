package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rentcar-intake/internal/config"
)

var (
	ErrQueueClosed = errors.New("delivery queue closed")
	ErrQueueFull   = errors.New("delivery queue full")
)

const localBuffer = 256

// LocalQueue runs deliveries in-process with bounded retries.
// Pending deliveries are lost when the process exits.
type LocalQueue struct {
	deliver  DeliverFunc
	maxRetry int
	backoff  func(attempt int) time.Duration
	lg       *zap.SugaredLogger

	tasks  chan string
	g      *errgroup.Group
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

type LocalOption func(*LocalQueue)

// WithBackoff replaces the delay between attempts.
func WithBackoff(f func(attempt int) time.Duration) LocalOption {
	return func(q *LocalQueue) { q.backoff = f }
}

func defaultBackoff(attempt int) time.Duration {
	d := time.Second << attempt
	if d > 30*time.Second || d <= 0 {
		d = 30 * time.Second
	}
	return d
}

func NewLocalQueue(cfg config.QueueConfig, deliver DeliverFunc, lg *zap.SugaredLogger, opts ...LocalOption) *LocalQueue {
	q := &LocalQueue{
		deliver:  deliver,
		maxRetry: cfg.MaxRetry,
		backoff:  defaultBackoff,
		lg:       lg,
		tasks:    make(chan string, localBuffer),
	}
	for _, o := range opts {
		o(q)
	}
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	workers := cfg.Concurrency
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for id := range q.tasks {
				if gctx.Err() != nil {
					q.lg.Warnw("delivery dropped", "client_id", id)
					continue
				}
				q.run(gctx, id)
			}
			return nil
		})
	}
	q.g = g
	return q
}

func (q *LocalQueue) EnqueueDelivery(ctx context.Context, clientID string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.tasks <- clientID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *LocalQueue) run(ctx context.Context, id string) {
	for attempt := 0; ; attempt++ {
		err := q.deliver(ctx, id)
		if err == nil {
			return
		}
		if permanent(err) || attempt >= q.maxRetry {
			q.lg.Errorw("delivery abandoned", "client_id", id, "attempts", attempt+1, "error", err)
			return
		}
		q.lg.Warnw("delivery attempt failed", "client_id", id, "retry", attempt, "max_retry", q.maxRetry, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(q.backoff(attempt)):
		}
	}
}

// Close stops accepting work and waits for queued deliveries until ctx expires,
// after which in-flight retries are abandoned.
func (q *LocalQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- q.g.Wait() }()
	select {
	case err := <-done:
		q.cancel()
		return err
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}

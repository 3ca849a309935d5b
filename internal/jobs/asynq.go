package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"rentcar-intake/internal/config"
)

const deliverTimeout = 2 * time.Minute

// AsynqQueue enqueues deliveries into Redis so they survive restarts.
type AsynqQueue struct {
	client   *asynq.Client
	maxRetry int
	lg       *zap.SugaredLogger
}

func NewAsynqQueue(cfg config.QueueConfig, lg *zap.SugaredLogger) *AsynqQueue {
	return &AsynqQueue{
		client:   asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}),
		maxRetry: cfg.MaxRetry,
		lg:       lg,
	}
}

func (q *AsynqQueue) EnqueueDelivery(ctx context.Context, clientID string) error {
	task, err := NewDeliverTask(clientID)
	if err != nil {
		return err
	}
	info, err := q.client.EnqueueContext(ctx, task, asynq.MaxRetry(q.maxRetry), asynq.Timeout(deliverTimeout))
	if err != nil {
		return err
	}
	q.lg.Debugw("delivery enqueued", "client_id", clientID, "task_id", info.ID, "queue", info.Queue)
	return nil
}

func (q *AsynqQueue) Close() error { return q.client.Close() }

// Worker consumes delivery tasks from Redis.
type Worker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

func NewWorker(cfg config.QueueConfig, deliver DeliverFunc, lg *zap.SugaredLogger) *Worker {
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, asynq.Config{
		Concurrency: cfg.Concurrency,
		Logger:      lg,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			lg.Warnw("delivery attempt failed", "type", t.Type(), "retry", retried, "max_retry", maxRetry, "error", err)
		}),
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeDeliver, HandleDeliver(deliver))
	return &Worker{srv: srv, mux: mux}
}

// Start begins processing in background goroutines.
func (w *Worker) Start() error { return w.srv.Start(w.mux) }

func (w *Worker) Shutdown() { w.srv.Shutdown() }

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"rentcar-intake/internal/config"
	"rentcar-intake/internal/document"
	"rentcar-intake/internal/httpserver"
	"rentcar-intake/internal/intake"
	"rentcar-intake/internal/jobs"
	"rentcar-intake/internal/logger"
	"rentcar-intake/internal/notify"
	"rentcar-intake/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg, warnings := config.Load()
	lg := logger.New(cfg.LogLevel, cfg.Env)
	defer lg.Sync()
	for _, w := range warnings {
		lg.Warnw("config", "warning", w)
	}

	db, err := store.Open(cfg.Database, lg)
	if err != nil {
		lg.Fatalw("db connect failed", "driver", cfg.Database.Driver, "error", err)
	}
	defer db.Close()

	var sender notify.Sender
	if cfg.Mail.Enabled() {
		sender = notify.NewSMTPSender(cfg.Mail)
	} else {
		lg.Warnw("EMAIL_HOST is empty, notifications will fail until configured")
	}

	var p *intake.Pipeline
	deliver := func(ctx context.Context, id string) error { return p.Deliver(ctx, id) }

	var (
		dispatcher intake.Dispatcher
		rdb        *redis.Client
		stopQueue  func(ctx context.Context)
	)
	if cfg.Queue.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Queue.RedisAddr})
		q := jobs.NewAsynqQueue(cfg.Queue, lg)
		worker := jobs.NewWorker(cfg.Queue, deliver, lg)
		dispatcher = q
		stopQueue = func(context.Context) {
			worker.Shutdown()
			_ = q.Close()
			_ = rdb.Close()
		}
		if err := worker.Start(); err != nil {
			lg.Fatalw("queue worker start failed", "redis", cfg.Queue.RedisAddr, "error", err)
		}
		lg.Infow("delivery queue", "kind", "asynq", "redis", cfg.Queue.RedisAddr)
	} else {
		q := jobs.NewLocalQueue(cfg.Queue, deliver, lg)
		dispatcher = q
		stopQueue = func(ctx context.Context) {
			if err := q.Close(ctx); err != nil {
				lg.Warnw("pending deliveries abandoned", "error", err)
			}
		}
		lg.Infow("delivery queue", "kind", "local", "workers", cfg.Queue.Concurrency)
	}

	p = intake.New(intake.Deps{
		Clients:    db.Clients,
		Reconciler: db.Reconciler,
		Renderer:   document.New(cfg.PDFDir, lg),
		Notifier:   notify.New(sender, cfg.Mail.To, lg),
		Dispatcher: dispatcher,
		Events:     db.Events,
	}, lg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpserver.NewRouter(p, db, rdb, lg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		lg.Infow("listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatalw("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Infow("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Errorw("http shutdown", "error", err)
	}
	stopQueue(ctx)
	lg.Infow("server stopped")
}

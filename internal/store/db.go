// Package store persists intake submissions and their stage events.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rentcar-intake/internal/config"
	"rentcar-intake/internal/models"
)

// DB owns the connection and the repositories built on it. Open it at startup, Close it at shutdown.
type DB struct {
	gorm *gorm.DB
	lg   *zap.SugaredLogger

	Clients    *ClientStore
	Events     *EventStore
	Reconciler *Reconciler
}

func Open(cfg config.DatabaseConfig, lg *zap.SugaredLogger) (*DB, error) {
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var (
		gdb *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "postgres":
		if cfg.URL == "" {
			return nil, errors.New("DATABASE_URL is empty")
		}
		gdb, err = gorm.Open(postgres.Open(cfg.URL), gcfg)
	default:
		if dir := filepath.Dir(cfg.SQLitePath); !strings.HasPrefix(cfg.SQLitePath, "file:") && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		gdb, err = gorm.Open(sqlite.Open(cfg.SQLitePath), gcfg)
		if err == nil {
			// single writer: one connection serializes every statement
			if sqlDB, derr := gdb.DB(); derr == nil {
				sqlDB.SetMaxOpenConns(1)
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	return New(gdb, lg)
}

// New migrates the v1 schema on an existing connection and wires the repositories.
func New(gdb *gorm.DB, lg *zap.SugaredLogger) (*DB, error) {
	if err := gdb.AutoMigrate(&models.Client{}, &models.Event{}); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	schema := &gormSchema{db: gdb, table: models.ClientsTable}
	d := &DB{
		gorm:       gdb,
		lg:         lg,
		Clients:    &ClientStore{db: gdb, schema: schema, lg: lg},
		Events:     &EventStore{db: gdb, lg: lg},
		Reconciler: NewReconciler(schema, lg),
	}
	lg.Debugw("schema ready", "version", models.SchemaVersion)
	return d, nil
}

func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

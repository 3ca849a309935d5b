package store

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"rentcar-intake/internal/apperr"
	"rentcar-intake/internal/models"
)

// Schema is the slice of DDL the reconciler needs.
type Schema interface {
	Columns(ctx context.Context) ([]string, error)
	AddTextColumn(ctx context.Context, name string) error
}

type gormSchema struct {
	db    *gorm.DB
	table string
}

// Columns returns the table's columns in declaration order.
func (s *gormSchema) Columns(ctx context.Context) ([]string, error) {
	cts, err := s.db.WithContext(ctx).Migrator().ColumnTypes(s.table)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cts))
	for _, ct := range cts {
		names = append(names, ct.Name())
	}
	return names, nil
}

func (s *gormSchema) AddTextColumn(ctx context.Context, name string) error {
	return s.db.WithContext(ctx).
		Exec("ALTER TABLE ? ADD COLUMN ? TEXT", clause.Table{Name: s.table}, clause.Column{Name: name}).
		Error
}

var (
	clientSchemaOnce sync.Once
	clientSchema     *schema.Schema
	clientSchemaErr  error
)

// parsedClient is the gorm view of models.Client; its DBNames are the v1 columns.
func parsedClient() (*schema.Schema, error) {
	clientSchemaOnce.Do(func() {
		clientSchema, clientSchemaErr = schema.Parse(&models.Client{}, &sync.Map{}, schema.NamingStrategy{})
	})
	return clientSchema, clientSchemaErr
}

// RecordKeys lists every column a record needs: the v1 columns followed by its extension keys.
func RecordKeys(c *models.Client) []string {
	s, err := parsedClient()
	var keys []string
	if err == nil {
		keys = append(keys, s.DBNames...)
	}
	return append(keys, c.ExtraKeys()...)
}

// Reconciliation reports what Reconcile changed.
type Reconciliation struct {
	Added []string
	// Unavailable keys have no column; their values cannot be stored.
	Unavailable []string
}

// Reconciler grows the clients table so every incoming key has a column. Columns are only ever added.
type Reconciler struct {
	schema Schema
	lg     *zap.SugaredLogger
}

func NewReconciler(s Schema, lg *zap.SugaredLogger) *Reconciler {
	return &Reconciler{schema: s, lg: lg}
}

// Missing returns the keys absent from columns, compared case-insensitively, in key order.
func Missing(columns, keys []string) []string {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[strings.ToLower(c)] = true
	}
	var out []string
	for _, k := range keys {
		lk := strings.ToLower(k)
		if !have[lk] {
			out = append(out, k)
			have[lk] = true
		}
	}
	return out
}

// Reconcile adds one TEXT column per missing key, one after the other. A failed addition is
// logged and skipped. A failure caused by a concurrent submission adding the same column counts
// as success. Only listing the current columns can fail the call.
func (r *Reconciler) Reconcile(ctx context.Context, c *models.Client) (Reconciliation, error) {
	var res Reconciliation
	cols, err := r.schema.Columns(ctx)
	if err != nil {
		return res, &apperr.PersistenceError{Op: "reconcile", Err: err}
	}
	for _, name := range Missing(cols, RecordKeys(c)) {
		if !models.ValidExtensionKey(name) {
			r.lg.Warnw("column name rejected", "client_id", c.ID, "column", name)
			res.Unavailable = append(res.Unavailable, name)
			continue
		}
		if err := r.schema.AddTextColumn(ctx, name); err != nil {
			if r.exists(ctx, name) {
				r.lg.Debugw("column added concurrently", "column", name)
				continue
			}
			r.lg.Warnw("add column failed", "client_id", c.ID, "column", name, "error", err)
			res.Unavailable = append(res.Unavailable, name)
			continue
		}
		r.lg.Infow("column added", "client_id", c.ID, "column", name)
		res.Added = append(res.Added, name)
	}
	return res, nil
}

func (r *Reconciler) exists(ctx context.Context, name string) bool {
	cols, err := r.schema.Columns(ctx)
	if err != nil {
		return false
	}
	return len(Missing(cols, []string{name})) == 0
}

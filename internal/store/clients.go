package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rentcar-intake/internal/apperr"
	"rentcar-intake/internal/models"
)

// ClientStore reads and writes submissions. Rows are never updated or deleted.
type ClientStore struct {
	db     *gorm.DB
	schema Schema
	lg     *zap.SugaredLogger
}

// Insert writes c as a new row. Columns come from the record itself: the v1 fields plus every
// extension key, each of which must already have a reconciled column.
func (s *ClientStore) Insert(ctx context.Context, c *models.Client) error {
	values, err := rowValues(ctx, c)
	if err != nil {
		return &apperr.PersistenceError{Op: "insert", Err: err}
	}
	if err := s.db.WithContext(ctx).Table(models.ClientsTable).Create(values).Error; err != nil {
		return &apperr.PersistenceError{Op: "insert", Err: err}
	}
	return nil
}

// GetAll returns every record, newest first.
func (s *ClientStore) GetAll(ctx context.Context) ([]models.Client, error) {
	var out []models.Client
	err := s.db.WithContext(ctx).Order("submission_date desc").Order("id desc").Find(&out).Error
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "list", Err: err}
	}
	if out == nil {
		out = []models.Client{}
	}
	if err := s.attachExtras(ctx, out, ""); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ClientStore) GetByID(ctx context.Context, id string) (*models.Client, error) {
	var c models.Client
	err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "get", Err: err}
	}
	one := []models.Client{c}
	if err := s.attachExtras(ctx, one, id); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// Columns returns the current column names in table order.
func (s *ClientStore) Columns(ctx context.Context) ([]string, error) {
	cols, err := s.schema.Columns(ctx)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "list columns", Err: err}
	}
	return cols, nil
}

// ExportCSV writes every record as CSV: a header of all columns, then one row per record.
func (s *ClientStore) ExportCSV(ctx context.Context, w io.Writer) error {
	cols, err := s.Columns(ctx)
	if err != nil {
		return err
	}
	records, err := s.GetAll(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for i := range records {
		fields := Fields(&records[i])
		for j, col := range cols {
			row[j] = fields[col]
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// attachExtras loads extension columns into Extra. An empty id loads every row.
func (s *ClientStore) attachExtras(ctx context.Context, records []models.Client, id string) error {
	if len(records) == 0 {
		return nil
	}
	ps, err := parsedClient()
	if err != nil {
		return &apperr.PersistenceError{Op: "parse schema", Err: err}
	}
	cols, err := s.Columns(ctx)
	if err != nil {
		return err
	}
	var ext []string
	for _, col := range cols {
		if _, ok := ps.FieldsByDBName[col]; !ok {
			ext = append(ext, col)
		}
	}
	if len(ext) == 0 {
		return nil
	}

	// extension names may be SQL keywords (order, group...); quote every projected column
	sel := clause.Select{Columns: []clause.Column{{Name: "id"}}}
	for _, col := range ext {
		sel.Columns = append(sel.Columns, clause.Column{Name: col})
	}
	q := s.db.WithContext(ctx).Table(models.ClientsTable).Clauses(sel)
	if id != "" {
		q = q.Where("id = ?", id)
	}
	var rows []map[string]interface{}
	if err := q.Find(&rows).Error; err != nil {
		return &apperr.PersistenceError{Op: "load extensions", Err: err}
	}
	byID := make(map[string]map[string]interface{}, len(rows))
	for _, r := range rows {
		byID[textValue(r["id"])] = r
	}
	for i := range records {
		r, ok := byID[records[i].ID]
		if !ok {
			continue
		}
		for _, col := range ext {
			if v := r[col]; v != nil {
				if records[i].Extra == nil {
					records[i].Extra = map[string]string{}
				}
				records[i].Extra[col] = textValue(v)
			}
		}
	}
	return nil
}

// rowValues maps a record to column values for a dynamic insert.
func rowValues(ctx context.Context, c *models.Client) (map[string]interface{}, error) {
	ps, err := parsedClient()
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(c).Elem()
	values := make(map[string]interface{}, len(ps.DBNames)+len(c.Extra))
	for _, name := range ps.DBNames {
		v, _ := ps.FieldsByDBName[name].ValueOf(ctx, rv)
		values[name] = v
	}
	for k, v := range c.Extra {
		if _, clash := values[k]; clash {
			return nil, fmt.Errorf("extension key %q shadows a v1 column", k)
		}
		values[k] = v
	}
	return values, nil
}

// Fields renders a record as column name to text, the shape used for CSV rows.
func Fields(c *models.Client) map[string]string {
	out := map[string]string{}
	ps, err := parsedClient()
	if err == nil {
		rv := reflect.ValueOf(c).Elem()
		for _, name := range ps.DBNames {
			v, _ := ps.FieldsByDBName[name].ValueOf(context.Background(), rv)
			out[name] = textValue(v)
		}
	}
	for k, v := range c.Extra {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

func textValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case models.Flag:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	case *time.Time:
		if t == nil {
			return ""
		}
		return textValue(*t)
	default:
		return fmt.Sprint(t)
	}
}

package store

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"rentcar-intake/internal/apperr"
	"rentcar-intake/internal/models"
)

type EventStore struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

// Record appends a stage event. It is best-effort: a failed write is logged, never returned.
func (s *EventStore) Record(ctx context.Context, clientID, action string, meta map[string]any) {
	ev := models.Event{
		ClientID:  clientID,
		Action:    action,
		Metadata:  models.NewJSONB(meta),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&ev).Error; err != nil {
		s.lg.Warnw("record event failed", "client_id", clientID, "action", action, "error", err)
	}
}

// ListByClient returns a record's events, oldest first.
func (s *EventStore) ListByClient(ctx context.Context, clientID string) ([]models.Event, error) {
	var evs []models.Event
	err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at asc").Order("id asc").
		Limit(200).
		Find(&evs).Error
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "list events", Err: err}
	}
	return evs, nil
}

// Package jobs runs submission deliveries (render + notify) off the request path.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"rentcar-intake/internal/apperr"
)

const TypeDeliver = "submission:deliver"

// DeliverFunc renders and mails the record with the given id.
type DeliverFunc func(ctx context.Context, clientID string) error

type DeliverPayload struct {
	ClientID string `json:"client_id"`
}

func NewDeliverTask(clientID string) (*asynq.Task, error) {
	payload, err := json.Marshal(DeliverPayload{ClientID: clientID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDeliver, payload), nil
}

// HandleDeliver adapts fn to an asynq handler. Unknown records are not retried.
func HandleDeliver(fn DeliverFunc) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var p DeliverPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("decode %s payload: %v: %w", TypeDeliver, err, asynq.SkipRetry)
		}
		if err := fn(ctx, p.ClientID); err != nil {
			if permanent(err) {
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
			return err
		}
		return nil
	}
}

func permanent(err error) bool {
	return errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrMailNotConfigured)
}

// Package intake turns submitted forms into stored records and schedules their delivery.
package intake

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"rentcar-intake/internal/apperr"
	"rentcar-intake/internal/document"
	"rentcar-intake/internal/models"
	"rentcar-intake/internal/store"
)

type ClientStore interface {
	Insert(ctx context.Context, c *models.Client) error
	GetByID(ctx context.Context, id string) (*models.Client, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, c *models.Client) (store.Reconciliation, error)
}

type Renderer interface {
	Render(ctx context.Context, c *models.Client) (document.Result, error)
	Path(c *models.Client) string
}

type Notifier interface {
	Notify(ctx context.Context, c *models.Client, docPath string) error
}

// Dispatcher schedules a delivery (render + notify) of a persisted record.
type Dispatcher interface {
	EnqueueDelivery(ctx context.Context, clientID string) error
}

type EventLog interface {
	Record(ctx context.Context, clientID, action string, meta map[string]any)
	ListByClient(ctx context.Context, clientID string) ([]models.Event, error)
}

type Deps struct {
	Clients    ClientStore
	Reconciler Reconciler
	Renderer   Renderer
	Notifier   Notifier
	Dispatcher Dispatcher
	Events     EventLog
}

type Pipeline struct {
	deps     Deps
	validate *validator.Validate
	lg       *zap.SugaredLogger
	now      func() time.Time
}

func New(d Deps, lg *zap.SugaredLogger) *Pipeline {
	return &Pipeline{deps: d, validate: newValidator(), lg: lg, now: time.Now}
}

// Submit validates, identifies and persists c, then schedules its delivery.
// Any error returned means nothing was stored.
func (p *Pipeline) Submit(ctx context.Context, c *models.Client) (string, error) {
	if dropped := normalize(c); len(dropped) > 0 {
		p.lg.Warnw("dropped unusable keys", "keys", dropped)
	}
	if err := p.check(c); err != nil {
		return "", err
	}
	if !c.AcceptFines.Bool() || !c.AcceptDataProcessing.Bool() {
		p.lg.Warnw("submission without full consent",
			"accept_fines", c.AcceptFines, "accept_data_processing", c.AcceptDataProcessing)
	}

	now := p.now()
	c.ID = NewID(now)
	c.SubmissionDate = now.UTC()

	rec, err := p.deps.Reconciler.Reconcile(ctx, c)
	if err != nil {
		p.lg.Errorw("stage failed", "client_id", c.ID, "stage", "reconcile", "error", err)
		return "", err
	}
	for _, k := range rec.Unavailable {
		delete(c.Extra, k)
	}
	if len(rec.Unavailable) > 0 {
		p.lg.Warnw("keys without column not stored", "client_id", c.ID, "keys", rec.Unavailable)
	}

	if err := p.deps.Clients.Insert(ctx, c); err != nil {
		p.lg.Errorw("stage failed", "client_id", c.ID, "stage", "persist", "error", err)
		return "", err
	}
	meta := map[string]any{}
	if len(rec.Added) > 0 {
		meta["added_columns"] = rec.Added
	}
	if len(rec.Unavailable) > 0 {
		meta["unstored_keys"] = rec.Unavailable
	}
	p.deps.Events.Record(ctx, c.ID, models.ActionPersisted, meta)
	p.lg.Infow("submission persisted", "client_id", c.ID, "language", c.Language)

	p.enqueue(ctx, c.ID)
	return c.ID, nil
}

// enqueue failures are recorded but never undo a persisted submission; Resend can retry.
func (p *Pipeline) enqueue(ctx context.Context, id string) {
	if err := p.deps.Dispatcher.EnqueueDelivery(ctx, id); err != nil {
		p.lg.Errorw("stage failed", "client_id", id, "stage", "enqueue", "error", err)
		p.deps.Events.Record(ctx, id, models.ActionEnqueueFailed, map[string]any{"error": err.Error()})
		return
	}
	p.deps.Events.Record(ctx, id, models.ActionEnqueued, nil)
}

// Deliver renders the record's document and mails it. It runs on the queue.
func (p *Pipeline) Deliver(ctx context.Context, id string) error {
	c, err := p.deps.Clients.GetByID(ctx, id)
	if err != nil {
		return err
	}
	res, err := p.deps.Renderer.Render(ctx, c)
	if err != nil {
		p.lg.Errorw("stage failed", "client_id", id, "stage", "render", "error", err)
		p.deps.Events.Record(ctx, id, models.ActionRenderFailed, map[string]any{"error": err.Error()})
		return err
	}
	p.deps.Events.Record(ctx, id, models.ActionRendered, renderMeta(res))

	if err := p.deps.Notifier.Notify(ctx, c, res.Path); err != nil {
		p.lg.Errorw("stage failed", "client_id", id, "stage", "notify", "error", err)
		p.deps.Events.Record(ctx, id, models.ActionNotifyFailed, map[string]any{"error": err.Error()})
		return err
	}
	p.deps.Events.Record(ctx, id, models.ActionNotified, nil)
	return nil
}

func renderMeta(res document.Result) map[string]any {
	return map[string]any{
		"path":               res.Path,
		"pages":              res.Pages,
		"signature_embedded": res.SignatureEmbedded,
	}
}

// Resend schedules another delivery of an existing record.
func (p *Pipeline) Resend(ctx context.Context, id string) error {
	if _, err := p.deps.Clients.GetByID(ctx, id); err != nil {
		return err
	}
	p.deps.Events.Record(ctx, id, models.ActionResendRequested, nil)
	if err := p.deps.Dispatcher.EnqueueDelivery(ctx, id); err != nil {
		p.lg.Errorw("stage failed", "client_id", id, "stage", "enqueue", "error", err)
		p.deps.Events.Record(ctx, id, models.ActionEnqueueFailed, map[string]any{"error": err.Error()})
		return err
	}
	p.deps.Events.Record(ctx, id, models.ActionEnqueued, map[string]any{"resend": true})
	return nil
}

// Document returns the path of the record's rendered file, rendering it when missing.
func (p *Pipeline) Document(ctx context.Context, id string) (string, *models.Client, error) {
	c, err := p.deps.Clients.GetByID(ctx, id)
	if err != nil {
		return "", nil, err
	}
	path := p.deps.Renderer.Path(c)
	if _, err := os.Stat(path); err == nil {
		return path, c, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", nil, &apperr.RenderError{ClientID: id, Err: err}
	}
	res, err := p.deps.Renderer.Render(ctx, c)
	if err != nil {
		p.deps.Events.Record(ctx, id, models.ActionRenderFailed, map[string]any{"error": err.Error()})
		return "", nil, err
	}
	p.deps.Events.Record(ctx, id, models.ActionRendered, renderMeta(res))
	return res.Path, c, nil
}

// Events lists the stage history of an existing record.
func (p *Pipeline) Events(ctx context.Context, id string) ([]models.Event, error) {
	if _, err := p.deps.Clients.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return p.deps.Events.ListByClient(ctx, id)
}

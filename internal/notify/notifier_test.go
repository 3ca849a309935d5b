package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rentcar-intake/internal/apperr"
	"rentcar-intake/internal/config"
	"rentcar-intake/internal/models"
)

type fakeSender struct {
	calls int
	last  Message
	err   error
}

func (f *fakeSender) Send(_ context.Context, m Message) error {
	f.calls++
	f.last = m
	return f.err
}

func client() *models.Client {
	return &models.Client{
		ID:                  "2026-10-18T09-00-00-000Z_abc",
		MainDriverName:      "Tane",
		MainDriverFirstname: "Hiro",
		MainDriverEmail:     "hiro@example.pf",
		MainDriverPhone:     "+689 87 00 00 00",
		SubmissionDate:      time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
	}
}

func TestNotifySendsOnceWithAttachment(t *testing.T) {
	s := &fakeSender{}
	n := New(s, "office@example.pf", zap.NewNop().Sugar())

	require.NoError(t, n.Notify(context.Background(), client(), "/tmp/pdfs/doc.pdf"))
	assert.Equal(t, 1, s.calls)
	assert.Equal(t, "office@example.pf", s.last.To)
	assert.Equal(t, "Nouvelle fiche client - Tane Hiro (ID: 2026-10-18T09-00-00-000Z_abc)", s.last.Subject)
	assert.Contains(t, s.last.Body, "Prénom: Hiro")
	assert.Contains(t, s.last.Body, "Date de soumission: 18/10/2026 09:30")
	require.Len(t, s.last.Attachments, 1)
	assert.Equal(t, "doc.pdf", s.last.Attachments[0].Name)
}

func TestNotifyWrapsTransportFailure(t *testing.T) {
	boom := errors.New("connection refused")
	n := New(&fakeSender{err: boom}, "office@example.pf", zap.NewNop().Sugar())

	err := n.Notify(context.Background(), client(), "")
	var nerr *apperr.NotificationError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "2026-10-18T09-00-00-000Z_abc", nerr.ClientID)
	assert.ErrorIs(t, err, boom)
}

func TestNotifyWithoutTransport(t *testing.T) {
	n := New(nil, "office@example.pf", zap.NewNop().Sugar())
	err := n.Notify(context.Background(), client(), "")
	assert.ErrorIs(t, err, apperr.ErrMailNotConfigured)
}

func TestSMTPSenderHonoursCancelledContext(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{Host: "127.0.0.1", Port: 1, From: "a@b.c"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Message{To: "x@y.z"}), context.Canceled)
}

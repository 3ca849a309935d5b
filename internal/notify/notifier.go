// Package notify mails rendered intake forms to the rental office.
package notify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"rentcar-intake/internal/apperr"
	"rentcar-intake/internal/models"
)

type Notifier struct {
	sender Sender
	to     string
	lg     *zap.SugaredLogger
}

// New returns a Notifier sending to the fixed staff mailbox. A nil sender
// makes every Notify call fail with ErrMailNotConfigured.
func New(sender Sender, to string, lg *zap.SugaredLogger) *Notifier {
	return &Notifier{sender: sender, to: to, lg: lg}
}

func Subject(c *models.Client) string {
	return fmt.Sprintf("Nouvelle fiche client - %s %s (ID: %s)", c.MainDriverName, c.MainDriverFirstname, c.ID)
}

func Body(c *models.Client) string {
	var b strings.Builder
	b.WriteString("Une nouvelle fiche client a été soumise.\n\n")
	fmt.Fprintf(&b, "ID: %s\n", c.ID)
	fmt.Fprintf(&b, "Nom: %s\n", c.MainDriverName)
	fmt.Fprintf(&b, "Prénom: %s\n", c.MainDriverFirstname)
	fmt.Fprintf(&b, "Email: %s\n", c.MainDriverEmail)
	fmt.Fprintf(&b, "Téléphone: %s\n", c.MainDriverPhone)
	fmt.Fprintf(&b, "Date de soumission: %s\n", c.SubmissionDate.Format("02/01/2006 15:04"))
	b.WriteString("\nLa fiche complète est jointe au format PDF.\n")
	return b.String()
}

// Notify sends one message with the document at docPath attached.
func (n *Notifier) Notify(ctx context.Context, c *models.Client, docPath string) error {
	if n.sender == nil {
		return &apperr.NotificationError{ClientID: c.ID, Err: apperr.ErrMailNotConfigured}
	}
	msg := Message{
		To:      n.to,
		Subject: Subject(c),
		Body:    Body(c),
	}
	if docPath != "" {
		msg.Attachments = []Attachment{{Path: docPath, Name: filepath.Base(docPath)}}
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		return &apperr.NotificationError{ClientID: c.ID, Err: err}
	}
	n.lg.Infow("notification sent", "client_id", c.ID, "to", n.to)
	return nil
}

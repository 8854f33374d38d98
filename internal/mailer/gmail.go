package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	gmail "google.golang.org/api/gmail/v1"

	"contact-triage-go/internal/config"
	"contact-triage-go/internal/gmailapi"
)

// GmailMailer sends mail through the Gmail API
type GmailMailer struct {
	service *gmail.Service
	userID  string
	from    string
}

// NewGmailMailer creates a Gmail API mailer authorized for sending
func NewGmailMailer(ctx context.Context, cfg config.GmailConfig, from string) (*GmailMailer, error) {
	service, err := gmailapi.NewService(ctx, cfg, gmail.GmailSendScope)
	if err != nil {
		return nil, err
	}
	if cfg.UserEmail != "" {
		from = cfg.UserEmail
	}
	return &GmailMailer{
		service: service,
		userID:  gmailapi.UserID(cfg),
		from:    from,
	}, nil
}

// Send delivers msg via users.messages.send
func (m *GmailMailer) Send(ctx context.Context, msg Message) error {
	raw, err := Compose(m.from, msg, time.Now())
	if err != nil {
		return err
	}

	message := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	if _, err := m.service.Users.Messages.Send(m.userID, message).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send email via Gmail API: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Email sent via Gmail API")
	return nil
}

package intake

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

// GmailAPIFetcher reads new inbox messages through the Gmail API
type GmailAPIFetcher struct {
	service   *gmail.Service
	userID    string
	lastCheck time.Time
}

// NewGmailAPIFetcher creates a Gmail API fetcher starting with the last 24 hours
func NewGmailAPIFetcher(ctx context.Context, cfg config.GmailConfig) (*GmailAPIFetcher, error) {
	service, err := gmailapi.NewService(ctx, cfg, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, err
	}
	return &GmailAPIFetcher{
		service:   service,
		userID:    gmailapi.UserID(cfg),
		lastCheck: time.Now().Add(-24 * time.Hour),
	}, nil
}

// FetchNewEmails fetches inbox messages received since the previous successful fetch
func (f *GmailAPIFetcher) FetchNewEmails(ctx context.Context) ([]InboundEmail, error) {
	started := time.Now()
	query := fmt.Sprintf("in:inbox after:%d", f.lastCheck.Unix())

	var emails []InboundEmail
	err := f.service.Users.Messages.List(f.userID).Q(query).Pages(ctx, func(page *gmail.ListMessagesResponse) error {
		for _, ref := range page.Messages {
			msg, err := f.service.Users.Messages.Get(f.userID, ref.Id).Format("full").Context(ctx).Do()
			if err != nil {
				logrus.Warnf("Failed to get message %s: %v", ref.Id, err)
				continue
			}
			emails = append(emails, parseGmailMessage(msg))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	f.lastCheck = started
	return emails, nil
}

func parseGmailMessage(msg *gmail.Message) InboundEmail {
	email := InboundEmail{ID: msg.Id}
	if msg.Payload == nil {
		return email
	}

	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "Subject":
			email.Subject = header.Value
		case "From":
			email.FromName, email.FromAddress = parseFrom(header.Value)
		case "Message-ID", "Message-Id":
			email.ID = header.Value
		}
	}

	email.Body = gmailPlainText(msg.Payload)
	return email
}

// gmailPlainText returns the first decodable text/plain part, depth first
func gmailPlainText(part *gmail.MessagePart) string {
	if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			logrus.Warnf("Failed to decode body data: %v", err)
			return ""
		}
		return string(data)
	}
	for _, sub := range part.Parts {
		if text := gmailPlainText(sub); text != "" {
			return text
		}
	}
	return ""
}

// Close is a no-op for the Gmail API
func (f *GmailAPIFetcher) Close() error {
	return nil
}

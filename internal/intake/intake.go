package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"contact-triage-go/internal/metrics"
	"contact-triage-go/internal/model"
	"contact-triage-go/internal/repository"
	"contact-triage-go/internal/service"
)

const maxMessageLength = 5000

// ContactCreator runs the create-contact pipeline
type ContactCreator interface {
	CreateContact(ctx context.Context, input service.ContactInput) (*service.CreateResult, error)
}

// Poller turns new mailbox messages into contacts, each at most once
type Poller struct {
	fetcher   Fetcher
	processed repository.ProcessedMessageRepository
	contacts  ContactCreator
	metrics   *metrics.Metrics
}

// NewPoller creates an inbox poller
func NewPoller(f Fetcher, processed repository.ProcessedMessageRepository, contacts ContactCreator, m *metrics.Metrics) *Poller {
	return &Poller{
		fetcher:   f,
		processed: processed,
		contacts:  contacts,
		metrics:   m,
	}
}

// Poll fetches new emails and creates a contact for each unseen one.
// Emails rejected by validation are marked processed and skipped.
func (p *Poller) Poll(ctx context.Context) error {
	p.metrics.IntakePullCount.Inc()

	emails, err := p.fetcher.FetchNewEmails(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch emails: %w", err)
	}
	logrus.Infof("Fetched %d new emails", len(emails))

	var failed int
	for _, email := range emails {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.processEmail(ctx, email); err != nil {
			failed++
			p.metrics.IntakeMessages.WithLabelValues("error").Inc()
			logrus.WithError(err).WithField("message_id", email.ID).Error("Failed to process inbound email")
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d emails failed", failed, len(emails))
	}
	return nil
}

func (p *Poller) processEmail(ctx context.Context, email InboundEmail) error {
	done, err := p.processed.IsProcessed(ctx, email.ID)
	if err != nil {
		return err
	}
	if done {
		logrus.Debugf("Email %s already processed, skipping", email.ID)
		return nil
	}

	result, err := p.contacts.CreateContact(ctx, toContactInput(email))

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		logrus.WithField("message_id", email.ID).Infof("Inbound email skipped: %v", verr)
		p.metrics.IntakeMessages.WithLabelValues(model.IntakeOutcomeSkipped).Inc()
		return p.processed.MarkProcessed(ctx, &model.ProcessedMessage{MessageID: email.ID, Outcome: model.IntakeOutcomeSkipped})
	case err != nil:
		// left unmarked so the next poll retries it
		return err
	}

	p.metrics.IntakeMessages.WithLabelValues(model.IntakeOutcomeCreated).Inc()
	id := result.Contact.ID
	return p.processed.MarkProcessed(ctx, &model.ProcessedMessage{MessageID: email.ID, ContactID: &id, Outcome: model.IntakeOutcomeCreated})
}

// toContactInput maps an email onto the contact form fields
func toContactInput(email InboundEmail) service.ContactInput {
	name := strings.TrimSpace(email.FromName)
	if name == "" {
		name, _, _ = strings.Cut(email.FromAddress, "@")
	}

	body := strings.TrimSpace(email.Body)
	subject := strings.TrimSpace(email.Subject)
	message := body
	if subject != "" && !strings.HasPrefix(body, subject) {
		message = strings.TrimSpace(subject + "\n\n" + body)
	}
	if utf8.RuneCountInString(message) > maxMessageLength {
		message = string([]rune(message)[:maxMessageLength])
	}

	return service.ContactInput{
		Name:    name,
		Email:   email.FromAddress,
		Message: message,
	}
}

package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"contact-triage-go/internal/mailer"
	"contact-triage-go/internal/model"
)

const ticketSource = "contact_form"

// Dispatcher triggers the follow-up action for a classified contact
type Dispatcher struct {
	mailer       mailer.Mailer
	notifier     Notifier
	salesAddress string
	timeout      time.Duration
}

const defaultTimeout = 10 * time.Second

// NewDispatcher creates a dispatcher. Every external call is bounded by timeout.
func NewDispatcher(m mailer.Mailer, n Notifier, salesAddress string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Dispatcher{
		mailer:       m,
		notifier:     n,
		salesAddress: salesAddress,
		timeout:      timeout,
	}
}

// Dispatch runs the action for contact's category. Failures are reported
// in the result, never as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, contact *model.Contact) Result {
	log := logrus.WithFields(logrus.Fields{
		"contact_id": contact.ID,
		"category":   contact.Category,
	})

	switch contact.Category {
	case model.CategorySales:
		result := Result{Action: ActionEmailSales, Priority: PriorityHigh}
		if err := d.withTimeout(ctx, func(ctx context.Context) error {
			return d.mailer.Send(ctx, salesEmail(contact, d.salesAddress))
		}); err != nil {
			log.WithError(err).Warn("Sales email failed")
			return failed(result, "failed to email sales team", err)
		}
		result.Success = true
		result.Message = "sales team notified by email"
		log.Info("Sales email sent")
		return result

	case model.CategorySupport:
		result := Result{Action: ActionNotifySupport, Priority: PriorityMedium}
		if err := d.withTimeout(ctx, func(ctx context.Context) error {
			return d.notifier.Notify(ctx, supportTicket(contact))
		}); err != nil {
			log.WithError(err).Warn("Support notification failed")
			return failed(result, "failed to notify support service", err)
		}
		result.Success = true
		result.Message = "support ticket created"
		log.Info("Support notification sent")
		return result

	case model.CategoryOther:
		return Result{
			Action:   ActionNone,
			Success:  true,
			Priority: PriorityLow,
			Message:  "no automation required",
		}
	}

	log.Error("Unknown category, no automation dispatched")
	return Result{
		Action:   ActionNone,
		Success:  false,
		Priority: PriorityLow,
		Error:    fmt.Sprintf("unknown category %q", contact.Category),
	}
}

func (d *Dispatcher) withTimeout(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("automation panicked: %v", r)
		}
	}()

	err = fn(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %s: %w", d.timeout, err)
	}
	return err
}

func failed(result Result, message string, err error) Result {
	result.Success = false
	result.Message = message
	result.Error = err.Error()
	return result
}

func salesEmail(contact *model.Contact, to string) mailer.Message {
	body := fmt.Sprintf(
		"New sales inquiry received.\n\nName: %s\nEmail: %s\nReceived: %s\nContact ID: %d\n\nMessage:\n%s\n\nReply to the customer within 24 hours.\n",
		contact.Name,
		contact.Email,
		contact.CreatedAt.Format(time.RFC1123Z),
		contact.ID,
		contact.Message,
	)
	return mailer.Message{
		To:      []string{to},
		ReplyTo: contact.Email,
		Subject: "New sales inquiry - " + contact.Name,
		Body:    body,
	}
}

func supportTicket(contact *model.Contact) SupportTicket {
	return SupportTicket{
		ContactID:     contact.ID,
		CustomerName:  contact.Name,
		CustomerEmail: contact.Email,
		Message:       contact.Message,
		Urgency:       ticketUrgency(contact.Message),
		CreatedAt:     contact.CreatedAt,
		Source:        ticketSource,
	}
}

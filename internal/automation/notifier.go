package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"contact-triage-go/internal/classifier"
)

// SupportTicket is the payload sent to the support service
type SupportTicket struct {
	ContactID     uint      `json:"contact_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	Message       string    `json:"message"`
	Urgency       string    `json:"urgency"`
	CreatedAt     time.Time `json:"created_at"`
	Source        string    `json:"source"`
}

// Notifier hands support tickets to the support service
type Notifier interface {
	Notify(ctx context.Context, ticket SupportTicket) error
}

// HTTPNotifier posts tickets as JSON to the support service
type HTTPNotifier struct {
	url    string
	client *http.Client
}

// NewHTTPNotifier creates a notifier for the support service at url
func NewHTTPNotifier(url string, client *http.Client) *HTTPNotifier {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPNotifier{url: url, client: client}
}

// Notify posts ticket and treats any non-2xx status as a failure
func (n *HTTPNotifier) Notify(ctx context.Context, ticket SupportTicket) error {
	body, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("failed to encode support ticket: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build support request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("support service unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("support service returned status %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier records tickets in the log instead of calling a service
type LogNotifier struct{}

// Notify logs ticket
func (LogNotifier) Notify(ctx context.Context, ticket SupportTicket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"contact_id": ticket.ContactID,
		"urgency":    ticket.Urgency,
	}).Info("Support notification simulated")
	return nil
}

var urgencyKeywords = []string{
	"urgente", "emergencia", "crítico", "no funciona", "caído",
	"urgent", "emergency", "critical", "down", "broken",
}

// ticketUrgency returns "high" when message mentions an urgency keyword as a whole word
func ticketUrgency(message string) string {
	if len(classifier.MatchWords(message, urgencyKeywords)) > 0 {
		return "high"
	}
	return "normal"
}

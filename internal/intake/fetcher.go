package intake

import (
	"context"
	"net/mail"
	"strings"
)

// InboundEmail is an email received in the contact mailbox
type InboundEmail struct {
	ID          string
	FromName    string
	FromAddress string
	Subject     string
	Body        string
}

// Fetcher pulls new emails from a mailbox
type Fetcher interface {
	FetchNewEmails(ctx context.Context) ([]InboundEmail, error)
	Close() error
}

// parseFrom splits a From header into display name and address
func parseFrom(header string) (string, string) {
	addr, err := mail.ParseAddress(header)
	if err != nil {
		return "", strings.TrimSpace(header)
	}
	return addr.Name, addr.Address
}

package gmailapi

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"contact-triage-go/internal/config"
)

// NewService creates an authenticated Gmail API client from a stored refresh token
func NewService(ctx context.Context, cfg config.GmailConfig, scopes ...string) (*gmail.Service, error) {
	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}

	tokenSource := oauth2Config.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return service, nil
}

// UserID returns the mailbox to act on, "me" when no address is configured
func UserID(cfg config.GmailConfig) string {
	if cfg.UserEmail == "" {
		return "me"
	}
	return cfg.UserEmail
}

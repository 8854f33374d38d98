package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"contact-triage-go/internal/model"
)

const retryBatchSize = 100

// RetryFailedAutomations re-dispatches failed automations that still have
// attempts left. Logs whose contact was deleted are abandoned.
func (s *ContactService) RetryFailedAutomations(ctx context.Context) (int, error) {
	if s.opts.MaxRetries <= 0 {
		return 0, nil
	}

	entries, err := s.logs.ListRetryable(ctx, s.opts.MaxRetries, retryBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to load retryable automations: %w", err)
	}

	retried := 0
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return retried, err
		}

		entry := &entries[i]
		log := logrus.WithFields(logrus.Fields{
			"contact_id":     entry.ContactID,
			"correlation_id": entry.CorrelationID,
			"attempt":        entry.Attempts + 1,
		})

		contact, err := s.contacts.FindByID(ctx, entry.ContactID)
		if errors.Is(err, ErrNotFound) {
			entry.Status = model.AutomationStatusAbandoned
			entry.ErrorMsg = "contact no longer exists"
			if err := s.logs.Update(ctx, entry); err != nil {
				return retried, fmt.Errorf("failed to abandon automation: %w", err)
			}
			log.Info("Automation abandoned, contact deleted")
			continue
		}
		if err != nil {
			return retried, fmt.Errorf("failed to load contact for retry: %w", err)
		}

		result := s.dispatcher.Dispatch(ctx, contact)
		s.metrics.AutomationRetries.Inc()
		retried++

		entry.Attempts++
		entry.ErrorMsg = result.Error
		entry.Status = model.AutomationStatusSuccess
		if !result.Success {
			entry.Status = model.AutomationStatusFailure
		}
		s.metrics.AutomationResults.WithLabelValues(string(result.Action), entry.Status).Inc()

		if err := s.logs.Update(ctx, entry); err != nil {
			return retried, fmt.Errorf("failed to update automation log: %w", err)
		}
		log.WithField("status", entry.Status).Info("Automation retried")
	}

	return retried, nil
}

// AutomationLogPage is one page of the automation log
type AutomationLogPage struct {
	Logs   []model.AutomationLog
	Total  int64
	Limit  int
	Offset int
}

// ListAutomationLogs returns automation attempts, newest first
func (s *ContactService) ListAutomationLogs(ctx context.Context, req PageRequest) (*AutomationLogPage, error) {
	page, err := s.pagination(req)
	if err != nil {
		return nil, err
	}
	logs, total, err := s.logs.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list automation logs: %w", err)
	}
	return &AutomationLogPage{Logs: logs, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

// GetAutomationLog returns a single automation attempt or ErrNotFound
func (s *ContactService) GetAutomationLog(ctx context.Context, id uint) (*model.AutomationLog, error) {
	return s.logs.FindByID(ctx, id)
}

package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"contact-triage-go/internal/model"
)

// ProcessedMessageRepository tracks inbound emails already turned into contacts
type ProcessedMessageRepository interface {
	IsProcessed(ctx context.Context, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, msg *model.ProcessedMessage) error
}

var _ ProcessedMessageRepository = (*GormProcessedMessageRepository)(nil)

// GormProcessedMessageRepository is a ProcessedMessageRepository backed by gorm
type GormProcessedMessageRepository struct {
	db *gorm.DB
}

// NewProcessedMessageRepository creates a gorm-backed processed message repository
func NewProcessedMessageRepository(db *gorm.DB) *GormProcessedMessageRepository {
	return &GormProcessedMessageRepository{db: db}
}

// IsProcessed reports whether messageID has already been consumed
func (r *GormProcessedMessageRepository) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	var processed model.ProcessedMessage
	err := r.db.WithContext(ctx).Where("message_id = ?", messageID).First(&processed).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, storeError("failed to check processed message", err)
}

// MarkProcessed records msg as consumed
func (r *GormProcessedMessageRepository) MarkProcessed(ctx context.Context, msg *model.ProcessedMessage) error {
	if msg.ProcessedAt.IsZero() {
		msg.ProcessedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return storeError("failed to mark message as processed", err)
	}
	return nil
}

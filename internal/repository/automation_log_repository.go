package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"contact-triage-go/internal/model"
)

// AutomationLogRepository persists automation attempts
type AutomationLogRepository interface {
	Create(ctx context.Context, log *model.AutomationLog) error
	Update(ctx context.Context, log *model.AutomationLog) error
	FindByID(ctx context.Context, id uint) (*model.AutomationLog, error)
	List(ctx context.Context, page model.Pagination) ([]model.AutomationLog, int64, error)
	ListRetryable(ctx context.Context, maxAttempts, limit int) ([]model.AutomationLog, error)
}

var _ AutomationLogRepository = (*GormAutomationLogRepository)(nil)

// GormAutomationLogRepository is an AutomationLogRepository backed by gorm
type GormAutomationLogRepository struct {
	db *gorm.DB
}

// NewAutomationLogRepository creates a gorm-backed automation log repository
func NewAutomationLogRepository(db *gorm.DB) *GormAutomationLogRepository {
	return &GormAutomationLogRepository{db: db}
}

// Create inserts a new automation log entry
func (r *GormAutomationLogRepository) Create(ctx context.Context, log *model.AutomationLog) error {
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return storeError("failed to create automation log", err)
	}
	return nil
}

// Update saves every field of an existing entry
func (r *GormAutomationLogRepository) Update(ctx context.Context, log *model.AutomationLog) error {
	if err := r.db.WithContext(ctx).Save(log).Error; err != nil {
		return storeError("failed to update automation log", err)
	}
	return nil
}

// FindByID returns a single entry or ErrNotFound
func (r *GormAutomationLogRepository) FindByID(ctx context.Context, id uint) (*model.AutomationLog, error) {
	var log model.AutomationLog
	err := r.db.WithContext(ctx).First(&log, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeError("failed to find automation log", err)
	}
	return &log, nil
}

// List returns entries newest first with the total count
func (r *GormAutomationLogRepository) List(ctx context.Context, page model.Pagination) ([]model.AutomationLog, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.AutomationLog{}).Count(&total).Error; err != nil {
		return nil, 0, storeError("failed to count automation logs", err)
	}

	logs := []model.AutomationLog{}
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, storeError("failed to list automation logs", err)
	}
	return logs, total, nil
}

// ListRetryable returns failed entries with fewer than maxAttempts attempts, oldest first
func (r *GormAutomationLogRepository) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]model.AutomationLog, error) {
	logs := []model.AutomationLog{}
	err := r.db.WithContext(ctx).
		Where("status = ? AND attempts < ?", model.AutomationStatusFailure, maxAttempts).
		Order("updated_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, storeError("failed to list retryable automation logs", err)
	}
	return logs, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"contact-triage-go/internal/model"
)

// ContactRepository persists classified contacts
type ContactRepository interface {
	Save(ctx context.Context, contact *model.Contact) error
	FindByID(ctx context.Context, id uint) (*model.Contact, error)
	List(ctx context.Context, filter model.ContactFilter, page model.Pagination) ([]model.Contact, int64, error)
	DeleteByID(ctx context.Context, id uint) error
	CountByCategory(ctx context.Context) (map[model.Category]int64, error)
}

var _ ContactRepository = (*GormContactRepository)(nil)

// GormContactRepository is a ContactRepository backed by gorm
type GormContactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a gorm-backed contact repository
func NewContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

// Save inserts a new contact, assigning its ID and creation time
func (r *GormContactRepository) Save(ctx context.Context, contact *model.Contact) error {
	if !contact.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, contact.Category)
	}
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = time.Now().UTC()
	}

	if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
		return storeError("failed to save contact", err)
	}
	return nil
}

// FindByID returns the contact with the given ID or ErrNotFound
func (r *GormContactRepository) FindByID(ctx context.Context, id uint) (*model.Contact, error) {
	var contact model.Contact
	err := r.db.WithContext(ctx).First(&contact, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeError("failed to find contact", err)
	}
	return &contact, nil
}

// List returns one page of contacts matching filter, newest first, plus
// the total number of matches.
func (r *GormContactRepository) List(ctx context.Context, filter model.ContactFilter, page model.Pagination) ([]model.Contact, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, storeError("failed to count contacts", err)
	}

	contacts := []model.Contact{}
	err := r.filtered(ctx, filter).
		Order("created_at DESC").
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&contacts).Error
	if err != nil {
		return nil, 0, storeError("failed to list contacts", err)
	}

	return contacts, total, nil
}

// likeEscaper makes search text match literally. '!' is the escape
// character because backslash is itself an escape in MySQL string literals.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (r *GormContactRepository) filtered(ctx context.Context, filter model.ContactFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Contact{})

	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
		q = q.Where("LOWER(name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!' OR LOWER(message) LIKE ? ESCAPE '!'", like, like, like)
	}
	if filter.CreatedFrom != nil {
		q = q.Where("created_at >= ?", filter.CreatedFrom.UTC())
	}
	if filter.CreatedTo != nil {
		q = q.Where("created_at <= ?", filter.CreatedTo.UTC())
	}
	return q
}

// DeleteByID hard-deletes a contact and its automation logs
func (r *GormContactRepository) DeleteByID(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&model.Contact{}, id)
		if result.Error != nil {
			return storeError("failed to delete contact", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("contact_id = ?", id).Delete(&model.AutomationLog{}).Error; err != nil {
			return storeError("failed to delete automation logs", err)
		}
		return nil
	})
	return err
}

// CountByCategory returns the number of contacts per category.
// Every category is present in the result, zero when absent.
func (r *GormContactRepository) CountByCategory(ctx context.Context) (map[model.Category]int64, error) {
	var rows []struct {
		Category model.Category
		Count    int64
	}

	err := r.db.WithContext(ctx).Model(&model.Contact{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, storeError("failed to count contacts by category", err)
	}

	counts := make(map[model.Category]int64, len(model.Categories()))
	for _, c := range model.Categories() {
		counts[c] = 0
	}
	for _, row := range rows {
		counts[row.Category] = row.Count
	}
	return counts, nil
}

package model

import (
	"fmt"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

const previewLength = 100

// Contact represents a classified contact-form submission
type Contact struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"nombre" gorm:"type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;index"`
	Message   string    `json:"mensaje" gorm:"type:text;not null"`
	Category  Category  `json:"categoria" gorm:"type:varchar(20);not null;index"`
	CreatedAt time.Time `json:"fecha_creacion" gorm:"not null;index"`
}

// TableName specifies the table name for Contact
func (Contact) TableName() string {
	return "contacts"
}

// BeforeSave rejects categories outside the closed set
func (c *Contact) BeforeSave(tx *gorm.DB) error {
	if !c.Category.Valid() {
		return fmt.Errorf("invalid category %q", c.Category)
	}
	return nil
}

// MessagePreview returns the first 100 characters of the message,
// followed by "..." when the message is longer.
func (c *Contact) MessagePreview() string {
	if utf8.RuneCountInString(c.Message) <= previewLength {
		return c.Message
	}
	return string([]rune(c.Message)[:previewLength]) + "..."
}

// DaysSinceCreation returns the number of whole days between creation and now
func (c *Contact) DaysSinceCreation(now time.Time) int {
	if now.Before(c.CreatedAt) {
		return 0
	}
	return int(now.Sub(c.CreatedAt).Hours() / 24)
}

// ContactFilter narrows contact listings. Zero values mean no constraint.
type ContactFilter struct {
	Category    *Category
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// Pagination is a normalized limit/offset window
type Pagination struct {
	Limit  int
	Offset int
}

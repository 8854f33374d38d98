package model

import "time"

// Intake outcomes
const (
	IntakeOutcomeCreated = "created"
	IntakeOutcomeSkipped = "skipped"
)

// ProcessedMessage marks an inbound email as consumed so intake stays idempotent
type ProcessedMessage struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	MessageID   string    `json:"message_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	ContactID   *uint     `json:"contact_id" gorm:"index"`
	Outcome     string    `json:"outcome" gorm:"type:varchar(20);not null"`
	ProcessedAt time.Time `json:"processed_at"`
}

// TableName specifies the table name for ProcessedMessage
func (ProcessedMessage) TableName() string {
	return "processed_messages"
}

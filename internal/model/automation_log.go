package model

import "time"

// Automation log statuses
const (
	AutomationStatusSuccess   = "success"
	AutomationStatusFailure   = "failure"
	AutomationStatusAbandoned = "abandoned"
)

// AutomationLog records the outcome of the automation triggered for a contact
type AutomationLog struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ContactID     uint      `json:"contact_id" gorm:"not null;index"`
	Category      Category  `json:"category" gorm:"type:varchar(20);not null"`
	Action        string    `json:"action" gorm:"type:varchar(50);not null"`
	Priority      string    `json:"priority" gorm:"type:varchar(20);not null"`
	Status        string    `json:"status" gorm:"type:varchar(50);not null;index"`
	Attempts      int       `json:"attempts" gorm:"not null;default:1"`
	ErrorMsg      string    `json:"error_msg" gorm:"type:text"`
	CorrelationID string    `json:"correlation_id" gorm:"type:varchar(36);index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for AutomationLog
func (AutomationLog) TableName() string {
	return "automation_logs"
}

package handler

import (
	"time"

	"contact-triage-go/internal/model"
	"contact-triage-go/internal/service"
)

// ContactResponse represents the response structure for contacts
type ContactResponse struct {
	ID                uint           `json:"id"`
	Name              string         `json:"nombre"`
	Email             string         `json:"email"`
	Message           string         `json:"mensaje"`
	Category          model.Category `json:"categoria"`
	CreatedAt         time.Time      `json:"fecha_creacion"`
	MessagePreview    string         `json:"mensaje_preview"`
	DaysSinceCreation int            `json:"dias_desde_creacion"`
}

// PaginationResponse describes the window of a listing
type PaginationResponse struct {
	Limit           int   `json:"limit"`
	Offset          int   `json:"offset"`
	Total           int64 `json:"total"`
	HasNextPage     bool  `json:"has_next_page"`
	HasPreviousPage bool  `json:"has_previous_page"`
}

// AutomationLogResponse represents the response structure for automation logs
type AutomationLogResponse struct {
	ID            uint           `json:"id"`
	ContactID     uint           `json:"contact_id"`
	Category      model.Category `json:"categoria"`
	Action        string         `json:"action"`
	Priority      string         `json:"priority"`
	Status        string         `json:"status"`
	Attempts      int            `json:"attempts"`
	ErrorMsg      string         `json:"error_msg,omitempty"`
	CorrelationID string         `json:"correlation_id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Metrics   map[string]string `json:"metrics,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string               `json:"error"`
	Message string               `json:"message"`
	Code    int                  `json:"code"`
	Details []service.FieldError `json:"details,omitempty"`
}

func toContactResponse(c *model.Contact, now time.Time) ContactResponse {
	return ContactResponse{
		ID:                c.ID,
		Name:              c.Name,
		Email:             c.Email,
		Message:           c.Message,
		Category:          c.Category,
		CreatedAt:         c.CreatedAt,
		MessagePreview:    c.MessagePreview(),
		DaysSinceCreation: c.DaysSinceCreation(now),
	}
}

func toAutomationLogResponse(l *model.AutomationLog) AutomationLogResponse {
	return AutomationLogResponse{
		ID:            l.ID,
		ContactID:     l.ContactID,
		Category:      l.Category,
		Action:        l.Action,
		Priority:      l.Priority,
		Status:        l.Status,
		Attempts:      l.Attempts,
		ErrorMsg:      l.ErrorMsg,
		CorrelationID: l.CorrelationID,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

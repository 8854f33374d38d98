package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"contact-triage-go/internal/service"
)

// GetAutomationLogs returns automation attempts with pagination
func (h *Handlers) GetAutomationLogs(c *gin.Context) {
	var req service.PageRequest
	var err error
	if req.Limit, err = intQuery(c, "limit"); err != nil {
		respondError(c, &service.ValidationError{Fields: []service.FieldError{{Field: "limit", Message: "must be an integer"}}}, "logs")
		return
	}
	if req.Offset, err = intQuery(c, "offset"); err != nil {
		respondError(c, &service.ValidationError{Fields: []service.FieldError{{Field: "offset", Message: "must be an integer"}}}, "logs")
		return
	}

	page, err := h.contacts.ListAutomationLogs(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "logs")
		return
	}

	responses := make([]AutomationLogResponse, 0, len(page.Logs))
	for i := range page.Logs {
		responses = append(responses, toAutomationLogResponse(&page.Logs[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"logs": responses,
		"pagination": PaginationResponse{
			Limit:           page.Limit,
			Offset:          page.Offset,
			Total:           page.Total,
			HasNextPage:     int64(page.Offset+len(page.Logs)) < page.Total,
			HasPreviousPage: page.Offset > 0,
		},
	})
}

// GetAutomationLog returns a specific automation attempt
func (h *Handlers) GetAutomationLog(c *gin.Context) {
	id, ok := parseID(c, "log")
	if !ok {
		return
	}

	log, err := h.contacts.GetAutomationLog(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "log")
		return
	}

	c.JSON(http.StatusOK, toAutomationLogResponse(log))
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"contact-triage-go/internal/model"
	"contact-triage-go/internal/service"
)

const dateOnly = "2006-01-02"

// CreateContact classifies and stores a contact-form submission
func (h *Handlers) CreateContact(c *gin.Context) {
	var input service.ContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Request body must be a JSON object with nombre, email and mensaje",
			Code:    http.StatusBadRequest,
		})
		return
	}

	result, err := h.contacts.CreateContact(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "contact")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"contact":        toContactResponse(result.Contact, h.now()),
		"classification": result.Classification,
		"automation":     result.Automation,
	})
}

// ListContacts returns contacts with filters and pagination
func (h *Handlers) ListContacts(c *gin.Context) {
	filter, req, ferr := parseListQuery(c)
	if ferr != nil {
		respondError(c, ferr, "contacts")
		return
	}

	page, err := h.contacts.ListContacts(c.Request.Context(), filter, req)
	if err != nil {
		respondError(c, err, "contacts")
		return
	}

	now := h.now()
	responses := make([]ContactResponse, 0, len(page.Nodes))
	for i := range page.Nodes {
		responses = append(responses, toContactResponse(&page.Nodes[i], now))
	}

	c.JSON(http.StatusOK, gin.H{
		"contacts": responses,
		"pagination": PaginationResponse{
			Limit:           page.Limit,
			Offset:          page.Offset,
			Total:           page.TotalCount,
			HasNextPage:     page.HasNextPage,
			HasPreviousPage: page.HasPreviousPage,
		},
	})
}

func parseListQuery(c *gin.Context) (model.ContactFilter, service.PageRequest, error) {
	var filter model.ContactFilter
	var req service.PageRequest
	verr := &service.ValidationError{}

	if raw := c.Query("categoria"); raw != "" {
		category, err := model.ParseCategory(raw)
		if err != nil {
			verr.Fields = append(verr.Fields, service.FieldError{Field: "categoria", Message: "must be one of sales, support, other"})
		} else {
			filter.Category = &category
		}
	}
	filter.Search = c.Query("search")

	if raw := c.Query("fecha_desde"); raw != "" {
		t, err := parseDate(raw, false)
		if err != nil {
			verr.Fields = append(verr.Fields, service.FieldError{Field: "fecha_desde", Message: "must be an RFC3339 timestamp or YYYY-MM-DD date"})
		} else {
			filter.CreatedFrom = &t
		}
	}
	if raw := c.Query("fecha_hasta"); raw != "" {
		t, err := parseDate(raw, true)
		if err != nil {
			verr.Fields = append(verr.Fields, service.FieldError{Field: "fecha_hasta", Message: "must be an RFC3339 timestamp or YYYY-MM-DD date"})
		} else {
			filter.CreatedTo = &t
		}
	}

	var err error
	if req.Limit, err = intQuery(c, "limit"); err != nil {
		verr.Fields = append(verr.Fields, service.FieldError{Field: "limit", Message: "must be an integer"})
	}
	if req.Offset, err = intQuery(c, "offset"); err != nil {
		verr.Fields = append(verr.Fields, service.FieldError{Field: "offset", Message: "must be an integer"})
	}

	if len(verr.Fields) > 0 {
		return filter, req, verr
	}
	return filter, req, nil
}

// parseDate accepts RFC3339 timestamps or plain dates. A plain date used as
// an upper bound covers the whole day.
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// GetContact returns a specific contact
func (h *Handlers) GetContact(c *gin.Context) {
	id, ok := parseID(c, "contact")
	if !ok {
		return
	}

	contact, err := h.contacts.GetContact(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "contact")
		return
	}

	c.JSON(http.StatusOK, toContactResponse(contact, h.now()))
}

// DeleteContact removes a contact permanently
func (h *Handlers) DeleteContact(c *gin.Context) {
	id, ok := parseID(c, "contact")
	if !ok {
		return
	}

	if err := h.contacts.DeleteContact(c.Request.Context(), id); err != nil {
		respondError(c, err, "contact")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetStats returns per-category contact statistics
func (h *Handlers) GetStats(c *gin.Context) {
	stats, err := h.contacts.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err, "stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ClassifyPreview classifies a message without storing it
func (h *Handlers) ClassifyPreview(c *gin.Context) {
	message := c.Query("message")
	result, err := h.contacts.ClassifyMessage(c.Request.Context(), message)
	if err != nil {
		respondError(c, err, "classification")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mensaje":          message,
		"category":         result.Category,
		"confidence":       result.Confidence,
		"matched_keywords": result.MatchedKeywords,
	})
}

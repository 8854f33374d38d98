package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"contact-triage-go/internal/automation"
	"contact-triage-go/internal/classifier"
	"contact-triage-go/internal/metrics"
	"contact-triage-go/internal/model"
	"contact-triage-go/internal/repository"
)

const minPreviewLength = 5

// Dispatcher triggers the automation for a persisted contact
type Dispatcher interface {
	Dispatch(ctx context.Context, contact *model.Contact) automation.Result
}

// Options tunes pagination and retry behavior
type Options struct {
	DefaultLimit int
	MaxLimit     int
	MaxRetries   int
}

// ContactService orchestrates validation, classification, persistence and automation
type ContactService struct {
	contacts   repository.ContactRepository
	logs       repository.AutomationLogRepository
	classifier classifier.Classifier
	dispatcher Dispatcher
	metrics    *metrics.Metrics
	opts       Options
	validate   *validator.Validate
	now        func() time.Time
}

// NewContactService creates a contact service
func NewContactService(
	contacts repository.ContactRepository,
	logs repository.AutomationLogRepository,
	c classifier.Classifier,
	d Dispatcher,
	m *metrics.Metrics,
	opts Options,
) *ContactService {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 50
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	return &ContactService{
		contacts:   contacts,
		logs:       logs,
		classifier: c,
		dispatcher: d,
		metrics:    m,
		opts:       opts,
		validate:   newValidator(),
		now:        time.Now,
	}
}

// CreateResult is the outcome of a successful contact creation
type CreateResult struct {
	Contact        *model.Contact    `json:"contact"`
	Classification classifier.Result `json:"classification"`
	Automation     automation.Result `json:"automation"`
}

// CreateContact validates, classifies and stores a submission, then runs its
// automation. Automation failures are reported in the result and never fail
// the creation.
func (s *ContactService) CreateContact(ctx context.Context, input ContactInput) (*CreateResult, error) {
	input = input.trimmed()
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}

	classification, err := s.classify(ctx, input.Message)
	if err != nil {
		return nil, err
	}

	contact := &model.Contact{
		Name:      input.Name,
		Email:     input.Email,
		Message:   input.Message,
		Category:  classification.Category,
		CreatedAt: s.now().UTC(),
	}
	if err := s.contacts.Save(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	s.metrics.ContactsCreated.WithLabelValues(string(contact.Category)).Inc()

	logrus.WithFields(logrus.Fields{
		"contact_id": contact.ID,
		"category":   contact.Category,
		"confidence": classification.Confidence,
	}).Info("Contact created")

	result := s.dispatcher.Dispatch(ctx, contact)
	s.recordAutomation(ctx, contact, result)

	return &CreateResult{
		Contact:        contact,
		Classification: classification,
		Automation:     result,
	}, nil
}

func (s *ContactService) classify(ctx context.Context, message string) (classifier.Result, error) {
	start := time.Now()
	result, err := s.classifier.Classify(ctx, message)
	s.metrics.ClassificationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return classifier.Result{}, fmt.Errorf("failed to classify message: %w", err)
	}
	if !result.Category.Valid() {
		return classifier.Result{}, fmt.Errorf("classifier %s returned invalid category %q", s.classifier.Name(), result.Category)
	}
	return result, nil
}

func (s *ContactService) recordAutomation(ctx context.Context, contact *model.Contact, result automation.Result) {
	status := model.AutomationStatusSuccess
	if !result.Success {
		status = model.AutomationStatusFailure
	}
	s.metrics.AutomationResults.WithLabelValues(string(result.Action), status).Inc()

	entry := &model.AutomationLog{
		ContactID:     contact.ID,
		Category:      contact.Category,
		Action:        string(result.Action),
		Priority:      string(result.Priority),
		Status:        status,
		Attempts:      1,
		ErrorMsg:      result.Error,
		CorrelationID: uuid.NewString(),
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		logrus.WithError(err).WithField("contact_id", contact.ID).Error("Failed to record automation attempt")
	}
}

// GetContact returns a contact by ID or ErrNotFound
func (s *ContactService) GetContact(ctx context.Context, id uint) (*model.Contact, error) {
	return s.contacts.FindByID(ctx, id)
}

// PageRequest is a raw limit/offset request. A zero limit selects the default.
type PageRequest struct {
	Limit  int
	Offset int
}

// ContactPage is one page of a contact listing
type ContactPage struct {
	Nodes           []model.Contact
	TotalCount      int64
	Limit           int
	Offset          int
	HasNextPage     bool
	HasPreviousPage bool
}

// ListContacts returns contacts matching filter, newest first
func (s *ContactService) ListContacts(ctx context.Context, filter model.ContactFilter, req PageRequest) (*ContactPage, error) {
	if filter.Category != nil && !filter.Category.Valid() {
		return nil, invalid("categoria", "must be one of sales, support, other")
	}
	page, err := s.pagination(req)
	if err != nil {
		return nil, err
	}

	nodes, total, err := s.contacts.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	return &ContactPage{
		Nodes:           nodes,
		TotalCount:      total,
		Limit:           page.Limit,
		Offset:          page.Offset,
		HasNextPage:     int64(page.Offset+len(nodes)) < total,
		HasPreviousPage: page.Offset > 0,
	}, nil
}

func (s *ContactService) pagination(req PageRequest) (model.Pagination, error) {
	if req.Limit < 0 {
		return model.Pagination{}, invalid("limit", "must be a positive integer")
	}
	if req.Offset < 0 {
		return model.Pagination{}, invalid("offset", "must not be negative")
	}

	limit := req.Limit
	if limit == 0 {
		limit = s.opts.DefaultLimit
	}
	if limit > s.opts.MaxLimit {
		limit = s.opts.MaxLimit
	}
	return model.Pagination{Limit: limit, Offset: req.Offset}, nil
}

// DeleteContact hard-deletes a contact or returns ErrNotFound
func (s *ContactService) DeleteContact(ctx context.Context, id uint) error {
	if err := s.contacts.DeleteByID(ctx, id); err != nil {
		return err
	}
	logrus.WithField("contact_id", id).Info("Contact deleted")
	return nil
}

// CategoryStat is the share of one category
type CategoryStat struct {
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Stats summarizes contacts per category
type Stats struct {
	Total      int64                           `json:"total_contacts"`
	Categories map[model.Category]CategoryStat `json:"categories"`
}

// GetStats returns per-category counts and percentages
func (s *ContactService) GetStats(ctx context.Context) (*Stats, error) {
	counts, err := s.contacts.CountByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	stats := &Stats{Categories: make(map[model.Category]CategoryStat, len(model.Categories()))}
	for _, c := range model.Categories() {
		stats.Total += counts[c]
	}
	for _, c := range model.Categories() {
		stat := CategoryStat{Count: counts[c]}
		if stats.Total > 0 {
			stat.Percentage = math.Round(float64(counts[c])/float64(stats.Total)*10000) / 100
		}
		stats.Categories[c] = stat
	}
	return stats, nil
}

// ClassifyMessage classifies message without persisting anything
func (s *ContactService) ClassifyMessage(ctx context.Context, message string) (classifier.Result, error) {
	if utf8.RuneCountInString(strings.TrimSpace(message)) < minPreviewLength {
		return classifier.Result{}, invalid("mensaje", fmt.Sprintf("must be at least %d characters", minPreviewLength))
	}
	return s.classify(ctx, message)
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"contact-triage-go/internal/classifier"
	"contact-triage-go/internal/model"
	"contact-triage-go/internal/service"
)

// ContactService is the application core the handlers delegate to
type ContactService interface {
	CreateContact(ctx context.Context, input service.ContactInput) (*service.CreateResult, error)
	GetContact(ctx context.Context, id uint) (*model.Contact, error)
	ListContacts(ctx context.Context, filter model.ContactFilter, req service.PageRequest) (*service.ContactPage, error)
	DeleteContact(ctx context.Context, id uint) error
	GetStats(ctx context.Context) (*service.Stats, error)
	ClassifyMessage(ctx context.Context, message string) (classifier.Result, error)
	ListAutomationLogs(ctx context.Context, req service.PageRequest) (*service.AutomationLogPage, error)
	GetAutomationLog(ctx context.Context, id uint) (*model.AutomationLog, error)
}

// Scheduler controls the periodic background jobs
type Scheduler interface {
	Start() error
	Stop() error
	RunOnce(ctx context.Context) error
	IsRunning() bool
	GetNextRun() time.Time
	GetLastRun() time.Time
}

// Handlers contains all HTTP handlers
type Handlers struct {
	db        *gorm.DB
	contacts  ContactService
	scheduler Scheduler
	gatherer  prometheus.Gatherer
	now       func() time.Time
}

// NewHandlers creates new HTTP handlers
func NewHandlers(db *gorm.DB, contacts ContactService, scheduler Scheduler, gatherer prometheus.Gatherer) *Handlers {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handlers{
		db:        db,
		contacts:  contacts,
		scheduler: scheduler,
		gatherer:  gatherer,
		now:       time.Now,
	}
}

// SetupRoutes sets up all HTTP routes. Middleware in createGuards runs only
// on the endpoints that create contacts.
func (h *Handlers) SetupRoutes(router *gin.Engine, createGuards ...gin.HandlerFunc) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	{
		api.POST("/contact", append(createGuards, h.CreateContact)...)
		api.GET("/contacts", h.ListContacts)
		api.GET("/contacts/:id", h.GetContact)
		api.DELETE("/contacts/:id", h.DeleteContact)
		api.GET("/stats", h.GetStats)
		api.GET("/classify-preview", h.ClassifyPreview)

		api.GET("/automation-logs", h.GetAutomationLogs)
		api.GET("/automation-logs/:id", h.GetAutomationLog)

		api.POST("/scheduler/start", h.StartScheduler)
		api.POST("/scheduler/stop", h.StopScheduler)
		api.POST("/scheduler/run-once", h.RunOnce)
		api.GET("/scheduler/status", h.GetSchedulerStatus)
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC(),
		Database:  "ok",
		Metrics:   make(map[string]string),
	}

	if err := h.pingDatabase(c.Request.Context()); err != nil {
		response.Status = "error"
		response.Database = "error"
		logrus.Errorf("Database health check failed: %v", err)
	}

	if h.scheduler.IsRunning() {
		response.Metrics["scheduler"] = "running"
		response.Metrics["next_run"] = h.scheduler.GetNextRun().Format(time.RFC3339)
		response.Metrics["last_run"] = h.scheduler.GetLastRun().Format(time.RFC3339)
	} else {
		response.Metrics["scheduler"] = "stopped"
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

func (h *Handlers) pingDatabase(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func parseID(c *gin.Context, what string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid " + what + " ID",
			Code:    http.StatusBadRequest,
		})
		return 0, false
	}
	return uint(id), true
}

// respondError maps service errors onto HTTP responses
func respondError(c *gin.Context, err error, what string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: verr.Error(),
			Code:    http.StatusBadRequest,
			Details: verr.Fields,
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: what + " not found",
			Code:    http.StatusNotFound,
		})
	default:
		logrus.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to process " + what,
			Code:    http.StatusInternalServerError,
		})
	}
}

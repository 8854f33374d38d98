package app

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"contact-triage-go/internal/automation"
	"contact-triage-go/internal/classifier"
	"contact-triage-go/internal/config"
	"contact-triage-go/internal/database"
	"contact-triage-go/internal/gql"
	"contact-triage-go/internal/handler"
	"contact-triage-go/internal/intake"
	"contact-triage-go/internal/mailer"
	"contact-triage-go/internal/metrics"
	"contact-triage-go/internal/middleware"
	"contact-triage-go/internal/repository"
	"contact-triage-go/internal/router"
	"contact-triage-go/internal/scheduler"
	"contact-triage-go/internal/service"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := configureLogging(cfg.Log); err != nil {
		return err
	}

	logrus.Info("Starting Contact Triage Service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := database.InitDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if sqlDB, err := dbConn.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	c, err := classifier.New(cfg.Classifier)
	if err != nil {
		return fmt.Errorf("failed to create classifier: %w", err)
	}
	logrus.Infof("Using %s classifier", c.Name())

	mail, err := newMailer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create mailer: %w", err)
	}

	dispatcher := automation.NewDispatcher(mail, newNotifier(cfg.Automation), cfg.Automation.SalesAddress, cfg.Automation.Timeout)

	svc := service.NewContactService(
		repository.NewContactRepository(dbConn),
		repository.NewAutomationLogRepository(dbConn),
		c,
		dispatcher,
		m,
		service.Options{
			DefaultLimit: cfg.Pagination.DefaultLimit,
			MaxLimit:     cfg.Pagination.MaxLimit,
			MaxRetries:   cfg.Automation.MaxRetries,
		},
	)

	jobs := []scheduler.Job{{
		Name: "automation-retry",
		Run: func(ctx context.Context) error {
			_, err := svc.RetryFailedAutomations(ctx)
			return err
		},
	}}

	var fetcher intake.Fetcher
	if cfg.Intake.Enabled {
		fetcher, err = newFetcher(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to create intake fetcher: %w", err)
		}
		defer func() {
			if err := fetcher.Close(); err != nil {
				logrus.Errorf("Failed to close fetcher: %v", err)
			}
		}()
		poller := intake.NewPoller(fetcher, repository.NewProcessedMessageRepository(dbConn), svc, m)
		jobs = append(jobs, scheduler.Job{Name: "inbox-intake", Run: poller.Poll})
	}

	sched := scheduler.NewScheduler(&cfg.Scheduler, m, jobs...)

	limiter, closeLimiter := newLimiter(ctx, cfg.RateLimit)
	defer closeLimiter()

	schema, err := gql.NewSchema(svc)
	if err != nil {
		return fmt.Errorf("failed to build GraphQL schema: %w", err)
	}

	h := handler.NewHandlers(dbConn, svc, sched, prometheus.DefaultGatherer)
	r := router.SetupRouter(h, schema, m, router.Options{Mode: cfg.Server.Mode, Limiter: limiter})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if cfg.Scheduler.Enabled {
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		_ = sched.Stop()
		return fmt.Errorf("HTTP server error: %w", err)
	}

	logrus.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	sched.Wait()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return nil
}

func configureLogging(cfg config.LogConfig) error {
	if cfg.Format == "text" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if cfg.Level == "" {
		return nil
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(level)
	return nil
}

func newMailer(ctx context.Context, cfg *config.Config) (mailer.Mailer, error) {
	switch cfg.Mail.Transport {
	case "smtp":
		logrus.Infof("Using SMTP mail transport via %s", cfg.Mail.SMTP.Host)
		return mailer.NewSMTPMailer(cfg.Mail.SMTP, cfg.Mail.From), nil
	case "gmail":
		logrus.Info("Using Gmail API mail transport")
		return mailer.NewGmailMailer(ctx, cfg.Gmail, cfg.Mail.From)
	}
	logrus.Info("Using log-only mail transport")
	return mailer.NewLogMailer(), nil
}

func newNotifier(cfg config.AutomationConfig) automation.Notifier {
	if cfg.SupportServiceURL == "" {
		logrus.Info("Support service URL not set, support notifications are logged only")
		return automation.LogNotifier{}
	}
	return automation.NewHTTPNotifier(cfg.SupportServiceURL, &http.Client{Timeout: cfg.Timeout})
}

func newFetcher(ctx context.Context, cfg *config.Config) (intake.Fetcher, error) {
	if cfg.Intake.Source == "gmail" {
		logrus.Info("Using Gmail API for inbox intake")
		return intake.NewGmailAPIFetcher(ctx, cfg.Gmail)
	}
	logrus.Info("Using IMAP for inbox intake")
	return intake.NewIMAPFetcher(cfg.Intake), nil
}

// newLimiter returns nil when rate limiting is disabled. A Redis limiter is
// used when Redis answers at startup, otherwise limits are kept in memory.
func newLimiter(ctx context.Context, cfg config.RateLimitConfig) (middleware.Limiter, func()) {
	noop := func() {}
	if !cfg.Enabled {
		return nil, noop
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := client.Ping(pingCtx).Err()
		if err == nil {
			logrus.Infof("Using Redis rate limiter at %s", cfg.RedisAddr)
			return middleware.NewRedisLimiter(client, cfg.RequestsPerMinute), func() { client.Close() }
		}
		logrus.WithError(err).Warn("Redis unavailable, falling back to in-memory rate limiter")
		client.Close()
	}

	return middleware.NewMemoryLimiter(cfg.RequestsPerMinute, cfg.Burst), noop
}

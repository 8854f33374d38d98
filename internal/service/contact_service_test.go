package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"contact-triage-go/internal/automation"
	"contact-triage-go/internal/classifier"
	"contact-triage-go/internal/config"
	"contact-triage-go/internal/database"
	"contact-triage-go/internal/metrics"
	"contact-triage-go/internal/model"
	"contact-triage-go/internal/repository"
)

type fakeDispatcher struct {
	mu      sync.Mutex
	fail    bool
	calls   []uint
	results map[model.Category]automation.Result
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, contact *model.Contact) automation.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, contact.ID)

	result := automation.Result{Action: automation.ActionNone, Priority: automation.PriorityLow, Success: true}
	switch contact.Category {
	case model.CategorySales:
		result = automation.Result{Action: automation.ActionEmailSales, Priority: automation.PriorityHigh, Success: true}
	case model.CategorySupport:
		result = automation.Result{Action: automation.ActionNotifySupport, Priority: automation.PriorityMedium, Success: true}
	}
	if f.fail && contact.Category != model.CategoryOther {
		result.Success = false
		result.Error = "transport unavailable"
	}
	return result
}

type testEnv struct {
	db         *gorm.DB
	svc        *ContactService
	dispatcher *fakeDispatcher
	logs       *repository.GormAutomationLogRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.InitDatabase(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	d := &fakeDispatcher{}
	logs := repository.NewAutomationLogRepository(db)
	svc := NewContactService(
		repository.NewContactRepository(db),
		logs,
		classifier.NewKeywordClassifier(classifier.DefaultKeywords(), 3),
		d,
		metrics.NewMetrics(prometheus.NewRegistry()),
		Options{DefaultLimit: 50, MaxLimit: 100, MaxRetries: 3},
	)
	return &testEnv{db: db, svc: svc, dispatcher: d, logs: logs}
}

func salesInput() ContactInput {
	return ContactInput{Name: "Ana Pérez", Email: "ana@example.com", Message: "Quisiera una cotización de su producto"}
}

func TestCreateContact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.svc.CreateContact(ctx, ContactInput{
		Name:    "  Ana Pérez ",
		Email:   " ana@example.com ",
		Message: "  Quisiera una cotización de su producto  ",
	})
	require.NoError(t, err)

	assert.NotZero(t, result.Contact.ID)
	assert.Equal(t, "Ana Pérez", result.Contact.Name)
	assert.Equal(t, "ana@example.com", result.Contact.Email)
	assert.Equal(t, "Quisiera una cotización de su producto", result.Contact.Message)
	assert.Equal(t, model.CategorySales, result.Contact.Category)
	assert.Equal(t, model.CategorySales, result.Classification.Category)
	assert.Equal(t, automation.ActionEmailSales, result.Automation.Action)
	assert.Equal(t, automation.PriorityHigh, result.Automation.Priority)
	assert.True(t, result.Automation.Success)

	fetched, err := env.svc.GetContact(ctx, result.Contact.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Contact.Name, fetched.Name)
	assert.Equal(t, result.Contact.Email, fetched.Email)
	assert.Equal(t, result.Contact.Message, fetched.Message)
	assert.Equal(t, result.Contact.Category, fetched.Category)

	logs, err := env.svc.ListAutomationLogs(ctx, PageRequest{})
	require.NoError(t, err)
	require.Len(t, logs.Logs, 1)
	assert.Equal(t, model.AutomationStatusSuccess, logs.Logs[0].Status)
	assert.Equal(t, "email_sales", logs.Logs[0].Action)
	assert.Len(t, logs.Logs[0].CorrelationID, 36)
}

func TestCreateContactCategories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		message  string
		category model.Category
		action   automation.Action
		priority automation.Priority
	}{
		{"Tengo un problema con el sistema, necesito ayuda", model.CategorySupport, automation.ActionNotifySupport, automation.PriorityMedium},
		{"Solo quería felicitarlos por el evento", model.CategoryOther, automation.ActionNone, automation.PriorityLow},
	}

	for _, tt := range tests {
		result, err := env.svc.CreateContact(ctx, ContactInput{Name: "Luis", Email: "luis@example.com", Message: tt.message})
		require.NoError(t, err)
		assert.Equal(t, tt.category, result.Contact.Category)
		assert.Equal(t, tt.action, result.Automation.Action)
		assert.Equal(t, tt.priority, result.Automation.Priority)
	}
}

func TestCreateContactValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		input  ContactInput
		fields []string
	}{
		{"short name", ContactInput{Name: " A ", Email: "a@b.co", Message: "Mensaje suficientemente largo"}, []string{"nombre"}},
		{"bad email", ContactInput{Name: "Ana", Email: "not-an-email", Message: "Mensaje suficientemente largo"}, []string{"email"}},
		{"short message", ContactInput{Name: "Ana", Email: "a@b.co", Message: "   corto   "}, []string{"mensaje"}},
		{"everything missing", ContactInput{}, []string{"nombre", "email", "mensaje"}},
		{"long message", ContactInput{Name: "Ana", Email: "a@b.co", Message: strings.Repeat("x", 5001)}, []string{"mensaje"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreateContact(context.Background(), tt.input)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			var fields []string
			for _, f := range verr.Fields {
				fields = append(fields, f.Field)
			}
			assert.ElementsMatch(t, tt.fields, fields)
		})
	}

	page, err := env.svc.ListContacts(context.Background(), model.ContactFilter{}, PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, page.TotalCount)
	assert.Empty(t, env.dispatcher.calls)
}

func TestCreateContactAutomationFailureKeepsContact(t *testing.T) {
	env := newTestEnv(t)
	env.dispatcher.fail = true
	ctx := context.Background()

	result, err := env.svc.CreateContact(ctx, salesInput())
	require.NoError(t, err)
	assert.False(t, result.Automation.Success)
	assert.Equal(t, "transport unavailable", result.Automation.Error)

	_, err = env.svc.GetContact(ctx, result.Contact.ID)
	assert.NoError(t, err)

	logs, err := env.svc.ListAutomationLogs(ctx, PageRequest{})
	require.NoError(t, err)
	require.Len(t, logs.Logs, 1)
	assert.Equal(t, model.AutomationStatusFailure, logs.Logs[0].Status)
}

func TestListContactsPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	env.svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	var ids []uint
	for i := 0; i < 5; i++ {
		result, err := env.svc.CreateContact(ctx, salesInput())
		require.NoError(t, err)
		ids = append(ids, result.Contact.ID)
	}

	page, err := env.svc.ListContacts(ctx, model.ContactFilter{}, PageRequest{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.TotalCount)
	require.Len(t, page.Nodes, 2)
	assert.Equal(t, ids[3], page.Nodes[0].ID)
	assert.Equal(t, ids[2], page.Nodes[1].ID)
	assert.True(t, page.HasNextPage)
	assert.True(t, page.HasPreviousPage)

	page, err = env.svc.ListContacts(ctx, model.ContactFilter{}, PageRequest{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, page.Nodes, 1)
	assert.False(t, page.HasNextPage)

	page, err = env.svc.ListContacts(ctx, model.ContactFilter{}, PageRequest{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, page.Limit)

	page, err = env.svc.ListContacts(ctx, model.ContactFilter{}, PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 50, page.Limit)
	assert.False(t, page.HasPreviousPage)
}

func TestListContactsRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	var verr *ValidationError

	_, err := env.svc.ListContacts(ctx, model.ContactFilter{}, PageRequest{Limit: -1})
	assert.True(t, errors.As(err, &verr))

	_, err = env.svc.ListContacts(ctx, model.ContactFilter{}, PageRequest{Offset: -5})
	assert.True(t, errors.As(err, &verr))

	bogus := model.Category("billing")
	_, err = env.svc.ListContacts(ctx, model.ContactFilter{Category: &bogus}, PageRequest{})
	assert.True(t, errors.As(err, &verr))
}

func TestDeleteContact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.svc.CreateContact(ctx, salesInput())
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteContact(ctx, result.Contact.ID))

	_, err = env.svc.GetContact(ctx, result.Contact.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.svc.DeleteContact(ctx, result.Contact.ID), ErrNotFound)
	assert.ErrorIs(t, env.svc.DeleteContact(ctx, 424242), ErrNotFound)
}

func TestGetStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stats, err := env.svc.GetStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.Total)
	for _, c := range model.Categories() {
		assert.Equal(t, CategoryStat{}, stats.Categories[c])
	}

	messages := []string{
		"Quisiera una cotización de su producto",
		"Necesito el precio del plan anual",
		"Tengo un error al iniciar sesión",
	}
	for _, msg := range messages {
		_, err := env.svc.CreateContact(ctx, ContactInput{Name: "Ana", Email: "ana@example.com", Message: msg})
		require.NoError(t, err)
	}

	stats, err = env.svc.GetStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 2, stats.Categories[model.CategorySales].Count)
	assert.EqualValues(t, 1, stats.Categories[model.CategorySupport].Count)
	assert.EqualValues(t, 0, stats.Categories[model.CategoryOther].Count)
	assert.Equal(t, 66.67, stats.Categories[model.CategorySales].Percentage)
	assert.Equal(t, 33.33, stats.Categories[model.CategorySupport].Percentage)

	var sum float64
	for _, stat := range stats.Categories {
		sum += stat.Percentage
	}
	assert.InDelta(t, 100.0, sum, 0.02)
}

func TestClassifyMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.svc.ClassifyMessage(ctx, "What is the price of the pro plan?")
	require.NoError(t, err)
	assert.Equal(t, model.CategorySales, result.Category)

	_, err = env.svc.ClassifyMessage(ctx, "  hi  ")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	page, err := env.svc.ListContacts(ctx, model.ContactFilter{}, PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, page.TotalCount)
}

func TestRetryFailedAutomations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.dispatcher.fail = true

	kept, err := env.svc.CreateContact(ctx, salesInput())
	require.NoError(t, err)
	deleted, err := env.svc.CreateContact(ctx, ContactInput{Name: "Luis", Email: "luis@example.com", Message: "Tengo un problema con mi cuenta"})
	require.NoError(t, err)

	// deleting the contact removes its log, so recreate an orphaned failure entry
	require.NoError(t, env.svc.DeleteContact(ctx, deleted.Contact.ID))
	orphan := &model.AutomationLog{ContactID: deleted.Contact.ID, Category: model.CategorySupport, Action: "notify_support", Priority: "medium", Status: model.AutomationStatusFailure, Attempts: 1}
	require.NoError(t, env.logs.Create(ctx, orphan))

	env.dispatcher.fail = false
	retried, err := env.svc.RetryFailedAutomations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, retried)

	logs, err := env.svc.ListAutomationLogs(ctx, PageRequest{})
	require.NoError(t, err)
	statuses := map[uint]string{}
	attempts := map[uint]int{}
	for _, l := range logs.Logs {
		statuses[l.ContactID] = l.Status
		attempts[l.ContactID] = l.Attempts
	}
	assert.Equal(t, model.AutomationStatusSuccess, statuses[kept.Contact.ID])
	assert.Equal(t, 2, attempts[kept.Contact.ID])
	assert.Equal(t, model.AutomationStatusAbandoned, statuses[deleted.Contact.ID])

	retried, err = env.svc.RetryFailedAutomations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, retried)
}

func TestRetryStopsAtMaxAttempts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.dispatcher.fail = true

	_, err := env.svc.CreateContact(ctx, salesInput())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := env.svc.RetryFailedAutomations(ctx)
		require.NoError(t, err)
	}

	logs, err := env.svc.ListAutomationLogs(ctx, PageRequest{})
	require.NoError(t, err)
	require.Len(t, logs.Logs, 1)
	assert.Equal(t, 3, logs.Logs[0].Attempts)
	assert.Equal(t, model.AutomationStatusFailure, logs.Logs[0].Status)
}

func TestStoreUnavailable(t *testing.T) {
	env := newTestEnv(t)
	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = env.svc.CreateContact(context.Background(), salesInput())
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = env.svc.GetStats(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"contact-triage-go/internal/config"
	"contact-triage-go/internal/database"
	"contact-triage-go/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitDatabase(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, repo *GormContactRepository, specs ...model.Contact) []model.Contact {
	t.Helper()
	out := make([]model.Contact, 0, len(specs))
	for i := range specs {
		c := specs[i]
		require.NoError(t, repo.Save(context.Background(), &c))
		out = append(out, c)
	}
	return out
}

func contactAt(name string, category model.Category, minutes int) model.Contact {
	return model.Contact{
		Name:      name,
		Email:     name + "@example.com",
		Message:   "Mensaje de prueba para " + name,
		Category:  category,
		CreatedAt: base.Add(time.Duration(minutes) * time.Minute),
	}
}

func TestContactSaveAndFind(t *testing.T) {
	repo := NewContactRepository(newTestDB(t))
	ctx := context.Background()

	c := &model.Contact{Name: "Ana", Email: "ana@example.com", Message: "Quiero una cotización", Category: model.CategorySales}
	require.NoError(t, repo.Save(ctx, c))
	assert.NotZero(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())

	found, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Name, found.Name)
	assert.Equal(t, c.Email, found.Email)
	assert.Equal(t, c.Message, found.Message)
	assert.Equal(t, model.CategorySales, found.Category)

	second := &model.Contact{Name: "Luis", Email: "luis@example.com", Message: "Hola a todos", Category: model.CategoryOther}
	require.NoError(t, repo.Save(ctx, second))
	assert.Greater(t, second.ID, c.ID)
}

func TestContactSaveRejectsInvalidCategory(t *testing.T) {
	repo := NewContactRepository(newTestDB(t))

	err := repo.Save(context.Background(), &model.Contact{Name: "Ana", Email: "a@b.co", Message: "hola hola hola", Category: "billing"})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestContactFindNotFound(t *testing.T) {
	repo := NewContactRepository(newTestDB(t))

	_, err := repo.FindByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContactListOrderingAndPagination(t *testing.T) {
	repo := NewContactRepository(newTestDB(t))
	ctx := context.Background()

	seed(t, repo,
		contactAt("c1", model.CategorySales, 1),
		contactAt("c2", model.CategorySupport, 2),
		contactAt("c3", model.CategoryOther, 3),
		contactAt("c4", model.CategorySales, 4),
		contactAt("c5", model.CategorySupport, 5),
	)

	all, total, err := repo.List(ctx, model.ContactFilter{}, model.Pagination{Limit: 50})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, all, 5)
	assert.Equal(t, []string{"c5", "c4", "c3", "c2", "c1"}, names(all))

	page, total, err := repo.List(ctx, model.ContactFilter{}, model.Pagination{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Equal(t, []string{"c4", "c3"}, names(page))
}

func TestContactListTieBreaksOnID(t *testing.T) {
	repo := NewContactRepository(newTestDB(t))

	seed(t, repo,
		contactAt("first", model.CategoryOther, 0),
		contactAt("second", model.CategoryOther, 0),
	)

	contacts, _, err := repo.List(context.Background(), model.ContactFilter{}, model.Pagination{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, names(contacts))
}

func TestContactListFilters(t *testing.T) {
	repo := NewContactRepository(newTestDB(t))
	ctx := context.Background()

	seed(t, repo,
		contactAt("maria", model.CategorySales, 1),
		contactAt("jose", model.CategorySupport, 60),
		contactAt("MARTA", model.CategorySales, 120),
	)

	sales := model.CategorySales
	contacts, total, err := repo.List(ctx, model.ContactFilter{Category: &sales}, model.Pagination{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{"MARTA", "maria"}, names(contacts))

	contacts, total, err = repo.List(ctx, model.ContactFilter{Search: "mar"}, model.Pagination{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{"MARTA", "maria"}, names(contacts))

	from := base.Add(30 * time.Minute)
	to := base.Add(90 * time.Minute)
	contacts, total, err = repo.List(ctx, model.ContactFilter{CreatedFrom: &from, CreatedTo: &to}, model.Pagination{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []string{"jose"}, names(contacts))

	promo := contactAt("promo", model.CategoryOther, 200)
	promo.Message = "Vi el descuento del 50% en la web"
	underscored := contactAt("ana_lopez", model.CategoryOther, 210)
	seed(t, repo, promo, underscored)

	for _, tc := range []struct {
		search string
		want   []string
	}{
		{search: "%", want: []string{"promo"}},
		{search: "50%", want: []string{"promo"}},
		{search: "_", want: []string{"ana_lopez"}},
		{search: "a_l", want: []string{"ana_lopez"}},
		{search: "!", want: []string{}},
	} {
		contacts, total, err = repo.List(ctx, model.ContactFilter{Search: tc.search}, model.Pagination{Limit: 10})
		require.NoError(t, err, tc.search)
		assert.EqualValues(t, len(tc.want), total, tc.search)
		assert.Equal(t, tc.want, names(contacts), tc.search)
	}
}

func TestContactDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewContactRepository(db)
	logs := NewAutomationLogRepository(db)
	ctx := context.Background()

	contacts := seed(t, repo, contactAt("gone", model.CategorySales, 1))
	id := contacts[0].ID
	require.NoError(t, logs.Create(ctx, &model.AutomationLog{ContactID: id, Category: model.CategorySales, Action: "email_sales", Priority: "high", Status: model.AutomationStatusSuccess, Attempts: 1}))

	require.NoError(t, repo.DeleteByID(ctx, id))

	_, err := repo.FindByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, total, err := logs.List(ctx, model.Pagination{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	assert.ErrorIs(t, repo.DeleteByID(ctx, id), ErrNotFound)
}

func TestContactCountByCategory(t *testing.T) {
	repo := NewContactRepository(newTestDB(t))
	ctx := context.Background()

	counts, err := repo.CountByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[model.Category]int64{
		model.CategorySales:   0,
		model.CategorySupport: 0,
		model.CategoryOther:   0,
	}, counts)

	seed(t, repo,
		contactAt("a", model.CategorySales, 1),
		contactAt("b", model.CategorySales, 2),
		contactAt("c", model.CategoryOther, 3),
	)

	counts, err = repo.CountByCategory(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[model.CategorySales])
	assert.EqualValues(t, 0, counts[model.CategorySupport])
	assert.EqualValues(t, 1, counts[model.CategoryOther])
}

func TestStoreErrorsWrapUnavailable(t *testing.T) {
	db := newTestDB(t)
	repo := NewContactRepository(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, _, err = repo.List(context.Background(), model.ContactFilter{}, model.Pagination{Limit: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestAutomationLogRetryable(t *testing.T) {
	logs := NewAutomationLogRepository(newTestDB(t))
	ctx := context.Background()

	entries := []model.AutomationLog{
		{ContactID: 1, Category: model.CategorySales, Action: "email_sales", Priority: "high", Status: model.AutomationStatusFailure, Attempts: 1},
		{ContactID: 2, Category: model.CategorySupport, Action: "notify_support", Priority: "medium", Status: model.AutomationStatusFailure, Attempts: 3},
		{ContactID: 3, Category: model.CategorySales, Action: "email_sales", Priority: "high", Status: model.AutomationStatusSuccess, Attempts: 1},
	}
	for i := range entries {
		require.NoError(t, logs.Create(ctx, &entries[i]))
	}

	retryable, err := logs.ListRetryable(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, retryable, 1)
	assert.EqualValues(t, 1, retryable[0].ContactID)

	retryable[0].Status = model.AutomationStatusSuccess
	retryable[0].Attempts = 2
	require.NoError(t, logs.Update(ctx, &retryable[0]))

	found, err := logs.FindByID(ctx, retryable[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.AutomationStatusSuccess, found.Status)
	assert.Equal(t, 2, found.Attempts)

	_, err = logs.FindByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProcessedMessages(t *testing.T) {
	repo := NewProcessedMessageRepository(newTestDB(t))
	ctx := context.Background()

	processed, err := repo.IsProcessed(ctx, "<abc@mail>")
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, repo.MarkProcessed(ctx, &model.ProcessedMessage{MessageID: "<abc@mail>", Outcome: model.IntakeOutcomeSkipped}))

	processed, err = repo.IsProcessed(ctx, "<abc@mail>")
	require.NoError(t, err)
	assert.True(t, processed)

	assert.Error(t, repo.MarkProcessed(ctx, &model.ProcessedMessage{MessageID: "<abc@mail>", Outcome: model.IntakeOutcomeSkipped}))
}

func names(contacts []model.Contact) []string {
	out := make([]string, len(contacts))
	for i, c := range contacts {
		out[i] = c.Name
	}
	return out
}

package automation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contact-triage-go/internal/mailer"
	"contact-triage-go/internal/model"
)

type fakeMailer struct {
	err   error
	delay time.Duration
	sent  []mailer.Message
}

func (f *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeNotifier struct {
	err     error
	tickets []SupportTicket
	panics  bool
}

func (f *fakeNotifier) Notify(ctx context.Context, ticket SupportTicket) error {
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return f.err
	}
	f.tickets = append(f.tickets, ticket)
	return nil
}

func testContact(category model.Category) *model.Contact {
	return &model.Contact{
		ID:        7,
		Name:      "Ana Pérez",
		Email:     "ana@example.com",
		Message:   "El sistema no funciona desde ayer",
		Category:  category,
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestDispatchSales(t *testing.T) {
	m := &fakeMailer{}
	d := NewDispatcher(m, &fakeNotifier{}, "sales@company.com", time.Second)

	result := d.Dispatch(context.Background(), testContact(model.CategorySales))

	assert.Equal(t, ActionEmailSales, result.Action)
	assert.True(t, result.Success)
	assert.Equal(t, PriorityHigh, result.Priority)
	assert.Empty(t, result.Error)
	require.Len(t, m.sent, 1)
	assert.Equal(t, []string{"sales@company.com"}, m.sent[0].To)
	assert.Equal(t, "ana@example.com", m.sent[0].ReplyTo)
	assert.Contains(t, m.sent[0].Subject, "Ana Pérez")
	assert.Contains(t, m.sent[0].Body, "El sistema no funciona desde ayer")
}

func TestDispatchSalesFailure(t *testing.T) {
	d := NewDispatcher(&fakeMailer{err: errors.New("535 auth failed")}, &fakeNotifier{}, "sales@company.com", time.Second)

	result := d.Dispatch(context.Background(), testContact(model.CategorySales))

	assert.Equal(t, ActionEmailSales, result.Action)
	assert.False(t, result.Success)
	assert.Equal(t, PriorityHigh, result.Priority)
	assert.Contains(t, result.Error, "535 auth failed")
}

func TestDispatchTimeout(t *testing.T) {
	d := NewDispatcher(&fakeMailer{delay: time.Second}, &fakeNotifier{}, "sales@company.com", 20*time.Millisecond)

	start := time.Now()
	result := d.Dispatch(context.Background(), testContact(model.CategorySales))

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "timed out")
}

func TestDispatchSupport(t *testing.T) {
	n := &fakeNotifier{}
	d := NewDispatcher(&fakeMailer{}, n, "sales@company.com", time.Second)

	result := d.Dispatch(context.Background(), testContact(model.CategorySupport))

	assert.Equal(t, ActionNotifySupport, result.Action)
	assert.True(t, result.Success)
	assert.Equal(t, PriorityMedium, result.Priority)
	require.Len(t, n.tickets, 1)
	assert.EqualValues(t, 7, n.tickets[0].ContactID)
	assert.Equal(t, "high", n.tickets[0].Urgency)
	assert.Equal(t, "contact_form", n.tickets[0].Source)
}

func TestDispatchSupportPanicIsFailure(t *testing.T) {
	d := NewDispatcher(&fakeMailer{}, &fakeNotifier{panics: true}, "sales@company.com", time.Second)

	result := d.Dispatch(context.Background(), testContact(model.CategorySupport))

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "panicked")
}

func TestDispatchOther(t *testing.T) {
	m := &fakeMailer{}
	n := &fakeNotifier{}
	d := NewDispatcher(m, n, "sales@company.com", time.Second)

	result := d.Dispatch(context.Background(), testContact(model.CategoryOther))

	assert.Equal(t, Result{Action: ActionNone, Success: true, Priority: PriorityLow, Message: "no automation required"}, result)
	assert.Empty(t, m.sent)
	assert.Empty(t, n.tickets)
}

func TestDispatchUnknownCategory(t *testing.T) {
	d := NewDispatcher(&fakeMailer{}, &fakeNotifier{}, "sales@company.com", time.Second)

	result := d.Dispatch(context.Background(), testContact("billing"))

	assert.Equal(t, ActionNone, result.Action)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestHTTPNotifier(t *testing.T) {
	var received SupportTicket
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	n := NewHTTPNotifier(srv.URL, srv.Client())
	err := n.Notify(context.Background(), supportTicket(testContact(model.CategorySupport)))

	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", received.CustomerEmail)
	assert.Equal(t, "contact_form", received.Source)
}

func TestHTTPNotifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDispatcher(&fakeMailer{}, NewHTTPNotifier(srv.URL, srv.Client()), "sales@company.com", time.Second)
	result := d.Dispatch(context.Background(), testContact(model.CategorySupport))

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "502")
}

func TestHTTPNotifierUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewHTTPNotifier(url, nil).Notify(context.Background(), SupportTicket{})
	assert.Error(t, err)
}

func TestTicketUrgency(t *testing.T) {
	assert.Equal(t, "high", ticketUrgency("URGENTE: el servidor está caído"))
	assert.Equal(t, "high", ticketUrgency("Our site is down"))
	assert.Equal(t, "normal", ticketUrgency("Tengo una duda con mi factura"))
	assert.Equal(t, "high", ticketUrgency("Es crítico, el login no-funciona"))
	assert.Equal(t, "high", ticketUrgency("EMERGENCY!"))
	assert.Equal(t, "normal", ticketUrgency("The download link in the invoice fails"))
	assert.Equal(t, "normal", ticketUrgency("We need a breakdown of the criticality report"))
}

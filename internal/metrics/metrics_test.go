package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ContactsCreated.WithLabelValues("sales").Inc()
	m.ContactsCreated.WithLabelValues("sales").Inc()
	m.AutomationResults.WithLabelValues("email_sales", "failure").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ContactsCreated.WithLabelValues("sales")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AutomationResults.WithLabelValues("email_sales", "failure")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	// a second registry accepts the same collectors
	assert.NotPanics(t, func() { NewMetrics(prometheus.NewRegistry()) })
}

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsScanner/internal/domain"
)

func TestMetricsObserve(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveItem(domain.OutcomeAccepted)
	m.ObserveItem(domain.OutcomeAccepted)
	m.ObserveItem(domain.OutcomeDuplicate)
	m.ObserveRun(12, 3*time.Second, nil)
	m.ObserveRun(0, time.Second, errors.New("boom"))
	m.ObserveSummarize(time.Now(), nil)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Items.WithLabelValues("accepted")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Items.WithLabelValues("duplicate")), 1e-9)
	assert.InDelta(t, 12, testutil.ToFloat64(m.Candidates), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Runs.WithLabelValues("error")), 1e-9)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveItem(domain.OutcomePanic)
		m.ObserveRun(1, time.Second, nil)
		m.ObserveSummarize(time.Now(), nil)
	})
}

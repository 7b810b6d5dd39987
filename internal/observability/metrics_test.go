package observability

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/healthcap/internal/dataset"
)

func TestNewMetricsIsolatedRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := NewMetrics()
	b := NewMetrics()
	a.ObserveSelection("live", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Selections.WithLabelValues("live", "true")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Selections.WithLabelValues("live", "true")))
}

func TestObserveChart(t *testing.T) {
	m := NewMetrics()
	m.ObserveChart("line", 3*time.Millisecond, false)
	m.ObserveChart("line", time.Millisecond, true)
	m.ObserveChart("heatmap", time.Millisecond, false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChartRenders.WithLabelValues("line", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChartRenders.WithLabelValues("line", "blank")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChartRenders.WithLabelValues("heatmap", "ok")))
}

func TestSetDataset(t *testing.T) {
	m := NewMetrics()
	ds := dataset.New(
		[]dataset.JoinedRecord{{State: "Selangor"}, {State: "Penang"}, {State: "Selangor"}},
		dataset.SummaryStats{}, nil,
		dataset.JoinReport{Matched: 3, CasesOnly: 1, HospitalOnly: 2},
		time.Time{},
	)
	m.SetDataset(ds)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.JoinedRows))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CasesOnly))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HospitalOnly))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.States))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest("/", "GET", 200, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `healthcap_http_requests_total{method="GET",route="/",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

package charts

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/healthcap/internal/dashboard"
)

func day(d int) time.Time { return time.Date(2021, 1, d, 0, 0, 0, 0, time.UTC) }

func ptr(v float64) *float64 { return &v }

func TestLine(t *testing.T) {
	svg, err := Line(dashboard.TimeSeries{
		Dates: []time.Time{day(1), day(2), day(3)},
		Cases: []float64{100, 120, 90},
		Ratio: []float64{50, 60, 40},
	}, DefaultSize)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
	assert.Contains(t, string(svg), TitleLine)
}

func TestLineSingleDate(t *testing.T) {
	svg, err := Line(dashboard.TimeSeries{
		Dates: []time.Time{day(1)},
		Cases: []float64{100},
		Ratio: []float64{50},
	}, DefaultSize)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
}

func TestLineEmptyIsBlank(t *testing.T) {
	svg, err := Line(dashboard.TimeSeries{}, DefaultSize)
	assert.True(t, errors.Is(err, ErrNoData))
	assert.Contains(t, string(svg), "<svg")
	assert.Contains(t, string(svg), "No data")
}

func TestScatterWithTrend(t *testing.T) {
	s := dashboard.Scatter{
		Points: []dashboard.Point{{X: 10, Y: 20}, {X: 20, Y: 35}, {X: 30, Y: 45}},
		Trend:  dashboard.Trend{Slope: 1.25, Intercept: 8.33, R2: 0.99, X0: 10, X1: 30, Valid: true},
	}
	svg, err := Scatter(s, "Penang", DefaultSize)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
	assert.Contains(t, string(svg), "Healthcare Capacity vs New Cases in Penang")
}

func TestScatterConstantValues(t *testing.T) {
	s := dashboard.Scatter{Points: []dashboard.Point{{X: 5, Y: 0}, {X: 5, Y: 0}}}
	svg, err := Scatter(s, "Penang", DefaultSize)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
}

func TestScatterEmptyIsBlank(t *testing.T) {
	svg, err := Scatter(dashboard.Scatter{}, "Atlantis", DefaultSize)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, string(svg), "No data")
}

func TestHeatmap(t *testing.T) {
	h := dashboard.Heatmap{
		Years:  []int{2020, 2021},
		Months: []int{1, 2, 12},
		Z: [][]*float64{
			{nil, nil, ptr(30)},
			{ptr(52.5), ptr(55), nil},
		},
	}
	svg, err := Heatmap(h, DefaultSize)
	require.NoError(t, err)
	out := string(svg)
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, TitleHeatmap)
	assert.Contains(t, out, "2021")
	assert.Contains(t, out, "Dec")
	assert.Contains(t, out, "%55.0", "legend uses a percent prefix")
	assert.Contains(t, out, "%30.0")
}

func TestHeatmapEmptyIsBlank(t *testing.T) {
	svg, err := Heatmap(dashboard.Heatmap{}, DefaultSize)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, string(svg), "<svg")
}

func TestScaleColor(t *testing.T) {
	assert.Equal(t, heatScale[0], scaleColor(0, 0, 100))
	assert.Equal(t, heatScale[2], scaleColor(100, 0, 100))
	assert.Equal(t, heatScale[1], scaleColor(50, 0, 100))
	assert.Equal(t, heatScale[2], scaleColor(7, 7, 7))
	assert.Equal(t, heatScale[0], scaleColor(-5, 0, 100))
}

func TestPadRange(t *testing.T) {
	assert.Nil(t, padRange(nil))
	assert.Nil(t, padRange([]float64{1, 2}))

	r := padRange([]float64{0, 0})
	require.NotNil(t, r)
	assert.Equal(t, -1.0, r.GetMin())
	assert.Equal(t, 1.0, r.GetMax())
}

type recorder struct {
	mu    sync.Mutex
	calls map[string]bool
}

func (r *recorder) ObserveChart(name string, _ time.Duration, fallback bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[name] = fallback
}

func TestDrawerObservesEveryChart(t *testing.T) {
	rec := &recorder{calls: map[string]bool{}}
	d := NewDrawer(Size{}, rec)

	set := d.Draw(dashboard.Charts{
		State: "Atlantis",
		Heatmap: dashboard.Heatmap{
			Years: []int{2021}, Months: []int{1}, Z: [][]*float64{{ptr(40)}},
		},
	})
	assert.Equal(t, "Atlantis", set.State)
	assert.Contains(t, set.Line, "<svg")
	assert.Contains(t, set.Scatter, "<svg")
	assert.Contains(t, set.Heatmap, "<svg")

	assert.Equal(t, map[string]bool{NameLine: true, NameScatter: true, NameHeatmap: false}, rec.calls)
}

func TestBlankPlainFallback(t *testing.T) {
	assert.Contains(t, string(plainBlank(Size{Width: 10, Height: 5})), `width="10"`)
}

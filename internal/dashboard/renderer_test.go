package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/healthcap/internal/dataset"
)

func joined(state string, day int, cases, ratio float64) dataset.JoinedRecord {
	return dataset.JoinedRecord{
		Date:          time.Date(2021, 1, day, 0, 0, 0, 0, time.UTC),
		State:         state,
		NewCases:      cases,
		CapacityRatio: ratio,
		RatioDefined:  true,
		Year:          2021,
		Month:         1,
	}
}

func fixture(extraSelangor int) *dataset.Dataset {
	records := []dataset.JoinedRecord{
		joined("Selangor", 1, 100, 50),
		joined("Penang", 1, 20, 25),
		joined("Selangor", 2, 120, 60),
		joined("Penang", 2, 25, 75),
		joined("Penang", 3, 30, 0),
	}
	for i := 0; i < extraSelangor; i++ {
		records = append(records, joined("Selangor", 4+i%25, float64(i), float64(i%50)))
	}
	monthly := []dataset.MonthlyAverage{
		{Year: 2021, Month: 2, MeanRatio: 55, Records: 3},
		{Year: 2020, Month: 12, MeanRatio: 30, Records: 2},
		{Year: 2021, Month: 1, MeanRatio: 52.5, Records: 4},
	}
	return dataset.New(records, dataset.SummaryStats{}, monthly, dataset.JoinReport{}, time.Time{})
}

func newRenderer(ds *dataset.Dataset) *Renderer {
	return NewRenderer(ds, NewSelection(ds.States(), "Selangor"), Options{SampleSize: 100, Seed: 1})
}

func TestRenderDefaultSelection(t *testing.T) {
	r := newRenderer(fixture(0))

	c := r.Render("")
	assert.Equal(t, "Selangor", c.State)
	assert.True(t, c.Known)
	assert.Equal(t, 2, c.TimeSeries.Rows())
	assert.Equal(t, []float64{100, 120}, c.TimeSeries.Cases)
	assert.Equal(t, []float64{50, 60}, c.TimeSeries.Ratio)
}

func TestRenderSwitchChangesRowCount(t *testing.T) {
	ds := fixture(0)
	r := newRenderer(ds)

	a := r.Render("Selangor")
	b := r.Render("Penang")
	assert.Equal(t, len(ds.ForState("Selangor")), a.TimeSeries.Rows())
	assert.Equal(t, len(ds.ForState("Penang")), b.TimeSeries.Rows())
	assert.NotEqual(t, a.TimeSeries.Rows(), b.TimeSeries.Rows())
}

func TestRenderSampleSmallerThanCap(t *testing.T) {
	r := newRenderer(fixture(0))

	c := r.Render("Penang")
	assert.Equal(t, 3, c.Scatter.Available)
	require.Len(t, c.Scatter.Points, 3)
	assert.Equal(t, Point{X: 20, Y: 25}, c.Scatter.Points[0])
	assert.True(t, c.Scatter.Trend.Valid)
}

func TestRenderSampleCapped(t *testing.T) {
	r := newRenderer(fixture(250))

	c := r.Render("Selangor")
	assert.Equal(t, 252, c.Scatter.Available)
	assert.Len(t, c.Scatter.Points, 100)

	again := r.Render("Selangor")
	assert.Equal(t, c.Scatter.Points, again.Scatter.Points, "sampling must be deterministic")
}

func TestRenderHeatmapInvariant(t *testing.T) {
	r := newRenderer(fixture(0))

	a := r.Render("Selangor").Heatmap
	b := r.Render("Penang").Heatmap
	u := r.Render("Atlantis").Heatmap
	assert.Equal(t, a, b)
	assert.Equal(t, a, u)

	assert.Equal(t, []int{2020, 2021}, a.Years)
	assert.Equal(t, []int{1, 2, 12}, a.Months)
	require.NotNil(t, a.Z[1][0])
	assert.Equal(t, 52.5, *a.Z[1][0])
	assert.Nil(t, a.Z[0][0])
	assert.Equal(t, 30.0, *a.Z[0][2])
}

func TestRenderHeatmapIsolated(t *testing.T) {
	r := newRenderer(fixture(0))

	first := r.Render("Selangor").Heatmap
	*first.Z[1][0] = -1
	assert.Equal(t, 52.5, *r.Render("Selangor").Heatmap.Z[1][0])
}

func TestRenderUnknownState(t *testing.T) {
	r := newRenderer(fixture(0))

	c := r.Render("Atlantis")
	assert.False(t, c.Known)
	assert.Zero(t, c.TimeSeries.Rows())
	assert.Empty(t, c.Scatter.Points)
	assert.False(t, c.Scatter.Trend.Valid)
	assert.False(t, c.Heatmap.Empty())
}

func TestRenderEmptyDataset(t *testing.T) {
	ds := dataset.New(nil, dataset.SummaryStats{}, nil, dataset.JoinReport{}, time.Time{})
	r := NewRenderer(ds, NewSelection(ds.States(), "Selangor"), Options{})

	c := r.Render("")
	assert.False(t, c.Known)
	assert.True(t, c.Heatmap.Empty())
}

func TestRenderTrendSkipsUndefinedRatios(t *testing.T) {
	zeroBeds := joined("Selangor", 4, 40, 0)
	zeroBeds.RatioDefined = false
	ds := dataset.New([]dataset.JoinedRecord{
		joined("Selangor", 1, 10, 10),
		joined("Selangor", 2, 20, 20),
		joined("Selangor", 3, 30, 30),
		zeroBeds,
	}, dataset.SummaryStats{}, nil, dataset.JoinReport{}, time.Time{})

	s := newRenderer(ds).Render("Selangor").Scatter
	require.Len(t, s.Points, 4, "undefined rows are still drawn")
	assert.Equal(t, Point{X: 40, Y: 0}, s.Points[3])

	require.True(t, s.Trend.Valid)
	assert.InDelta(t, 1.0, s.Trend.Slope, 1e-9)
	assert.InDelta(t, 0.0, s.Trend.Intercept, 1e-9)
	assert.InDelta(t, 1.0, s.Trend.R2, 1e-9)
	assert.Equal(t, 30.0, s.Trend.X1, "trend spans defined points only")
}

func TestRenderTrendNeedsTwoDefinedRatios(t *testing.T) {
	undefined := joined("Penang", 2, 50, 0)
	undefined.RatioDefined = false
	ds := dataset.New([]dataset.JoinedRecord{
		joined("Penang", 1, 10, 40),
		undefined,
	}, dataset.SummaryStats{}, nil, dataset.JoinReport{}, time.Time{})

	s := NewRenderer(ds, NewSelection(ds.States(), "Penang"), Options{}).Render("Penang").Scatter
	assert.Len(t, s.Points, 2)
	assert.False(t, s.Trend.Valid)
}

package charts

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/TobiSchelling/healthcap/internal/dashboard"
)

// ErrNoData means a chart had nothing to plot and was drawn blank.
var ErrNoData = errors.New("no data to plot")

// Titles shown above each chart.
const (
	TitleLine    = "New Cases Over Time"
	TitleScatter = "Healthcare Capacity vs New Cases in %s"
	TitleHeatmap = "Average Healthcare Capacity by Year and Month"
)

// Set holds the three drawn charts for one selection.
type Set struct {
	State   string `json:"state"`
	Line    string `json:"line"`
	Scatter string `json:"scatter"`
	Heatmap string `json:"heatmap"`
}

// Observer is told about every chart draw. fallback is true when the chart
// could not be drawn and a blank placeholder was returned instead.
type Observer interface {
	ObserveChart(name string, elapsed time.Duration, fallback bool)
}

// Drawer renders chart data to SVG.
type Drawer struct {
	size     Size
	observer Observer
}

// NewDrawer creates a Drawer. A nil observer is allowed.
func NewDrawer(size Size, observer Observer) *Drawer {
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultSize
	}
	return &Drawer{size: size, observer: observer}
}

// Draw renders every chart for c. It never fails: charts that cannot be
// drawn come back as blank placeholders.
func (d *Drawer) Draw(c dashboard.Charts) Set {
	return Set{
		State:   c.State,
		Line:    d.observe(NameLine, func() ([]byte, error) { return Line(c.TimeSeries, d.size) }),
		Scatter: d.observe(NameScatter, func() ([]byte, error) { return Scatter(c.Scatter, c.State, d.size) }),
		Heatmap: d.observe(NameHeatmap, func() ([]byte, error) { return Heatmap(c.Heatmap, d.size) }),
	}
}

func (d *Drawer) observe(name string, draw func() ([]byte, error)) string {
	start := time.Now()
	svg, err := draw()
	if d.observer != nil {
		d.observer.ObserveChart(name, time.Since(start), err != nil)
	}
	return string(svg)
}

// Line draws new cases on the primary axis and capacity on the secondary
// axis over shared dates. On error the returned SVG is a blank placeholder.
func Line(ts dashboard.TimeSeries, size Size) ([]byte, error) {
	if ts.Rows() == 0 {
		return Blank(size, TitleLine), ErrNoData
	}

	dates, cases, ratio := ts.Dates, ts.Cases, ts.Ratio
	xAxis := chart.XAxis{
		Name:           "Date",
		ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
	}
	if len(dates) == 1 {
		// A single date still needs a visible x range.
		mid := float64(dates[0].UnixNano())
		day := float64(24 * time.Hour)
		xAxis.Range = &chart.ContinuousRange{Min: mid - day, Max: mid + day}
	}

	ch := chart.Chart{
		Title:          TitleLine,
		Width:          size.Width,
		Height:         size.Height,
		Background:     background(),
		XAxis:          xAxis,
		YAxis:          chart.YAxis{Name: "New Cases", Range: padRange(cases)},
		YAxisSecondary: chart.YAxis{Name: "Healthcare Capacity (%)", Range: padRange(ratio)},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "New Cases",
				Style:   lineStyle(paletteColor(0)),
				XValues: dates,
				YValues: cases,
			},
			chart.TimeSeries{
				Name:    "Healthcare Capacity",
				Style:   lineStyle(paletteColor(3)),
				YAxis:   chart.YAxisSecondary,
				XValues: dates,
				YValues: ratio,
			},
		},
	}
	if len(dates) == 1 {
		ch.Series = []chart.Series{
			chart.TimeSeries{Name: "New Cases", Style: pointStyle(paletteColor(0)), XValues: dates, YValues: cases},
			chart.TimeSeries{Name: "Healthcare Capacity", Style: pointStyle(paletteColor(3)), YAxis: chart.YAxisSecondary, XValues: dates, YValues: ratio},
		}
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	return render(&ch, size)
}

// Scatter draws the sampled (new cases, capacity) points and their OLS
// trendline.
func Scatter(s dashboard.Scatter, state string, size Size) ([]byte, error) {
	title := fmt.Sprintf(TitleScatter, state)
	if len(s.Points) == 0 {
		return Blank(size, title), ErrNoData
	}

	xs := make([]float64, len(s.Points))
	ys := make([]float64, len(s.Points))
	for i, p := range s.Points {
		xs[i], ys[i] = p.X, p.Y
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "Sampled days",
			Style:   pointStyle(paletteColor(0)),
			XValues: xs,
			YValues: ys,
		},
	}
	if s.Trend.Valid {
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("OLS trend (R² %.2f)", s.Trend.R2),
			Style:   lineStyle(paletteColor(6)),
			XValues: []float64{s.Trend.X0, s.Trend.X1},
			YValues: []float64{s.Trend.At(s.Trend.X0), s.Trend.At(s.Trend.X1)},
		})
	}

	ch := chart.Chart{
		Title:      title,
		Width:      size.Width,
		Height:     size.Height,
		Background: background(),
		XAxis:      chart.XAxis{Name: "New Cases", Range: padRange(xs)},
		YAxis:      chart.YAxis{Name: "Healthcare Capacity (%)", Range: padRange(ys)},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	return render(&ch, size)
}

func render(ch *chart.Chart, size Size) ([]byte, error) {
	var buf bytes.Buffer
	if err := ch.Render(chart.SVG, &buf); err != nil {
		return Blank(size, ch.Title), fmt.Errorf("rendering %q: %w", ch.Title, err)
	}
	return buf.Bytes(), nil
}

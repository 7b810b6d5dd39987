package dashboard

import (
	"slices"
	"time"

	"github.com/TobiSchelling/healthcap/internal/dataset"
)

// DefaultSampleSize caps the scatter sample.
const DefaultSampleSize = 100

// Options controls the scatter sample.
type Options struct {
	SampleSize int
	Seed       uint64
}

// TimeSeries is the per-state line chart: new cases on the primary axis
// and capacity on the secondary axis over shared dates.
type TimeSeries struct {
	Dates []time.Time `json:"dates"`
	Cases []float64   `json:"cases"`
	Ratio []float64   `json:"ratio"`
}

// Rows returns the number of plotted dates.
func (t TimeSeries) Rows() int { return len(t.Dates) }

// Point is one scatter marker.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Scatter is the sampled cases vs capacity plot with its trendline.
type Scatter struct {
	Points    []Point `json:"points"`
	Available int     `json:"available"`
	Trend     Trend   `json:"trend"`
}

// Heatmap is the year x month grid of mean capacity. Z[i][j] is nil when
// Years[i]/Months[j] has no data.
type Heatmap struct {
	Years  []int        `json:"years"`
	Months []int        `json:"months"`
	Z      [][]*float64 `json:"z"`
}

// Empty reports whether the grid has no cells.
func (h Heatmap) Empty() bool { return len(h.Years) == 0 || len(h.Months) == 0 }

func (h Heatmap) clone() Heatmap {
	out := Heatmap{
		Years:  slices.Clone(h.Years),
		Months: slices.Clone(h.Months),
		Z:      make([][]*float64, len(h.Z)),
	}
	for i, row := range h.Z {
		out.Z[i] = make([]*float64, len(row))
		for j, v := range row {
			if v != nil {
				c := *v
				out.Z[i][j] = &c
			}
		}
	}
	return out
}

// Charts is everything drawn for one selection.
type Charts struct {
	State      string     `json:"state"`
	Known      bool       `json:"known"`
	TimeSeries TimeSeries `json:"time_series"`
	Scatter    Scatter    `json:"scatter"`
	Heatmap    Heatmap    `json:"heatmap"`
}

// Renderer computes chart data from a dataset. It holds no
// mutable state and is safe for concurrent use.
type Renderer struct {
	ds      *dataset.Dataset
	sel     *Selection
	opts    Options
	heatmap Heatmap
}

// NewRenderer prepares a renderer. The heatmap depends only on the monthly
// averages, so it is pivoted once here.
func NewRenderer(ds *dataset.Dataset, sel *Selection, opts Options) *Renderer {
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}
	return &Renderer{
		ds:      ds,
		sel:     sel,
		opts:    opts,
		heatmap: pivot(ds.Monthly()),
	}
}

// Selection returns the dropdown model.
func (r *Renderer) Selection() *Selection { return r.sel }

// Render builds the three charts for state. An empty state means the
// default; an unknown state yields empty time series and scatter.
func (r *Renderer) Render(state string) Charts {
	state, known := r.sel.Resolve(state)
	c := Charts{State: state, Known: known, Heatmap: r.heatmap.clone()}
	if !known {
		return c
	}

	rows := r.ds.ForState(state)
	c.TimeSeries = timeSeries(rows)
	c.Scatter = r.scatter(rows)
	return c
}

func timeSeries(rows []dataset.JoinedRecord) TimeSeries {
	ts := TimeSeries{
		Dates: make([]time.Time, len(rows)),
		Cases: make([]float64, len(rows)),
		Ratio: make([]float64, len(rows)),
	}
	for i, row := range rows {
		ts.Dates[i] = row.Date
		ts.Cases[i] = row.NewCases
		ts.Ratio[i] = row.CapacityRatio
	}
	return ts
}

// scatter draws every sampled row but fits the trend only to rows with a
// defined ratio, matching the max card and the monthly means.
func (r *Renderer) scatter(rows []dataset.JoinedRecord) Scatter {
	idx := sampleIndices(len(rows), r.opts.SampleSize, r.opts.Seed)
	s := Scatter{Available: len(rows), Points: make([]Point, len(idx))}
	fit := make([]Point, 0, len(idx))
	for i, j := range idx {
		p := Point{X: rows[j].NewCases, Y: rows[j].CapacityRatio}
		s.Points[i] = p
		if rows[j].RatioDefined {
			fit = append(fit, p)
		}
	}
	s.Trend = fitOLS(fit)
	return s
}

func pivot(monthly []dataset.MonthlyAverage) Heatmap {
	var h Heatmap
	for _, m := range monthly {
		if !slices.Contains(h.Years, m.Year) {
			h.Years = append(h.Years, m.Year)
		}
		if !slices.Contains(h.Months, m.Month) {
			h.Months = append(h.Months, m.Month)
		}
	}
	slices.Sort(h.Years)
	slices.Sort(h.Months)

	h.Z = make([][]*float64, len(h.Years))
	for i := range h.Z {
		h.Z[i] = make([]*float64, len(h.Months))
	}
	for _, m := range monthly {
		v := m.MeanRatio
		h.Z[slices.Index(h.Years, m.Year)][slices.Index(h.Months, m.Month)] = &v
	}
	return h
}

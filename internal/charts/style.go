// Package charts draws dashboard charts as SVG with go-chart.
package charts

import (
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Chart names used in titles, metrics and the live channel.
const (
	NameLine    = "line"
	NameScatter = "scatter"
	NameHeatmap = "heatmap"
)

// Palette is the dashboard color sequence.
var Palette = []string{"#0a9396", "#94d2bd", "#e9d8a6", "#ee9b00", "#ca6702", "#bb3e03", "#ae2012"}

// Size is the pixel size of a drawn chart.
type Size struct {
	Width  int
	Height int
}

// DefaultSize fits one dashboard panel.
var DefaultSize = Size{Width: 720, Height: 380}

func color(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func paletteColor(i int) drawing.Color {
	return color(Palette[i%len(Palette)])
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 2,
		StrokeColor: col,
	}
}

// pointStyle renders markers only, no connecting line.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

func background() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
}

// padRange returns an explicit axis range when every value is equal, since
// go-chart rejects a zero-width range. It returns nil otherwise.
func padRange(values []float64) chart.Range {
	if len(values) == 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo != hi {
		return nil
	}
	pad := 1.0
	if lo != 0 {
		pad = max(1, math.Abs(lo)*0.1)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

package charts

import (
	"bytes"
	"fmt"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/TobiSchelling/healthcap/internal/dashboard"
)

// Red color scale, low to high.
var heatScale = []drawing.Color{color("#fff5f0"), color("#fb6a4a"), color("#67000d")}

const (
	heatTop    = 48
	heatLeft   = 64
	heatRight  = 96
	heatBottom = 56
	legendBars = 20
)

// Heatmap draws the year x month grid. go-chart has no heatmap series, so
// the cells are drawn straight onto its SVG renderer.
func Heatmap(h dashboard.Heatmap, size Size) ([]byte, error) {
	if h.Empty() {
		return Blank(size, TitleHeatmap), ErrNoData
	}

	r, err := newCanvas(size)
	if err != nil {
		return Blank(size, TitleHeatmap), err
	}

	lo, hi, ok := bounds(h)
	if !ok {
		return Blank(size, TitleHeatmap), ErrNoData
	}

	gridW := size.Width - heatLeft - heatRight
	gridH := size.Height - heatTop - heatBottom
	cellW := gridW / len(h.Months)
	cellH := gridH / len(h.Years)
	if cellW < 1 || cellH < 1 {
		return Blank(size, TitleHeatmap), fmt.Errorf("heatmap %dx%d does not fit %dx%d", len(h.Years), len(h.Months), size.Width, size.Height)
	}

	title(r, size, TitleHeatmap)

	for i, year := range h.Years {
		y := heatTop + i*cellH
		for j, v := range h.Z[i] {
			if v == nil {
				continue
			}
			x := heatLeft + j*cellW
			rect(r, x, y, cellW, cellH, scaleColor(*v, lo, hi))
		}
		label(r, fmt.Sprint(year), heatLeft-8, y+cellH/2, alignRight)
	}
	for j, month := range h.Months {
		label(r, time.Month(month).String()[:3], heatLeft+j*cellW+cellW/2, heatTop+len(h.Years)*cellH+14, alignCenter)
	}
	label(r, "Month", heatLeft+gridW/2, size.Height-12, alignCenter)
	label(r, "Year", heatLeft-8, heatTop-10, alignRight)

	legend(r, size, lo, hi)

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return Blank(size, TitleHeatmap), fmt.Errorf("saving heatmap: %w", err)
	}
	return buf.Bytes(), nil
}

// legend draws a vertical color bar from hi (top) to lo (bottom).
func legend(r chart.Renderer, size Size, lo, hi float64) {
	x := size.Width - heatRight + 24
	h := size.Height - heatTop - heatBottom
	step := max(h/legendBars, 1)
	for i := 0; i < legendBars; i++ {
		v := hi - (hi-lo)*float64(i)/float64(legendBars-1)
		rect(r, x, heatTop+i*step, 16, step, scaleColor(v, lo, hi))
	}
	label(r, fmt.Sprintf("%%%.1f", hi), x+20, heatTop+6, alignLeft)
	label(r, fmt.Sprintf("%%%.1f", lo), x+20, heatTop+legendBars*step, alignLeft)
}

func bounds(h dashboard.Heatmap) (lo, hi float64, ok bool) {
	for _, row := range h.Z {
		for _, v := range row {
			if v == nil {
				continue
			}
			if !ok {
				lo, hi, ok = *v, *v, true
				continue
			}
			lo = min(lo, *v)
			hi = max(hi, *v)
		}
	}
	return lo, hi, ok
}

// scaleColor maps v in [lo, hi] onto heatScale. A flat grid gets the top
// color.
func scaleColor(v, lo, hi float64) drawing.Color {
	t := 1.0
	if hi > lo {
		t = (v - lo) / (hi - lo)
	}
	t = min(max(t, 0), 1)

	segments := float64(len(heatScale) - 1)
	idx := int(t * segments)
	if idx >= len(heatScale)-1 {
		return heatScale[len(heatScale)-1]
	}
	return lerp(heatScale[idx], heatScale[idx+1], t*segments-float64(idx))
}

func lerp(a, b drawing.Color, t float64) drawing.Color {
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5) }
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

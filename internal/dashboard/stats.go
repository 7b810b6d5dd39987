package dashboard

import (
	"math/rand/v2"
	"slices"
)

// sampleIndices picks min(k, n) distinct indices out of n with a PCG
// source seeded from seed. The result is sorted so sampled points keep
// their date order.
func sampleIndices(n, k int, seed uint64) []int {
	if n <= 0 || k <= 0 {
		return nil
	}
	if k >= n {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	out := rng.Perm(n)[:k]
	slices.Sort(out)
	return out
}

// Trend is an ordinary least squares fit y = Slope*x + Intercept.
type Trend struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
	// X0 and X1 span the fitted x range the line is drawn over.
	X0    float64 `json:"x0"`
	X1    float64 `json:"x1"`
	Valid bool    `json:"valid"`
}

// At evaluates the fitted line at x.
func (t Trend) At(x float64) float64 { return t.Slope*x + t.Intercept }

// fitOLS fits a line to points. It needs at least two distinct x values.
func fitOLS(points []Point) Trend {
	n := float64(len(points))
	if len(points) < 2 {
		return Trend{}
	}

	var sx, sy float64
	minX, maxX := points[0].X, points[0].X
	for _, p := range points {
		sx += p.X
		sy += p.Y
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
	}
	if minX == maxX {
		return Trend{}
	}
	mx, my := sx/n, sy/n

	var sxx, sxy, syy float64
	for _, p := range points {
		dx, dy := p.X-mx, p.Y-my
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}

	t := Trend{Slope: sxy / sxx, X0: minX, X1: maxX, Valid: true}
	t.Intercept = my - t.Slope*mx
	if syy == 0 {
		// Constant y: the horizontal line explains everything.
		t.R2 = 1
	} else {
		t.R2 = sxy * sxy / (sxx * syy)
	}
	return t
}

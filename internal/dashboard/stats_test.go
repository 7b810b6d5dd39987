package dashboard

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleIndices(t *testing.T) {
	tests := []struct {
		name string
		n, k int
		want int
	}{
		{"fewer rows than cap", 3, 100, 3},
		{"exact", 100, 100, 100},
		{"capped", 500, 100, 100},
		{"empty", 0, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := sampleIndices(tt.n, tt.k, 1)
			assert.Len(t, idx, tt.want)
			assert.True(t, slices.IsSorted(idx))
			assert.Len(t, slices.Compact(slices.Clone(idx)), tt.want, "indices must be distinct")
			for _, i := range idx {
				assert.GreaterOrEqual(t, i, 0)
				assert.Less(t, i, tt.n)
			}
		})
	}
}

func TestSampleIndicesSeeded(t *testing.T) {
	assert.Equal(t, sampleIndices(500, 100, 1), sampleIndices(500, 100, 1))
	assert.NotEqual(t, sampleIndices(500, 100, 1), sampleIndices(500, 100, 2))
}

func TestFitOLSExactLine(t *testing.T) {
	tr := fitOLS([]Point{{1, 3}, {2, 5}, {3, 7}})
	assert.True(t, tr.Valid)
	assert.InDelta(t, 2.0, tr.Slope, 1e-9)
	assert.InDelta(t, 1.0, tr.Intercept, 1e-9)
	assert.InDelta(t, 1.0, tr.R2, 1e-9)
	assert.Equal(t, 1.0, tr.X0)
	assert.Equal(t, 3.0, tr.X1)
	assert.InDelta(t, 9.0, tr.At(4), 1e-9)
}

func TestFitOLSNoisy(t *testing.T) {
	tr := fitOLS([]Point{{0, 0}, {1, 2}, {2, 1}, {3, 3}})
	assert.True(t, tr.Valid)
	assert.InDelta(t, 0.8, tr.Slope, 1e-9)
	assert.InDelta(t, 0.3, tr.Intercept, 1e-9)
	assert.InDelta(t, 0.64, tr.R2, 1e-9)
}

func TestFitOLSDegenerate(t *testing.T) {
	assert.False(t, fitOLS(nil).Valid)
	assert.False(t, fitOLS([]Point{{1, 1}}).Valid)
	assert.False(t, fitOLS([]Point{{2, 1}, {2, 5}}).Valid)

	flat := fitOLS([]Point{{1, 4}, {2, 4}})
	assert.True(t, flat.Valid)
	assert.Zero(t, flat.Slope)
	assert.Equal(t, 1.0, flat.R2)
}

package ensemble

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/qrr/internal/dynamo"
	"github.com/san-kum/qrr/internal/noise"
)

func TestSampleGaussian(t *testing.T) {
	d := Distribution{Kind: "gaussian", Gamma: 1800, Width: 180}
	ens, err := Sample(d, 20000, 42)
	require.NoError(t, err)
	require.Len(t, ens, 20000)
	assert.True(t, ens.IsValid())

	s := Stats(ens)
	assert.InDelta(t, 1800, s.Mean, 5)
	assert.InDelta(t, 180, s.Std, 5)

	again, err := Sample(d, 20000, 42)
	require.NoError(t, err)
	assert.Equal(t, ens, again)

	other, err := Sample(d, 20000, 43)
	require.NoError(t, err)
	assert.NotEqual(t, ens, other)
}

func TestSampleClampsToUnity(t *testing.T) {
	ens, err := Sample(Distribution{Kind: "gaussian", Gamma: 1, Width: 5}, 1000, 1)
	require.NoError(t, err)
	for _, g := range ens {
		assert.GreaterOrEqual(t, g, 1.0)
	}
	assert.Greater(t, Stats(ens).Floor, 0)
}

func TestSampleMonoAndUniform(t *testing.T) {
	ens, err := Sample(Distribution{Kind: "mono", Gamma: 500}, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, dynamo.Ensemble{500, 500, 500, 500}, ens)

	ens, err = Sample(Distribution{Kind: "uniform", Gamma: 100, Width: 10}, 1000, 3)
	require.NoError(t, err)
	s := Stats(ens)
	assert.GreaterOrEqual(t, s.Min, 90.0)
	assert.LessOrEqual(t, s.Max, 110.0)
}

func TestSampleInvalid(t *testing.T) {
	tests := []struct {
		name string
		d    Distribution
		n    int
	}{
		{"unknown kind", Distribution{Kind: "lognormal", Gamma: 10}, 1},
		{"sub-unity centre", Distribution{Kind: "mono", Gamma: 0.5}, 1},
		{"negative width", Distribution{Kind: "gaussian", Gamma: 10, Width: -1}, 1},
		{"negative count", Distribution{Kind: "mono", Gamma: 10}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sample(tt.d, tt.n, 0)
			assert.True(t, errors.Is(err, dynamo.ErrConfiguration))
		})
	}
}

func TestStats(t *testing.T) {
	s := Stats(dynamo.Ensemble{1, 1, 3, 5, 10})
	assert.Equal(t, 5, s.N)
	assert.InDelta(t, 4, s.Mean, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 10.0, s.Max)
	assert.Equal(t, 3.0, s.Median)
	assert.Equal(t, 2, s.Floor)

	assert.Equal(t, Summary{}, Stats(nil))
	assert.Equal(t, 0.0, Stats(dynamo.Ensemble{7}).Std)
}

func TestHistogram(t *testing.T) {
	ens := dynamo.Ensemble{1, 1.5, 2, 2.5, 3, 4, 100}
	h, err := Histogram(ens, 3, 1, 4)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2, 3, 4}, h.Edges)
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, h.Centers)
	assert.Equal(t, []float64{2, 2, 2}, h.Counts)

	var total float64
	for _, d := range h.Density {
		total += d
	}
	assert.InDelta(t, 6.0/7.0, total, 1e-12)

	_, err = Histogram(ens, 0, 1, 4)
	assert.Error(t, err)
	_, err = Histogram(ens, 3, 4, 4)
	assert.Error(t, err)
}

func TestHistogramEmpty(t *testing.T) {
	h, err := Histogram(nil, 4, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, h.Counts)
	assert.Equal(t, []float64{0, 0, 0, 0}, h.Density)
}

func TestRange(t *testing.T) {
	lo, hi := Range(10, dynamo.Ensemble{10, 20}, dynamo.Ensemble{15, 30})
	assert.InDelta(t, 8, lo, 1e-12)
	assert.InDelta(t, 32, hi, 1e-12)

	lo, hi = Range(10, dynamo.Ensemble{1, 2})
	assert.Equal(t, 1.0, lo)
	assert.False(t, math.IsInf(hi, 0))

	lo, hi = Range(10)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 2.0, hi)
}

func TestSampleStreamIsNotANoiseStream(t *testing.T) {
	const n = 8
	d := Distribution{Kind: "gaussian", Gamma: 1800, Width: 1}
	for _, seed := range []uint64{0, 1, 42, ^uint64(0), ^uint64(3), ^uint64(n - 1)} {
		ens, err := Sample(d, n, seed)
		require.NoError(t, err)

		particles := noise.PerParticle(seed)
		for i := 0; i < n; i++ {
			z := particles.Stream(i).NormFloat64()
			assert.NotEqual(t, math.Max(1, d.Gamma+d.Width*z), ens[0], "seed %d shares particle %d's stream", seed, i)
		}
		z := noise.Shared(seed).Stream(0).NormFloat64()
		assert.NotEqual(t, math.Max(1, d.Gamma+d.Width*z), ens[0], "seed %d shares the shared stream", seed)
	}
}

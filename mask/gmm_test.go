package mask

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clusterSamples(rng *rand.Rand) []color3 {
	var samples []color3
	for _, center := range []color3{{20, 20, 20}, {230, 40, 40}} {
		for i := 0; i < 200; i++ {
			samples = append(samples, color3{
				center[0] + rng.NormFloat64()*4,
				center[1] + rng.NormFloat64()*4,
				center[2] + rng.NormFloat64()*4,
			})
		}
	}
	return samples
}

func TestColorModel_Likelihood(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	m, err := initColorModel(clusterSamples(rng), rng)
	require.NoError(t, err)

	var weights float64
	for _, c := range m.comps {
		weights += c.weight
	}
	assert.InDelta(t, 1.0, weights, 1e-9)

	near := m.Likelihood(color3{21, 19, 20})
	far := m.Likelihood(color3{20, 240, 240})
	assert.Greater(t, near, far)
	assert.Greater(t, m.Likelihood(color3{230, 40, 40}), far)
	assert.NotEqual(t, m.whichComponent(color3{20, 20, 20}), m.whichComponent(color3{230, 40, 40}))
}

func TestColorModel_RegularizesFlatSamples(t *testing.T) {
	t.Parallel()

	samples := make([]color3, 50)
	for i := range samples {
		samples[i] = color3{255, 255, 255}
	}
	m, err := initColorModel(samples, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Greater(t, m.Likelihood(color3{255, 255, 255}), 0.0)
}

func TestColorModel_TooFewSamples(t *testing.T) {
	t.Parallel()

	_, err := initColorModel([]color3{{1, 2, 3}, {4, 5, 6}}, rand.New(rand.NewPCG(1, 2)))
	assert.ErrorIs(t, err, ErrSegmentationFailure)

	var l gmmLearner
	_, err = l.build()
	assert.ErrorIs(t, err, ErrSegmentationFailure)
}

func TestKmeans_Deterministic(t *testing.T) {
	t.Parallel()

	samples := clusterSamples(rand.New(rand.NewPCG(7, 7)))
	a := kmeans(samples, gmmComponents, kmeansIters, rand.New(rand.NewPCG(3, 4)))
	b := kmeans(samples, gmmComponents, kmeansIters, rand.New(rand.NewPCG(3, 4)))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a[0], a[len(a)-1])
}

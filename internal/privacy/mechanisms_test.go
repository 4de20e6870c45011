package privacy

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/errors"
)

func TestLaplaceMechanismValidation(t *testing.T) {
	m := NewLaplaceMechanism(nil)
	assert.Equal(t, "laplace", m.Name())

	assert.NoError(t, m.ValidateParameters(0.5, 0))
	assert.ErrorIs(t, m.ValidateParameters(0, 0), errors.ErrInvalidEpsilon)
	assert.ErrorIs(t, m.ValidateParameters(-1, 0), errors.ErrInvalidEpsilon)

	_, err := m.AddNoise(context.Background(), 100, 1, 0)
	assert.ErrorIs(t, err, errors.ErrInvalidEpsilon)

	_, err = m.AddNoise(context.Background(), 100, -1, 0.5)
	assert.Error(t, err)
}

func TestLaplaceMechanismReproducible(t *testing.T) {
	first, err := NewLaplaceMechanism(nil).AddNoise(context.Background(), 100, 1, 1)
	require.NoError(t, err)
	second, err := NewLaplaceMechanism(nil).AddNoise(context.Background(), 100, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLaplaceNoiseScaleShrinksWithEpsilon(t *testing.T) {
	// With a generous epsilon the noise scale is tiny, so the estimate stays
	// near the true value. With a tiny epsilon deviations grow large on
	// average; check the empirical spread instead of single draws.
	spread := func(epsilon float64) float64 {
		m := NewLaplaceMechanism(rand.NewSource(1))
		total := 0.0
		for i := 0; i < 500; i++ {
			v, err := m.AddNoise(context.Background(), 0, 1, epsilon)
			require.NoError(t, err)
			total += math.Abs(v)
		}
		return total / 500
	}

	assert.Less(t, spread(10.0), spread(0.01))
}

func TestGaussianMechanismValidation(t *testing.T) {
	m := NewGaussianMechanism(nil, 1e-5)
	assert.Equal(t, "gaussian", m.Name())

	assert.NoError(t, m.ValidateParameters(0.5, 1e-5))
	assert.ErrorIs(t, m.ValidateParameters(0, 1e-5), errors.ErrInvalidEpsilon)
	assert.ErrorIs(t, m.ValidateParameters(0.5, 0), errors.ErrInvalidDelta)
	assert.ErrorIs(t, m.ValidateParameters(0.5, 1), errors.ErrInvalidDelta)

	bad := NewGaussianMechanism(nil, 0)
	_, err := bad.AddNoise(context.Background(), 100, 1, 0.5)
	assert.ErrorIs(t, err, errors.ErrInvalidDelta)
}

func TestGaussianMechanismAddsNoise(t *testing.T) {
	m := NewGaussianMechanism(rand.NewSource(7), 1e-5)
	v, err := m.AddNoise(context.Background(), 100, 1, 1)
	require.NoError(t, err)
	assert.NotEqual(t, 100.0, v)
	// Noise with sigma ~4.8 should land the value well within a few sigma.
	assert.InDelta(t, 100, v, 50)
}

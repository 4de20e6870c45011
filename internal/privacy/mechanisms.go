// Package privacy implements the differentially private statistics module.
// It estimates noise-calibrated aggregates over the raw dataset and manages
// the epsilon budget those estimates consume. It shares no data dependency
// with the partitioning core: it reads raw records, never anonymized ones.
package privacy

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/errors"
)

// Mechanism defines the interface for differential privacy noise mechanisms.
type Mechanism interface {
	Name() string
	AddNoise(ctx context.Context, value, sensitivity, epsilon float64) (float64, error)
	ValidateParameters(epsilon, delta float64) error
}

// LaplaceMechanism adds noise from a Laplace distribution with scale
// sensitivity/epsilon. It provides pure epsilon-differential privacy.
type LaplaceMechanism struct {
	src rand.Source
}

// NewLaplaceMechanism creates a Laplace mechanism. A nil source falls back to
// a fixed seed so repeated experiment runs are reproducible.
func NewLaplaceMechanism(src rand.Source) *LaplaceMechanism {
	if src == nil {
		src = rand.NewSource(42)
	}
	return &LaplaceMechanism{src: src}
}

// Name returns the mechanism name.
func (lm *LaplaceMechanism) Name() string { return "laplace" }

// AddNoise adds Laplace noise calibrated to the query sensitivity.
func (lm *LaplaceMechanism) AddNoise(ctx context.Context, value, sensitivity, epsilon float64) (float64, error) {
	if err := lm.ValidateParameters(epsilon, 0); err != nil {
		return 0, err
	}
	if sensitivity < 0 {
		return 0, fmt.Errorf("sensitivity must be non-negative, got %f", sensitivity)
	}

	dist := distuv.Laplace{Mu: 0, Scale: sensitivity / epsilon, Src: lm.src}
	return value + dist.Rand(), nil
}

// ValidateParameters checks the privacy parameters. The Laplace mechanism
// ignores delta.
func (lm *LaplaceMechanism) ValidateParameters(epsilon, delta float64) error {
	if epsilon <= 0 {
		return errors.WrapError(errors.ErrInvalidEpsilon,
			errors.ErrorTypePrivacy, errors.CodeInvalidEpsilon,
			fmt.Sprintf("epsilon=%f", epsilon))
	}
	return nil
}

// GaussianMechanism adds noise from a normal distribution with the analytic
// sigma for (epsilon, delta)-differential privacy.
type GaussianMechanism struct {
	src   rand.Source
	delta float64
}

// NewGaussianMechanism creates a Gaussian mechanism with the given delta.
func NewGaussianMechanism(src rand.Source, delta float64) *GaussianMechanism {
	if src == nil {
		src = rand.NewSource(42)
	}
	return &GaussianMechanism{src: src, delta: delta}
}

// Name returns the mechanism name.
func (gm *GaussianMechanism) Name() string { return "gaussian" }

// AddNoise adds Gaussian noise with sigma = sensitivity*sqrt(2*ln(1.25/delta))/epsilon.
func (gm *GaussianMechanism) AddNoise(ctx context.Context, value, sensitivity, epsilon float64) (float64, error) {
	if err := gm.ValidateParameters(epsilon, gm.delta); err != nil {
		return 0, err
	}
	if sensitivity < 0 {
		return 0, fmt.Errorf("sensitivity must be non-negative, got %f", sensitivity)
	}

	sigma := sensitivity * math.Sqrt(2*math.Log(1.25/gm.delta)) / epsilon
	dist := distuv.Normal{Mu: 0, Sigma: sigma, Src: gm.src}
	return value + dist.Rand(), nil
}

// ValidateParameters checks the privacy parameters.
func (gm *GaussianMechanism) ValidateParameters(epsilon, delta float64) error {
	if epsilon <= 0 {
		return errors.WrapError(errors.ErrInvalidEpsilon,
			errors.ErrorTypePrivacy, errors.CodeInvalidEpsilon,
			fmt.Sprintf("epsilon=%f", epsilon))
	}
	if delta <= 0 || delta >= 1 {
		return errors.WrapError(errors.ErrInvalidDelta,
			errors.ErrorTypePrivacy, errors.CodeInvalidDelta,
			fmt.Sprintf("delta=%f", delta))
	}
	return nil
}

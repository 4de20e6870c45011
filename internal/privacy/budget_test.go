package privacy

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/errors"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestBudgetManagerComposition(t *testing.T) {
	bm, err := NewBudgetManager(1.0, quietLogger())
	require.NoError(t, err)

	require.NoError(t, bm.Spend(0.3))
	require.NoError(t, bm.Spend(0.3))
	assert.InDelta(t, 0.6, bm.Spent(), 1e-9)
	assert.InDelta(t, 0.4, bm.Remaining(), 1e-9)
}

func TestBudgetManagerRefusesOverdraw(t *testing.T) {
	bm, err := NewBudgetManager(1.0, quietLogger())
	require.NoError(t, err)

	require.NoError(t, bm.Spend(0.8))
	err = bm.Spend(0.3)
	assert.ErrorIs(t, err, errors.ErrPrivacyBudgetExceeded)

	// A refused query consumes nothing.
	assert.InDelta(t, 0.8, bm.Spent(), 1e-9)
	assert.NoError(t, bm.Spend(0.2))
}

func TestBudgetManagerRejectsInvalidEpsilon(t *testing.T) {
	_, err := NewBudgetManager(0, quietLogger())
	assert.ErrorIs(t, err, errors.ErrInvalidEpsilon)

	bm, err := NewBudgetManager(1.0, quietLogger())
	require.NoError(t, err)
	assert.ErrorIs(t, bm.Spend(0), errors.ErrInvalidEpsilon)
	assert.ErrorIs(t, bm.Spend(-0.1), errors.ErrInvalidEpsilon)
}

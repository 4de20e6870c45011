package privacy

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/errors"
	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/models"
)

func ageDataset(ages ...int) *models.Dataset {
	schema := &models.Schema{Columns: []string{"age"}}
	ds := &models.Dataset{Schema: schema}
	for i, age := range ages {
		ds.Records = append(ds.Records, models.Record{
			OriginalID: i,
			Values:     map[string]string{"age": strconv.Itoa(age)},
		})
	}
	return ds
}

func newTestAnalyzer(t *testing.T, ds *models.Dataset, budget float64) *Analyzer {
	t.Helper()
	bm, err := NewBudgetManager(budget, quietLogger())
	require.NoError(t, err)
	return NewAnalyzer(ds, NewLaplaceMechanism(rand.NewSource(1)), bm, quietLogger())
}

func TestPrivateCountNearTruth(t *testing.T) {
	ds := ageDataset(make([]int, 200)...)
	a := newTestAnalyzer(t, ds, 100)

	// Sensitivity 1 with epsilon 10 gives noise scale 0.1: the estimate is
	// essentially the true count.
	count, err := a.PrivateCount(context.Background(), "age", 10)
	require.NoError(t, err)
	assert.InDelta(t, 200, count, 5)
}

func TestPrivateCountSkipsUnparseableValues(t *testing.T) {
	ds := ageDataset(30, 40)
	ds.Records = append(ds.Records, models.Record{
		OriginalID: 2,
		Values:     map[string]string{"age": "?"},
	})
	a := newTestAnalyzer(t, ds, 100)

	count, err := a.PrivateCount(context.Background(), "age", 10)
	require.NoError(t, err)
	assert.InDelta(t, 2, count, 3)
}

func TestPrivateSumAndMean(t *testing.T) {
	ds := ageDataset(20, 30, 40, 50)
	a := newTestAnalyzer(t, ds, 100)
	bounds := Bounds{Lower: 0, Upper: 100}

	sum, err := a.PrivateSum(context.Background(), "age", 10, bounds)
	require.NoError(t, err)
	assert.InDelta(t, 140, sum, 100)

	mean, err := a.PrivateMean(context.Background(), "age", 10, bounds)
	require.NoError(t, err)
	assert.InDelta(t, 35, mean, 20)
}

func TestPrivateMeanClampsToBounds(t *testing.T) {
	// One wild outlier is clamped to the upper bound, so the private mean
	// tracks the clamped mean, not the raw one.
	ds := ageDataset(30, 30, 30, 10000)
	a := newTestAnalyzer(t, ds, 1000)

	mean, err := a.PrivateMean(context.Background(), "age", 100, Bounds{Lower: 0, Upper: 100})
	require.NoError(t, err)
	assert.InDelta(t, 47.5, mean, 10) // (30+30+30+100)/4
}

func TestPrivateHistogram(t *testing.T) {
	ds := ageDataset(5, 15, 15, 25, 95)
	a := newTestAnalyzer(t, ds, 1000)

	counts, err := a.PrivateHistogram(context.Background(), "age", 50, 10, Bounds{Lower: 0, Upper: 100})
	require.NoError(t, err)
	require.Len(t, counts, 10)
	assert.InDelta(t, 1, counts[0], 1)
	assert.InDelta(t, 2, counts[1], 1)
	assert.InDelta(t, 1, counts[9], 1)
}

func TestPrivateHistogramRejectsBadBins(t *testing.T) {
	a := newTestAnalyzer(t, ageDataset(1, 2, 3), 10)
	_, err := a.PrivateHistogram(context.Background(), "age", 1, 0, Bounds{Lower: 0, Upper: 10})
	assert.Error(t, err)
}

func TestAnalyzerRejectsInvalidBounds(t *testing.T) {
	a := newTestAnalyzer(t, ageDataset(1, 2, 3), 10)
	_, err := a.PrivateMean(context.Background(), "age", 1, Bounds{Lower: 10, Upper: 10})
	assert.ErrorIs(t, err, errors.ErrInvalidBounds)
}

func TestAnalyzerStopsAtBudget(t *testing.T) {
	a := newTestAnalyzer(t, ageDataset(1, 2, 3), 1.0)

	_, err := a.PrivateCount(context.Background(), "age", 0.8)
	require.NoError(t, err)

	_, err = a.PrivateCount(context.Background(), "age", 0.5)
	assert.ErrorIs(t, err, errors.ErrPrivacyBudgetExceeded)
}

func TestAnalyzerEmptyDataset(t *testing.T) {
	a := newTestAnalyzer(t, &models.Dataset{Schema: &models.Schema{}}, 10)
	_, err := a.PrivateCount(context.Background(), "age", 1)
	assert.ErrorIs(t, err, errors.ErrEmptyDataset)
}

func TestMeanStabilitySweep(t *testing.T) {
	ages := make([]int, 100)
	for i := range ages {
		ages[i] = 20 + i%40
	}
	a := newTestAnalyzer(t, ageDataset(ages...), 1000)

	points, err := a.MeanStability(context.Background(), "age",
		[]float64{0.1, 1, 10}, Bounds{Lower: 0, Upper: 100})
	require.NoError(t, err)
	require.Len(t, points, 3)

	for _, p := range points {
		assert.InDelta(t, 37.5, p.RealMean, 1e-9)
		assert.GreaterOrEqual(t, p.Deviation, 0.0)
	}
}

package mondrian

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianmarcomichelini/data-privacy-toolkit/internal/hierarchy"
	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/errors"
	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func genderCatalog(t *testing.T) *hierarchy.Catalog {
	t.Helper()
	b := hierarchy.NewBuilder("Gender")
	b.AddAll(hierarchy.Root, "Male", "Female")
	tree, err := b.Build()
	require.NoError(t, err)
	c := hierarchy.NewCatalog()
	c.Register("gender", tree)
	return c
}

// ageDataset builds rows with a single numeric quasi-identifier "age" and a
// pass-through column "income".
func ageDataset(ages []int) *models.Dataset {
	schema := &models.Schema{
		Columns:          []string{"age", "income"},
		QuasiIdentifiers: []models.QuasiIdentifier{{Name: "age", Kind: models.AttributeNumeric}},
		Sensitive:        []string{"income"},
	}
	ds := &models.Dataset{Schema: schema}
	for i, age := range ages {
		ds.Records = append(ds.Records, models.Record{
			OriginalID: i,
			Values: map[string]string{
				"age":    strconv.Itoa(age),
				"income": fmt.Sprintf("%dk", 30+i),
			},
			Numbers: map[string]int{"age": age},
		})
	}
	return ds
}

func genderDataset(males, females int) *models.Dataset {
	schema := &models.Schema{
		Columns:          []string{"gender"},
		QuasiIdentifiers: []models.QuasiIdentifier{{Name: "gender", Kind: models.AttributeCategorical}},
	}
	ds := &models.Dataset{Schema: schema}
	id := 0
	for i := 0; i < males; i++ {
		ds.Records = append(ds.Records, models.Record{
			OriginalID: id,
			Values:     map[string]string{"gender": "Male"},
		})
		id++
	}
	for i := 0; i < females; i++ {
		ds.Records = append(ds.Records, models.Record{
			OriginalID: id,
			Values:     map[string]string{"gender": "Female"},
		})
		id++
	}
	return ds
}

func TestAnonymizeUniformNumeric(t *testing.T) {
	// 20 rows uniform over the age range, k=5: the engine must bisect twice
	// into exactly four groups of five covering disjoint contiguous
	// sub-intervals whose union is the whole range.
	ages := make([]int, 20)
	for i := range ages {
		ages[i] = i * 2 // 0, 2, ..., 38
	}
	ds := ageDataset(ages)

	engine := NewEngine(&Config{K: 5}, nil, quietLogger())
	result, err := engine.Anonymize(context.Background(), ds)
	require.NoError(t, err)

	require.Equal(t, 4, result.Groups())
	assert.False(t, result.Degenerate)

	sizes := make(map[int]int)
	for _, rec := range result.Records {
		sizes[rec.GroupID]++
	}
	for g, n := range sizes {
		assert.Equal(t, 5, n, "group %d", g)
	}

	// Intervals are contiguous and cover the global range [0, 39).
	intervals := make([][2]int, 0, result.Groups())
	for _, p := range result.Partitions {
		rng := p.Range("age")
		intervals = append(intervals, [2]int{rng.Low, rng.High})
	}
	assert.ElementsMatch(t, [][2]int{{0, 9}, {9, 19}, {19, 29}, {29, 39}}, intervals)
}

func TestAnonymizeBaseCaseFiresImmediately(t *testing.T) {
	// 12 rows, k=10: 12 < 2k, so the whole dataset is finalized as one group
	// labeled with the hierarchy root.
	ds := genderDataset(6, 6)

	engine := NewEngine(&Config{K: 10}, genderCatalog(t), quietLogger())
	result, err := engine.Anonymize(context.Background(), ds)
	require.NoError(t, err)

	require.Equal(t, 1, result.Groups())
	assert.False(t, result.Degenerate)
	assert.Len(t, result.Records, 12)
	for _, rec := range result.Records {
		assert.Equal(t, "Gender", rec.Values["gender"])
		assert.Equal(t, 0, rec.GroupID)
	}
}

func TestAnonymizeRejectsUndersizedSplit(t *testing.T) {
	// 26 rows, 23 Male / 3 Female, k=10: the gender cut would produce a
	// child of size 3 and must be rejected; with no other dimension the
	// partition is finalized unsplit.
	ds := genderDataset(23, 3)

	engine := NewEngine(&Config{K: 10}, genderCatalog(t), quietLogger())
	result, err := engine.Anonymize(context.Background(), ds)
	require.NoError(t, err)

	require.Equal(t, 1, result.Groups())
	assert.Len(t, result.Records, 26)
	for _, rec := range result.Records {
		assert.Equal(t, "Gender", rec.Values["gender"])
	}
}

func TestAnonymizeFallsBackToNextRankedDimension(t *testing.T) {
	// Gender ranks first (declared first, equal width 1.0) but its cut
	// leaves 3 Female rows; the engine must disallow it and accept the age
	// bisection instead.
	schema := &models.Schema{
		Columns: []string{"gender", "age"},
		QuasiIdentifiers: []models.QuasiIdentifier{
			{Name: "gender", Kind: models.AttributeCategorical},
			{Name: "age", Kind: models.AttributeNumeric},
		},
	}
	ds := &models.Dataset{Schema: schema}
	for i := 0; i < 26; i++ {
		gender := "Male"
		if i < 3 {
			gender = "Female"
		}
		ds.Records = append(ds.Records, models.Record{
			OriginalID: i,
			Values:     map[string]string{"gender": gender, "age": strconv.Itoa(i)},
			Numbers:    map[string]int{"age": i},
		})
	}

	engine := NewEngine(&Config{K: 10}, genderCatalog(t), quietLogger())
	result, err := engine.Anonymize(context.Background(), ds)
	require.NoError(t, err)

	require.Equal(t, 2, result.Groups())
	for _, p := range result.Partitions {
		assert.GreaterOrEqual(t, p.Len(), 10)
		// Gender stayed at the root on both children.
		tree, _ := genderCatalog(t).Tree("gender")
		assert.Equal(t, "Gender", p.Range("gender").Label(tree))
	}
}

func TestAnonymizeRowConservation(t *testing.T) {
	ages := []int{3, 7, 1, 9, 4, 12, 15, 2, 8, 11, 5, 13, 6, 10, 14, 0}
	ds := ageDataset(ages)

	engine := NewEngine(&Config{K: 4}, nil, quietLogger())
	result, err := engine.Anonymize(context.Background(), ds)
	require.NoError(t, err)

	require.Len(t, result.Records, len(ages))
	seen := make(map[int]bool)
	for _, rec := range result.Records {
		assert.False(t, seen[rec.OriginalID], "original id %d duplicated", rec.OriginalID)
		seen[rec.OriginalID] = true
	}
	assert.Len(t, seen, len(ages))

	// Every accepted split produced groups of at least k.
	for _, p := range result.Partitions {
		assert.GreaterOrEqual(t, p.Len(), 4)
	}

	// Sensitive values pass through untouched.
	for _, rec := range result.Records {
		assert.Equal(t, fmt.Sprintf("%dk", 30+rec.OriginalID), rec.Values["income"])
	}
}

func TestAnonymizeDeterministic(t *testing.T) {
	ages := []int{23, 45, 12, 67, 34, 29, 51, 48, 19, 38, 26, 55, 41, 31, 60, 22, 47, 36, 28, 53}
	run := func() *Result {
		engine := NewEngine(&Config{K: 3}, nil, quietLogger())
		result, err := engine.Anonymize(context.Background(), ageDataset(ages))
		require.NoError(t, err)
		return result
	}

	first := run()
	second := run()

	require.Equal(t, first.Groups(), second.Groups())
	require.Equal(t, len(first.Records), len(second.Records))
	for i := range first.Records {
		assert.Equal(t, first.Records[i].GroupID, second.Records[i].GroupID)
		assert.Equal(t, first.Records[i].Values, second.Records[i].Values)
	}
}

func TestAnonymizeDegenerateInput(t *testing.T) {
	// Fewer rows than k: finalized as a single group, flagged so the caller
	// knows it violates k-anonymity, never silently corrected.
	ds := ageDataset([]int{30, 41, 27})

	engine := NewEngine(&Config{K: 10}, nil, quietLogger())
	result, err := engine.Anonymize(context.Background(), ds)
	require.NoError(t, err)

	assert.True(t, result.Degenerate)
	require.Equal(t, 1, result.Groups())
	assert.Len(t, result.Records, 3)
}

func TestAnonymizeOutputSortedByOriginalID(t *testing.T) {
	ages := []int{40, 1, 33, 18, 27, 9, 36, 14, 22, 5, 30, 11}
	ds := ageDataset(ages)

	engine := NewEngine(&Config{K: 3}, nil, quietLogger())
	result, err := engine.Anonymize(context.Background(), ds)
	require.NoError(t, err)

	for i, rec := range result.Records {
		assert.Equal(t, i, rec.OriginalID)
	}
}

func TestAnonymizeConfigurationErrors(t *testing.T) {
	t.Run("invalid k", func(t *testing.T) {
		engine := NewEngine(&Config{K: 0}, nil, quietLogger())
		_, err := engine.Anonymize(context.Background(), ageDataset([]int{1, 2, 3}))
		assert.ErrorIs(t, err, errors.ErrInvalidK)
	})

	t.Run("missing hierarchy", func(t *testing.T) {
		ds := genderDataset(5, 5)
		engine := NewEngine(&Config{K: 2}, hierarchy.NewCatalog(), quietLogger())
		_, err := engine.Anonymize(context.Background(), ds)
		assert.ErrorIs(t, err, errors.ErrMissingHierarchy)
	})

	t.Run("uncovered categorical value", func(t *testing.T) {
		ds := genderDataset(5, 5)
		ds.Records[3].Values["gender"] = "Unknown"
		engine := NewEngine(&Config{K: 2}, genderCatalog(t), quietLogger())
		_, err := engine.Anonymize(context.Background(), ds)
		assert.ErrorIs(t, err, errors.ErrUncoveredValue)
	})

	t.Run("empty dataset", func(t *testing.T) {
		engine := NewEngine(&Config{K: 2}, nil, quietLogger())
		_, err := engine.Anonymize(context.Background(), ageDataset(nil))
		assert.ErrorIs(t, err, errors.ErrEmptyDataset)
	})

	t.Run("nil dataset", func(t *testing.T) {
		engine := NewEngine(&Config{K: 2}, nil, quietLogger())
		_, err := engine.Anonymize(context.Background(), nil)
		assert.ErrorIs(t, err, errors.ErrInvalidDataset)
	})

	t.Run("no quasi-identifiers", func(t *testing.T) {
		ds := ageDataset([]int{1, 2, 3})
		ds.Schema.QuasiIdentifiers = nil
		engine := NewEngine(&Config{K: 2}, nil, quietLogger())
		_, err := engine.Anonymize(context.Background(), ds)
		assert.ErrorIs(t, err, errors.ErrNoQuasiIdentifiers)
	})
}

func TestAnonymizeHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ages := make([]int, 50)
	for i := range ages {
		ages[i] = i
	}
	engine := NewEngine(&Config{K: 5}, nil, quietLogger())
	_, err := engine.Anonymize(ctx, ageDataset(ages))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnonymizeCategoricalDescent(t *testing.T) {
	// 10 Male / 10 Female with k=5 splits once on gender and stops: each
	// child of 10 is below 2k.
	ds := genderDataset(10, 10)

	engine := NewEngine(&Config{K: 5}, genderCatalog(t), quietLogger())
	result, err := engine.Anonymize(context.Background(), ds)
	require.NoError(t, err)

	require.Equal(t, 2, result.Groups())
	labels := make(map[string]int)
	for _, rec := range result.Records {
		labels[rec.Values["gender"]]++
	}
	assert.Equal(t, map[string]int{"Male": 10, "Female": 10}, labels)
}

package loader

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/errors"
	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func censusSchema() *models.Schema {
	return &models.Schema{
		Columns: []string{"age", "gender", "income"},
		QuasiIdentifiers: []models.QuasiIdentifier{
			{Name: "age", Kind: models.AttributeNumeric},
			{Name: "gender", Kind: models.AttributeCategorical},
		},
		Sensitive: []string{"income"},
	}
}

func TestLoadParsesRows(t *testing.T) {
	input := strings.Join([]string{
		"age,gender,income",
		"39,Male,50k",
		"28,Female,38k",
	}, "\n")

	l := NewLoader(DefaultOptions(), testLogger())
	ds, err := l.Load(context.Background(), strings.NewReader(input), censusSchema())
	require.NoError(t, err)

	require.Equal(t, 2, ds.Len())
	assert.Equal(t, 0, ds.Records[0].OriginalID)
	assert.Equal(t, "Male", ds.Records[0].Values["gender"])
	assert.Equal(t, 39, ds.Records[0].Numbers["age"])
	assert.Equal(t, "38k", ds.Records[1].Values["income"])
}

func TestLoadDropsRowsWithMissingRequiredValues(t *testing.T) {
	input := strings.Join([]string{
		"age,gender,income",
		"39,Male,50k",
		"28,?,38k",
		"45,Female,",
		"51,Female,62k",
	}, "\n")

	l := NewLoader(DefaultOptions(), testLogger())
	ds, err := l.Load(context.Background(), strings.NewReader(input), censusSchema())
	require.NoError(t, err)

	require.Equal(t, 2, ds.Len())
	// OriginalID counts dropped rows too, so the survivors keep their source
	// positions.
	assert.Equal(t, 0, ds.Records[0].OriginalID)
	assert.Equal(t, 3, ds.Records[1].OriginalID)
}

func TestLoadDropsRowsWithUnparseableNumerics(t *testing.T) {
	input := strings.Join([]string{
		"age,gender,income",
		"thirty,Male,50k",
		"28,Female,38k",
	}, "\n")

	l := NewLoader(DefaultOptions(), testLogger())
	ds, err := l.Load(context.Background(), strings.NewReader(input), censusSchema())
	require.NoError(t, err)

	require.Equal(t, 1, ds.Len())
	assert.Equal(t, 1, ds.Records[0].OriginalID)
}

func TestLoadRejectsMissingRequiredColumn(t *testing.T) {
	input := "age,income\n39,50k\n"

	l := NewLoader(DefaultOptions(), testLogger())
	_, err := l.Load(context.Background(), strings.NewReader(input), censusSchema())
	assert.ErrorIs(t, err, errors.ErrMissingColumn)
}

func TestLoadCustomMissingMarkers(t *testing.T) {
	input := strings.Join([]string{
		"age,gender,income",
		"39,N/A,50k",
		"28,Female,38k",
	}, "\n")

	l := NewLoader(Options{Delimiter: ',', MissingMarkers: []string{"N/A"}}, testLogger())
	ds, err := l.Load(context.Background(), strings.NewReader(input), censusSchema())
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "Female", ds.Records[0].Values["gender"])
}

func TestLoadSemicolonDelimiter(t *testing.T) {
	input := "age;gender;income\n44;Male;71k\n"

	l := NewLoader(Options{Delimiter: ';', MissingMarkers: []string{"?"}}, testLogger())
	ds, err := l.Load(context.Background(), strings.NewReader(input), censusSchema())
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, 44, ds.Records[0].Numbers["age"])
}

func TestLoadKeepsPassThroughColumns(t *testing.T) {
	input := strings.Join([]string{
		"age,gender,income,zip",
		"39,Male,50k,10115",
	}, "\n")

	l := NewLoader(DefaultOptions(), testLogger())
	ds, err := l.Load(context.Background(), strings.NewReader(input), censusSchema())
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "10115", ds.Records[0].Values["zip"])
}

func TestLoadAdoptsHeaderWhenSchemaColumnsEmpty(t *testing.T) {
	input := "age,gender,income\n39,Male,50k\n"

	schema := censusSchema()
	schema.Columns = nil

	l := NewLoader(DefaultOptions(), testLogger())
	_, err := l.Load(context.Background(), strings.NewReader(input), schema)
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "gender", "income"}, schema.Columns)
}

func TestLoadHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := "age,gender,income\n39,Male,50k\n"
	l := NewLoader(DefaultOptions(), testLogger())
	_, err := l.Load(ctx, strings.NewReader(input), censusSchema())
	assert.ErrorIs(t, err, context.Canceled)
}

// Package loader parses delimited tabular sources into the input record
// format. Rows missing a required field are discarded and counted, never
// silently altered.
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/errors"
	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/models"
)

// Options configures CSV parsing.
type Options struct {
	Delimiter rune
	// MissingMarkers are values treated as absent in addition to the empty
	// string (census exports commonly use "?").
	MissingMarkers []string
}

// DefaultOptions returns the default CSV options.
func DefaultOptions() Options {
	return Options{Delimiter: ',', MissingMarkers: []string{"?"}}
}

// Loader reads delimited files into datasets.
type Loader struct {
	options Options
	logger  *logrus.Logger
}

// NewLoader creates a CSV loader.
func NewLoader(options Options, logger *logrus.Logger) *Loader {
	if options.Delimiter == 0 {
		options.Delimiter = ','
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Loader{options: options, logger: logger}
}

// LoadFile reads a CSV file into a dataset.
func (l *Loader) LoadFile(ctx context.Context, path string, schema *models.Schema) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeValidation,
			errors.CodeInvalidInput, fmt.Sprintf("cannot open %s", path))
	}
	defer f.Close()
	return l.Load(ctx, f, schema)
}

// Load reads CSV data into a dataset. The first row is the header. A row is
// dropped when any quasi-identifier or sensitive column is missing, or when a
// numeric quasi-identifier does not parse as an integer. OriginalID is the
// zero-based position of the row in the source, counted over kept and dropped
// rows alike, so it stays a stable join-back key to the input.
func (l *Loader) Load(ctx context.Context, r io.Reader, schema *models.Schema) (*models.Dataset, error) {
	reader := csv.NewReader(r)
	reader.Comma = l.options.Delimiter
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeValidation,
			errors.CodeInvalidInput, "cannot read CSV header")
	}

	position := make(map[string]int, len(header))
	for i, col := range header {
		position[col] = i
	}
	for _, col := range l.requiredColumns(schema) {
		if _, ok := position[col]; !ok {
			return nil, errors.WrapError(errors.ErrMissingColumn,
				errors.ErrorTypeValidation, errors.CodeMissingField,
				fmt.Sprintf("column %q not in header", col))
		}
	}

	dataset := &models.Dataset{Schema: schema}
	if len(schema.Columns) == 0 {
		schema.Columns = header
	}

	dropped := 0
	for rowID := 0; ; rowID++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeValidation,
				errors.CodeInvalidFormat, fmt.Sprintf("row %d", rowID))
		}

		rec, ok := l.buildRecord(rowID, row, header, schema)
		if !ok {
			dropped++
			continue
		}
		dataset.Records = append(dataset.Records, rec)
	}

	l.logger.WithFields(logrus.Fields{
		"records": len(dataset.Records),
		"dropped": dropped,
	}).Info("Loaded dataset")

	return dataset, nil
}

func (l *Loader) buildRecord(rowID int, row, header []string, schema *models.Schema) (models.Record, bool) {
	rec := models.Record{
		OriginalID: rowID,
		Values:     make(map[string]string, len(header)),
		Numbers:    make(map[string]int),
	}
	for i, col := range header {
		if i < len(row) {
			rec.Values[col] = row[i]
		}
	}

	for _, col := range l.requiredColumns(schema) {
		if l.missing(rec.Values[col]) {
			return models.Record{}, false
		}
	}

	for _, qi := range schema.QuasiIdentifiers {
		if qi.Kind != models.AttributeNumeric {
			continue
		}
		v, err := strconv.Atoi(rec.Values[qi.Name])
		if err != nil {
			return models.Record{}, false
		}
		rec.Numbers[qi.Name] = v
	}
	return rec, true
}

func (l *Loader) requiredColumns(schema *models.Schema) []string {
	required := make([]string, 0, len(schema.QuasiIdentifiers)+len(schema.Sensitive))
	for _, qi := range schema.QuasiIdentifiers {
		required = append(required, qi.Name)
	}
	required = append(required, schema.Sensitive...)
	return required
}

func (l *Loader) missing(value string) bool {
	if value == "" {
		return true
	}
	for _, m := range l.options.MissingMarkers {
		if value == m {
			return true
		}
	}
	return false
}

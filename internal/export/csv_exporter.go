package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVExporter implements CSV export functionality.
type CSVExporter struct{}

// Name returns the exporter name.
func (ce *CSVExporter) Name() string {
	return "csv"
}

// Export writes the anonymized table as CSV.
func (ce *CSVExporter) Export(ctx context.Context, writer io.Writer, table Table, options Options) error {
	csvOptions := options.CSVOptions
	if csvOptions.Delimiter == "" {
		csvOptions.Delimiter = ","
	}

	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rune(csvOptions.Delimiter[0])
	defer csvWriter.Flush()

	columns := outputColumns(table, options)

	if options.IncludeHeaders {
		if err := csvWriter.Write(columns); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, rec := range table.Records {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		row := make([]string, 0, len(columns))
		for _, col := range columns {
			switch col {
			case "group_id":
				row = append(row, strconv.Itoa(rec.GroupID))
			case "original_id":
				row = append(row, strconv.Itoa(rec.OriginalID))
			case "group_color":
				row = append(row, GroupColor(rec.GroupID))
			default:
				row = append(row, rec.Values[col])
			}
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// ValidateOptions validates CSV export options.
func (ce *CSVExporter) ValidateOptions(options Options) error {
	if options.CSVOptions.Delimiter != "" && len(options.CSVOptions.Delimiter) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character")
	}
	return nil
}

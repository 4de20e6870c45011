package export

import (
	"context"
	"encoding/json"
	"io"

	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/models"
)

// JSONExporter implements JSON export functionality.
type JSONExporter struct{}

// Name returns the exporter name.
func (je *JSONExporter) Name() string {
	return "json"
}

type jsonRow struct {
	GroupID    int               `json:"group_id"`
	OriginalID int               `json:"original_id"`
	GroupColor string            `json:"group_color,omitempty"`
	Values     map[string]string `json:"values"`
}

// Export writes the anonymized table as a JSON array, or as one object per
// line when StreamLines is set.
func (je *JSONExporter) Export(ctx context.Context, writer io.Writer, table Table, options Options) error {
	encoder := json.NewEncoder(writer)
	if options.JSONOptions.Pretty {
		encoder.SetIndent("", "  ")
	}

	if options.JSONOptions.StreamLines {
		for _, rec := range table.Records {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err := encoder.Encode(je.row(rec, options)); err != nil {
				return err
			}
		}
		return nil
	}

	rows := make([]jsonRow, 0, len(table.Records))
	for _, rec := range table.Records {
		rows = append(rows, je.row(rec, options))
	}
	return encoder.Encode(rows)
}

func (je *JSONExporter) row(rec models.AnonymizedRecord, options Options) jsonRow {
	row := jsonRow{
		GroupID:    rec.GroupID,
		OriginalID: rec.OriginalID,
		Values:     rec.Values,
	}
	if options.GroupColor {
		row.GroupColor = GroupColor(rec.GroupID)
	}
	return row
}

// ValidateOptions validates JSON export options.
func (je *JSONExporter) ValidateOptions(options Options) error {
	return nil
}

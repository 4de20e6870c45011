package models

import (
	"fmt"

	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/errors"
)

// AttributeKind describes how a quasi-identifier column is generalized.
type AttributeKind string

const (
	// AttributeNumeric columns are generalized by interval bisection.
	AttributeNumeric AttributeKind = "numeric"
	// AttributeCategorical columns are generalized by climbing a hierarchy.
	AttributeCategorical AttributeKind = "categorical"
)

// QuasiIdentifier declares one generalizable column. Declaration order is
// significant: it is the tie-break order when cut dimensions have equal width.
type QuasiIdentifier struct {
	Name string        `json:"name"`
	Kind AttributeKind `json:"kind"`
}

// Schema describes the columns of a dataset: which are quasi-identifiers,
// which are sensitive, and the full column order for output.
type Schema struct {
	Columns          []string          `json:"columns"`
	QuasiIdentifiers []QuasiIdentifier `json:"quasi_identifiers"`
	Sensitive        []string          `json:"sensitive"`
}

// QIKind returns the declared kind of a quasi-identifier column.
func (s *Schema) QIKind(name string) (AttributeKind, bool) {
	for _, qi := range s.QuasiIdentifiers {
		if qi.Name == name {
			return qi.Kind, true
		}
	}
	return "", false
}

// IsQuasiIdentifier reports whether the column is subject to generalization.
func (s *Schema) IsQuasiIdentifier(name string) bool {
	_, ok := s.QIKind(name)
	return ok
}

// IsSensitive reports whether the column is a sensitive attribute. Sensitive
// columns are excluded from generalization and from cut selection.
func (s *Schema) IsSensitive(name string) bool {
	for _, sa := range s.Sensitive {
		if sa == name {
			return true
		}
	}
	return false
}

// Validate checks structural consistency of the schema.
func (s *Schema) Validate() error {
	if len(s.QuasiIdentifiers) == 0 {
		return errors.ErrNoQuasiIdentifiers
	}
	seen := make(map[string]bool, len(s.QuasiIdentifiers))
	for _, qi := range s.QuasiIdentifiers {
		if qi.Kind != AttributeNumeric && qi.Kind != AttributeCategorical {
			return fmt.Errorf("quasi-identifier %q has unknown kind %q", qi.Name, qi.Kind)
		}
		if seen[qi.Name] {
			return fmt.Errorf("quasi-identifier %q declared twice", qi.Name)
		}
		seen[qi.Name] = true
		if s.IsSensitive(qi.Name) {
			return fmt.Errorf("column %q declared both quasi-identifier and sensitive", qi.Name)
		}
	}
	return nil
}

// Record is one input row. Values holds the raw string value of every column;
// Numbers holds the parsed value of each numeric quasi-identifier column.
// Records are immutable after load.
type Record struct {
	OriginalID int               `json:"original_id"`
	Values     map[string]string `json:"values"`
	Numbers    map[string]int    `json:"numbers,omitempty"`
}

// Dataset is the full ordered collection of records. The partitioning engine
// references records by index and never copies or mutates them.
type Dataset struct {
	Schema  *Schema  `json:"schema"`
	Records []Record `json:"records"`
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// AnonymizedRecord is one output row: quasi-identifier columns replaced by the
// owning group's generalized labels, all other columns copied verbatim, tagged
// with a dense zero-based group identifier and the original row identifier.
type AnonymizedRecord struct {
	OriginalID int               `json:"original_id"`
	GroupID    int               `json:"group_id"`
	Values     map[string]string `json:"values"`
}

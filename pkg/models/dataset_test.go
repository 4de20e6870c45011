package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/errors"
)

func validSchema() *Schema {
	return &Schema{
		Columns: []string{"age", "gender", "income"},
		QuasiIdentifiers: []QuasiIdentifier{
			{Name: "age", Kind: AttributeNumeric},
			{Name: "gender", Kind: AttributeCategorical},
		},
		Sensitive: []string{"income"},
	}
}

func TestSchemaValidate(t *testing.T) {
	assert.NoError(t, validSchema().Validate())
}

func TestSchemaValidateNoQuasiIdentifiers(t *testing.T) {
	s := validSchema()
	s.QuasiIdentifiers = nil
	assert.ErrorIs(t, s.Validate(), errors.ErrNoQuasiIdentifiers)
}

func TestSchemaValidateUnknownKind(t *testing.T) {
	s := validSchema()
	s.QuasiIdentifiers = append(s.QuasiIdentifiers, QuasiIdentifier{Name: "zip", Kind: "ordinal"})
	assert.Error(t, s.Validate())
}

func TestSchemaValidateDuplicateQuasiIdentifier(t *testing.T) {
	s := validSchema()
	s.QuasiIdentifiers = append(s.QuasiIdentifiers, QuasiIdentifier{Name: "age", Kind: AttributeNumeric})
	assert.Error(t, s.Validate())
}

func TestSchemaValidateQuasiIdentifierAlsoSensitive(t *testing.T) {
	s := validSchema()
	s.Sensitive = append(s.Sensitive, "age")
	assert.Error(t, s.Validate())
}

func TestSchemaColumnQueries(t *testing.T) {
	s := validSchema()

	kind, ok := s.QIKind("age")
	assert.True(t, ok)
	assert.Equal(t, AttributeNumeric, kind)

	_, ok = s.QIKind("income")
	assert.False(t, ok)

	assert.True(t, s.IsQuasiIdentifier("gender"))
	assert.False(t, s.IsQuasiIdentifier("income"))
	assert.True(t, s.IsSensitive("income"))
	assert.False(t, s.IsSensitive("age"))
}

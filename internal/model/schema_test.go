package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchemaIsValid(t *testing.T) {
	schema := DefaultSchema()
	require.NoError(t, schema.Validate())
	assert.Len(t, schema.Rules, 3)
	assert.Equal(t, AllowExtras, schema.ExtraFields)
}

func TestSchemaKnown(t *testing.T) {
	schema := DefaultSchema()
	assert.True(t, schema.Known(FieldAmbientTemp))
	assert.True(t, schema.Known(FieldMachineID))
	assert.True(t, schema.Known(FieldWarning))
	assert.True(t, schema.Known(FieldProcessedAt))
	assert.False(t, schema.Known("Humidity"))
}

func TestSchemaValidateRejectsBadSpecs(t *testing.T) {
	cases := map[string]SchemaSpec{
		"empty field name": {Rules: []FieldRule{{Name: "", Type: TypeFloat}}},
		"duplicate field": {Rules: []FieldRule{
			{Name: "Fan", Type: TypeInt, Min: 0, Max: 1},
			{Name: "Fan", Type: TypeInt, Min: 0, Max: 1},
		}},
		"unknown type":   {Rules: []FieldRule{{Name: "Fan", Type: "complex"}}},
		"inverted range": {Rules: []FieldRule{{Name: "Fan", Type: TypeInt, Min: 10, Max: 1}}},
		"unknown policy": {ExtraFields: "quarantine"},
	}
	for name, spec := range cases {
		assert.Error(t, spec.Validate(), name)
	}
}

func TestReadingAccessors(t *testing.T) {
	r := Reading{
		FieldMachineID: "m1",
		FieldWarning:   true,
		FieldBrand:     "NordicFrost",
	}
	assert.Equal(t, "m1", r.MachineID())
	assert.True(t, r.Warning())
	assert.Equal(t, "NordicFrost", r.Brand())
	assert.True(t, r.ProcessedAt().IsZero())

	clone := r.Clone()
	clone[FieldBrand] = "other"
	assert.Equal(t, "NordicFrost", r.Brand(), "clone must not share storage")
}

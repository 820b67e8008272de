package model

import "fmt"

// FieldType is the expected dynamic type of a schema field.
type FieldType string

// Supported field types.
const (
	TypeFloat  FieldType = "float"
	TypeInt    FieldType = "int"
	TypeString FieldType = "string"
)

// FieldRule declares the constraint for one required reading field:
// expected type plus an inclusive numeric range.
type FieldRule struct {
	Name string    `json:"name" mapstructure:"name"`
	Type FieldType `json:"type" mapstructure:"type"`
	Min  float64   `json:"min" mapstructure:"min"`
	Max  float64   `json:"max" mapstructure:"max"`
}

// ExtraFieldPolicy controls how fields outside the schema are treated.
type ExtraFieldPolicy string

// Extra-field policies. AllowExtras is the default: unknown fields are
// never examined or flagged. RejectExtras flags them like any violation.
const (
	AllowExtras  ExtraFieldPolicy = "allow"
	RejectExtras ExtraFieldPolicy = "reject"
)

// SchemaSpec is the ordered set of field rules Validate checks a reading
// against. Construct once; read-only for the pipeline's lifetime.
type SchemaSpec struct {
	Rules       []FieldRule      `json:"rules" mapstructure:"rules"`
	ExtraFields ExtraFieldPolicy `json:"extraFields" mapstructure:"extraFields"`
}

// DefaultSchema returns the thermal/fan telemetry schema.
func DefaultSchema() SchemaSpec {
	return SchemaSpec{
		Rules: []FieldRule{
			{Name: FieldAmbientTemp, Type: TypeFloat, Min: 10, Max: 40},
			{Name: FieldFan, Type: TypeInt, Min: 500, Max: 3000},
			{Name: FieldCpuTemp, Type: TypeFloat, Min: 20, Max: 85},
		},
		ExtraFields: AllowExtras,
	}
}

// Known returns whether the field name is declared by the schema or is one
// of the identifier/pipeline fields.
func (s SchemaSpec) Known(field string) bool {
	switch field {
	case FieldMachineID, FieldWarning, FieldBrand, FieldProcessedAt:
		return true
	}
	for _, r := range s.Rules {
		if r.Name == field {
			return true
		}
	}
	return false
}

// Validate checks the spec itself is usable.
func (s SchemaSpec) Validate() error {
	seen := make(map[string]bool, len(s.Rules))
	for _, r := range s.Rules {
		if r.Name == "" {
			return fmt.Errorf("schema: rule with empty field name")
		}
		if seen[r.Name] {
			return fmt.Errorf("schema: duplicate rule for field %q", r.Name)
		}
		seen[r.Name] = true
		switch r.Type {
		case TypeFloat, TypeInt, TypeString:
		default:
			return fmt.Errorf("schema: field %q has unknown type %q", r.Name, r.Type)
		}
		if r.Type != TypeString && r.Min > r.Max {
			return fmt.Errorf("schema: field %q has min %v > max %v", r.Name, r.Min, r.Max)
		}
	}
	switch s.ExtraFields {
	case "", AllowExtras, RejectExtras:
	default:
		return fmt.Errorf("schema: unknown extra-field policy %q", s.ExtraFields)
	}
	return nil
}

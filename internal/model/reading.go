package model

import "time"

// Reading is a schema-agnostic map holding one telemetry sample.
// Fields beyond the declared schema pass through the pipeline untouched.
type Reading map[string]interface{}

// Well-known reading fields.
const (
	FieldAmbientTemp = "AmbientTemp"
	FieldFan         = "Fan"
	FieldCpuTemp     = "CpuTemp"
	FieldMachineID   = "MachineId"

	// Fields added by the pipeline stages.
	FieldWarning     = "warning"      // set by Validate
	FieldBrand       = "brand"        // set by Enrich
	FieldProcessedAt = "processed_at" // set by Persist
)

// Clone returns a shallow copy of the reading. Stages augment copies so a
// failed chain never leaves a half-mutated reading behind.
func (r Reading) Clone() Reading {
	out := make(Reading, len(r)+3)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// MachineID returns the reading's machine identifier, or "" if absent.
func (r Reading) MachineID() string {
	id, _ := r[FieldMachineID].(string)
	return id
}

// Warning reports whether the reading was flagged by Validate.
func (r Reading) Warning() bool {
	w, _ := r[FieldWarning].(bool)
	return w
}

// Brand returns the brand set by Enrich, or "" if absent.
func (r Reading) Brand() string {
	b, _ := r[FieldBrand].(string)
	return b
}

// ProcessedAt returns the timestamp set by Persist, or the zero time.
func (r Reading) ProcessedAt() time.Time {
	t, _ := r[FieldProcessedAt].(time.Time)
	return t
}

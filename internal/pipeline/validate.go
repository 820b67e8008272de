package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"telemetry-pipeline/internal/distribute"
	"telemetry-pipeline/internal/model"
	"telemetry-pipeline/pkg/utils"
)

// Violation describes one failed schema check on a reading.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Reason)
}

// CheckReading applies the schema to a reading and returns every violation
// found. It never rejects: violations are data for the caller to act on.
func CheckReading(r model.Reading, schema model.SchemaSpec) []Violation {
	var violations []Violation

	for _, rule := range schema.Rules {
		val, ok := r[rule.Name]
		if !ok {
			violations = append(violations, Violation{Field: rule.Name, Reason: "missing required field"})
			continue
		}

		switch rule.Type {
		case model.TypeString:
			if _, ok := val.(string); !ok {
				violations = append(violations, Violation{
					Field:  rule.Name,
					Reason: fmt.Sprintf("expected string, got %T", val),
				})
			}
			continue
		case model.TypeInt:
			if !utils.IsIntegral(val) {
				violations = append(violations, Violation{
					Field:  rule.Name,
					Reason: fmt.Sprintf("expected integer, got %v (%T)", val, val),
				})
				continue
			}
		case model.TypeFloat:
			if _, ok := utils.Numeric(val); !ok {
				violations = append(violations, Violation{
					Field:  rule.Name,
					Reason: fmt.Sprintf("expected float, got %T", val),
				})
				continue
			}
		}

		// Inclusive range check for the numeric types.
		num, _ := utils.Numeric(val)
		if num < rule.Min || num > rule.Max {
			violations = append(violations, Violation{
				Field:  rule.Name,
				Reason: fmt.Sprintf("value %v outside range [%v, %v]", val, rule.Min, rule.Max),
			})
		}
	}

	if schema.ExtraFields == model.RejectExtras {
		for field := range r {
			if !schema.Known(field) {
				violations = append(violations, Violation{Field: field, Reason: "field not in schema"})
			}
		}
	}

	return violations
}

// NewValidateStage builds the validate stage: check every schema rule, set
// the warning flag, log the violated constraints. Constraint failures are
// captured as data, never as an error — the reading always continues
// downstream.
func NewValidateStage(schema model.SchemaSpec, logger zerolog.Logger) distribute.StageFunc {
	log := logger.With().Str("stage", StageValidate).Logger()

	return func(_ context.Context, r model.Reading) (model.Reading, error) {
		violations := CheckReading(r, schema)

		out := r.Clone()
		out[model.FieldWarning] = len(violations) > 0

		if len(violations) > 0 {
			reasons := make([]string, len(violations))
			for i, v := range violations {
				reasons[i] = v.String()
			}
			log.Warn().
				Str("machine_id", r.MachineID()).
				Strs("violations", reasons).
				Msg("reading failed schema checks")
		}
		return out, nil
	}
}

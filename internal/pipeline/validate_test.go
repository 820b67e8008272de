package pipeline

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telemetry-pipeline/internal/model"
)

func validReading() model.Reading {
	return model.Reading{
		model.FieldMachineID:   "m1",
		model.FieldAmbientTemp: 25.0,
		model.FieldFan:         1500,
		model.FieldCpuTemp:     40.0,
	}
}

func TestValidateStagePassesCleanReading(t *testing.T) {
	stage := NewValidateStage(model.DefaultSchema(), zerolog.Nop())

	out, err := stage(context.Background(), validReading())
	require.NoError(t, err)
	assert.False(t, out.Warning())
}

func TestValidateStageFlagsOutOfRange(t *testing.T) {
	stage := NewValidateStage(model.DefaultSchema(), zerolog.Nop())

	r := validReading()
	r[model.FieldAmbientTemp] = 50.0 // exceeds max 40

	out, err := stage(context.Background(), r)
	require.NoError(t, err, "constraint failures are data, not errors")
	assert.True(t, out.Warning())
}

func TestValidateStageFlagsMissingField(t *testing.T) {
	stage := NewValidateStage(model.DefaultSchema(), zerolog.Nop())

	r := validReading()
	delete(r, model.FieldFan)

	out, err := stage(context.Background(), r)
	require.NoError(t, err)
	assert.True(t, out.Warning())
}

func TestValidateStageFlagsWrongType(t *testing.T) {
	stage := NewValidateStage(model.DefaultSchema(), zerolog.Nop())

	r := validReading()
	r[model.FieldCpuTemp] = "hot"

	out, err := stage(context.Background(), r)
	require.NoError(t, err)
	assert.True(t, out.Warning())
}

func TestValidateStageDoesNotMutateInput(t *testing.T) {
	stage := NewValidateStage(model.DefaultSchema(), zerolog.Nop())

	r := validReading()
	_, err := stage(context.Background(), r)
	require.NoError(t, err)
	_, tainted := r[model.FieldWarning]
	assert.False(t, tainted, "stage augments a copy, not the input")
}

func TestCheckReading(t *testing.T) {
	schema := model.DefaultSchema()

	assert.Empty(t, CheckReading(validReading(), schema))

	r := validReading()
	r[model.FieldFan] = 100 // below min 500
	violations := CheckReading(r, schema)
	require.Len(t, violations, 1)
	assert.Equal(t, model.FieldFan, violations[0].Field)
}

func TestCheckReadingAcceptsIntegralFloats(t *testing.T) {
	// Readings that crossed the wire carry JSON numbers: every value is a
	// float64, including the fan speed.
	r := model.Reading{
		model.FieldMachineID:   "m1",
		model.FieldAmbientTemp: 25.0,
		model.FieldFan:         1500.0,
		model.FieldCpuTemp:     40.0,
	}
	assert.Empty(t, CheckReading(r, model.DefaultSchema()))
}

func TestCheckReadingExtraFieldPolicies(t *testing.T) {
	r := validReading()
	r["rack"] = "b12"

	allow := model.DefaultSchema()
	assert.Empty(t, CheckReading(r, allow), "extra fields are never examined by default")

	reject := model.DefaultSchema()
	reject.ExtraFields = model.RejectExtras
	violations := CheckReading(r, reject)
	require.Len(t, violations, 1)
	assert.Equal(t, "rack", violations[0].Field)
}

func TestCheckReadingRangeIsInclusive(t *testing.T) {
	schema := model.DefaultSchema()

	r := validReading()
	r[model.FieldAmbientTemp] = 40.0 // exactly max
	r[model.FieldFan] = 500          // exactly min
	assert.Empty(t, CheckReading(r, schema))
}

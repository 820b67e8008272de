package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telemetry-pipeline/internal/model"
)

func inRange(t *testing.T, r model.Reading, rule model.FieldRule) bool {
	t.Helper()
	switch rule.Type {
	case model.TypeInt:
		v, ok := r[rule.Name].(int)
		require.True(t, ok, "field %s", rule.Name)
		return float64(v) >= rule.Min && float64(v) <= rule.Max
	default:
		v, ok := r[rule.Name].(float64)
		require.True(t, ok, "field %s", rule.Name)
		return v >= rule.Min && v <= rule.Max
	}
}

func TestSyntheticReadingsAreWellFormed(t *testing.T) {
	gen := NewSynthetic([]string{"m1", "m2"}, 0, 0, 1)
	schema := model.DefaultSchema()

	for i := 0; i < 50; i++ {
		r := gen.Generate()
		assert.Contains(t, []string{"m1", "m2"}, r.MachineID())
		for _, rule := range schema.Rules {
			assert.True(t, inRange(t, r, rule),
				"with zero fault ratios field %s stays in range", rule.Name)
		}
	}
}

func TestSyntheticInjectsOutOfRangeValues(t *testing.T) {
	gen := NewSynthetic([]string{"m1"}, 1, 0, 1)
	schema := model.DefaultSchema()

	// Injected values sit strictly past the inclusive max, so with ratio 1
	// every single reading must carry exactly one real violation.
	for i := 0; i < 200; i++ {
		r := gen.Generate()
		violations := 0
		for _, rule := range schema.Rules {
			if !inRange(t, r, rule) {
				violations++
			}
		}
		assert.Equal(t, 1, violations, "reading %d", i)
	}
}

func TestSyntheticInjectsUnknownMachines(t *testing.T) {
	gen := NewSynthetic([]string{"m1"}, 0, 1, 1)

	r := gen.Generate()
	assert.NotEqual(t, "m1", r.MachineID())
	assert.Contains(t, r.MachineID(), "unknown-")
}

func TestSyntheticIsDeterministicPerSeed(t *testing.T) {
	a := NewSynthetic([]string{"m1", "m2"}, 0.5, 0, 42)
	b := NewSynthetic([]string{"m1", "m2"}, 0.5, 0, 42)

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Generate(), b.Generate())
	}
}

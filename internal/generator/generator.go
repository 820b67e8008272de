// Package generator produces synthetic telemetry readings. The pipeline
// treats the generator as an external collaborator; anything implementing
// Generator can feed the producer loop.
package generator

import (
	"math/rand"

	"github.com/google/uuid"

	"telemetry-pipeline/internal/model"
)

// Generator produces one reading on demand.
type Generator interface {
	Generate() model.Reading
}

// Synthetic emits thermal/fan readings for a fixed set of machines. A
// fraction of readings carries an out-of-range value so the validate stage
// has something to flag, and a fraction carries an unknown machine id so
// the dead-letter path gets exercised.
type Synthetic struct {
	machineIDs   []string
	outOfRange   float64 // probability of one out-of-range field
	unknownRatio float64 // probability of a machine id outside the directory
	rng          *rand.Rand
}

// NewSynthetic creates a generator over the given machine ids. Seed fixes
// the sequence for reproducible runs.
func NewSynthetic(machineIDs []string, outOfRange, unknownRatio float64, seed int64) *Synthetic {
	return &Synthetic{
		machineIDs:   machineIDs,
		outOfRange:   outOfRange,
		unknownRatio: unknownRatio,
		rng:          rand.New(rand.NewSource(seed)),
	}
}

// Generate returns one synthetic reading.
func (g *Synthetic) Generate() model.Reading {
	id := "unknown-" + uuid.New().String()[:8]
	if len(g.machineIDs) > 0 && g.rng.Float64() >= g.unknownRatio {
		id = g.machineIDs[g.rng.Intn(len(g.machineIDs))]
	}

	r := model.Reading{
		model.FieldMachineID:   id,
		model.FieldAmbientTemp: 10 + g.rng.Float64()*30, // 10..40
		model.FieldFan:         500 + g.rng.Intn(2501),  // 500..3000
		model.FieldCpuTemp:     20 + g.rng.Float64()*65, // 20..85
	}

	// Injected values start strictly past the max; the ranges are inclusive,
	// so landing on the boundary would not register as a fault.
	if g.rng.Float64() < g.outOfRange {
		switch g.rng.Intn(3) {
		case 0:
			r[model.FieldAmbientTemp] = 40.5 + g.rng.Float64()*20
		case 1:
			r[model.FieldFan] = 3001 + g.rng.Intn(2000)
		default:
			r[model.FieldCpuTemp] = 85.5 + g.rng.Float64()*20
		}
	}
	return r
}

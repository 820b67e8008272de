package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"telemetry-pipeline/internal/directory"
	"telemetry-pipeline/internal/distribute"
	"telemetry-pipeline/internal/model"
)

// NewEnrichStage builds the enrich stage: resolve the reading's machine id
// against the directory and attach the brand. An unknown id fails this
// item's chain — there is no fallback brand; the failure surfaces at
// Collect time and is routed to the dead-letter path.
func NewEnrichStage(dir *directory.Directory, logger zerolog.Logger) distribute.StageFunc {
	log := logger.With().Str("stage", StageEnrich).Logger()

	return func(_ context.Context, r model.Reading) (model.Reading, error) {
		brand, err := dir.Lookup(r.MachineID())
		if err != nil {
			log.Debug().Str("machine_id", r.MachineID()).Msg("directory lookup failed")
			return nil, err
		}

		out := r.Clone()
		out[model.FieldBrand] = brand
		return out, nil
	}
}

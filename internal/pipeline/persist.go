package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telemetry-pipeline/internal/distribute"
	"telemetry-pipeline/internal/model"
	"telemetry-pipeline/internal/store"
)

// NewPersistStage builds the persist stage: stamp processed_at and append
// the reading to the store. A write failure fails only this item's chain.
func NewPersistStage(st *store.Store, logger zerolog.Logger) distribute.StageFunc {
	log := logger.With().Str("stage", StagePersist).Logger()

	return func(ctx context.Context, r model.Reading) (model.Reading, error) {
		out := r.Clone()
		out[model.FieldProcessedAt] = time.Now().UTC()

		if err := st.InsertReading(ctx, out); err != nil {
			log.Error().Err(err).Str("machine_id", r.MachineID()).Msg("persist failed")
			return nil, err
		}
		return out, nil
	}
}

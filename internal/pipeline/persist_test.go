package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telemetry-pipeline/internal/model"
	"telemetry-pipeline/internal/store"
)

func TestPersistStageStampsAndInserts(t *testing.T) {
	st, err := store.Open(":memory:", model.DefaultSchema())
	require.NoError(t, err)
	defer st.Close()

	stage := NewPersistStage(st, zerolog.Nop())
	ctx := context.Background()

	before := time.Now().UTC()
	out, err := stage(ctx, validReading())
	require.NoError(t, err)

	assert.False(t, out.ProcessedAt().Before(before), "processed_at is stamped at invocation time or later")

	n, err := st.CountReadings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPersistStageEachCallAppendsOneRow(t *testing.T) {
	st, err := store.Open(":memory:", model.DefaultSchema())
	require.NoError(t, err)
	defer st.Close()

	stage := NewPersistStage(st, zerolog.Nop())
	ctx := context.Background()

	first, err := stage(ctx, validReading())
	require.NoError(t, err)
	second, err := stage(ctx, validReading())
	require.NoError(t, err)

	// Same logical reading, two distinct rows and two distinct stamps.
	n, err := st.CountReadings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, second.ProcessedAt().Before(first.ProcessedAt()))
}

func TestPersistStageFailsChainOnWriteError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectExec("INSERT INTO readings").WillReturnError(assert.AnError)

	stage := NewPersistStage(store.NewWithDB(db, model.DefaultSchema()), zerolog.Nop())

	out, err := stage(context.Background(), validReading())
	require.Error(t, err)
	assert.Nil(t, out)
}

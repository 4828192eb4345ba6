package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/market-views/constants"
	"github.com/joseph-ayodele/market-views/internal/common"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{DSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestOpen_SQLite(t *testing.T) {
	db := openTestDB(t)
	assert.Equal(t, "sqlite3", db.Dialect)
	require.NoError(t, db.HealthCheck(context.Background(), time.Second))
	require.NoError(t, db.Migrate(context.Background()), "migrations are repeatable")
}

func TestRunRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(openTestDB(t), nil)

	run, err := repo.Start(ctx, "report.pdf", "abc123", false)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusRunning, run.Status)

	got, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", got.SourceDocument)
	assert.Equal(t, "abc123", got.ContentHash)
	assert.Equal(t, constants.RunStatusRunning, got.Status)
	assert.Nil(t, got.FinishedAt)
	assert.WithinDuration(t, run.StartedAt, got.StartedAt, time.Millisecond)

	require.NoError(t, repo.Finish(ctx, run.ID, RunOutcome{
		Status:       constants.RunStatusPending,
		ErrorKind:    string(common.KindConcurrentModification),
		ErrorMessage: "gave up",
		RawResponse:  `[{"nome_gestora":"Acme"}]`,
		ViewCount:    1,
		PendingRows:  "2024-03-01,,Acme,report.pdf,,,,,\n",
	}))

	got, err = repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusPending, got.Status)
	assert.Equal(t, "CONCURRENT_MODIFICATION", got.ErrorKind)
	assert.Equal(t, 1, got.ViewCount)
	assert.Equal(t, "2024-03-01,,Acme,report.pdf,,,,,\n", got.PendingRows)
	require.NotNil(t, got.FinishedAt)

	require.NoError(t, repo.MarkResubmitted(ctx, run.ID, 1))
	got, err = repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusResubmitted, got.Status)
	assert.Equal(t, 1, got.AppendedCount)
	assert.Empty(t, got.PendingRows)
	assert.Empty(t, got.ErrorKind)

	err = repo.MarkResubmitted(ctx, run.ID, 1)
	assert.ErrorIs(t, err, common.ErrNotFound, "only pending runs can be resubmitted")
}

func TestRunRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(openTestDB(t), nil).(*runRepository)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	step := 0
	repo.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}

	statuses := []constants.RunStatus{constants.RunStatusOK, constants.RunStatusPending, constants.RunStatusFailed, constants.RunStatusPending}
	ids := make([]uuid.UUID, len(statuses))
	for i, st := range statuses {
		run, err := repo.Start(ctx, fmt.Sprintf("r%d.pdf", i), "", i == 0)
		require.NoError(t, err)
		require.NoError(t, repo.Finish(ctx, run.ID, RunOutcome{Status: st}))
		ids[i] = run.ID
	}

	all, err := repo.List(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, ids[3], all[0].ID, "newest first")
	assert.Equal(t, ids[0], all[3].ID)
	assert.True(t, all[3].DryRun)

	pending, err := repo.List(ctx, RunFilter{Status: constants.RunStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, ids[3], pending[0].ID)
	assert.Equal(t, ids[1], pending[1].ID)

	limited, err := repo.List(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRunRepository_Missing(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(openTestDB(t), nil)

	_, err := repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = repo.Finish(ctx, uuid.New(), RunOutcome{Status: constants.RunStatusOK})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

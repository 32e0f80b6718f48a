package pgdb

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/DRSN-tech/imgcluster/db"
	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/DRSN-tech/imgcluster/pkg/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepo подключается к базе из POSTGRES_TEST_DSN; без него тест пропускается.
func newTestRepo(t *testing.T) *JobRepo {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN is not set")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	database := postgres.NewPgDatabase(pool, nil, dsn)
	require.NoError(t, database.RunMigrations(logger.NewNopLogger(), db.Migrations, db.MigrationsDir))

	return NewJobRepo(pool, converter.NewJobConverter())
}

func TestJobRepo_Lifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	id := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Microsecond)

	job := domain.NewJob(id, 3, now)
	require.NoError(t, repo.Create(ctx, job))
	assert.ErrorIs(t, repo.Create(ctx, job), e.ErrJobExists)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.JobRunning, got.Status)

	job.Complete(&domain.Outcome{
		Result: domain.ClusterResult{
			OrderedGroupNames: []string{"Group 1", "Group 2"},
			GroupContents:     map[string][]string{"Group 1": {"a", "b"}, "Group 2": {"c"}},
		},
		Centroids: domain.Centroids{"Group 1": {1, 2}, "Group 2": {3, 4}},
		Report:    domain.ClusterReport{K: 2, Images: 3},
	}, domain.IndexSync{State: domain.IndexSynced}, now)
	require.NoError(t, repo.Finish(ctx, job))

	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.JobDone, got.Status)
	assert.Equal(t, job.Result, got.Result)
	assert.Equal(t, job.Centroids, got.Centroids)

	job.Fail(errors.New("late"), now)
	assert.ErrorIs(t, repo.Finish(ctx, job), e.ErrJobAlreadyFinished)
}

func TestJobRepo_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, e.ErrJobNotFound)

	job := domain.NewJob(uuid.NewString(), 1, time.Now())
	job.Fail(errors.New("x"), time.Now())
	assert.ErrorIs(t, repo.Finish(context.Background(), job), e.ErrJobNotFound)
}

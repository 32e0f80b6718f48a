package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/DRSN-tech/imgcluster/internal/cfg"
	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/internal/repository/redis/converter"
	"github.com/DRSN-tech/imgcluster/pkg/clients"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepo подключается к Redis из REDIS_TEST_ADDR; без него тест пропускается.
func newTestRepo(t *testing.T) *JobRepo {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR is not set")
	}

	client, err := clients.ConnectRedis(context.Background(), &cfg.RedisCfg{
		Addr:        addr,
		DialTimeout: time.Second,
		Timeout:     time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewJobRepo(client, converter.NewJobConverter(), &cfg.JobsCfg{TTL: time.Minute}, logger.NewNopLogger())
}

func TestJobRepo_Lifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	id := uuid.NewString()

	job := domain.NewJob(id, 2, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, job))
	assert.ErrorIs(t, repo.Create(ctx, job), e.ErrJobExists)

	ttl, err := repo.client.Client.TTL(ctx, repo.jobKey(id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	job.Complete(&domain.Outcome{
		Result: domain.ClusterResult{
			OrderedGroupNames: []string{"Group 1"},
			GroupContents:     map[string][]string{"Group 1": {"a", "b"}},
		},
		Centroids: domain.Centroids{"Group 1": {1, 2}},
		Report:    domain.ClusterReport{K: 1, Images: 2},
	}, domain.IndexSync{State: domain.IndexSynced}, time.Now().UTC())
	require.NoError(t, repo.Finish(ctx, job))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.JobDone, got.Status)
	assert.Equal(t, []string{"a", "b"}, got.Result.GroupContents["Group 1"])

	ttl, err = repo.client.Client.TTL(ctx, repo.jobKey(id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "finish keeps the ttl")

	job.Fail(errors.New("late"), time.Now())
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

package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doneOutcome() *domain.Outcome {
	return &domain.Outcome{
		Result: domain.ClusterResult{
			OrderedGroupNames: []string{"Group 1"},
			GroupContents:     map[string][]string{"Group 1": {"a.jpg", "b.jpg"}},
		},
		Centroids: domain.Centroids{"Group 1": {1, 2}},
		Report:    domain.ClusterReport{K: 1, Images: 2},
	}
}

func TestJobRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepo()
	now := time.Now().UTC()

	job := domain.NewJob("j1", 2, now)
	require.NoError(t, repo.Create(ctx, job))
	assert.ErrorIs(t, repo.Create(ctx, job), e.ErrJobExists)

	got, err := repo.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobRunning, got.Status)
	assert.Nil(t, got.Result)

	job.Complete(doneOutcome(), domain.IndexSync{State: domain.IndexSynced}, now)
	require.NoError(t, repo.Finish(ctx, job))

	got, err = repo.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobDone, got.Status)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, got.Result.GroupContents["Group 1"])

	job.Fail(errors.New("late"), now)
	assert.ErrorIs(t, repo.Finish(ctx, job), e.ErrJobAlreadyFinished)
}

func TestJobRepo_NotFound(t *testing.T) {
	repo := NewJobRepo()

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, e.ErrJobNotFound)

	job := domain.NewJob("missing", 1, time.Now())
	job.Fail(errors.New("x"), time.Now())
	assert.ErrorIs(t, repo.Finish(context.Background(), job), e.ErrJobNotFound)
}

func TestJobRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepo()
	job := domain.NewJob("j1", 2, time.Now())
	require.NoError(t, repo.Create(ctx, job))
	job.Complete(doneOutcome(), domain.IndexSync{State: domain.IndexSynced}, time.Now())
	require.NoError(t, repo.Finish(ctx, job))

	got, err := repo.Get(ctx, "j1")
	require.NoError(t, err)
	got.Result.GroupContents["Group 1"][0] = "mutated"
	got.Centroids["Group 1"][0] = 100

	again, err := repo.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", again.Result.GroupContents["Group 1"][0])
	assert.Equal(t, 1.0, again.Centroids["Group 1"][0])
}

func TestJobRepo_FinishExactlyOnceUnderRace(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepo()
	require.NoError(t, repo.Create(ctx, domain.NewJob("j1", 1, time.Now())))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job := domain.NewJob("j1", 1, time.Now())
			job.Fail(errors.New("boom"), time.Now())
			if repo.Finish(ctx, job) == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

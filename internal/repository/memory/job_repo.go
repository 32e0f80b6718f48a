package memory

import (
	"context"
	"sync"

	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/pkg/e"
)

// JobRepo — реестр задач в памяти процесса. Наружу отдаются только копии.
type JobRepo struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

func NewJobRepo() *JobRepo {
	return &JobRepo{jobs: make(map[string]*domain.Job)}
}

func (r *JobRepo) Create(_ context.Context, job *domain.Job) error {
	const op = "JobRepo.Create"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; ok {
		return e.Wrap(op, e.ErrJobExists)
	}
	r.jobs[job.ID] = job.Clone()

	return nil
}

func (r *JobRepo) Get(_ context.Context, id string) (*domain.Job, error) {
	const op = "JobRepo.Get"

	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, e.Wrap(op, e.ErrJobNotFound)
	}

	return job.Clone(), nil
}

// Finish заменяет запись целиком под одной блокировкой: статус и результат видны одновременно.
func (r *JobRepo) Finish(_ context.Context, job *domain.Job) error {
	const op = "JobRepo.Finish"

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.jobs[job.ID]
	if !ok {
		return e.Wrap(op, e.ErrJobNotFound)
	}
	if current.Status.IsTerminal() {
		return e.Wrap(op, e.ErrJobAlreadyFinished)
	}
	r.jobs[job.ID] = job.Clone()

	return nil
}

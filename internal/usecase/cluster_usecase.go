package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/internal/features"
	"github.com/DRSN-tech/imgcluster/internal/observability"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/google/uuid"
)

// ClusterUseCase принимает батчи, запускает по одному фоновому обработчику на задачу
// и отдаёт статусы, результаты и поиск ближайшей группы.
type ClusterUseCase struct {
	jobs     JobRepository
	index    CentroidIndex
	stager   Stager
	pipeline ClusterPipeline
	events   EventPublisher
	opts     ClusterOptions
	logger   logger.Logger

	wg    sync.WaitGroup
	now   func() time.Time
	newID func() string
}

func NewClusterUC(
	jobs JobRepository,
	index CentroidIndex,
	stager Stager,
	pipeline ClusterPipeline,
	events EventPublisher,
	opts ClusterOptions,
	logger logger.Logger,
) *ClusterUseCase {
	const (
		defaultIndexPushTimeout = 10 * time.Second
		defaultSearchTimeout    = 10 * time.Second
	)

	if opts.IndexPushTimeout <= 0 {
		opts.IndexPushTimeout = defaultIndexPushTimeout
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = defaultSearchTimeout
	}

	return &ClusterUseCase{
		jobs:     jobs,
		index:    index,
		stager:   stager,
		pipeline: pipeline,
		events:   events,
		opts:     opts,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Submit проверяет батч, размещает файлы, регистрирует задачу в RUNNING и сразу её возвращает.
// Обработка идёт в отдельной горутине, не привязанной к контексту запроса.
func (c *ClusterUseCase) Submit(ctx context.Context, images []UploadedImage) (*domain.Job, error) {
	const op = "ClusterUseCase.Submit"

	if err := c.validateBatch(images); err != nil {
		return nil, e.Wrap(op, err)
	}

	id := c.newID()
	sources, err := c.stager.Stage(ctx, id, images)
	if err != nil {
		c.stager.Cleanup(id)
		return nil, e.Wrap(op, err)
	}

	job := domain.NewJob(id, len(images), c.now())
	if err := c.jobs.Create(ctx, job); err != nil {
		c.stager.Cleanup(id)
		return nil, e.Wrap(op, err)
	}

	c.logger.Infof("job %s accepted: %d images", id, len(images))

	c.wg.Add(1)
	go c.process(job.Clone(), sources)

	return job, nil
}

// Status возвращает текущее состояние задачи.
func (c *ClusterUseCase) Status(ctx context.Context, id string) (*domain.Job, error) {
	const op = "ClusterUseCase.Status"

	job, err := c.jobs.Get(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return job, nil
}

// Result возвращает разбиение на группы завершённой задачи.
func (c *ClusterUseCase) Result(ctx context.Context, id string) (*domain.ClusterResult, error) {
	const op = "ClusterUseCase.Result"

	job, err := c.finished(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if job.Result == nil {
		empty := domain.NewEmptyClusterResult()
		return &empty, nil
	}

	return job.Result, nil
}

// Centroids возвращает таблицу центроидов завершённой задачи.
func (c *ClusterUseCase) Centroids(ctx context.Context, id string) (domain.Centroids, error) {
	const op = "ClusterUseCase.Centroids"

	job, err := c.finished(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if job.Centroids == nil {
		return domain.Centroids{}, nil
	}

	return job.Centroids, nil
}

// Search вычисляет вектор одиночного изображения тем же конвейером и ищет ближайшую группу.
func (c *ClusterUseCase) Search(ctx context.Context, image *UploadedImage) (string, error) {
	const op = "ClusterUseCase.Search"

	if image == nil || len(image.Data) == 0 {
		return "", e.Wrap(op, e.ErrMissingImage)
	}

	vector, err := c.pipeline.Fingerprint(ctx, features.BytesSource(image.Name, image.Data))
	if err != nil {
		return "", e.Wrap(op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.SearchTimeout)
	defer cancel()

	group, err := c.index.Nearest(ctx, vector)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, e.ErrIndexUnavailable) {
			err = fmt.Errorf("%w: %v", e.ErrIndexUnavailable, err)
		}
		return "", e.Wrap(op, err)
	}

	return group, nil
}

// Wait ожидает завершения всех запущенных задач с учётом таймаута завершения приложения.
func (c *ClusterUseCase) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("running jobs did not finish before shutdown: %w", ctx.Err())
	}
}

// process — фоновый обработчик одной задачи. Задача завершается ровно один раз,
// временные файлы освобождаются на любом пути выхода.
func (c *ClusterUseCase) process(job *domain.Job, sources []features.Source) {
	defer c.wg.Done()
	defer c.stager.Cleanup(job.ID)

	ctx, span := observability.StartJobSpan(context.Background(), job.ID, len(sources))
	defer span.End()

	outcome, err := c.run(ctx, sources)
	if err != nil {
		observability.RecordError(span, err)
		c.logger.Errorf(err, "job %s failed", job.ID)
		job.Fail(err, c.now())
	} else {
		job.Complete(outcome, c.pushIndex(ctx, job.ID, outcome), c.now())
		c.logger.Infof("job %s done: %d groups from %d images, %d skipped",
			job.ID, outcome.GroupCount(), outcome.Report.Images, len(outcome.Report.Skipped))
	}

	if err := c.jobs.Finish(ctx, job); err != nil {
		c.logger.Errorf(err, "job %s: failed to record terminal state", job.ID)
		return
	}

	if err := c.events.Publish(ctx, NewJobEvent(job)); err != nil {
		c.logger.Warnf("job %s: failed to publish event: %v", job.ID, err)
	}
}

// run запускает конвейер, превращая панику в ошибку задачи.
func (c *ClusterUseCase) run(ctx context.Context, sources []features.Source) (outcome *domain.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome, err = nil, fmt.Errorf("pipeline panic: %v", r)
		}
	}()

	return c.pipeline.Run(ctx, sources)
}

// pushIndex отправляет центроиды в индекс с ограничением по времени.
// Ошибка фиксируется в IndexSync и не меняет статус задачи.
func (c *ClusterUseCase) pushIndex(ctx context.Context, jobID string, outcome *domain.Outcome) domain.IndexSync {
	if outcome.GroupCount() == 0 {
		return domain.IndexSync{State: domain.IndexSkipped}
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.IndexPushTimeout)
	defer cancel()

	ctx, span := observability.StartStageSpan(ctx, observability.StageIndex, outcome.GroupCount())
	defer span.End()

	if err := c.index.Build(ctx, jobID, outcome.Centroids); err != nil {
		observability.RecordError(span, err)
		c.logger.Warnf("job %s: centroid index push failed: %v", jobID, err)
		return domain.IndexSync{State: domain.IndexFailed, Error: err.Error()}
	}

	return domain.IndexSync{State: domain.IndexSynced}
}

// finished возвращает задачу, только если она завершилась успешно.
func (c *ClusterUseCase) finished(ctx context.Context, id string) (*domain.Job, error) {
	job, err := c.jobs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch job.Status {
	case domain.JobRunning:
		return nil, e.ErrJobNotFinished
	case domain.JobFailed:
		return nil, fmt.Errorf("%w: %s", e.ErrJobFailed, job.Error)
	}

	return job, nil
}

func (c *ClusterUseCase) validateBatch(images []UploadedImage) error {
	if len(images) == 0 {
		return e.ErrNoImages
	}
	if c.opts.MaxImages > 0 && len(images) > c.opts.MaxImages {
		return fmt.Errorf("%w: %d > %d", e.ErrTooManyImages, len(images), c.opts.MaxImages)
	}

	seen := make(map[string]struct{}, len(images))
	for _, img := range images {
		if err := ValidateFileName(img.Name); err != nil {
			return err
		}
		if _, ok := seen[img.Name]; ok {
			return fmt.Errorf("%w: %s", e.ErrDuplicateFileName, img.Name)
		}
		seen[img.Name] = struct{}{}
	}

	return nil
}

// ValidateFileName отклоняет пустые имена и имена с компонентами пути.
func ValidateFileName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", e.ErrInvalidFileName, name)
	}

	return nil
}

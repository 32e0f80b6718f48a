package minio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/internal/features"
	"github.com/DRSN-tech/imgcluster/internal/infrastructure"
	"github.com/DRSN-tech/imgcluster/internal/usecase"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/jitter"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
)

// Options — параметры размещения загрузок в MinIO.
type Options struct {
	Bucket         string
	UploadLimit    int // одновременные загрузки
	CleanupRetries int
	CleanupTimeout time.Duration
	Backoff        *jitter.Backoff
}

// MinioInfrastructure размещает загрузки задачи в MinIO под jobs/<id>/ и удаляет их в фоне.
type MinioInfrastructure struct {
	objects     usecase.ObjectRepository
	opts        Options
	logger      logger.Logger
	shutdownCtx context.Context
	wg          sync.WaitGroup

	mu   sync.Mutex
	keys map[string][]string // jobID -> ключи объектов
}

func NewMinioInfrastructure(objects usecase.ObjectRepository, opts Options, logger logger.Logger, shutdownCtx context.Context) *MinioInfrastructure {
	const (
		defaultUploadLimit    = 8
		defaultCleanupRetries = 3
		defaultCleanupTimeout = 30 * time.Second
	)

	if opts.UploadLimit <= 0 {
		opts.UploadLimit = defaultUploadLimit
	}
	if opts.CleanupRetries <= 0 {
		opts.CleanupRetries = defaultCleanupRetries
	}
	if opts.CleanupTimeout <= 0 {
		opts.CleanupTimeout = defaultCleanupTimeout
	}
	if opts.Backoff == nil {
		opts.Backoff = jitter.NewBackoff(time.Second, 10*time.Second)
	}

	return &MinioInfrastructure{
		objects:     objects,
		opts:        opts,
		logger:      logger,
		shutdownCtx: shutdownCtx,
		keys:        make(map[string][]string),
	}
}

// Stage загружает изображения задачи параллельно с ограничением одновременных операций.
// При ошибке отменяет остальные загрузки, а уже загруженное удаляется через Cleanup.
// Источники возвращаются в порядке входа.
func (m *MinioInfrastructure) Stage(ctx context.Context, jobID string, images []usecase.UploadedImage) ([]features.Source, error) {
	const op = "MinioInfrastructure.Stage"
	// Отмена остальных загрузок при первой ошибке
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make([]string, len(images))
	errCh := make(chan error, len(images))
	sem := make(chan struct{}, m.opts.UploadLimit)

	var uploadWg sync.WaitGroup
	for i, image := range images {
		uploadWg.Add(1)
		go func() {
			defer uploadWg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			mime := infrastructure.DetectMIME(image.MimeType, image.Data)
			objKey := infrastructure.ObjectKey(jobID, image.Name, mime)
			newImage := domain.NewImage(image.Name, m.opts.Bucket, objKey, image.Data, mime)

			key, err := m.objects.Upload(ctx, newImage)
			if err != nil {
				errCh <- fmt.Errorf("upload %s failed: %w", image.Name, err)
				cancel()
				return
			}

			m.remember(jobID, key)
			keys[i] = key
		}()
	}
	uploadWg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, e.Wrap(op, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, e.Wrap(op, err)
	}

	sources := make([]features.Source, len(images))
	for i, image := range images {
		sources[i] = m.source(image.Name, keys[i])
	}

	return sources, nil
}

// Cleanup запускает фоновое удаление всех объектов задачи.
func (m *MinioInfrastructure) Cleanup(jobID string) {
	m.mu.Lock()
	keys := m.keys[jobID]
	delete(m.keys, jobID)
	m.mu.Unlock()

	if len(keys) == 0 {
		return
	}
	m.wg.Add(1)
	go m.cleanupUploadedKeys(jobID, keys)
}

// WaitForCleanup ожидает завершения всех фоновых задач очистки с учётом таймаута завершения приложения.
func (m *MinioInfrastructure) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("minio cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}

func (m *MinioInfrastructure) source(name, key string) features.Source {
	return features.Source{
		Name: name,
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			return m.objects.Open(ctx, key)
		},
	}
}

func (m *MinioInfrastructure) remember(jobID, key string) {
	m.mu.Lock()
	m.keys[jobID] = append(m.keys[jobID], key)
	m.mu.Unlock()
}

// cleanupUploadedKeys удаляет объекты задачи с экспоненциальной задержкой и jitter.
func (m *MinioInfrastructure) cleanupUploadedKeys(jobID string, keys []string) {
	defer m.wg.Done() // сигнализируем завершение очистки
	const op = "MinioInfrastructure.cleanupUploadedKeys"
	m.logger.Debugf("%s: cleaning up %d objects of job %s", op, len(keys), jobID)

	// Таймаут на основе shutdownCtx
	ctx, cancel := context.WithTimeout(m.shutdownCtx, m.opts.CleanupTimeout)
	defer cancel()

	for _, key := range keys {
		for attempt := 0; attempt < m.opts.CleanupRetries; attempt++ {
			err := m.objects.Delete(ctx, key)
			if err == nil {
				break
			}

			if attempt == m.opts.CleanupRetries-1 {
				m.logger.Warnf("%s: giving up on key=%s: %v", op, key, err)
				break
			}

			if err := m.opts.Backoff.Wait(ctx, attempt); err != nil {
				m.logger.Warnf("cleanup interrupted by shutdown, key=%v", key)
				return
			}
		}
	}
}

package usecase

import (
	"context"
	"io"

	"github.com/DRSN-tech/imgcluster/internal/domain"
)

// JobRepository — реестр задач. Finish переводит задачу из RUNNING в терминальное
// состояние ровно один раз и записывает статус вместе с результатом.
type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, id string) (*domain.Job, error)
	Finish(ctx context.Context, job *domain.Job) error
}

// CentroidIndex — индекс ближайшего центроида. Build заменяет таблицу целиком.
type CentroidIndex interface {
	Build(ctx context.Context, jobID string, centroids domain.Centroids) error
	Nearest(ctx context.Context, vector []float64) (string, error)
}

// ObjectRepository — объектное хранилище временных загрузок.
type ObjectRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

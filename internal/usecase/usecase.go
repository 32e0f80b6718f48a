package usecase

import (
	"context"

	"github.com/DRSN-tech/imgcluster/internal/domain"
)

// ClusterUC — сценарии асинхронной кластеризации и поиска ближайшей группы.
type ClusterUC interface {
	Submit(ctx context.Context, images []UploadedImage) (*domain.Job, error)
	Status(ctx context.Context, id string) (*domain.Job, error)
	Result(ctx context.Context, id string) (*domain.ClusterResult, error)
	Centroids(ctx context.Context, id string) (domain.Centroids, error)
	Search(ctx context.Context, image *UploadedImage) (string, error)
}

// IndexUC — протокол внешнего сервиса поиска (/build, /search), обслуживаемый этим процессом.
type IndexUC interface {
	BuildIndex(ctx context.Context, centroids domain.Centroids) error
	SearchIndex(ctx context.Context, vector []float64) (string, error)
}

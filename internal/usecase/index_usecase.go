package usecase

import (
	"context"

	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
)

// ExternalJobID помечает таблицы, присланные через протокол /build, а не собственной задачей.
const ExternalJobID = "external"

// IndexUseCase обслуживает протокол сервиса поиска поверх локального индекса,
// чтобы один экземпляр мог быть сервисом поиска для другого.
type IndexUseCase struct {
	index  CentroidIndex
	logger logger.Logger
}

func NewIndexUC(index CentroidIndex, logger logger.Logger) *IndexUseCase {
	return &IndexUseCase{
		index:  index,
		logger: logger,
	}
}

// BuildIndex заменяет таблицу центроидов целиком.
func (i *IndexUseCase) BuildIndex(ctx context.Context, centroids domain.Centroids) error {
	const op = "IndexUseCase.BuildIndex"

	if centroids == nil {
		centroids = domain.Centroids{}
	}
	if err := i.index.Build(ctx, ExternalJobID, centroids); err != nil {
		return e.Wrap(op, err)
	}

	i.logger.Infof("centroid index rebuilt: %d groups", len(centroids))
	return nil
}

func (i *IndexUseCase) SearchIndex(ctx context.Context, vector []float64) (string, error) {
	const op = "IndexUseCase.SearchIndex"

	if len(vector) == 0 {
		return "", e.Wrap(op, e.ErrEmptyVectors)
	}

	group, err := i.index.Nearest(ctx, vector)
	if err != nil {
		return "", e.Wrap(op, err)
	}

	return group, nil
}

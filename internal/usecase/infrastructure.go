package usecase

import (
	"context"

	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/internal/features"
)

// ClusterPipeline — конвейер признаков и кластеризации. Одиночный запрос проходит
// ту же предобработку, что и батч.
type ClusterPipeline interface {
	Run(ctx context.Context, sources []features.Source) (*domain.Outcome, error)
	Fingerprint(ctx context.Context, src features.Source) ([]float64, error)
}

// Stager размещает загрузки задачи во временном хранилище. Cleanup не блокирует
// и вызывается на каждом пути завершения задачи.
type Stager interface {
	Stage(ctx context.Context, jobID string, images []UploadedImage) ([]features.Source, error)
	Cleanup(jobID string)
}

// EventPublisher публикует события жизненного цикла задачи.
type EventPublisher interface {
	Publish(ctx context.Context, event *JobEvent) error
}

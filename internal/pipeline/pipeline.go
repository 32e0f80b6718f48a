package pipeline

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/imgcluster/internal/clustering"
	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/internal/features"
	"github.com/DRSN-tech/imgcluster/internal/observability"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Embedder возвращает семантический вектор для каждого тензора в том же порядке.
// Все векторы одного ответа имеют одинаковую размерность.
type Embedder interface {
	Embed(ctx context.Context, tensors []features.Tensor) ([][]float32, error)
}

// Pipeline — конвейер кластеризации. Все зависимости только читаются,
// поэтому один экземпляр обслуживает задачи и одиночные запросы параллельно.
type Pipeline struct {
	loader      *features.Loader
	embedder    Embedder
	selector    *clustering.Selector
	colorWeight float64
	logger      logger.Logger
}

func NewPipeline(loader *features.Loader, embedder Embedder, selector *clustering.Selector, logger logger.Logger) *Pipeline {
	return &Pipeline{
		loader:      loader,
		embedder:    embedder,
		selector:    selector,
		colorWeight: features.ColorWeight,
		logger:      logger,
	}
}

// Run обрабатывает батч целиком. Нечитаемые изображения пропускаются и попадают
// в отчёт. Если не декодировалось ни одно изображение, возвращается пустой результат.
func (p *Pipeline) Run(ctx context.Context, sources []features.Source) (*domain.Outcome, error) {
	const op = "Pipeline.Run"

	ctx, span := observability.StartStageSpan(ctx, observability.StageLoad, len(sources))
	batch, err := p.loader.Load(ctx, sources)
	if err != nil {
		observability.RecordError(span, err)
		span.End()
		return nil, e.Wrap(op, err)
	}
	skipped := batch.SkippedIDs()
	observability.RecordSkipped(span, len(skipped))
	span.End()

	outcome := &domain.Outcome{
		Result:    domain.NewEmptyClusterResult(),
		Centroids: domain.Centroids{},
		Report: domain.ClusterReport{
			Images:  batch.Len(),
			Skipped: skipped,
		},
	}
	if batch.Len() == 0 {
		p.logger.Warnf("%s: no decodable images among %d sources", op, len(sources))
		return outcome, nil
	}

	vectors, err := p.extract(ctx, batch.Items)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	_, span = observability.StartStageSpan(ctx, observability.StageAutoK, len(vectors))
	sel, err := p.selector.Select(vectors)
	if err != nil {
		observability.RecordError(span, err)
		span.End()
		return nil, e.Wrap(op, err)
	}
	observability.RecordSelection(span, sel.K, sel.Score, len(sel.Candidates))
	span.End()

	_, span = observability.StartStageSpan(ctx, observability.StageAssemble, len(vectors))
	outcome.Result, outcome.Centroids = Assemble(batch.IDs(), sel.Partition)
	span.End()

	outcome.Report.K = sel.K
	outcome.Report.Score = domain.RoundScore(sel.Score)
	outcome.Report.Candidates = sel.Candidates

	p.logger.Infof("%s: %d images -> %d groups (k=%d, skipped %d)",
		op, batch.Len(), outcome.GroupCount(), sel.K, len(skipped))

	return outcome, nil
}

// Fingerprint строит объединённый вектор одного изображения тем же путём, что и Run.
func (p *Pipeline) Fingerprint(ctx context.Context, src features.Source) ([]float64, error) {
	const op = "Pipeline.Fingerprint"

	d, err := p.loader.LoadOne(ctx, src)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	vectors, err := p.extract(ctx, []features.Decoded{*d})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return vectors[0], nil
}

// Dim возвращает размерность объединённого вектора для заданной размерности эмбеддинга.
func Dim(semanticDim int) int {
	return semanticDim + features.ColorDim
}

// extract считает цветовые и семантические признаки параллельно и объединяет их.
func (p *Pipeline) extract(ctx context.Context, items []features.Decoded) ([][]float64, error) {
	const op = "Pipeline.extract"

	var (
		color    [][]float64
		semantic [][]float32
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, span := observability.StartStageSpan(gctx, observability.StageColor, len(items))
		defer span.End()
		color = features.ColorHistograms(items)
		return nil
	})
	g.Go(func() error {
		sctx, span := observability.StartStageSpan(gctx, observability.StageEmbed, len(items))
		defer span.End()

		tensors := make([]features.Tensor, len(items))
		for i, it := range items {
			tensors[i] = it.Tensor
		}

		var err error
		semantic, err = p.embedder.Embed(sctx, tensors)
		if err != nil {
			observability.RecordError(span, err)
			return err
		}
		return checkEmbeddings(semantic, len(items))
	})
	if err := g.Wait(); err != nil {
		return nil, e.Wrap(op, err)
	}

	_, span := observability.StartStageSpan(ctx, observability.StageFuse, len(items))
	defer span.End()

	return features.Fuse(semantic, color, p.colorWeight), nil
}

func checkEmbeddings(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("%w: got %d vectors for %d images", e.ErrImageVectorMismatch, len(vectors), want)
	}
	if want == 0 {
		return nil
	}

	dim := len(vectors[0])
	if dim == 0 {
		return e.ErrVectorEmbeddingEmpty
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d values, expected %d", e.ErrEmbeddingDimMismatch, i, len(v), dim)
		}
	}

	return nil
}

package clustering

import (
	"errors"

	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
)

const (
	DefaultMaxK = 10
	// DefaultPenalty вычитается из оценки, если при N > PenaltyMinImages есть группа меньше двух элементов.
	DefaultPenalty          = 0.1
	DefaultPenaltyMinImages = 6
	// DefaultTolerance — доля лучшей оценки, при которой предпочитается большее K.
	DefaultTolerance = 0.9
)

// Selection — выбранное число групп вместе с разбиением, на котором оно получено.
type Selection struct {
	K          int
	Score      float64
	Partition  Partition
	Candidates []domain.Candidate
}

// Selector подбирает число групп по силуэту со штрафом за одиночные группы
// и смещением в сторону более дробного разбиения.
type Selector struct {
	kmeans           *KMeans
	maxK             int
	penalty          float64
	penaltyMinImages int
	tolerance        float64
	logger           logger.Logger
}

func NewSelector(kmeans *KMeans, maxK int, logger logger.Logger) *Selector {
	if maxK < 2 {
		maxK = DefaultMaxK
	}

	return &Selector{
		kmeans:           kmeans,
		maxK:             maxK,
		penalty:          DefaultPenalty,
		penaltyMinImages: DefaultPenaltyMinImages,
		tolerance:        DefaultTolerance,
		logger:           logger,
	}
}

// Select выбирает K и возвращает разбиение для него.
// N < 2 даёт K=1, N <= 3 даёт K=N, иначе перебираются K из [2, min(maxK, N-1)].
// Если ни одно K не дало двух непустых групп, все точки попадают в одну группу.
func (s *Selector) Select(points [][]float64) (Selection, error) {
	const op = "Selector.Select"

	n := len(points)
	if n == 0 {
		return Selection{}, e.Wrap(op, e.ErrEmptyVectors)
	}
	if n < 2 {
		return s.fixed(points, 1)
	}
	if n <= 3 {
		return s.fixed(points, n)
	}

	dist := distanceMatrix(points)
	maxK := min(s.maxK, n-1)

	var (
		best       Selection
		found      bool
		bestK      = 2
		bestScore  = -1.0
		candidates = make([]domain.Candidate, 0, maxK-1)
	)
	for k := 2; k <= maxK; k++ {
		p, err := s.kmeans.Partition(points, k)
		if err != nil {
			return Selection{}, e.Wrap(op, err)
		}

		sizes := p.Sizes()
		penalty := 0.0
		if n > s.penaltyMinImages && minPositive(sizes) < 2 {
			penalty = s.penalty
		}
		if p.NonEmpty() < 2 {
			s.logger.Debugf("%s: k=%d degenerated to a single group, skipped", op, k)
			continue
		}

		sil, err := silhouette(dist, p.Labels)
		if errors.Is(err, e.ErrClusteringDegenerated) {
			continue
		}
		if err != nil {
			return Selection{}, e.Wrap(op, err)
		}
		score := sil - penalty

		candidates = append(candidates, domain.Candidate{
			K:          k,
			Silhouette: sil,
			Penalty:    penalty,
			Score:      score,
			Groups:     p.NonEmpty(),
		})
		s.logger.Debugf("%s: k=%d silhouette=%.4f penalty=%.2f score=%.4f", op, k, sil, penalty, score)

		if s.prefer(k, score, bestK, bestScore) {
			bestK, bestScore = k, score
			best = Selection{K: k, Score: score, Partition: p}
			found = true
		}
	}

	if !found {
		s.logger.Warnf("%s: no K in [2, %d] produced two groups, falling back to a single group", op, maxK)
		sel, err := s.fixed(points, 1)
		sel.Candidates = candidates
		return sel, err
	}

	best.Candidates = candidates
	s.logger.Infof("%s: selected k=%d (score %.3f) for %d images", op, best.K, best.Score, n)

	return best, nil
}

// prefer решает, заменяет ли кандидат k текущего лидера.
// Сравнения строгие: равная оценка при меньшем или равном K лидера не меняет.
func (s *Selector) prefer(k int, score float64, bestK int, bestScore float64) bool {
	return score > bestScore || (score > bestScore*s.tolerance && k > bestK)
}

func (s *Selector) fixed(points [][]float64, k int) (Selection, error) {
	p, err := s.kmeans.Partition(points, k)
	if err != nil {
		return Selection{}, e.Wrap("Selector.fixed", err)
	}

	return Selection{K: k, Partition: p}, nil
}

func minPositive(sizes []int) int {
	m := 0
	for _, s := range sizes {
		if s > 0 && (m == 0 || s < m) {
			m = s
		}
	}

	return m
}

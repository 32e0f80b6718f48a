package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"gonum.org/v1/gonum/floats"
)

// MemoryIndex хранит таблицу центроидов последней задачи в памяти процесса.
type MemoryIndex struct {
	mu    sync.RWMutex
	jobID string
	table domain.Centroids
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{table: domain.Centroids{}}
}

// Build заменяет таблицу целиком: побеждает последняя задача.
func (m *MemoryIndex) Build(_ context.Context, jobID string, centroids domain.Centroids) error {
	if err := validate(centroids); err != nil {
		return e.Wrap("MemoryIndex.Build", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobID = jobID
	m.table = centroids.Clone()

	return nil
}

func (m *MemoryIndex) Nearest(_ context.Context, vector []float64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name, err := Nearest(m.table, vector)
	if err != nil {
		return "", e.Wrap("MemoryIndex.Nearest", err)
	}

	return name, nil
}

// JobID возвращает задачу, чьи центроиды сейчас в индексе.
func (m *MemoryIndex) JobID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.jobID
}

// Nearest ищет группу с минимальным евклидовым расстоянием до vector.
// При равных расстояниях выбирается лексикографически меньшее имя.
func Nearest(table domain.Centroids, vector []float64) (string, error) {
	if len(table) == 0 {
		return "", e.ErrIndexEmpty
	}
	if len(vector) == 0 {
		return "", e.ErrEmptyVectors
	}

	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	best, bestDist := "", math.Inf(1)
	for _, name := range names {
		c := table[name]
		if len(c) != len(vector) {
			return "", fmt.Errorf("%w: query has %d values, centroid %q has %d", e.ErrVectorSizeMismatch, len(vector), name, len(c))
		}
		if d := floats.Distance(c, vector, 2); d < bestDist {
			best, bestDist = name, d
		}
	}

	return best, nil
}

// validate проверяет, что все центроиды одной размерности.
func validate(centroids domain.Centroids) error {
	dim := -1
	for name, c := range centroids {
		if len(c) == 0 {
			return fmt.Errorf("%w: centroid %q", e.ErrEmptyVectors, name)
		}
		if dim >= 0 && len(c) != dim {
			return fmt.Errorf("%w: centroid %q", e.ErrVectorSizeMismatch, name)
		}
		dim = len(c)
	}

	return nil
}

package clustering

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/DRSN-tech/imgcluster/pkg/e"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultRestarts = 30
	MinRestarts     = 10
	DefaultMaxIter  = 300
	DefaultSeed     = 42
)

// Partition — разбиение точек на K групп.
type Partition struct {
	Labels    []int       // метка группы для каждой точки, в порядке входа
	Centroids [][]float64 // центроид группы с индексом метки
	Inertia   float64     // сумма квадратов расстояний до своих центроидов
}

// Sizes возвращает число точек в каждой группе.
func (p Partition) Sizes() []int {
	sizes := make([]int, len(p.Centroids))
	for _, l := range p.Labels {
		sizes[l]++
	}

	return sizes
}

// NonEmpty возвращает число непустых групп.
func (p Partition) NonEmpty() int {
	n := 0
	for _, s := range p.Sizes() {
		if s > 0 {
			n++
		}
	}

	return n
}

// KMeans — разбиение k-means++ с несколькими перезапусками.
// Результат детерминирован: каждый вызов Partition заново создаёт генератор с Seed.
type KMeans struct {
	Restarts int
	MaxIter  int
	Seed     int64
}

func NewKMeans(restarts, maxIter int, seed int64) *KMeans {
	if restarts < MinRestarts {
		restarts = MinRestarts
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}

	return &KMeans{
		Restarts: restarts,
		MaxIter:  maxIter,
		Seed:     seed,
	}
}

// Partition разбивает points на k групп. Из всех перезапусков выбирается разбиение
// с минимальной инерцией, при равенстве — первое.
func (km *KMeans) Partition(points [][]float64, k int) (Partition, error) {
	const op = "KMeans.Partition"

	n := len(points)
	if n == 0 {
		return Partition{}, e.Wrap(op, e.ErrEmptyVectors)
	}
	if k < 1 || k > n {
		return Partition{}, e.Wrap(op, fmt.Errorf("%w: k=%d for %d points", e.ErrClusteringDegenerated, k, n))
	}
	dim := len(points[0])
	for _, p := range points {
		if len(p) != dim {
			return Partition{}, e.Wrap(op, e.ErrVectorSizeMismatch)
		}
	}

	rng := rand.New(rand.NewSource(km.Seed))

	var best Partition
	best.Inertia = math.Inf(1)
	for r := 0; r < km.Restarts; r++ {
		p := km.run(points, k, rng)
		if p.Inertia < best.Inertia {
			best = p
		}
	}

	return best, nil
}

func (km *KMeans) run(points [][]float64, k int, rng *rand.Rand) Partition {
	centroids := seedPlusPlus(points, k, rng)

	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	converged := false
	for it := 0; it < km.MaxIter; it++ {
		changed := assign(points, centroids, labels)
		if it > 0 && !changed {
			converged = true
			break
		}
		update(points, labels, centroids)
	}
	// после последнего пересчёта центроидов метки должны снова указывать на ближайший
	if !converged {
		assign(points, centroids, labels)
	}

	return Partition{
		Labels:    labels,
		Centroids: centroids,
		Inertia:   inertia(points, centroids, labels),
	}
}

// seedPlusPlus выбирает начальные центроиды: первый случайно, каждый следующий —
// с вероятностью, пропорциональной квадрату расстояния до ближайшего выбранного.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.Intn(n)]))

	d2 := make([]float64, n)
	for i, p := range points {
		d2[i] = sqDist(p, centroids[0])
	}

	for len(centroids) < k {
		total := floats.Sum(d2)

		var next int
		if total == 0 {
			// все точки совпадают с выбранными центроидами
			next = rng.Intn(n)
		} else {
			target := rng.Float64() * total
			next = n - 1
			acc := 0.0
			for i, d := range d2 {
				acc += d
				if acc >= target && d > 0 {
					next = i
					break
				}
			}
		}

		c := clone(points[next])
		centroids = append(centroids, c)
		for i, p := range points {
			if d := sqDist(p, c); d < d2[i] {
				d2[i] = d
			}
		}
	}

	return centroids
}

// assign назначает каждой точке ближайший центроид (при равенстве — с меньшим индексом).
func assign(points, centroids [][]float64, labels []int) bool {
	changed := false
	for i, p := range points {
		l := nearest(p, centroids)
		if labels[i] != l {
			labels[i] = l
			changed = true
		}
	}

	return changed
}

// update пересчитывает центроиды как средние. Опустевшая группа получает точку,
// наиболее удалённую от своего центроида.
func update(points [][]float64, labels []int, centroids [][]float64) {
	dim := len(points[0])
	counts := make([]int, len(centroids))
	sums := make([][]float64, len(centroids))
	for j := range sums {
		sums[j] = make([]float64, dim)
	}
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}

	var used map[int]bool
	for j := range centroids {
		if counts[j] > 0 {
			floats.ScaleTo(centroids[j], 1/float64(counts[j]), sums[j])
			continue
		}

		if used == nil {
			used = make(map[int]bool)
		}
		far, farDist := -1, -1.0
		for i, p := range points {
			if used[i] {
				continue
			}
			if d := sqDist(p, centroids[labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		if far >= 0 {
			used[far] = true
			copy(centroids[j], points[far])
		}
	}
}

func inertia(points, centroids [][]float64, labels []int) float64 {
	var sum float64
	for i, p := range points {
		sum += sqDist(p, centroids[labels[i]])
	}

	return sum
}

func nearest(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for j, c := range centroids {
		if d := sqDist(p, c); d < bestDist {
			best, bestDist = j, d
		}
	}

	return best
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}

	return s
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}

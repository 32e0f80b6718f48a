package clustering

import (
	"math"

	"github.com/DRSN-tech/imgcluster/pkg/e"
)

// Silhouette считает средний силуэт разбиения по евклидову расстоянию.
// Точка в одиночной группе получает силуэт 0. Нужно минимум две непустые группы.
func Silhouette(points [][]float64, labels []int) (float64, error) {
	return silhouette(distanceMatrix(points), labels)
}

func silhouette(dist [][]float64, labels []int) (float64, error) {
	const op = "Silhouette"

	n := len(labels)
	if n == 0 {
		return 0, e.Wrap(op, e.ErrEmptyVectors)
	}

	groups := 0
	for _, l := range labels {
		if l+1 > groups {
			groups = l + 1
		}
	}
	sizes := make([]int, groups)
	for _, l := range labels {
		sizes[l]++
	}
	nonEmpty := 0
	for _, s := range sizes {
		if s > 0 {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		return 0, e.Wrap(op, e.ErrClusteringDegenerated)
	}

	var total float64
	sums := make([]float64, groups)
	for i := 0; i < n; i++ {
		own := labels[i]
		if sizes[own] < 2 {
			continue
		}

		for j := range sums {
			sums[j] = 0
		}
		for j := 0; j < n; j++ {
			sums[labels[j]] += dist[i][j]
		}

		a := sums[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for j, s := range sums {
			if j == own || sizes[j] == 0 {
				continue
			}
			if m := s / float64(sizes[j]); m < b {
				b = m
			}
		}

		if d := math.Max(a, b); d > 0 {
			total += (b - a) / d
		}
	}

	return total / float64(n), nil
}

func distanceMatrix(points [][]float64) [][]float64 {
	n := len(points)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := math.Sqrt(sqDist(points[i], points[j]))
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	return dist
}

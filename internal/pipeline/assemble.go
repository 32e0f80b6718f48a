package pipeline

import (
	"sort"

	"github.com/DRSN-tech/imgcluster/internal/clustering"
	"github.com/DRSN-tech/imgcluster/internal/domain"
)

// Assemble переводит метки разбиения в артефакты результата.
// Номера групп выдаются по возрастанию индекса метки, пустые метки пропускаются.
// Список имён и содержимое групп отсортированы лексикографически.
func Assemble(ids []string, p clustering.Partition) (domain.ClusterResult, domain.Centroids) {
	result := domain.NewEmptyClusterResult()
	centroids := domain.Centroids{}

	members := make([][]string, len(p.Centroids))
	for i, label := range p.Labels {
		members[label] = append(members[label], ids[i])
	}

	n := 0
	for label, group := range members {
		if len(group) == 0 {
			continue
		}
		n++
		name := domain.GroupName(n)

		sorted := append([]string(nil), group...)
		sort.Strings(sorted)

		result.GroupContents[name] = sorted
		result.OrderedGroupNames = append(result.OrderedGroupNames, name)
		centroids[name] = append([]float64(nil), p.Centroids[label]...)
	}
	sort.Strings(result.OrderedGroupNames)

	return result, centroids
}

package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// GroupName возвращает человекочитаемое имя группы с порядковым номером n (с единицы).
func GroupName(n int) string {
	return fmt.Sprintf("Group %d", n)
}

// ClusterResult — артефакт A: упорядоченный список групп и их содержимое.
// Внешний и внутренний порядок лексикографический.
type ClusterResult struct {
	OrderedGroupNames []string            `json:"ordered_group_names"`
	GroupContents     map[string][]string `json:"group_contents"`
}

func NewEmptyClusterResult() ClusterResult {
	return ClusterResult{
		OrderedGroupNames: []string{},
		GroupContents:     map[string][]string{},
	}
}

// Members возвращает объединение всех участников групп.
func (r ClusterResult) Members() []string {
	var out []string
	for _, name := range r.OrderedGroupNames {
		out = append(out, r.GroupContents[name]...)
	}

	return out
}

func (r ClusterResult) Clone() ClusterResult {
	c := ClusterResult{
		OrderedGroupNames: append([]string{}, r.OrderedGroupNames...),
		GroupContents:     make(map[string][]string, len(r.GroupContents)),
	}
	for k, v := range r.GroupContents {
		c.GroupContents[k] = append([]string{}, v...)
	}

	return c
}

// Centroids — артефакт B: имя группы -> центроид (размерность D_sem + D_col).
type Centroids map[string][]float64

func (c Centroids) Clone() Centroids {
	out := make(Centroids, len(c))
	for k, v := range c {
		out[k] = append([]float64(nil), v...)
	}

	return out
}

// Dim возвращает размерность центроидов (0 для пустой таблицы).
func (c Centroids) Dim() int {
	for _, v := range c {
		return len(v)
	}

	return 0
}

// Candidate — оценка одного K при автоматическом выборе числа групп.
type Candidate struct {
	K          int     `json:"k"`
	Silhouette float64 `json:"silhouette"`
	Penalty    float64 `json:"penalty"`
	Score      float64 `json:"score"`
	Groups     int     `json:"groups"`
}

// ClusterReport — служебная сводка одного прогона.
type ClusterReport struct {
	K          int             `json:"k"`
	Score      decimal.Decimal `json:"score"`
	Images     int             `json:"images"`
	Skipped    []string        `json:"skipped,omitempty"`
	Candidates []Candidate     `json:"candidates,omitempty"`
}

// RoundScore округляет оценку до трёх знаков для отчёта.
func RoundScore(score float64) decimal.Decimal {
	return decimal.NewFromFloat(score).Round(3)
}

// Outcome — всё, что возвращает конвейер за один прогон.
type Outcome struct {
	Result    ClusterResult
	Centroids Centroids
	Report    ClusterReport
}

func (o *Outcome) GroupCount() int {
	return len(o.Result.OrderedGroupNames)
}

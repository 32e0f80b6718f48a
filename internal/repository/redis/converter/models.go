package converter

import (
	"encoding/json"
	"time"
)

// JobRedisModel — представление задачи в Redis (JSON).
type JobRedisModel struct {
	ID         string               `json:"id"`
	Status     string               `json:"status"`
	ImageCount int                  `json:"image_count"`
	CreatedAt  time.Time            `json:"created_at"`
	FinishedAt *time.Time           `json:"finished_at,omitempty"`
	GroupNames []string             `json:"group_names,omitempty"`
	Groups     map[string][]string  `json:"groups,omitempty"`
	Centroids  map[string][]float64 `json:"centroids,omitempty"`
	Report     json.RawMessage      `json:"report,omitempty"`
	Error      string               `json:"error,omitempty"`
	IndexState string               `json:"index_state"`
	IndexError string               `json:"index_error,omitempty"`
}

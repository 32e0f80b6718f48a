package http

import (
	"time"

	"github.com/DRSN-tech/imgcluster/internal/domain"
)

// SubmitJobResponse — ответ на постановку батча в очередь.
type SubmitJobResponse struct {
	JobID  string           `json:"job_id"`
	Status domain.JobStatus `json:"status"`
}

// JobStatusResponse — состояние задачи без самих артефактов.
type JobStatusResponse struct {
	JobID      string                `json:"job_id"`
	Status     domain.JobStatus      `json:"status"`
	ImageCount int                   `json:"image_count"`
	CreatedAt  time.Time             `json:"created_at"`
	FinishedAt *time.Time            `json:"finished_at,omitempty"`
	Error      string                `json:"error,omitempty"`
	IndexSync  domain.IndexSync      `json:"index_sync"`
	Report     *domain.ClusterReport `json:"report,omitempty"`
}

// SearchResponse — ближайшая группа для изображения или вектора.
type SearchResponse struct {
	Group string `json:"group"`
}

// SearchVectorRequest — запрос протокола сервиса поиска.
type SearchVectorRequest struct {
	ImageVector []float64 `json:"imageVector"`
}

// BuildIndexResponse — число групп в перестроенном индексе.
type BuildIndexResponse struct {
	Groups int `json:"groups"`
}

func NewJobStatusResponse(job *domain.Job) *JobStatusResponse {
	return &JobStatusResponse{
		JobID:      job.ID,
		Status:     job.Status,
		ImageCount: job.ImageCount,
		CreatedAt:  job.CreatedAt,
		FinishedAt: job.FinishedAt,
		Error:      job.Error,
		IndexSync:  job.IndexSync,
		Report:     job.Report,
	}
}

package usecase

import (
	"time"

	"github.com/DRSN-tech/imgcluster/internal/domain"
)

// UploadedImage представляет изображение, загруженное через multipart/form-data или gRPC.
type UploadedImage struct {
	Name     string // исходное имя файла, идентификатор в результатах
	Data     []byte
	MimeType string // Content-Type из multipart (image/jpeg)
	Size     int64
}

// JobEvent — событие завершения задачи для внешних потребителей.
type JobEvent struct {
	JobID      string
	Status     domain.JobStatus
	ImageCount int
	GroupCount int
	K          int
	Error      string
	IndexState domain.IndexState
	FinishedAt time.Time
}

// ClusterOptions — ограничения и таймауты сценариев кластеризации.
type ClusterOptions struct {
	MaxImages        int
	IndexPushTimeout time.Duration
	SearchTimeout    time.Duration
}

func NewUploadedImage(name string, data []byte, mimeType string) *UploadedImage {
	return &UploadedImage{
		Name:     name,
		Data:     data,
		MimeType: mimeType,
		Size:     int64(len(data)),
	}
}

// NewJobEvent собирает событие из терминальной задачи.
func NewJobEvent(job *domain.Job) *JobEvent {
	ev := &JobEvent{
		JobID:      job.ID,
		Status:     job.Status,
		ImageCount: job.ImageCount,
		Error:      job.Error,
		IndexState: job.IndexSync.State,
	}
	if job.Result != nil {
		ev.GroupCount = len(job.Result.OrderedGroupNames)
	}
	if job.Report != nil {
		ev.K = job.Report.K
	}
	if job.FinishedAt != nil {
		ev.FinishedAt = *job.FinishedAt
	}

	return ev
}

package domain

import "time"

// JobStatus — состояние задачи кластеризации. DONE и FAILED терминальны.
type JobStatus string

const (
	JobRunning JobStatus = "RUNNING"
	JobDone    JobStatus = "DONE"
	JobFailed  JobStatus = "FAILED"
)

func (s JobStatus) IsTerminal() bool {
	return s == JobDone || s == JobFailed
}

// IndexState — результат отправки центроидов во внешний индекс.
// Хранится отдельно от статуса задачи и на него не влияет.
type IndexState string

const (
	IndexPending IndexState = "PENDING"
	IndexSynced  IndexState = "SYNCED"
	IndexFailed  IndexState = "FAILED"
	IndexSkipped IndexState = "SKIPPED"
)

type IndexSync struct {
	State IndexState `json:"state"`
	Error string     `json:"error,omitempty"`
}

// Job описывает одну задачу кластеризации.
type Job struct {
	ID         string         `json:"id"`
	Status     JobStatus      `json:"status"`
	ImageCount int            `json:"image_count"`
	CreatedAt  time.Time      `json:"created_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Result     *ClusterResult `json:"result,omitempty"`
	Centroids  Centroids      `json:"centroids,omitempty"`
	Report     *ClusterReport `json:"report,omitempty"`
	Error      string         `json:"error,omitempty"`
	IndexSync  IndexSync      `json:"index_sync"`
}

func NewJob(id string, imageCount int, createdAt time.Time) *Job {
	return &Job{
		ID:         id,
		Status:     JobRunning,
		ImageCount: imageCount,
		CreatedAt:  createdAt,
		IndexSync:  IndexSync{State: IndexPending},
	}
}

// Complete переводит задачу в DONE вместе с результатом.
func (j *Job) Complete(outcome *Outcome, sync IndexSync, at time.Time) {
	j.Status = JobDone
	j.Result = &outcome.Result
	j.Centroids = outcome.Centroids
	j.Report = &outcome.Report
	j.IndexSync = sync
	j.FinishedAt = &at
}

// Fail переводит задачу в FAILED с текстом ошибки.
func (j *Job) Fail(err error, at time.Time) {
	j.Status = JobFailed
	j.Error = err.Error()
	j.IndexSync = IndexSync{State: IndexSkipped}
	j.FinishedAt = &at
}

// Clone возвращает независимую копию задачи.
func (j *Job) Clone() *Job {
	c := *j
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		c.FinishedAt = &t
	}
	if j.Result != nil {
		r := j.Result.Clone()
		c.Result = &r
	}
	if j.Centroids != nil {
		c.Centroids = j.Centroids.Clone()
	}
	if j.Report != nil {
		rep := *j.Report
		rep.Candidates = append([]Candidate(nil), j.Report.Candidates...)
		rep.Skipped = append([]string(nil), j.Report.Skipped...)
		c.Report = &rep
	}

	return &c
}

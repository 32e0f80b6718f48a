package converter

import (
	"encoding/json"

	"github.com/DRSN-tech/imgcluster/internal/domain"
)

// JobConverter переводит задачу между доменной моделью и моделью Redis.
type JobConverter interface {
	ToRedisModel(entity *domain.Job) (*JobRedisModel, error)
	ToEntity(model *JobRedisModel) (*domain.Job, error)
}

type jobConverter struct{}

func NewJobConverter() JobConverter {
	return jobConverter{}
}

func (jobConverter) ToRedisModel(entity *domain.Job) (*JobRedisModel, error) {
	model := &JobRedisModel{
		ID:         entity.ID,
		Status:     string(entity.Status),
		ImageCount: entity.ImageCount,
		CreatedAt:  entity.CreatedAt,
		FinishedAt: entity.FinishedAt,
		Centroids:  entity.Centroids,
		Error:      entity.Error,
		IndexState: string(entity.IndexSync.State),
		IndexError: entity.IndexSync.Error,
	}
	if entity.Result != nil {
		model.GroupNames = entity.Result.OrderedGroupNames
		model.Groups = entity.Result.GroupContents
	}
	if entity.Report != nil {
		report, err := json.Marshal(entity.Report)
		if err != nil {
			return nil, err
		}
		model.Report = report
	}

	return model, nil
}

func (jobConverter) ToEntity(model *JobRedisModel) (*domain.Job, error) {
	job := &domain.Job{
		ID:         model.ID,
		Status:     domain.JobStatus(model.Status),
		ImageCount: model.ImageCount,
		CreatedAt:  model.CreatedAt,
		FinishedAt: model.FinishedAt,
		Centroids:  model.Centroids,
		Error:      model.Error,
		IndexSync: domain.IndexSync{
			State: domain.IndexState(model.IndexState),
			Error: model.IndexError,
		},
	}
	if job.Status == domain.JobDone {
		result := domain.NewEmptyClusterResult()
		if model.GroupNames != nil {
			result.OrderedGroupNames = model.GroupNames
		}
		if model.Groups != nil {
			result.GroupContents = model.Groups
		}
		job.Result = &result
		if job.Centroids == nil {
			job.Centroids = domain.Centroids{}
		}
	}
	if len(model.Report) > 0 {
		var report domain.ClusterReport
		if err := json.Unmarshal(model.Report, &report); err != nil {
			return nil, err
		}
		job.Report = &report
	}

	return job, nil
}

package converter

import (
	"encoding/json"

	"github.com/DRSN-tech/imgcluster/internal/domain"
)

// JobConverter переводит задачу между доменной моделью и строками jobs / job_groups.
type JobConverter interface {
	ToModel(entity *domain.Job) (*JobModel, []JobGroupModel, error)
	ToEntity(model *JobModel, groups []JobGroupModel) (*domain.Job, error)
}

type jobConverter struct{}

func NewJobConverter() JobConverter {
	return jobConverter{}
}

func (jobConverter) ToModel(entity *domain.Job) (*JobModel, []JobGroupModel, error) {
	model := &JobModel{
		ID:         entity.ID,
		Status:     string(entity.Status),
		ImageCount: entity.ImageCount,
		CreatedAt:  entity.CreatedAt,
		FinishedAt: entity.FinishedAt,
		Error:      entity.Error,
		IndexState: string(entity.IndexSync.State),
		IndexError: entity.IndexSync.Error,
	}

	if entity.Report != nil {
		report, err := json.Marshal(entity.Report)
		if err != nil {
			return nil, nil, err
		}
		model.Report = report
	}
	if entity.Centroids != nil {
		centroids, err := json.Marshal(entity.Centroids)
		if err != nil {
			return nil, nil, err
		}
		model.Centroids = centroids
	}

	var groups []JobGroupModel
	if entity.Result != nil {
		groups = make([]JobGroupModel, 0, len(entity.Result.OrderedGroupNames))
		for i, name := range entity.Result.OrderedGroupNames {
			groups = append(groups, JobGroupModel{
				JobID:    entity.ID,
				Name:     name,
				Position: i,
				Members:  entity.Result.GroupContents[name],
			})
		}
	}

	return model, groups, nil
}

// ToEntity ожидает группы в порядке position.
func (jobConverter) ToEntity(model *JobModel, groups []JobGroupModel) (*domain.Job, error) {
	job := &domain.Job{
		ID:         model.ID,
		Status:     domain.JobStatus(model.Status),
		ImageCount: model.ImageCount,
		CreatedAt:  model.CreatedAt,
		FinishedAt: model.FinishedAt,
		Error:      model.Error,
		IndexSync: domain.IndexSync{
			State: domain.IndexState(model.IndexState),
			Error: model.IndexError,
		},
	}

	if len(model.Report) > 0 {
		var report domain.ClusterReport
		if err := json.Unmarshal(model.Report, &report); err != nil {
			return nil, err
		}
		job.Report = &report
	}
	if len(model.Centroids) > 0 {
		var centroids domain.Centroids
		if err := json.Unmarshal(model.Centroids, &centroids); err != nil {
			return nil, err
		}
		job.Centroids = centroids
	}

	if job.Status == domain.JobDone {
		result := domain.NewEmptyClusterResult()
		for _, g := range groups {
			result.OrderedGroupNames = append(result.OrderedGroupNames, g.Name)
			result.GroupContents[g.Name] = append([]string{}, g.Members...)
		}
		job.Result = &result
		if job.Centroids == nil {
			job.Centroids = domain.Centroids{}
		}
	}

	return job, nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DRSN-tech/imgcluster/internal/cfg"
	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/internal/repository/redis/converter"
	"github.com/DRSN-tech/imgcluster/pkg/clients"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// maxFinishAttempts — число попыток оптимистичной транзакции при конкурентной записи ключа.
const maxFinishAttempts = 5

// JobRepo хранит задачи в Redis, чтобы статус был виден всем экземплярам сервиса.
type JobRepo struct {
	client *clients.RedisClient
	conv   converter.JobConverter
	cfg    *cfg.JobsCfg
	logger logger.Logger
}

func NewJobRepo(client *clients.RedisClient, conv converter.JobConverter, cfg *cfg.JobsCfg, logger logger.Logger) *JobRepo {
	return &JobRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// Create записывает задачу с TTL, только если ключ ещё не занят.
func (j *JobRepo) Create(ctx context.Context, job *domain.Job) error {
	data, err := j.marshalJob(job)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	ok, err := j.client.Client.SetNX(ctx, j.jobKey(job.ID), data, j.cfg.TTL).Result()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if !ok {
		return e.Wrap(whereami.WhereAmI(), e.ErrJobExists)
	}

	return nil
}

func (j *JobRepo) Get(ctx context.Context, id string) (*domain.Job, error) {
	data, err := j.client.Client.Get(ctx, j.jobKey(id)).Bytes()
	if errors.Is(err, r.Nil) {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrJobNotFound)
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	job, err := j.unmarshalJob(data)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return job, nil
}

// Finish переводит задачу в терминальное состояние под WATCH: запись проходит,
// только если между чтением и MULTI/EXEC ключ никто не изменил и задача ещё RUNNING.
func (j *JobRepo) Finish(ctx context.Context, job *domain.Job) error {
	key := j.jobKey(job.ID)
	data, err := j.marshalJob(job)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	txf := func(tx *r.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, r.Nil) {
			return e.ErrJobNotFound
		}
		if err != nil {
			return err
		}

		current, err := j.unmarshalJob(raw)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return e.ErrJobAlreadyFinished
		}

		_, err = tx.TxPipelined(ctx, func(pipe r.Pipeliner) error {
			pipe.Set(ctx, key, data, r.KeepTTL)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxFinishAttempts; attempt++ {
		err = j.client.Client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, r.TxFailedErr) {
			return e.Wrap(whereami.WhereAmI(), err)
		}
		j.logger.Debugf("job %s: concurrent update, retrying finish (attempt %d)", job.ID, attempt+1)
	}

	return e.Wrap(whereami.WhereAmI(), err)
}

func (j *JobRepo) marshalJob(job *domain.Job) ([]byte, error) {
	model, err := j.conv.ToRedisModel(job)
	if err != nil {
		return nil, err
	}

	return json.Marshal(model)
}

func (j *JobRepo) unmarshalJob(data []byte) (*domain.Job, error) {
	var model converter.JobRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, err
	}

	return j.conv.ToEntity(&model)
}

// jobKey возвращает Redis-ключ задачи
func (j *JobRepo) jobKey(id string) string {
	return fmt.Sprintf("imgcluster:job:%s", id)
}

package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const uniqueViolation = "23505"

// JobRepo реализует реестр задач поверх PostgreSQL: задача в jobs, группы в job_groups.
type JobRepo struct {
	pool *pgxpool.Pool
	conv converter.JobConverter
}

func NewJobRepo(pool *pgxpool.Pool, conv converter.JobConverter) *JobRepo {
	return &JobRepo{
		pool: pool,
		conv: conv,
	}
}

func (j *JobRepo) Create(ctx context.Context, job *domain.Job) error {
	model, _, err := j.conv.ToModel(job)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO jobs (id, status, image_count, created_at, index_state)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = j.pool.Exec(ctx, query, model.ID, model.Status, model.ImageCount, model.CreatedAt, model.IndexState)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return e.Wrap(whereami.WhereAmI(), e.ErrJobExists)
		}
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Get возвращает задачу вместе с группами в сохранённом порядке.
func (j *JobRepo) Get(ctx context.Context, id string) (*domain.Job, error) {
	query := `
		SELECT id, status, image_count, created_at, finished_at, error, report, centroids, index_state, index_error
		FROM jobs
		WHERE id = $1
	`

	var model converter.JobModel
	err := j.pool.QueryRow(ctx, query, id).Scan(
		&model.ID, &model.Status, &model.ImageCount, &model.CreatedAt, &model.FinishedAt,
		&model.Error, &model.Report, &model.Centroids, &model.IndexState, &model.IndexError,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrJobNotFound)
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var groups []converter.JobGroupModel
	if domain.JobStatus(model.Status) == domain.JobDone {
		groups, err = j.getGroups(ctx, id)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	job, err := j.conv.ToEntity(&model, groups)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return job, nil
}

// Finish в одной транзакции переводит RUNNING-задачу в терминальное состояние
// и записывает её группы. Повторное завершение отклоняется.
func (j *JobRepo) Finish(ctx context.Context, job *domain.Job) error {
	const op = "JobRepo.Finish"

	model, groups, err := j.conv.ToModel(job)
	if err != nil {
		return e.Wrap(op, err)
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, j.pool)
	if err != nil {
		return e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			_ = tx.Rollback(ctx)
		}
	}()
	ctx = tr.WithTx(ctx, tx.Transaction())

	if err = j.updateStatus(ctx, model); err != nil {
		return e.Wrap(op, err)
	}

	if err = j.insertGroups(ctx, groups); err != nil {
		return e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

func (j *JobRepo) updateStatus(ctx context.Context, model *converter.JobModel) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE jobs
		SET status = $2, finished_at = $3, error = $4, report = $5, centroids = $6,
			index_state = $7, index_error = $8
		WHERE id = $1 AND status = 'RUNNING'
	`

	tag, err := tx.Exec(ctx, query,
		model.ID, model.Status, model.FinishedAt, model.Error, model.Report, model.Centroids,
		model.IndexState, model.IndexError,
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1)`, model.ID).Scan(&exists); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if exists {
		return e.ErrJobAlreadyFinished
	}

	return e.ErrJobNotFound
}

func (j *JobRepo) insertGroups(ctx context.Context, groups []converter.JobGroupModel) error {
	if len(groups) == 0 {
		return nil
	}

	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	batch := &pgx.Batch{}
	for _, g := range groups {
		batch.Queue(
			`INSERT INTO job_groups (job_id, name, position, members) VALUES ($1, $2, $3, $4)`,
			g.JobID, g.Name, g.Position, g.Members,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (j *JobRepo) getGroups(ctx context.Context, jobID string) ([]converter.JobGroupModel, error) {
	query := `
		SELECT job_id, name, position, members
		FROM job_groups
		WHERE job_id = $1
		ORDER BY position
	`

	rows, err := j.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	groups := make([]converter.JobGroupModel, 0)
	for rows.Next() {
		var g converter.JobGroupModel
		if err := rows.Scan(&g.JobID, &g.Name, &g.Position, &g.Members); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return groups, nil
}

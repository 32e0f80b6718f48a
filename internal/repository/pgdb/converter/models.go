package converter

import "time"

// JobModel представляет запись таблицы jobs в PostgreSQL.
type JobModel struct {
	ID         string     `db:"id"`
	Status     string     `db:"status"`
	ImageCount int        `db:"image_count"`
	CreatedAt  time.Time  `db:"created_at"`
	FinishedAt *time.Time `db:"finished_at"`
	Error      string     `db:"error"`
	Report     []byte     `db:"report"`    // jsonb
	Centroids  []byte     `db:"centroids"` // jsonb
	IndexState string     `db:"index_state"`
	IndexError string     `db:"index_error"`
}

// JobGroupModel представляет запись таблицы job_groups в PostgreSQL.
type JobGroupModel struct {
	JobID    string   `db:"job_id"`
	Name     string   `db:"name"`
	Position int      `db:"position"`
	Members  []string `db:"members"`
}

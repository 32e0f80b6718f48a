package index

import (
	"context"
	"encoding/json"
	"time"

	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"go.etcd.io/bbolt"
)

var (
	bucketCentroids = []byte("centroids")
	bucketMeta      = []byte("meta")
	keyJobID        = []byte("job_id")
)

// BoltIndex хранит таблицу центроидов в файле bbolt, чтобы она переживала перезапуск.
type BoltIndex struct {
	db *bbolt.DB
}

func NewBoltIndex(path string) (*BoltIndex, error) {
	const op = "NewBoltIndex"

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketCentroids); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, e.Wrap(op, err)
	}

	return &BoltIndex{db: db}, nil
}

// Build заменяет таблицу в одной транзакции: читатели видят либо старую, либо новую.
func (b *BoltIndex) Build(_ context.Context, jobID string, centroids domain.Centroids) error {
	const op = "BoltIndex.Build"

	if err := validate(centroids); err != nil {
		return e.Wrap(op, err)
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketCentroids); err != nil {
			return err
		}
		bucket, err := tx.CreateBucket(bucketCentroids)
		if err != nil {
			return err
		}
		for name, c := range centroids {
			data, err := json.Marshal(c)
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(name), data); err != nil {
				return err
			}
		}

		return tx.Bucket(bucketMeta).Put(keyJobID, []byte(jobID))
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

func (b *BoltIndex) Nearest(_ context.Context, vector []float64) (string, error) {
	const op = "BoltIndex.Nearest"

	table := domain.Centroids{}
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCentroids).ForEach(func(k, v []byte) error {
			var c []float64
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			table[string(k)] = c
			return nil
		})
	})
	if err != nil {
		return "", e.Wrap(op, err)
	}

	name, err := Nearest(table, vector)
	if err != nil {
		return "", e.Wrap(op, err)
	}

	return name, nil
}

// JobID возвращает задачу, чьи центроиды сейчас в индексе.
func (b *BoltIndex) JobID() string {
	var id string
	_ = b.db.View(func(tx *bbolt.Tx) error {
		id = string(tx.Bucket(bucketMeta).Get(keyJobID))
		return nil
	})

	return id
}

func (b *BoltIndex) Close() error {
	return b.db.Close()
}

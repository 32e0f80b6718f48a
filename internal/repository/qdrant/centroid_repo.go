package qdrant

import (
	"context"
	"fmt"
	"sort"

	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/pkg/clients"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// pointNamespace — пространство имён для детерминированных идентификаторов точек.
var pointNamespace = uuid.MustParse("5b0c8a0e-3f1d-4c7b-9a57-0d2f6c1e8b44")

// CentroidRepo хранит центроиды последней задачи в коллекции Qdrant с евклидовой метрикой.
type CentroidRepo struct {
	client     *qdrant.Client
	collection string
	vectorSize uint64
}

func NewCentroidRepo(client *clients.QdrantClient, vectorSize uint64) *CentroidRepo {
	return &CentroidRepo{
		client:     client.Client,
		collection: client.Collection(),
		vectorSize: vectorSize,
	}
}

// Build записывает центроиды задачи и удаляет точки всех прочих задач:
// после успешного вызова в коллекции остаётся только таблица jobID.
func (q *CentroidRepo) Build(ctx context.Context, jobID string, centroids domain.Centroids) error {
	points, err := q.toPoints(jobID, centroids)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if len(points) > 0 {
		_, err = q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), mapError(err))
		}
	}

	_, err = q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			MustNot: []*qdrant.Condition{qdrant.NewMatch(clients.JobIDField, jobID)},
		}),
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), mapError(err))
	}

	return nil
}

// Nearest возвращает имя группы ближайшего центроида.
func (q *CentroidRepo) Nearest(ctx context.Context, vector []float64) (string, error) {
	if len(vector) == 0 {
		return "", e.Wrap(whereami.WhereAmI(), e.ErrEmptyVectors)
	}
	if q.vectorSize > 0 && uint64(len(vector)) != q.vectorSize {
		return "", e.Wrap(whereami.WhereAmI(),
			fmt.Errorf("%w: query has %d values, collection expects %d", e.ErrVectorSizeMismatch, len(vector), q.vectorSize))
	}

	query := make([]float32, len(vector))
	for i, v := range vector {
		query[i] = float32(v)
	}

	res, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(1)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), mapError(err))
	}
	if len(res) == 0 {
		return "", e.Wrap(whereami.WhereAmI(), e.ErrIndexEmpty)
	}

	group := res[0].GetPayload()["group"].GetStringValue()
	if group == "" {
		return "", e.Wrap(whereami.WhereAmI(), fmt.Errorf("point %s has no group in payload", res[0].GetId().GetUuid()))
	}

	return group, nil
}

// toPoints строит точки в порядке имён групп, идентификатор точки выводится из (jobID, группа).
func (q *CentroidRepo) toPoints(jobID string, centroids domain.Centroids) ([]*qdrant.PointStruct, error) {
	names := make([]string, 0, len(centroids))
	for name := range centroids {
		names = append(names, name)
	}
	sort.Strings(names)

	points := make([]*qdrant.PointStruct, 0, len(names))
	for _, name := range names {
		c := centroids[name]
		if q.vectorSize > 0 && uint64(len(c)) != q.vectorSize {
			return nil, fmt.Errorf("%w: centroid %q has %d values, collection expects %d",
				e.ErrVectorSizeMismatch, name, len(c), q.vectorSize)
		}

		point := domain.NewCentroidPoint(pointID(jobID, name), c, domain.NewPayload(jobID, name))
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(point.ID),
			Vectors: qdrant.NewVectors(point.Vector...),
			Payload: qdrant.NewValueMap(point.Payload),
		})
	}

	return points, nil
}

func pointID(jobID, group string) string {
	return uuid.NewSHA1(pointNamespace, []byte(jobID+"/"+group)).String()
}

// mapError переводит сетевые ошибки Qdrant в недоступность индекса, а отказ по размерности в ErrVectorSizeMismatch.
func mapError(err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.ResourceExhausted:
		return fmt.Errorf("%w: %v", e.ErrIndexUnavailable, err)
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %v", e.ErrVectorSizeMismatch, err)
	default:
		return err
	}
}

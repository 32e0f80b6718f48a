package minio

import (
	"bytes"
	"context"
	"io"

	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// ObjectRepo реализует хранилище временных загрузок поверх MinIO.
type ObjectRepo struct {
	mc     *minio.Client
	bucket string
}

func NewObjectRepo(mc *minio.Client, bucket string) *ObjectRepo {
	return &ObjectRepo{
		mc:     mc,
		bucket: bucket,
	}
}

// Upload загружает изображение в MinIO и возвращает ключ объекта.
func (o *ObjectRepo) Upload(ctx context.Context, image *domain.Image) (string, error) {
	reader := bytes.NewReader(image.Bytes)

	info, err := o.mc.PutObject(ctx, o.bucket, image.ObjectKey, reader, image.Size, minio.PutObjectOptions{
		ContentType: image.ContentType,
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return info.Key, nil
}

// Open возвращает поток объекта. Ошибка отсутствия объекта проявляется при первом чтении,
// поэтому объект проверяется через Stat сразу.
func (o *ObjectRepo) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := o.mc.GetObject(ctx, o.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return obj, nil
}

// Delete удаляет объект из MinIO по указанному ключу.
func (o *ObjectRepo) Delete(ctx context.Context, key string) error {
	if err := o.mc.RemoveObject(ctx, o.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

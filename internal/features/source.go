package features

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
)

// Source — именованный источник байтов изображения.
// Name используется как идентификатор изображения во всех результатах.
type Source struct {
	Name string
	Open func(ctx context.Context) (io.ReadCloser, error)
}

// BytesSource оборачивает изображение, уже находящееся в памяти.
func BytesSource(name string, data []byte) Source {
	return Source{
		Name: name,
		Open: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FileSource читает изображение с диска. Идентификатор — базовое имя файла.
func FileSource(path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func(context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

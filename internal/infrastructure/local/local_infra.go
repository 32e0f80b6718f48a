package local

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/DRSN-tech/imgcluster/internal/features"
	"github.com/DRSN-tech/imgcluster/internal/usecase"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
)

// LocalInfrastructure размещает загрузки задачи во временном каталоге на диске.
type LocalInfrastructure struct {
	baseDir string
	logger  logger.Logger

	mu   sync.Mutex
	dirs map[string]string // jobID -> каталог
}

func NewLocalInfrastructure(baseDir string, logger logger.Logger) *LocalInfrastructure {
	return &LocalInfrastructure{
		baseDir: baseDir,
		logger:  logger,
		dirs:    make(map[string]string),
	}
}

// Stage записывает файлы задачи в собственный временный каталог.
func (l *LocalInfrastructure) Stage(ctx context.Context, jobID string, images []usecase.UploadedImage) ([]features.Source, error) {
	const op = "LocalInfrastructure.Stage"

	if err := os.MkdirAll(l.baseDir, 0o755); err != nil {
		return nil, e.Wrap(op, err)
	}
	dir, err := os.MkdirTemp(l.baseDir, "imgcluster-"+jobID+"-")
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	l.mu.Lock()
	l.dirs[jobID] = dir
	l.mu.Unlock()

	sources := make([]features.Source, 0, len(images))
	for _, image := range images {
		if err := ctx.Err(); err != nil {
			return nil, e.Wrap(op, err)
		}
		if err := usecase.ValidateFileName(image.Name); err != nil {
			return nil, e.Wrap(op, err)
		}

		path := filepath.Join(dir, image.Name)
		if err := os.WriteFile(path, image.Data, 0o600); err != nil {
			return nil, e.Wrap(op, err)
		}
		sources = append(sources, features.FileSource(path))
	}

	return sources, nil
}

// Cleanup удаляет каталог задачи. Повторный вызов ничего не делает.
func (l *LocalInfrastructure) Cleanup(jobID string) {
	l.mu.Lock()
	dir, ok := l.dirs[jobID]
	delete(l.dirs, jobID)
	l.mu.Unlock()

	if !ok {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		l.logger.Warnf("failed to remove staging dir %s of job %s: %v", dir, jobID, err)
	}
}

// Dir возвращает каталог задачи, если он ещё существует.
func (l *LocalInfrastructure) Dir(jobID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	dir, ok := l.dirs[jobID]

	return dir, ok
}

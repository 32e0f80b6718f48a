package app

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	config "github.com/DRSN-tech/imgcluster/internal/cfg"
	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/internal/features"
	"github.com/DRSN-tech/imgcluster/internal/usecase"
	"github.com/DRSN-tech/imgcluster/pkg/closer"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/jimlawless/whereami"
)

// imageExtensions — расширения, которые пакетный режим берёт из каталога.
var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".tif": {}, ".tiff": {}, ".webp": {},
}

// BatchOptions — параметры однократной кластеризации каталога.
type BatchOptions struct {
	Dir       string
	PushIndex bool // отправить центроиды в настроенный индекс
}

// RunBatch кластеризует изображения каталога без запуска серверов.
func RunBatch(ctx context.Context, cfg *config.Config, log logger.Logger, opts BatchOptions) (*domain.Outcome, error) {
	sources, err := DirSources(opts.Dir, cfg.Pipeline.MaxImages)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cl := closer.NewCloser(0)
	defer func() {
		if err := cl.Close(context.Background()); err != nil {
			log.Warnf("%v", err)
		}
	}()

	pipe, err := NewPipeline(cfg, log, cl)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	outcome, err := pipe.Run(ctx, sources)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if opts.PushIndex && outcome.GroupCount() > 0 {
		idx, err := NewIndex(cfg, log, cl)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		pushCtx, cancel := context.WithTimeout(ctx, cfg.Jobs.IndexPushTimeout)
		defer cancel()
		if err := usecase.NewIndexUC(idx, log).BuildIndex(pushCtx, outcome.Centroids); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	return outcome, nil
}

// DirSources перечисляет изображения каталога (без подкаталогов) в лексикографическом порядке.
func DirSources(dir string, maxImages int) ([]features.Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if _, ok := imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, e.ErrNoImages
	}
	if maxImages > 0 && len(names) > maxImages {
		return nil, e.ErrTooManyImages
	}

	sources := make([]features.Source, len(names))
	for i, name := range names {
		sources[i] = features.FileSource(filepath.Join(dir, name))
	}

	return sources, nil
}

package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/imgcluster/internal/cfg"
	v1Grpc "github.com/DRSN-tech/imgcluster/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/imgcluster/internal/delivery/v1/http"
	"github.com/DRSN-tech/imgcluster/internal/usecase"
	"github.com/DRSN-tech/imgcluster/pkg/closer"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const shutdownTimeout = 30 * time.Second

// App — сервис кластеризации: HTTP и gRPC поверх общих сценариев.
type App struct {
	cfg     *config.Config
	logger  logger.Logger
	closer  *closer.Closer
	cancel  context.CancelFunc
	httpSrv *v1Http.Server
	grpcSrv *v1Grpc.GRPCServer
}

// NewApp поднимает все зависимости. Порядок регистрации в closer обратен порядку остановки:
// сначала серверы, затем фоновые задачи, затем клиенты хранилищ и трассировка.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	cl := closer.NewCloser(0)
	shutdownCtx, cancel := context.WithCancel(context.Background())

	app, err := build(shutdownCtx, cfg, log, cl)
	if err != nil {
		cancel()
		if closeErr := cl.Close(context.Background()); closeErr != nil {
			log.Warnf("partial init cleanup: %v", closeErr)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	app.cancel = cancel

	return app, nil
}

func build(shutdownCtx context.Context, cfg *config.Config, log logger.Logger, cl *closer.Closer) (*App, error) {
	if err := initTracing(cfg, cl); err != nil {
		return nil, err
	}

	pipe, err := NewPipeline(cfg, log, cl)
	if err != nil {
		return nil, err
	}

	jobs, err := newJobRepository(cfg, log, cl)
	if err != nil {
		return nil, err
	}

	idx, err := NewIndex(cfg, log, cl)
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(cfg, log, cl)
	if err != nil {
		return nil, err
	}

	st, err := newStager(shutdownCtx, cfg, log)
	if err != nil {
		return nil, err
	}
	cl.Add("staging cleanup", st.waitForCleanup)

	clusterUC := usecase.NewClusterUC(jobs, idx, st, pipe, publisher, usecase.ClusterOptions{
		MaxImages:        cfg.Pipeline.MaxImages,
		IndexPushTimeout: cfg.Jobs.IndexPushTimeout,
		SearchTimeout:    cfg.Jobs.SearchTimeout,
	}, log)
	cl.Add("running jobs", clusterUC.Wait)

	indexUC := usecase.NewIndexUC(idx, log)

	grpcSrv := v1Grpc.NewGRPCServer(cfg.Grpc, log)
	grpcSrv.RegisterServices(clusterUC)
	cl.Add("gRPC server", grpcSrv.Stop)

	r := chi.NewRouter()
	v1Http.NewRouter(r, log).Init(clusterUC, indexUC, v1Http.RouterOptions{
		APIKey: cfg.Auth.APIKey,
		Limits: v1Http.Limits{
			MaxImages:   cfg.Pipeline.MaxImages,
			MaxFileSize: cfg.Pipeline.MaxFileSize,
		},
	})
	httpSrv := v1Http.NewServer(r, cfg.Http)
	cl.Add("HTTP server", httpSrv.Stop)

	log.Infof("backends: jobs=%s staging=%s index=%s events=%t",
		cfg.Jobs.Store, cfg.Staging.Backend, cfg.Index.Backend, cfg.Kafka.Enabled())

	return &App{
		cfg:     cfg,
		logger:  log,
		closer:  cl,
		httpSrv: httpSrv,
		grpcSrv: grpcSrv,
	}, nil
}

// Run запускает серверы и блокируется до сигнала остановки или ошибки сервера.
func (a *App) Run() error {
	grpcErrCh := make(chan error, 1)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			a.logger.Errorf(err, "gRPC server failed")
			grpcErrCh <- err
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed: %v", err)
			errCh <- err
		}
	}()

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case appErr = <-grpcErrCh:
		a.logger.Errorf(appErr, "gRPC server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	// === Graceful shutdown ===
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(ctx); err != nil {
		a.logger.Warnf("%v", err)
	}
	a.cancel()

	a.logger.Infof("Application shutdown complete")
	return appErr
}

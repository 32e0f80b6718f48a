package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/DRSN-tech/imgcluster/db"
	config "github.com/DRSN-tech/imgcluster/internal/cfg"
	"github.com/DRSN-tech/imgcluster/internal/clustering"
	"github.com/DRSN-tech/imgcluster/internal/features"
	"github.com/DRSN-tech/imgcluster/internal/infrastructure/index"
	"github.com/DRSN-tech/imgcluster/internal/infrastructure/inference"
	"github.com/DRSN-tech/imgcluster/internal/infrastructure/kafka"
	"github.com/DRSN-tech/imgcluster/internal/infrastructure/local"
	minioInfra "github.com/DRSN-tech/imgcluster/internal/infrastructure/minio"
	"github.com/DRSN-tech/imgcluster/internal/observability"
	"github.com/DRSN-tech/imgcluster/internal/pipeline"
	"github.com/DRSN-tech/imgcluster/internal/proto"
	"github.com/DRSN-tech/imgcluster/internal/repository/memory"
	s3Repo "github.com/DRSN-tech/imgcluster/internal/repository/minio"
	"github.com/DRSN-tech/imgcluster/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/imgcluster/internal/repository/pgdb/converter"
	qdrantRepo "github.com/DRSN-tech/imgcluster/internal/repository/qdrant"
	"github.com/DRSN-tech/imgcluster/internal/repository/redis"
	redisConv "github.com/DRSN-tech/imgcluster/internal/repository/redis/converter"
	"github.com/DRSN-tech/imgcluster/internal/usecase"
	"github.com/DRSN-tech/imgcluster/pkg/clients"
	"github.com/DRSN-tech/imgcluster/pkg/closer"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/DRSN-tech/imgcluster/pkg/postgres"
	"github.com/jimlawless/whereami"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Version задаётся при сборке через -ldflags "-X .../internal/app.Version=...".
var Version = "dev"

const initTimeout = 10 * time.Second

// NewLogger создаёт логгер с уровнем из конфигурации. Вывод в stderr, stdout остаётся под результаты CLI.
func NewLogger(cfg *config.Config) logger.Logger {
	return logger.NewSlogLoggerWithWriter(os.Stderr, logger.ParseLevel(cfg.Log.Level))
}

func initTracing(cfg *config.Config, cl *closer.Closer) error {
	tp, err := observability.InitTracing(context.Background(), &observability.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: Version,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add("tracing", tp.Shutdown)

	return nil
}

// NewPipeline собирает конвейер: загрузчик, клиент инференса, k-means и выбор K.
// Соединение с сервисом инференса закрывается через cl.
func NewPipeline(cfg *config.Config, log logger.Logger, cl *closer.Closer) (*pipeline.Pipeline, error) {
	conn, err := grpc.NewClient(
		cfg.Inference.Addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()), // явное указание gRPC-клиенту использовать НЕзащищённое соединение (без TLS).
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.AddCloser("inference connection", conn)

	embedder := inference.NewEmbedder(proto.NewInferenceServiceClient(conn), inference.Options{
		MaxConcurrent: cfg.Inference.MaxConcurrent,
		MaxRetries:    cfg.Inference.MaxRetries,
		CallTimeout:   cfg.Inference.CallTimeout,
		ExpectedDim:   cfg.Inference.EmbeddingDim,
	}, log)

	kmeans := clustering.NewKMeans(cfg.Pipeline.Restarts, cfg.Pipeline.MaxIter, cfg.Pipeline.Seed)
	selector := clustering.NewSelector(kmeans, cfg.Pipeline.MaxK, log)
	loader := features.NewLoader(cfg.Pipeline.Workers, log)

	return pipeline.NewPipeline(loader, embedder, selector, log), nil
}

func newJobRepository(cfg *config.Config, log logger.Logger, cl *closer.Closer) (usecase.JobRepository, error) {
	switch cfg.Jobs.Store {
	case config.JobStoreMemory:
		return memory.NewJobRepo(), nil

	case config.JobStoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
		defer cancel()
		redisClient, err := clients.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		cl.AddCloser("redis", redisClient)

		return redis.NewJobRepo(redisClient, redisConv.NewJobConverter(), cfg.Jobs, log), nil

	case config.JobStorePostgres:
		pg, err := initPGDB(log, cfg)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		cl.Add("postgres", func(context.Context) error {
			pg.Close()
			return nil
		})

		return pgdb.NewJobRepo(pg.Pool, pgdbConv.NewJobConverter()), nil

	default:
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: job store %q", e.ErrUnknownBackend, cfg.Jobs.Store))
	}
}

// stager — хранилище загрузок вместе с ожиданием фоновой очистки при остановке.
type stager struct {
	usecase.Stager
	waitForCleanup func(ctx context.Context) error
}

func newStager(shutdownCtx context.Context, cfg *config.Config, log logger.Logger) (*stager, error) {
	switch cfg.Staging.Backend {
	case config.StagingLocal:
		return &stager{
			Stager:         local.NewLocalInfrastructure(cfg.Staging.Dir, log),
			waitForCleanup: func(context.Context) error { return nil },
		}, nil

	case config.StagingMinio:
		minioClient, err := clients.NewMinIOClient(cfg.Minio)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
		defer cancel()
		if err := clients.EnsureBucket(ctx, minioClient, cfg.Minio.BucketName); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		objects := s3Repo.NewObjectRepo(minioClient, cfg.Minio.BucketName)
		infra := minioInfra.NewMinioInfrastructure(objects, minioInfra.Options{
			Bucket:         cfg.Minio.BucketName,
			UploadLimit:    cfg.Pipeline.Workers,
			CleanupRetries: cfg.Minio.CleanupRetries,
		}, log, shutdownCtx)

		return &stager{Stager: infra, waitForCleanup: infra.WaitForCleanup}, nil

	default:
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: staging %q", e.ErrUnknownBackend, cfg.Staging.Backend))
	}
}

// NewIndex открывает индекс центроидов выбранного бэкенда.
func NewIndex(cfg *config.Config, log logger.Logger, cl *closer.Closer) (usecase.CentroidIndex, error) {
	switch cfg.Index.Backend {
	case config.IndexMemory:
		return index.NewMemoryIndex(), nil

	case config.IndexBolt:
		bolt, err := index.NewBoltIndex(cfg.Index.BoltPath)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		cl.AddCloser("bolt index", bolt)
		log.Infof("bolt index opened at %s (job %q)", cfg.Index.BoltPath, bolt.JobID())

		return bolt, nil

	case config.IndexQdrant:
		qdrantClient, err := clients.NewQdrantClient(cfg.Qdrant)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
		defer cancel()
		if err := clients.EnsureCollection(ctx, qdrantClient); err != nil {
			_ = qdrantClient.Close()
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		cl.AddCloser("qdrant", qdrantClient)

		return qdrantRepo.NewCentroidRepo(qdrantClient, cfg.Qdrant.VectorSize), nil

	case config.IndexHTTP:
		return index.NewHTTPIndex(cfg.Index.URL, cfg.Index.APIKey, cfg.Index.Timeout), nil

	default:
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: index %q", e.ErrUnknownBackend, cfg.Index.Backend))
	}
}

func newPublisher(cfg *config.Config, log logger.Logger, cl *closer.Closer) (usecase.EventPublisher, error) {
	const topicTimeout = 10 * time.Second

	if !cfg.Kafka.Enabled() {
		log.Infof("kafka brokers are not configured, job events are not published")
		return kafka.NopPublisher{}, nil
	}

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := producer.EnsureTopic(topicTimeout); err != nil {
		log.Warnf("kafka topic %s is not ready: %v", cfg.Kafka.Topic, err)
	}
	cl.AddCloser("kafka producer", producer)

	return producer, nil
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	pg, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := pg.RunMigrations(logger, db.Migrations, db.MigrationsDir); err != nil {
		logger.Errorf(err, "failed to run migrations")
		pg.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := pg.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		pg.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return pg, nil
}

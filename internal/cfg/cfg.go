package cfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/spf13/viper"
)

// Бэкенды реестра задач
const (
	JobStoreMemory   = "memory"
	JobStoreRedis    = "redis"
	JobStorePostgres = "postgres"
)

// Бэкенды временного хранилища загрузок
const (
	StagingLocal = "local"
	StagingMinio = "minio"
)

// Бэкенды индекса центроидов
const (
	IndexMemory = "memory"
	IndexBolt   = "bolt"
	IndexQdrant = "qdrant"
	IndexHTTP   = "http"
)

type Config struct {
	Http      *HTTPConfig
	Grpc      *GRPCConfig
	Pipeline  *PipelineCfg
	Inference *InferenceCfg
	Jobs      *JobsCfg
	Staging   *StagingCfg
	Index     *IndexCfg
	Redis     *RedisCfg
	Db        *PGDBCfg
	Minio     *MinIOCfg
	Qdrant    *QdrantCfg
	Kafka     *KafkaCfg
	Tracing   *TracingCfg
	Auth      *AuthCfg
	Log       *LogCfg
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

type PipelineCfg struct {
	Workers     int   // параллельное декодирование
	Restarts    int   // перезапуски k-means
	MaxIter     int   // итерации k-means
	Seed        int64 // зерно генератора k-means
	MaxK        int   // верхняя граница перебора K
	MaxImages   int   // лимит изображений в одной задаче
	MaxFileSize int64 // лимит размера одного файла, байт
}

type InferenceCfg struct {
	Addr          string
	MaxConcurrent int
	MaxRetries    int
	CallTimeout   time.Duration
	EmbeddingDim  int
}

type JobsCfg struct {
	Store            string
	TTL              time.Duration // срок хранения записи задачи в Redis
	IndexPushTimeout time.Duration
	SearchTimeout    time.Duration
}

type StagingCfg struct {
	Backend string
	Dir     string
}

type IndexCfg struct {
	Backend  string
	BoltPath string
	URL      string // адрес удалённого сервиса поиска (http)
	APIKey   string
	Timeout  time.Duration
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Название бакета для временных загрузок задач
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
	CleanupRetries    int
}

type QdrantCfg struct {
	Port                 int
	Host                 string
	ApiKey               string
	QdrantCollectionName string // имя коллекции центроидов в Qdrant
	UseTLS               bool
	VectorSize           uint64 // размерность объединённого вектора
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

// Enabled сообщает, настроена ли публикация событий.
func (k *KafkaCfg) Enabled() bool {
	return len(k.Brokers) > 0
}

type TracingCfg struct {
	Endpoint    string
	ServiceName string
	Environment string
	SampleRate  float64
}

type AuthCfg struct {
	APIKey string // пустой ключ отключает проверку X-API-KEY
}

type LogCfg struct {
	Level string
}

// source читает значения из переменных окружения и, если задан, из файла конфигурации.
// Переменные окружения имеют приоритет над файлом.
type source struct {
	v *viper.Viper
}

func newSource(path string) (*source, error) {
	v := viper.New()
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	return &source{v: v}, nil
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
// path — необязательный файл (yaml, json, toml, env) с теми же ключами, что и переменные окружения.
func Load(log logger.Logger, path string) (*Config, error) {
	s, err := newSource(path)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := s.loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	pipeline, err := s.loadPipelineCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	inference, err := s.loadInferenceCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	jobs, err := s.loadJobsCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	staging, err := s.loadStagingCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	index, err := s.loadIndexCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := s.loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	db, err := s.loadPGDBCfg(log, jobs.Store == JobStorePostgres)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := s.loadMinIOCfg(log, staging.Backend == StagingMinio)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	qdrant, err := s.loadQdrantCfg(log, inference.EmbeddingDim)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := s.loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	tracing, err := s.loadTracingCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Http:      http,
		Grpc:      s.loadGRPCConfig(),
		Pipeline:  pipeline,
		Inference: inference,
		Jobs:      jobs,
		Staging:   staging,
		Index:     index,
		Redis:     redis,
		Db:        db,
		Minio:     minio,
		Qdrant:    qdrant,
		Kafka:     kafka,
		Tracing:   tracing,
		Auth:      &AuthCfg{APIKey: s.getEnv("API_KEY")},
		Log:       &LogCfg{Level: s.getEnvOrDefault("LOG_LEVEL", "info")},
	}, nil
}

func (s *source) loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 30 * time.Second
		defaultWriteTimeout = 60 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	readTimeout, err := s.parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := s.parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := s.parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         s.getEnvOrDefault("HTTP_PORT", defaultPort),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func (s *source) loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        s.getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: s.getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

func (s *source) loadPipelineCfg(log logger.Logger) (*PipelineCfg, error) {
	const (
		defaultWorkers     = 4
		defaultRestarts    = 30
		defaultMaxIter     = 300
		defaultSeed        = 42
		defaultMaxK        = 10
		defaultMaxImages   = 500
		defaultMaxFileSize = 20 << 20
	)

	cfg := &PipelineCfg{}
	fields := []struct {
		key string
		dst *int
		def int
	}{
		{"DECODE_WORKERS", &cfg.Workers, defaultWorkers},
		{"KMEANS_RESTARTS", &cfg.Restarts, defaultRestarts},
		{"KMEANS_MAX_ITER", &cfg.MaxIter, defaultMaxIter},
		{"AUTOK_MAX_K", &cfg.MaxK, defaultMaxK},
		{"UPLOAD_IMAGES_MAX", &cfg.MaxImages, defaultMaxImages},
	}
	for _, f := range fields {
		v, err := s.parseIntEnv(f.key, f.def)
		if err != nil {
			log.Errorf(err, "invalid %s", f.key)
			return nil, e.Wrap(f.key, err)
		}
		if v <= 0 {
			return nil, e.Wrap(f.key, e.ErrIncorrectEnvVariable)
		}
		*f.dst = v
	}

	seed, err := s.parseIntEnv("KMEANS_SEED", defaultSeed)
	if err != nil {
		log.Errorf(err, "invalid KMEANS_SEED")
		return nil, e.Wrap("KMEANS_SEED", err)
	}
	cfg.Seed = int64(seed)

	maxFileSize, err := s.parseIntEnv("UPLOAD_FILE_MAX_BYTES", defaultMaxFileSize)
	if err != nil {
		log.Errorf(err, "invalid UPLOAD_FILE_MAX_BYTES")
		return nil, e.Wrap("UPLOAD_FILE_MAX_BYTES", err)
	}
	cfg.MaxFileSize = int64(maxFileSize)

	return cfg, nil
}

func (s *source) loadInferenceCfg(log logger.Logger) (*InferenceCfg, error) {
	const (
		defaultHost          = "inference"
		defaultPort          = "50051"
		defaultMaxConcurrent = 8
		defaultMaxRetries    = 3
		defaultCallTimeout   = 30 * time.Second
		defaultEmbeddingDim  = 2048
	)

	maxConcurrent, err := s.parseIntEnv("INFERENCE_MAX_CONCURRENT", defaultMaxConcurrent)
	if err != nil {
		log.Errorf(err, "invalid INFERENCE_MAX_CONCURRENT")
		return nil, err
	}

	maxRetries, err := s.parseIntEnv("INFERENCE_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid INFERENCE_MAX_RETRIES")
		return nil, err
	}

	callTimeout, err := s.parseDurationEnv("INFERENCE_TIMEOUT", defaultCallTimeout)
	if err != nil {
		log.Errorf(err, "invalid INFERENCE_TIMEOUT")
		return nil, err
	}

	dim, err := s.parseIntEnv("EMBEDDING_DIM", defaultEmbeddingDim)
	if err != nil {
		log.Errorf(err, "invalid EMBEDDING_DIM")
		return nil, err
	}

	host := s.getEnvOrDefault("INFERENCE_HOST", defaultHost)
	port := s.getEnvOrDefault("INFERENCE_PORT", defaultPort)

	return &InferenceCfg{
		Addr:          host + ":" + port,
		MaxConcurrent: maxConcurrent,
		MaxRetries:    maxRetries,
		CallTimeout:   callTimeout,
		EmbeddingDim:  dim,
	}, nil
}

func (s *source) loadJobsCfg(log logger.Logger) (*JobsCfg, error) {
	const (
		defaultTTL              = 24 * time.Hour
		defaultIndexPushTimeout = 10 * time.Second
		defaultSearchTimeout    = 10 * time.Second
	)

	store := strings.ToLower(s.getEnvOrDefault("JOB_STORE", JobStoreMemory))
	switch store {
	case JobStoreMemory, JobStoreRedis, JobStorePostgres:
	default:
		return nil, fmt.Errorf("%w: JOB_STORE=%s", e.ErrUnknownBackend, store)
	}

	ttl, err := s.parseDurationEnv("JOB_TTL", defaultTTL)
	if err != nil {
		log.Errorf(err, "invalid JOB_TTL")
		return nil, err
	}

	pushTimeout, err := s.parseDurationEnv("INDEX_PUSH_TIMEOUT", defaultIndexPushTimeout)
	if err != nil {
		log.Errorf(err, "invalid INDEX_PUSH_TIMEOUT")
		return nil, err
	}

	searchTimeout, err := s.parseDurationEnv("SEARCH_TIMEOUT", defaultSearchTimeout)
	if err != nil {
		log.Errorf(err, "invalid SEARCH_TIMEOUT")
		return nil, err
	}

	return &JobsCfg{
		Store:            store,
		TTL:              ttl,
		IndexPushTimeout: pushTimeout,
		SearchTimeout:    searchTimeout,
	}, nil
}

func (s *source) loadStagingCfg() (*StagingCfg, error) {
	backend := strings.ToLower(s.getEnvOrDefault("STAGING", StagingLocal))
	switch backend {
	case StagingLocal, StagingMinio:
	default:
		return nil, fmt.Errorf("%w: STAGING=%s", e.ErrUnknownBackend, backend)
	}

	return &StagingCfg{
		Backend: backend,
		Dir:     s.getEnvOrDefault("STAGING_DIR", os.TempDir()),
	}, nil
}

func (s *source) loadIndexCfg(log logger.Logger) (*IndexCfg, error) {
	const defaultTimeout = 10 * time.Second

	backend := strings.ToLower(s.getEnvOrDefault("INDEX_BACKEND", IndexMemory))
	switch backend {
	case IndexMemory, IndexBolt, IndexQdrant, IndexHTTP:
	default:
		return nil, fmt.Errorf("%w: INDEX_BACKEND=%s", e.ErrUnknownBackend, backend)
	}

	url := s.getEnv("INDEX_URL")
	if backend == IndexHTTP && url == "" {
		err := fmt.Errorf("INDEX_URL is required for INDEX_BACKEND=http")
		log.Errorf(err, "missing INDEX_URL")
		return nil, err
	}

	timeout, err := s.parseDurationEnv("INDEX_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid INDEX_TIMEOUT")
		return nil, err
	}

	return &IndexCfg{
		Backend:  backend,
		BoltPath: s.getEnvOrDefault("INDEX_BOLT_PATH", filepath.Join(os.TempDir(), "imgcluster-index.db")),
		URL:      url,
		APIKey:   s.getEnv("INDEX_API_KEY"),
		Timeout:  timeout,
	}, nil
}

func (s *source) loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
	)

	db, err := s.parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := s.parseIntEnv("REDIS_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid REDIS_MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := s.parseDurationEnv("REDIS_DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := s.parseDurationEnv("REDIS_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := s.parseDurationEnv("REDIS_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_WRITE_TIMEOUT")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        s.getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    s.getEnv("REDIS_PASSWORD"),
		User:        s.getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
	}, nil
}

// loadPGDBCfg требует учётные данные только когда Postgres выбран реестром задач.
func (s *source) loadPGDBCfg(log logger.Logger, required bool) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	cfg := &PGDBCfg{
		Host:     s.getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     s.getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     s.getEnv("POSTGRES_USER"),
		Password: s.getEnv("POSTGRES_PASSWORD"),
		DBName:   s.getEnv("POSTGRES_DB"),
		SSLMode:  s.getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}
	if !required {
		return cfg, nil
	}

	for key, value := range map[string]string{
		"POSTGRES_USER":     cfg.User,
		"POSTGRES_PASSWORD": cfg.Password,
		"POSTGRES_DB":       cfg.DBName,
	} {
		if value == "" {
			err := fmt.Errorf("%s is required", key)
			log.Errorf(err, "missing %s", key)
			return nil, err
		}
	}

	return cfg, nil
}

func (s *source) loadMinIOCfg(log logger.Logger, required bool) (*MinIOCfg, error) {
	const (
		defaultUseSSL         = false
		defaultEndpoint       = "minio:9000"
		defaultBucket         = "imgcluster-staging"
		defaultCleanupRetries = 3
	)

	useSSL, err := s.parseBoolEnv("MINIO_USE_SSL", defaultUseSSL)
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	retries, err := s.parseIntEnv("MINIO_CLEANUP_RETRIES", defaultCleanupRetries)
	if err != nil {
		log.Errorf(err, "invalid MINIO_CLEANUP_RETRIES")
		return nil, err
	}

	cfg := &MinIOCfg{
		MinioEndpoint:     s.getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        s.getEnvOrDefault("BUCKET_NAME", defaultBucket),
		MinioRootUser:     s.getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: s.getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		CleanupRetries:    retries,
	}
	if required && (cfg.MinioRootUser == "" || cfg.MinioRootPassword == "") {
		err := fmt.Errorf("MINIO_ROOT_USER and MINIO_ROOT_PASSWORD are required for STAGING=minio")
		log.Errorf(err, "missing minio credentials")
		return nil, err
	}

	return cfg, nil
}

// loadQdrantCfg по умолчанию выводит размерность коллекции из размерности эмбеддинга:
// объединённый вектор = эмбеддинг + цветовая гистограмма 4x4x4.
func (s *source) loadQdrantCfg(log logger.Logger, embeddingDim int) (*QdrantCfg, error) {
	const (
		defaultQdrantGRPCPort = 6334
		defaultUseTLS         = false
		defaultCollection     = "imgcluster_centroids"
		colorDim              = 64
	)

	port, err := s.parseIntEnv("QDRANT_GRPC_PORT", defaultQdrantGRPCPort)
	if err != nil {
		log.Errorf(err, "invalid QDRANT_GRPC_PORT")
		return nil, err
	}

	useTLS, err := s.parseBoolEnv("QDRANT_USE_TLS", defaultUseTLS)
	if err != nil {
		log.Errorf(err, "invalid QDRANT_USE_TLS")
		return nil, err
	}

	vectorSize, err := strconv.ParseUint(s.getEnvOrDefault("VECTOR_SIZE", strconv.Itoa(embeddingDim+colorDim)), 10, 64)
	if err != nil {
		log.Errorf(err, "invalid VECTOR_SIZE")
		return nil, err
	}

	return &QdrantCfg{
		Host:                 s.getEnvOrDefault("QDRANT_HOST", "localhost"),
		Port:                 port,
		ApiKey:               s.getEnv("QDRANT__SERVICE__API_KEY"),
		QdrantCollectionName: s.getEnvOrDefault("COLLECTION_NAME", defaultCollection),
		UseTLS:               useTLS,
		VectorSize:           vectorSize,
	}, nil
}

// loadKafkaCfg: без KAFKA_BROKERS публикация событий отключена.
func (s *source) loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultTopic             = "imgcluster.jobs"
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
	)

	var brokers []string
	for _, b := range strings.Split(s.getEnv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	partitions, err := s.parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := s.parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             s.getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       s.getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func (s *source) loadTracingCfg() (*TracingCfg, error) {
	rate, err := strconv.ParseFloat(s.getEnvOrDefault("OTEL_SAMPLE_RATE", "1"), 64)
	if err != nil {
		return nil, e.Wrap("OTEL_SAMPLE_RATE", e.ErrIncorrectEnvVariable)
	}

	return &TracingCfg{
		Endpoint:    s.getEnv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName: s.getEnvOrDefault("OTEL_SERVICE_NAME", "imgcluster"),
		Environment: s.getEnvOrDefault("ENVIRONMENT", "development"),
		SampleRate:  rate,
	}, nil
}

// getEnv возвращает значение ключа. Пустая строка, если ключ не задан.
func (s *source) getEnv(key string) string {
	return strings.TrimSpace(s.v.GetString(key))
}

// getEnvOrDefault возвращает значение ключа или значение по умолчанию.
func (s *source) getEnvOrDefault(key, defaultValue string) string {
	if value := s.getEnv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func (s *source) parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := s.getEnv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func (s *source) parseIntEnv(key string, defaultValue int) (int, error) {
	v := s.getEnv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}

func (s *source) parseBoolEnv(key string, defaultValue bool) (bool, error) {
	v := s.getEnv(key)
	if v == "" {
		return defaultValue, nil
	}

	return strconv.ParseBool(v)
}

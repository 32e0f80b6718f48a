package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(logger.NewNopLogger(), "")
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Http.Port)
	assert.Equal(t, "8091", c.Grpc.Port)
	assert.Equal(t, 30, c.Pipeline.Restarts)
	assert.Equal(t, 300, c.Pipeline.MaxIter)
	assert.Equal(t, int64(42), c.Pipeline.Seed)
	assert.Equal(t, 10, c.Pipeline.MaxK)
	assert.Equal(t, 2048, c.Inference.EmbeddingDim)
	assert.Equal(t, 3, c.Inference.MaxRetries)
	assert.Equal(t, JobStoreMemory, c.Jobs.Store)
	assert.Equal(t, StagingLocal, c.Staging.Backend)
	assert.Equal(t, IndexMemory, c.Index.Backend)
	assert.Equal(t, uint64(2112), c.Qdrant.VectorSize)
	assert.False(t, c.Kafka.Enabled())
	assert.Empty(t, c.Auth.APIKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("KMEANS_RESTARTS", "12")
	t.Setenv("INFERENCE_TIMEOUT", "2s")
	t.Setenv("EMBEDDING_DIM", "512")
	t.Setenv("INDEX_BACKEND", "BOLT")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("API_KEY", "secret")

	c, err := Load(logger.NewNopLogger(), "")
	require.NoError(t, err)

	assert.Equal(t, "9000", c.Http.Port)
	assert.Equal(t, 12, c.Pipeline.Restarts)
	assert.Equal(t, 2*time.Second, c.Inference.CallTimeout)
	assert.Equal(t, uint64(576), c.Qdrant.VectorSize)
	assert.Equal(t, IndexBolt, c.Index.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled())
	assert.Equal(t, "secret", c.Auth.APIKey)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgcluster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_port: \"7000\"\nautok_max_k: 6\njob_store: redis\n"), 0o600))

	t.Setenv("AUTOK_MAX_K", "8")

	c, err := Load(logger.NewNopLogger(), path)
	require.NoError(t, err)

	assert.Equal(t, "7000", c.Http.Port)
	assert.Equal(t, 8, c.Pipeline.MaxK, "env wins over file")
	assert.Equal(t, JobStoreRedis, c.Jobs.Store)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(logger.NewNopLogger(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want error
	}{
		{name: "unknown job store", env: map[string]string{"JOB_STORE": "mongo"}, want: e.ErrUnknownBackend},
		{name: "unknown staging", env: map[string]string{"STAGING": "s3"}, want: e.ErrUnknownBackend},
		{name: "unknown index", env: map[string]string{"INDEX_BACKEND": "faiss"}, want: e.ErrUnknownBackend},
		{name: "non numeric restarts", env: map[string]string{"KMEANS_RESTARTS": "many"}, want: e.ErrIncorrectEnvVariable},
		{name: "zero max k", env: map[string]string{"AUTOK_MAX_K": "0"}, want: e.ErrIncorrectEnvVariable},
		{name: "bad sample rate", env: map[string]string{"OTEL_SAMPLE_RATE": "x"}, want: e.ErrIncorrectEnvVariable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(logger.NewNopLogger(), "")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_BackendRequirements(t *testing.T) {
	t.Run("postgres needs credentials", func(t *testing.T) {
		t.Setenv("JOB_STORE", "postgres")
		_, err := Load(logger.NewNopLogger(), "")
		assert.Error(t, err)

		t.Setenv("POSTGRES_USER", "u")
		t.Setenv("POSTGRES_PASSWORD", "p")
		t.Setenv("POSTGRES_DB", "d")
		c, err := Load(logger.NewNopLogger(), "")
		require.NoError(t, err)
		assert.Equal(t, "d", c.Db.DBName)
	})

	t.Run("minio staging needs credentials", func(t *testing.T) {
		t.Setenv("STAGING", "minio")
		_, err := Load(logger.NewNopLogger(), "")
		assert.Error(t, err)
	})

	t.Run("http index needs url", func(t *testing.T) {
		t.Setenv("INDEX_BACKEND", "http")
		_, err := Load(logger.NewNopLogger(), "")
		assert.Error(t, err)

		t.Setenv("INDEX_URL", "http://lookup:8080")
		c, err := Load(logger.NewNopLogger(), "")
		require.NoError(t, err)
		assert.Equal(t, "http://lookup:8080", c.Index.URL)
	})
}

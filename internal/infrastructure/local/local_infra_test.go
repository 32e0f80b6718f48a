package local

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/DRSN-tech/imgcluster/internal/usecase"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalInfrastructure_StageAndCleanup(t *testing.T) {
	infra := NewLocalInfrastructure(t.TempDir(), logger.NewNopLogger())

	sources, err := infra.Stage(context.Background(), "job-1", []usecase.UploadedImage{
		*usecase.NewUploadedImage("b.png", []byte("second"), "image/png"),
		*usecase.NewUploadedImage("a.png", []byte("first"), "image/png"),
	})
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "b.png", sources[0].Name)
	assert.Equal(t, "a.png", sources[1].Name)

	rc, err := sources[1].Open(context.Background())
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "first", string(data))

	dir, ok := infra.Dir("job-1")
	require.True(t, ok)

	infra.Cleanup("job-1")
	infra.Cleanup("job-1")

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
	_, ok = infra.Dir("job-1")
	assert.False(t, ok)
}

func TestLocalInfrastructure_RejectsPathTraversal(t *testing.T) {
	infra := NewLocalInfrastructure(t.TempDir(), logger.NewNopLogger())

	_, err := infra.Stage(context.Background(), "job-1", []usecase.UploadedImage{
		*usecase.NewUploadedImage("../evil.png", []byte("x"), "image/png"),
	})
	assert.ErrorIs(t, err, e.ErrInvalidFileName)

	infra.Cleanup("job-1")
}

func TestLocalInfrastructure_CleanupUnknownJob(t *testing.T) {
	infra := NewLocalInfrastructure(t.TempDir(), logger.NewNopLogger())
	assert.NotPanics(t, func() { infra.Cleanup("nope") })
}

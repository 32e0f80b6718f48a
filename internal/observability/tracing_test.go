package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracing_NoEndpoint(t *testing.T) {
	ctx := context.Background()

	tp, err := InitTracing(ctx, &TracingConfig{ServiceName: "test"})
	require.NoError(t, err)
	require.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestInitTracing_NilConfig(t *testing.T) {
	tp, err := InitTracing(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, tp)
}

func TestStageSpans(t *testing.T) {
	ctx, job := StartJobSpan(context.Background(), "job-1", 4)
	ctx, stage := StartStageSpan(ctx, StageAutoK, 4)

	RecordSelection(stage, 2, 0.71, 3)
	RecordSkipped(stage, 1)
	RecordError(stage, nil)
	RecordError(stage, errors.New("boom"))
	stage.End()
	job.End()

	assert.NotNil(t, ctx)
}

func TestTracerProvider_ShutdownWithoutProvider(t *testing.T) {
	assert.NoError(t, (&TracerProvider{}).Shutdown(context.Background()))
}

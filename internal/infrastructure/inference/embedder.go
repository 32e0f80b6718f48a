package inference

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/imgcluster/internal/features"
	"github.com/DRSN-tech/imgcluster/internal/proto"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/jitter"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Embedder — клиент внешнего сервиса инференса (ResNet50, слой avg_pool).
// Соединение создаётся один раз при старте и используется всеми задачами только на чтение.
type Embedder struct {
	client        proto.InferenceServiceClient
	maxConcurrent int
	maxRetries    int
	callTimeout   time.Duration
	expectedDim   int // 0 — размерность не проверяется
	backoff       *jitter.Backoff
	logger        logger.Logger
}

type Options struct {
	MaxConcurrent int
	MaxRetries    int
	CallTimeout   time.Duration
	ExpectedDim   int
	BackoffBase   time.Duration
	BackoffMax    time.Duration
}

func NewEmbedder(client proto.InferenceServiceClient, opts Options, logger logger.Logger) *Embedder {
	const (
		defaultMaxConcurrent = 8
		defaultMaxRetries    = 3
		defaultBackoffBase   = 500 * time.Millisecond
		defaultBackoffMax    = 10 * time.Second
	)

	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = defaultBackoffBase
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = defaultBackoffMax
	}

	return &Embedder{
		client:        client,
		maxConcurrent: opts.MaxConcurrent,
		maxRetries:    opts.MaxRetries,
		callTimeout:   opts.CallTimeout,
		expectedDim:   opts.ExpectedDim,
		backoff:       jitter.NewBackoff(opts.BackoffBase, opts.BackoffMax),
		logger:        logger,
	}
}

// Embed возвращает эмбеддинги в порядке тензоров. Временные ошибки сервиса
// повторяются с экспоненциальной задержкой, остальные возвращаются сразу.
func (m *Embedder) Embed(ctx context.Context, tensors []features.Tensor) ([][]float32, error) {
	const op = "Embedder.Embed"

	if len(tensors) == 0 {
		return [][]float32{}, nil
	}

	var lastErr error
	for attempt := 0; attempt < m.maxRetries; attempt++ {
		vectors, err := m.embedBatch(ctx, tensors)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		if !retryable(err) {
			return nil, e.Wrap(op, err)
		}
		if attempt == m.maxRetries-1 {
			break
		}

		sleepTime := m.backoff.Next(attempt)
		m.logger.Warnf("embedding failed, retrying in %v (attempt %d): %v", sleepTime, attempt+1, err)
		if err := jitter.Sleep(ctx, sleepTime); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	return nil, e.Wrap(op, fmt.Errorf("%w: all %d attempts failed: %v", e.ErrInferenceUnavailable, m.maxRetries, lastErr))
}

// embedBatch отправляет тензоры параллельно с ограничением конкурентности.
// Первая ошибка отменяет оставшиеся вызовы.
func (m *Embedder) embedBatch(ctx context.Context, tensors []features.Tensor) ([][]float32, error) {
	const op = "Embedder.embedBatch"

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(tensors))
	errCh := make(chan error, len(tensors))
	sem := make(chan struct{}, m.maxConcurrent)

	var wg sync.WaitGroup
	for i, tensor := range tensors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
			defer func() { <-sem }()

			vec, err := m.embedOne(ctx, tensor)
			if err != nil {
				errCh <- err
				cancel()
				return
			}
			vectors[i] = vec
		}()
	}

	wg.Wait()
	close(errCh)

	if err, ok := <-errCh; ok {
		return nil, e.Wrap(op, err)
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, e.Wrap(op, e.ErrVectorEmbeddingEmpty)
		}
		if len(v) != dim || (m.expectedDim > 0 && len(v) != m.expectedDim) {
			return nil, e.Wrap(op, fmt.Errorf("%w: vector %d has %d values", e.ErrEmbeddingDimMismatch, i, len(v)))
		}
	}

	return vectors, nil
}

func (m *Embedder) embedOne(ctx context.Context, tensor features.Tensor) ([]float32, error) {
	if len(tensor) != features.TensorLen {
		return nil, fmt.Errorf("%w: tensor has %d values, expected %d", e.ErrMalformedTensor, len(tensor), features.TensorLen)
	}

	if m.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.callTimeout)
		defer cancel()
	}

	res, err := m.client.Embed(ctx, wrapperspb.Bytes(proto.EncodeFloat32(tensor)))
	if err != nil {
		return nil, err
	}

	return proto.DecodeFloat32(res.GetValue())
}

// retryable сообщает, имеет ли смысл повторять вызов.
func retryable(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}

	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}

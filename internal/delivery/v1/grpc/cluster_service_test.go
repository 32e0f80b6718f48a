package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/DRSN-tech/imgcluster/internal/cfg"
	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/internal/proto"
	"github.com/DRSN-tech/imgcluster/internal/usecase"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type fakeClusterUC struct {
	lastImage *usecase.UploadedImage
	searchErr error
}

func (f *fakeClusterUC) Submit(context.Context, []usecase.UploadedImage) (*domain.Job, error) {
	return nil, e.ErrInternalServerError
}

func (f *fakeClusterUC) Status(_ context.Context, id string) (*domain.Job, error) {
	if id != "job-1" {
		return nil, e.Wrap("ClusterUseCase.Status", e.ErrJobNotFound)
	}

	return domain.NewJob(id, 3, time.Now()), nil
}

func (f *fakeClusterUC) Result(context.Context, string) (*domain.ClusterResult, error) {
	return nil, e.ErrJobNotFinished
}

func (f *fakeClusterUC) Centroids(context.Context, string) (domain.Centroids, error) {
	return nil, e.ErrJobNotFinished
}

func (f *fakeClusterUC) Search(_ context.Context, image *usecase.UploadedImage) (string, error) {
	f.lastImage = image
	if f.searchErr != nil {
		return "", f.searchErr
	}

	return "Group 1", nil
}

func newTestClient(t *testing.T, uc usecase.ClusterUC) proto.ClusterServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(&cfg.GRPCConfig{NetworkMode: "tcp"}, logger.NewNopLogger())
	srv.RegisterServices(uc)
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})

	return proto.NewClusterServiceClient(conn)
}

func TestClassify(t *testing.T) {
	uc := &fakeClusterUC{}
	client := newTestClient(t, uc)

	res, err := client.Classify(context.Background(), wrapperspb.Bytes([]byte("png-bytes")))
	require.NoError(t, err)
	assert.Equal(t, "Group 1", res.GetValue())

	require.NotNil(t, uc.lastImage)
	assert.Equal(t, queryImageName, uc.lastImage.Name)
	assert.Equal(t, []byte("png-bytes"), uc.lastImage.Data)
}

func TestClassify_ErrorCodes(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{err: e.ErrIndexEmpty, code: codes.FailedPrecondition},
		{err: e.ErrIndexUnavailable, code: codes.Unavailable},
		{err: e.ErrUndecodableImage, code: codes.InvalidArgument},
		{err: e.ErrMissingImage, code: codes.InvalidArgument},
		{err: e.ErrClusteringDegenerated, code: codes.Internal},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			client := newTestClient(t, &fakeClusterUC{searchErr: e.Wrap("ClusterUseCase.Search", tc.err)})

			_, err := client.Classify(context.Background(), wrapperspb.Bytes([]byte("x")))
			require.Error(t, err)
			assert.Equal(t, tc.code, status.Code(err))
		})
	}
}

func TestJobStatus(t *testing.T) {
	client := newTestClient(t, &fakeClusterUC{})

	res, err := client.JobStatus(context.Background(), wrapperspb.String("job-1"))
	require.NoError(t, err)
	assert.Equal(t, string(domain.JobRunning), res.GetValue())

	_, err = client.JobStatus(context.Background(), wrapperspb.String("missing"))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

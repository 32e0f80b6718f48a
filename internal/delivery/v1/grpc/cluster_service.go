package grpc

import (
	"context"

	"github.com/DRSN-tech/imgcluster/internal/proto"
	"github.com/DRSN-tech/imgcluster/internal/usecase"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// queryImageName — имя, под которым изображение запроса попадает в загрузчик.
const queryImageName = "query"

type ClusterService struct {
	proto.UnimplementedClusterServiceServer
	clusterUC usecase.ClusterUC
	logger    logger.Logger
}

func NewClusterService(clusterUC usecase.ClusterUC, logger logger.Logger) *ClusterService {
	return &ClusterService{clusterUC: clusterUC, logger: logger}
}

func (g *ClusterService) Classify(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	const op = "grpc.Classify"

	group, err := g.clusterUC.Search(ctx, usecase.NewUploadedImage(queryImageName, req.GetValue(), ""))
	if err != nil {
		g.logger.Errorf(e.Wrap(op, err), "%s", op)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	return wrapperspb.String(group), nil
}

func (g *ClusterService) JobStatus(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	const op = "grpc.JobStatus"

	job, err := g.clusterUC.Status(ctx, req.GetValue())
	if err != nil {
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	return wrapperspb.String(string(job.Status)), nil
}

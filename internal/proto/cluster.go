package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ClusterServiceName                = "imgcluster.v1.ClusterService"
	ClusterService_Classify_FullName  = "/" + ClusterServiceName + "/Classify"
	ClusterService_JobStatus_FullName = "/" + ClusterServiceName + "/JobStatus"
)

// ClusterServiceClient — клиент сервиса кластеризации.
type ClusterServiceClient interface {
	// Classify возвращает имя ближайшей группы для изображения.
	Classify(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	// JobStatus возвращает статус задачи по её идентификатору.
	JobStatus(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

type clusterServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewClusterServiceClient(cc grpc.ClientConnInterface) ClusterServiceClient {
	return &clusterServiceClient{cc}
}

func (c *clusterServiceClient) Classify(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, ClusterService_Classify_FullName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *clusterServiceClient) JobStatus(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, ClusterService_JobStatus_FullName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

type ClusterServiceServer interface {
	Classify(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	JobStatus(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

type UnimplementedClusterServiceServer struct{}

func (UnimplementedClusterServiceServer) Classify(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Classify not implemented")
}

func (UnimplementedClusterServiceServer) JobStatus(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method JobStatus not implemented")
}

func RegisterClusterServiceServer(s grpc.ServiceRegistrar, srv ClusterServiceServer) {
	s.RegisterService(&ClusterService_ServiceDesc, srv)
}

func _ClusterService_Classify_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterServiceServer).Classify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ClusterService_Classify_FullName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ClusterServiceServer).Classify(ctx, req.(*wrapperspb.BytesValue))
	}

	return interceptor(ctx, in, info, handler)
}

func _ClusterService_JobStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterServiceServer).JobStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ClusterService_JobStatus_FullName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ClusterServiceServer).JobStatus(ctx, req.(*wrapperspb.StringValue))
	}

	return interceptor(ctx, in, info, handler)
}

var ClusterService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ClusterServiceName,
	HandlerType: (*ClusterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Classify",
			Handler:    _ClusterService_Classify_Handler,
		},
		{
			MethodName: "JobStatus",
			Handler:    _ClusterService_JobStatus_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "imgcluster/v1/cluster.proto",
}

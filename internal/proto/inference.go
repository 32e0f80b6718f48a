package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	InferenceServiceName            = "imgcluster.inference.v1.InferenceService"
	InferenceService_Embed_FullName = "/" + InferenceServiceName + "/Embed"
)

// InferenceServiceClient — клиент внешнего сервиса инференса.
// Embed принимает один тензор 224x224x3 и возвращает эмбеддинг.
type InferenceServiceClient interface {
	Embed(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type inferenceServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewInferenceServiceClient(cc grpc.ClientConnInterface) InferenceServiceClient {
	return &inferenceServiceClient{cc}
}

func (c *inferenceServiceClient) Embed(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, InferenceService_Embed_FullName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// InferenceServiceServer — серверная сторона сервиса инференса.
type InferenceServiceServer interface {
	Embed(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

type UnimplementedInferenceServiceServer struct{}

func (UnimplementedInferenceServiceServer) Embed(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Embed not implemented")
}

func RegisterInferenceServiceServer(s grpc.ServiceRegistrar, srv InferenceServiceServer) {
	s.RegisterService(&InferenceService_ServiceDesc, srv)
}

func _InferenceService_Embed_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InferenceServiceServer).Embed(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: InferenceService_Embed_FullName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InferenceServiceServer).Embed(ctx, req.(*wrapperspb.BytesValue))
	}

	return interceptor(ctx, in, info, handler)
}

var InferenceService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: InferenceServiceName,
	HandlerType: (*InferenceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Embed",
			Handler:    _InferenceService_Embed_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "imgcluster/inference/v1/inference.proto",
}

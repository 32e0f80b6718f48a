package grpc

import (
	"errors"

	"github.com/DRSN-tech/imgcluster/pkg/e"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func GRPCErrorResponse(err error) error {
	switch {
	case errors.Is(err, e.ErrJobNotFound):
		return status.Error(codes.NotFound, e.ErrJobNotFound.Error())
	case errors.Is(err, e.ErrMissingImage):
		return status.Error(codes.InvalidArgument, e.ErrMissingImage.Error())
	case errors.Is(err, e.ErrUndecodableImage):
		return status.Error(codes.InvalidArgument, e.ErrUndecodableImage.Error())
	case errors.Is(err, e.ErrUnsupportedMediaType):
		return status.Error(codes.InvalidArgument, e.ErrUnsupportedMediaType.Error())
	case errors.Is(err, e.ErrVectorSizeMismatch):
		return status.Error(codes.InvalidArgument, e.ErrVectorSizeMismatch.Error())
	case errors.Is(err, e.ErrIndexEmpty):
		return status.Error(codes.FailedPrecondition, e.ErrIndexEmpty.Error())
	case errors.Is(err, e.ErrIndexUnavailable):
		return status.Error(codes.Unavailable, e.ErrIndexUnavailable.Error())
	case errors.Is(err, e.ErrInferenceUnavailable):
		return status.Error(codes.Unavailable, e.ErrInferenceUnavailable.Error())
	default:
		return status.Error(codes.Internal, e.ErrInternalServerError.Error())
	}
}

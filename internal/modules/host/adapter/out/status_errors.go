package out

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"hostbridge/internal/modules/host/domain"
	apperrors "hostbridge/internal/platform/errors"
)

// fromRPC maps a transport error onto the host error taxonomy while keeping
// the original status in the chain.
func fromRPC(op string, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch st.Code() {
	case codes.Unavailable:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrConnection, err)
	case codes.InvalidArgument:
		return fmt.Errorf("%s: %w: %s", op, domain.ErrInvalidRequest, st.Message())
	case codes.Unimplemented:
		return fmt.Errorf("%s: %w: %s", op, domain.ErrCapabilityMissing, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%s: %w: %s", op, apperrors.ErrNotFound, st.Message())
	case codes.AlreadyExists:
		return fmt.Errorf("%s: %w: %s", op, apperrors.ErrAlreadyExists, st.Message())
	case codes.DeadlineExceeded:
		return fmt.Errorf("%s: %w", op, context.DeadlineExceeded)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// toRPC encodes a capability error as a gRPC status for the wire.
func toRPC(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrCapabilityMissing):
		return status.Error(codes.Unimplemented, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, apperrors.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

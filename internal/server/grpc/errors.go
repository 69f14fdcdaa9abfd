package grpc

import (
	"context"
	"errors"
	"sort"

	"github.com/dmitrijs2005/equitygate/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/types/known/durationpb"
)

// toStatus converts a service error into a gRPC status error. Unknown errors
// are logged and reported as Internal without their text.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	var ve *common.ValidationError
	var rl *common.RateLimitError

	switch {
	case errors.As(err, &ve):
		st := status.New(codes.InvalidArgument, ve.Error())
		br := &errdetails.BadRequest{}
		names := make([]string, 0, len(ve.Fields))
		for name := range ve.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       name,
				Description: ve.Fields[name],
			})
		}
		return withDetails(st, br)

	case errors.As(err, &rl):
		st := status.New(codes.ResourceExhausted, common.ErrRateLimited.Error())
		return withDetails(st, &errdetails.RetryInfo{RetryDelay: durationpb.New(rl.RetryAfter(s.now()))})

	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, common.ErrConflict), errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, common.ErrConflict.Error())

	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, common.ErrorNotFound.Error())

	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrInvalidCode):
		return status.Error(codes.Unauthenticated, common.ErrInvalidCode.Error())
	case errors.Is(err, common.ErrNoOTPRequested):
		return status.Error(codes.Unauthenticated, common.ErrNoOTPRequested.Error())
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, common.ErrorUnauthorized.Error())

	case errors.Is(err, common.ErrAccountNotVerified):
		return status.Error(codes.FailedPrecondition, common.ErrAccountNotVerified.Error())
	case errors.Is(err, common.ErrAlreadyVerified):
		return status.Error(codes.FailedPrecondition, common.ErrAlreadyVerified.Error())
	case errors.Is(err, common.ErrOTPExpired):
		return status.Error(codes.FailedPrecondition, common.ErrOTPExpired.Error())

	case errors.Is(err, common.ErrTransactionConflict), errors.Is(err, common.ErrTransientStore):
		s.logger.Warn(ctx, "store unavailable", "method", method, "error", err)
		return status.Error(codes.Unavailable, "service temporarily unavailable")

	case errors.Is(err, common.ErrDependencyFailure):
		s.logger.Error(ctx, "dependency failure", "method", method, "error", err)
		return status.Error(codes.Unavailable, "email delivery failed")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	}

	s.logger.Error(ctx, "internal error", "method", method, "error", err)
	return status.Error(codes.Internal, common.ErrorInternal.Error())
}

// withDetails attaches detail messages, falling back to the bare status.
func withDetails(st *status.Status, details ...protoadapt.MessageV1) error {
	ds, err := st.WithDetails(details...)
	if err != nil {
		return st.Err()
	}
	return ds.Err()
}

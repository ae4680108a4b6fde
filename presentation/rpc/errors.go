package rpc

import (
	"github.com/nemaks/recordstore/domain/apperror"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus collapses every store and index failure into codes.Internal. Only validation errors
// reach the caller as InvalidArgument.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if apperror.KindOf(err) == apperror.KindValidation {
		return status.Error(codes.InvalidArgument, apperror.Message(err))
	}
	return status.Error(codes.Internal, apperror.Message(err))
}

package grpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/store"
)

var (
	ErrMissingDeviceID      = errors.New("missing x-device-id metadata")
	ErrForeignDevice        = errors.New("request targets another device")
	ErrIntegrityCheckFailed = errors.New("integrity check failed")
)

var errorCodeMap = map[error]codes.Code{
	service.ErrInvalidDataProvided: codes.InvalidArgument,
	service.ErrDeviceMismatch:      codes.PermissionDenied,
	service.ErrDeviceNotRegistered: codes.Unauthenticated,
	service.ErrUnknownResource:     codes.InvalidArgument,

	ErrMissingDeviceID:      codes.Unauthenticated,
	ErrForeignDevice:        codes.PermissionDenied,
	ErrIntegrityCheckFailed: codes.InvalidArgument,

	store.ErrDeviceNotFound:   codes.NotFound,
	store.ErrResourceNotFound: codes.NotFound,
	store.ErrConflictNotFound: codes.NotFound,
	store.ErrVersionConflict:  codes.FailedPrecondition,
	store.ErrResourceExists:   codes.AlreadyExists,
}

// toStatus converts a service error into a gRPC status. Unmapped errors
// become Internal with a generic message.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	for target, code := range errorCodeMap {
		if errors.Is(err, target) {
			return status.Error(code, err.Error())
		}
	}
	return status.Error(codes.Internal, "internal error")
}

func isServerFault(code codes.Code) bool {
	switch code {
	case codes.Internal, codes.Unknown, codes.Unavailable, codes.DataLoss:
		return true
	}
	return false
}

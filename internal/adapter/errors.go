package adapter

import (
	"context"
	"errors"
)

var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrUnprocessable       = errors.New("unprocessable entity")
	ErrTooManyRequests     = errors.New("too many requests")
	ErrInternalServerError = errors.New("internal server error")
	ErrBadGateway          = errors.New("bad gateway")
	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrGatewayTimeout      = errors.New("gateway timeout")

	// ErrTransport wraps failures below the protocol: refused connections,
	// resets, DNS errors and client-side timeouts.
	ErrTransport = errors.New("transport failure")

	ErrEmptyAddress  = errors.New("empty address")
	ErrEmptyDeviceID = errors.New("empty device id")
)

var transientErrors = []error{
	ErrTransport,
	ErrTooManyRequests,
	ErrInternalServerError,
	ErrBadGateway,
	ErrServiceUnavailable,
	ErrGatewayTimeout,
	context.DeadlineExceeded,
}

// IsTransient reports whether err is worth retrying later.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range transientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

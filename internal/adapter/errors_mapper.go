package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var statusErrors = map[int]error{
	http.StatusBadRequest:          ErrBadRequest,
	http.StatusUnauthorized:        ErrUnauthorized,
	http.StatusForbidden:           ErrForbidden,
	http.StatusNotFound:            ErrNotFound,
	http.StatusConflict:            ErrConflict,
	http.StatusUnprocessableEntity: ErrUnprocessable,
	http.StatusTooManyRequests:     ErrTooManyRequests,
	http.StatusInternalServerError: ErrInternalServerError,
	http.StatusBadGateway:          ErrBadGateway,
	http.StatusServiceUnavailable:  ErrServiceUnavailable,
	http.StatusGatewayTimeout:      ErrGatewayTimeout,
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if target, ok := statusErrors[resp.StatusCode()]; ok {
		return fmt.Errorf("%w: %s", target, body)
	}

	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return fmt.Errorf("%w: http %d: %s", ErrInternalServerError, resp.StatusCode(), body)
	}
	return fmt.Errorf("%w: http %d: %s", ErrBadRequest, resp.StatusCode(), body)
}

// mapRequestError wraps errors returned before any response was read.
func mapRequestError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}

var codeErrors = map[codes.Code]error{
	codes.InvalidArgument:    ErrBadRequest,
	codes.Unauthenticated:    ErrUnauthorized,
	codes.PermissionDenied:   ErrForbidden,
	codes.NotFound:           ErrNotFound,
	codes.AlreadyExists:      ErrConflict,
	codes.FailedPrecondition: ErrConflict,
	codes.ResourceExhausted:  ErrTooManyRequests,
	codes.Internal:           ErrInternalServerError,
	codes.Unknown:            ErrInternalServerError,
	codes.Unavailable:        ErrServiceUnavailable,
	codes.DeadlineExceeded:   ErrGatewayTimeout,
	codes.Aborted:            ErrServiceUnavailable,
}

func mapGRPCError(op string, err error) error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return mapRequestError(op, err)
	}
	if st.Code() == codes.Canceled {
		return fmt.Errorf("%s: %w", op, context.Canceled)
	}
	if target, found := codeErrors[st.Code()]; found {
		return fmt.Errorf("%s: %w: %s", op, target, st.Message())
	}
	return fmt.Errorf("%s: %w: %s", op, ErrBadRequest, st.Message())
}

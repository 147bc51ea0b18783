package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided: http.StatusBadRequest,
	service.ErrDeviceMismatch:      http.StatusForbidden,
	service.ErrDeviceNotRegistered: http.StatusUnauthorized,
	service.ErrUnknownResource:     http.StatusUnprocessableEntity,

	ErrForeignDevice:        http.StatusForbidden,
	ErrEmptyDeviceIDHeader:  http.StatusUnauthorized,
	ErrIntegrityCheckFailed: http.StatusBadRequest,
	ErrBodyTooLarge:         http.StatusRequestEntityTooLarge,

	store.ErrDeviceNotFound:        http.StatusNotFound,
	store.ErrResourceNotFound:      http.StatusNotFound,
	store.ErrConflictNotFound:      http.StatusNotFound,
	store.ErrVersionConflict:       http.StatusConflict,
	store.ErrResourceExists:        http.StatusConflict,
	store.ErrDocumentStoreDisabled: http.StatusServiceUnavailable,

	store.ErrBuildingSQLQuery:     http.StatusInternalServerError,
	store.ErrExecutingQuery:       http.StatusInternalServerError,
	store.ErrBeginningTransaction: http.StatusInternalServerError,
	store.ErrCommitingTransaction: http.StatusInternalServerError,
	store.ErrExecutingStatement:   http.StatusInternalServerError,
	store.ErrScanningRow:          http.StatusInternalServerError,
	store.ErrScanningRows:         http.StatusInternalServerError,
	store.ErrEncodingValue:        http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// writeError replies with the status mapped from err. 5xx responses hide
// the error text.
func writeError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	if status >= http.StatusInternalServerError {
		http.Error(w, http.StatusText(status), status)
		return
	}
	http.Error(w, err.Error(), status)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/models"
)

// mapAdapterError translates the adapter's transport error into a service
// business error. notFound is what a 404 means for the calling operation.
func mapAdapterError(err error, notFound error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, adapter.ErrBadRequest), errors.Is(err, adapter.ErrUnprocessable):
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	case errors.Is(err, adapter.ErrForbidden):
		return fmt.Errorf("%w: %w", ErrDeviceMismatch, err)
	case errors.Is(err, adapter.ErrNotFound) && notFound != nil:
		return fmt.Errorf("%w: %w", notFound, err)
	case adapter.IsTransient(err):
		return fmt.Errorf("%w: %w", ErrOffline, err)
	}

	return err
}

// errorKind classifies a failed submission for the retry policy. Only
// transport failures, timeouts and 5xx answers are retried.
func errorKind(err error) models.ErrorKind {
	if adapter.IsTransient(err) {
		return models.ErrorKindTransient
	}
	return models.ErrorKindPermanent
}

// resultErrorKind classifies a per-item outcome that did not apply.
func resultErrorKind(outcome models.Outcome) models.ErrorKind {
	if outcome == models.OutcomeError {
		return models.ErrorKindTransient
	}
	return models.ErrorKindPermanent
}

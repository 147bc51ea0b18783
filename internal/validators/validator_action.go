// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/models"
)

// ActionValidator validates sync engine inputs. Actions are checked in two
// parts: the envelope (ids, type tag, dependencies) and the payload, which
// is matched against the CUE definition for its action type.
type ActionValidator struct {
	schema *payloadSchema
}

// NewActionValidator compiles the embedded payload schema.
func NewActionValidator() (*ActionValidator, error) {
	schema, err := newPayloadSchema()
	if err != nil {
		return nil, err
	}
	return &ActionValidator{schema: schema}, nil
}

// Validate dispatches on the concrete input type. Supported inputs are
// models.Action, models.SubmitItem, models.SubmitBatchRequest,
// models.RegisterDeviceRequest, models.CheckpointRequest and
// models.ResolveConflictRequest, by value or by pointer.
//
// fields restricts action checks to FieldEnvelope and/or FieldPayload.
func (v *ActionValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch in := obj.(type) {
	case models.Action:
		return v.validateAction(in, fields...)
	case *models.Action:
		if in == nil {
			return ErrUnsupportedType
		}
		return v.validateAction(*in, fields...)
	case models.SubmitItem:
		return v.validateSubmitItem(in, fields...)
	case *models.SubmitItem:
		if in == nil {
			return ErrUnsupportedType
		}
		return v.validateSubmitItem(*in, fields...)
	case models.SubmitBatchRequest:
		return v.validateBatch(in)
	case *models.SubmitBatchRequest:
		if in == nil {
			return ErrUnsupportedType
		}
		return v.validateBatch(*in)
	case models.RegisterDeviceRequest:
		return validateRegistration(in)
	case *models.RegisterDeviceRequest:
		if in == nil {
			return ErrUnsupportedType
		}
		return validateRegistration(*in)
	case models.CheckpointRequest:
		return validateCheckpoint(in)
	case *models.CheckpointRequest:
		if in == nil {
			return ErrUnsupportedType
		}
		return validateCheckpoint(*in)
	case models.ResolveConflictRequest:
		return validateResolve(in)
	case *models.ResolveConflictRequest:
		if in == nil {
			return ErrUnsupportedType
		}
		return validateResolve(*in)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, obj)
	}
}

func (v *ActionValidator) validateAction(action models.Action, fields ...string) error {
	checkEnvelope, checkPayload := len(fields) == 0, len(fields) == 0
	for _, field := range fields {
		switch field {
		case FieldEnvelope:
			checkEnvelope = true
		case FieldPayload:
			checkPayload = true
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
	}

	if checkEnvelope {
		if err := validateEnvelope(action); err != nil {
			return err
		}
	}
	if checkPayload {
		return v.validatePayload(action)
	}
	return nil
}

func validateEnvelope(action models.Action) error {
	if action.ID == "" {
		return ErrEmptyActionID
	}
	if !action.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidActionType, action.Type)
	}
	if action.DeviceID == "" {
		return ErrEmptyDeviceID
	}
	if action.OwnerID == "" {
		return ErrEmptyOwnerID
	}

	seen := make(map[string]struct{}, len(action.Dependencies))
	for _, dep := range action.Dependencies {
		if dep == action.ID {
			return ErrSelfDependency
		}
		if _, dup := seen[dep]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateDependency, dep)
		}
		seen[dep] = struct{}{}
	}
	return nil
}

func (v *ActionValidator) validatePayload(action models.Action) error {
	if action.Payload == nil {
		return ErrMissingPayload
	}
	if action.Payload.ActionType() != action.Type {
		return fmt.Errorf("%w: %s carries %s", ErrPayloadTypeMismatch, action.Type, action.Payload.ActionType())
	}

	if err := v.schema.validate(action.Type, action.Payload); err != nil {
		return err
	}

	switch p := action.Payload.(type) {
	case *models.UpdateProfilePayload:
		if len(p.Fields) == 0 {
			return ErrEmptyFields
		}
	case *models.CreateProofPayload:
		if !p.ExpiresAt.After(p.CreatedAt) {
			return ErrInvalidExpiry
		}
	}
	return nil
}

func (v *ActionValidator) validateSubmitItem(item models.SubmitItem, fields ...string) error {
	if item.IdempotencyKey != item.Action.ID {
		return ErrIdempotencyKeyMismatch
	}
	return v.validateAction(item.Action, fields...)
}

// MaxBatchItems is the largest batch a device may submit in one request.
const MaxBatchItems = 500

// validateBatch only checks the batch shape. Items are validated one by one
// by the processor so that a bad item does not fail its neighbours.
func (v *ActionValidator) validateBatch(req models.SubmitBatchRequest) error {
	if req.DeviceID == "" {
		return ErrEmptyDeviceID
	}
	if len(req.Items) == 0 {
		return ErrEmptyBatch
	}
	if len(req.Items) > MaxBatchItems {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(req.Items), MaxBatchItems)
	}
	return nil
}

func validateRegistration(req models.RegisterDeviceRequest) error {
	if req.DeviceID == "" {
		return ErrEmptyDeviceID
	}
	if req.UserID == "" {
		return ErrEmptyUserID
	}
	if req.PublicKey == "" {
		return ErrEmptyPublicKey
	}
	return nil
}

func validateCheckpoint(req models.CheckpointRequest) error {
	if req.DeviceID == "" {
		return ErrEmptyDeviceID
	}
	return nil
}

func validateResolve(req models.ResolveConflictRequest) error {
	if req.ConflictID == "" {
		return ErrEmptyConflictID
	}
	if !req.Strategy.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStrategy, req.Strategy)
	}
	return nil
}

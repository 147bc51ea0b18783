// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/crypto"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/validators"
	"github.com/MKhiriev/go-offline-sync/models"
)

type deviceRegistry struct {
	devices   store.DeviceRepository
	validator validators.Validator

	now    func() time.Time
	logger *logger.Logger
}

func NewDeviceRegistry(devices store.DeviceRepository, validator validators.Validator, logger *logger.Logger) DeviceRegistry {
	return &deviceRegistry{
		devices:   devices,
		validator: validator,
		now:       time.Now,
		logger:    logger,
	}
}

// Register creates the device or refreshes its metadata. A new device gets
// the current time as its initial checkpoint; a known device keeps its
// checkpoint.
func (r *deviceRegistry) Register(ctx context.Context, req models.RegisterDeviceRequest) (models.DeviceSyncState, error) {
	log := logger.FromContext(ctx)

	if err := r.validator.Validate(ctx, req); err != nil {
		return models.DeviceSyncState{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}
	if _, err := crypto.ParsePublicKey(req.PublicKey); err != nil {
		return models.DeviceSyncState{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	state, err := r.devices.UpsertDevice(ctx, models.DeviceSyncState{
		DeviceID:     req.DeviceID,
		UserID:       req.UserID,
		Capabilities: req.Capabilities,
		PublicKey:    req.PublicKey,
		RegisteredAt: r.now().UTC(),
	})
	if err != nil {
		log.Err(err).Str("func", "deviceRegistry.Register").
			Str("device_id", req.DeviceID).
			Msg("failed to register device")
		return models.DeviceSyncState{}, err
	}

	state.SyncStatus = models.SyncIdle
	log.Info().Str("device_id", state.DeviceID).Str("user_id", state.UserID).Msg("device registered")
	return state, nil
}

func (r *deviceRegistry) Get(ctx context.Context, deviceID string) (models.DeviceSyncState, error) {
	return r.devices.GetDevice(ctx, deviceID)
}

// UpdateCheckpoint stores the checkpoint only when it is newer than the
// stored one. The response carries the checkpoint now in effect.
func (r *deviceRegistry) UpdateCheckpoint(ctx context.Context, req models.CheckpointRequest) (models.CheckpointResponse, error) {
	if err := r.validator.Validate(ctx, req); err != nil {
		return models.CheckpointResponse{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	advanced, err := r.devices.AdvanceCheckpoint(ctx, req.DeviceID, req.Checkpoint)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "deviceRegistry.UpdateCheckpoint").
			Str("device_id", req.DeviceID).
			Msg("failed to advance checkpoint")
		return models.CheckpointResponse{}, err
	}
	if advanced {
		return models.CheckpointResponse{Advanced: true, Checkpoint: req.Checkpoint}, nil
	}

	device, err := r.devices.GetDevice(ctx, req.DeviceID)
	if err != nil {
		return models.CheckpointResponse{}, err
	}
	return models.CheckpointResponse{Advanced: false, Checkpoint: device.LastSyncCheckpoint}, nil
}

func (r *deviceRegistry) Touch(ctx context.Context, deviceID string) error {
	return r.devices.TouchDevice(ctx, deviceID, r.now().UTC())
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

// deviceRepository is the PostgreSQL-backed implementation of
// [DeviceRepository] over the "devices" table.
type deviceRepository struct {
	*DB
	logger *logger.Logger
}

// NewDeviceRepository constructs a [DeviceRepository].
func NewDeviceRepository(db *DB, logger *logger.Logger) DeviceRepository {
	return &deviceRepository{
		DB:     db,
		logger: logger,
	}
}

// UpsertDevice registers a device. A re-registration refreshes the owner,
// capabilities and public key but keeps the checkpoint and registration
// time.
func (d *deviceRepository) UpsertDevice(ctx context.Context, device models.DeviceSyncState) (models.DeviceSyncState, error) {
	log := logger.FromContext(ctx)

	capabilities, err := json.Marshal(nonNilStrings(device.Capabilities))
	if err != nil {
		return models.DeviceSyncState{}, fmt.Errorf("%w: %w", ErrEncodingValue, err)
	}

	row := d.DB.QueryRowContext(ctx, upsertDevice,
		device.DeviceID,
		device.UserID,
		string(capabilities),
		device.PublicKey,
		device.RegisteredAt,
	)
	registered, err := scanDevice(row)
	if err != nil {
		log.Err(err).
			Str("func", "deviceRepository.UpsertDevice").
			Str("device_id", device.DeviceID).
			Msg("failed to upsert device")
		return models.DeviceSyncState{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return registered, nil
}

func (d *deviceRepository) GetDevice(ctx context.Context, deviceID string) (models.DeviceSyncState, error) {
	device, err := scanDevice(d.DB.QueryRowContext(ctx, getDevice, deviceID))
	if isNoRows(err) {
		return models.DeviceSyncState{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "deviceRepository.GetDevice").
			Str("device_id", deviceID).
			Msg("failed to get device")
		return models.DeviceSyncState{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return device, nil
}

// AdvanceCheckpoint stores checkpoint when its version is greater than the
// stored one and reports whether it did.
func (d *deviceRepository) AdvanceCheckpoint(ctx context.Context, deviceID string, checkpoint models.Checkpoint) (bool, error) {
	result, err := d.DB.ExecContext(ctx, advanceCheckpoint, deviceID, checkpoint.At, checkpoint.Version)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "deviceRepository.AdvanceCheckpoint").
			Str("device_id", deviceID).
			Int64("version", checkpoint.Version).
			Msg("failed to advance checkpoint")
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return affected > 0, nil
}

func (d *deviceRepository) TouchDevice(ctx context.Context, deviceID string, at time.Time) error {
	result, err := d.DB.ExecContext(ctx, touchDevice, deviceID, at)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "deviceRepository.TouchDevice").
			Str("device_id", deviceID).
			Msg("failed to touch device")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return requireAffected(result, ErrDeviceNotFound, deviceID)
}

func scanDevice(row rowScanner) (models.DeviceSyncState, error) {
	var (
		device       models.DeviceSyncState
		capabilities []byte
	)
	err := row.Scan(
		&device.DeviceID,
		&device.UserID,
		&capabilities,
		&device.PublicKey,
		&device.LastSyncCheckpoint.At,
		&device.LastSyncCheckpoint.Version,
		&device.RegisteredAt,
		&device.LastSeenAt,
	)
	if err != nil {
		return models.DeviceSyncState{}, err
	}
	if len(capabilities) > 0 {
		if err = json.Unmarshal(capabilities, &device.Capabilities); err != nil {
			return models.DeviceSyncState{}, fmt.Errorf("%w: %w", ErrEncodingValue, err)
		}
	}
	return device, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

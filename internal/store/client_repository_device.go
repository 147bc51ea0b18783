package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

type localDeviceStateRepository struct {
	*DB
	logger *logger.Logger
}

// NewLocalDeviceStateRepository returns the SQLite-backed
// [DeviceStateRepository].
func NewLocalDeviceStateRepository(db *DB, logger *logger.Logger) DeviceStateRepository {
	return &localDeviceStateRepository{
		DB:     db,
		logger: logger,
	}
}

// SaveDeviceState inserts the device row or refreshes its identity fields.
// Checkpoint and statuses of an existing row are left alone.
func (l *localDeviceStateRepository) SaveDeviceState(ctx context.Context, state models.DeviceSyncState) error {
	capabilities, err := json.Marshal(state.Capabilities)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodingValue, err)
	}

	networkStatus, syncStatus := state.NetworkStatus, state.SyncStatus
	if networkStatus == "" {
		networkStatus = models.NetworkOffline
	}
	if syncStatus == "" {
		syncStatus = models.SyncIdle
	}

	_, err = l.DB.ExecContext(ctx, saveDeviceState,
		state.DeviceID,
		state.UserID,
		string(capabilities),
		state.PublicKey,
		state.LastSyncCheckpoint.At,
		state.LastSyncCheckpoint.Version,
		string(networkStatus),
		string(syncStatus),
		state.RegisteredAt,
		state.LastSeenAt,
	)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localDeviceStateRepository.SaveDeviceState").
			Str("device_id", state.DeviceID).
			Msg("failed to save device state")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (l *localDeviceStateRepository) GetDeviceState(ctx context.Context, deviceID string) (models.DeviceSyncState, error) {
	var (
		state        models.DeviceSyncState
		capabilities string
		checkpointAt sql.NullTime
		registeredAt sql.NullTime
		lastSeenAt   sql.NullTime
	)

	err := l.DB.QueryRowContext(ctx, getDeviceState, deviceID).Scan(
		&state.DeviceID,
		&state.UserID,
		&capabilities,
		&state.PublicKey,
		&checkpointAt,
		&state.LastSyncCheckpoint.Version,
		&state.NetworkStatus,
		&state.SyncStatus,
		&registeredAt,
		&lastSeenAt,
	)
	if isNoRows(err) {
		return models.DeviceSyncState{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localDeviceStateRepository.GetDeviceState").
			Str("device_id", deviceID).
			Msg("failed to scan device state")
		return models.DeviceSyncState{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if err = json.Unmarshal([]byte(capabilities), &state.Capabilities); err != nil {
		return models.DeviceSyncState{}, fmt.Errorf("%w: %w", ErrEncodingValue, err)
	}
	state.LastSyncCheckpoint.At = checkpointAt.Time
	state.RegisteredAt = registeredAt.Time
	state.LastSeenAt = lastSeenAt.Time

	return state, nil
}

// SaveCheckpoint stores checkpoint only when it is newer than the stored one.
func (l *localDeviceStateRepository) SaveCheckpoint(ctx context.Context, deviceID string, checkpoint models.Checkpoint) error {
	_, err := l.DB.ExecContext(ctx, saveLocalCheckpoint,
		checkpoint.At,
		checkpoint.Version,
		deviceID,
		checkpoint.Version,
	)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localDeviceStateRepository.SaveCheckpoint").
			Str("device_id", deviceID).
			Msg("failed to save checkpoint")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

// SetStatus updates the network and sync statuses. Empty values keep the
// stored ones.
func (l *localDeviceStateRepository) SetStatus(ctx context.Context, deviceID string, network models.NetworkStatus, sync models.SyncStatus) error {
	_, err := l.DB.ExecContext(ctx, setDeviceStatus, string(network), string(sync), deviceID)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localDeviceStateRepository.SetStatus").
			Str("device_id", deviceID).
			Msg("failed to update device status")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

package service

import (
	"context"
	"errors"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/crypto"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

type clientDeviceService struct {
	userID  string
	key     *crypto.DeviceKey
	devices store.DeviceStateRepository
	actions ActionStore
	adapter adapter.ServerAdapter
	logger  *logger.Logger
}

func NewClientDeviceService(userID string, key *crypto.DeviceKey, devices store.DeviceStateRepository,
	actions ActionStore, serverAdapter adapter.ServerAdapter, logger *logger.Logger) ClientDeviceService {
	return &clientDeviceService{
		userID:  userID,
		key:     key,
		devices: devices,
		actions: actions,
		adapter: serverAdapter,
		logger:  logger,
	}
}

// Register announces the device and its public key to the server and keeps
// a local copy of the returned state. A local checkpoint ahead of the
// server one is kept.
func (s *clientDeviceService) Register(ctx context.Context, capabilities []string) (models.DeviceSyncState, error) {
	state, err := s.adapter.RegisterDevice(ctx, models.RegisterDeviceRequest{
		DeviceID:     s.key.DeviceID(),
		UserID:       s.userID,
		Capabilities: capabilities,
		PublicKey:    s.key.PublicKeyBase64(),
	})
	if err != nil {
		return models.DeviceSyncState{}, mapAdapterError(err, nil)
	}

	local, err := s.devices.GetDeviceState(ctx, state.DeviceID)
	switch {
	case err == nil:
		if local.LastSyncCheckpoint.After(state.LastSyncCheckpoint) {
			state.LastSyncCheckpoint = local.LastSyncCheckpoint
		}
	case !errors.Is(err, store.ErrDeviceNotFound):
		return models.DeviceSyncState{}, err
	}

	if err = s.devices.SaveDeviceState(ctx, state); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "clientDeviceService.Register").Msg("failed to store device state")
		return models.DeviceSyncState{}, err
	}
	return state, nil
}

// State returns the local device state with the current pending queue.
func (s *clientDeviceService) State(ctx context.Context) (models.DeviceSyncState, error) {
	state, err := s.devices.GetDeviceState(ctx, s.key.DeviceID())
	if errors.Is(err, store.ErrDeviceNotFound) {
		return models.DeviceSyncState{}, ErrDeviceNotSetUp
	}
	if err != nil {
		return models.DeviceSyncState{}, err
	}

	pending, err := s.actions.ListPending(ctx, state.DeviceID)
	if err != nil {
		return models.DeviceSyncState{}, err
	}
	state.PendingActionIDs = make([]string, 0, len(pending))
	for _, action := range pending {
		state.PendingActionIDs = append(state.PendingActionIDs, action.ID)
	}
	return state, nil
}

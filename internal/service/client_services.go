package service

import (
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/crypto"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/internal/validators"
)

// ClientServices groups the device-side services of one device.
type ClientServices struct {
	DeviceID string

	Actions     ActionStore
	Retry       RetryScheduler
	Monitor     NetworkMonitor
	Proofs      ProofService
	Coordinator SyncCoordinator
	Conflicts   ClientConflictService
	Device      ClientDeviceService
	SyncJob     ClientSyncJob
}

func NewClientServices(storages *store.ClientStorages, serverAdapter adapter.ServerAdapter, key *crypto.DeviceKey,
	cfg *config.ClientConfig, logger *logger.Logger) (*ClientServices, error) {
	validator, err := validators.NewActionValidator()
	if err != nil {
		return nil, fmt.Errorf("create action validator: %w", err)
	}

	deviceID := key.DeviceID()
	ids := utils.NewUUIDGenerator()

	actions := NewActionStore(storages.Actions, validator, ids, cfg.Sync.MaxRetries, logger)
	retry := NewRetryScheduler(cfg.Sync.BaseDelay, cfg.Sync.MaxDelay)
	monitor := NewNetworkMonitor(NewPingProbe(serverAdapter, cfg.Sync.CallTimeout), cfg.Sync.DegradedLatency, logger)
	coordinator := NewSyncCoordinator(deviceID, SyncDeps{
		Actions:   actions,
		Proofs:    storages.Proofs,
		Devices:   storages.Devices,
		Conflicts: storages.Conflicts,
		Adapter:   serverAdapter,
		Monitor:   monitor,
		Retry:     retry,
	}, cfg.Sync, logger)

	return &ClientServices{
		DeviceID:    deviceID,
		Actions:     actions,
		Retry:       retry,
		Monitor:     monitor,
		Proofs:      NewProofService(storages.Proofs, actions, key, cfg.Device.UserID, ids, cfg.Sync.ProofValidity, logger),
		Coordinator: coordinator,
		Conflicts:   NewClientConflictService(deviceID, storages.Conflicts, storages.Proofs, actions, serverAdapter, coordinator, logger),
		Device:      NewClientDeviceService(cfg.Device.UserID, key, storages.Devices, actions, serverAdapter, logger),
		SyncJob:     NewClientSyncJob(coordinator),
	}, nil
}

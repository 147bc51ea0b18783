package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// ActionFilter narrows ListActions. Zero fields do not filter.
type ActionFilter struct {
	DeviceID string
	Statuses []models.ActionStatus
	IDs      []string
}

// ActionRepository is the device-local action queue. Actions are returned
// in enqueue order.
type ActionRepository interface {
	InsertAction(ctx context.Context, action models.Action) error
	GetAction(ctx context.Context, id string) (models.Action, error)
	ListActions(ctx context.Context, filter ActionFilter) ([]models.Action, error)
	ListDependents(ctx context.Context, id string) ([]models.Action, error)
	UpdateAction(ctx context.Context, action models.Action) error
	DeleteAction(ctx context.Context, id string) error
	DeleteSyncedBefore(ctx context.Context, deviceID string, before time.Time) (int64, error)
}

// ProofRepository stores offline proofs generated on the device.
type ProofRepository interface {
	SaveProof(ctx context.Context, proof models.OfflineProof) error
	GetProof(ctx context.Context, id string) (models.OfflineProof, error)
	ListProofs(ctx context.Context, deviceID string, statuses ...models.ProofSyncStatus) ([]models.OfflineProof, error)
	SetProofStatusByAction(ctx context.Context, actionID string, syncStatus models.ProofSyncStatus, validation models.ValidationStatus) error
	DeleteProof(ctx context.Context, id string) error
}

// DeviceStateRepository keeps the local copy of the device sync state.
type DeviceStateRepository interface {
	SaveDeviceState(ctx context.Context, state models.DeviceSyncState) error
	GetDeviceState(ctx context.Context, deviceID string) (models.DeviceSyncState, error)
	SaveCheckpoint(ctx context.Context, deviceID string, checkpoint models.Checkpoint) error
	SetStatus(ctx context.Context, deviceID string, network models.NetworkStatus, sync models.SyncStatus) error
}

// LocalConflictRepository keeps the device copy of open conflicts.
type LocalConflictRepository interface {
	SaveConflict(ctx context.Context, conflict models.Conflict) error
	GetConflict(ctx context.Context, id string) (models.Conflict, error)
	ListConflicts(ctx context.Context, deviceID string) ([]models.Conflict, error)
	DeleteConflict(ctx context.Context, id string) error
}

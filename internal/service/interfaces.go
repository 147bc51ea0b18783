package service

import (
	"context"

	"github.com/MKhiriev/go-offline-sync/models"
)

// ActionProcessor applies submitted actions against the authoritative
// resource state exactly once per idempotency key.
type ActionProcessor interface {
	// Submit evaluates one item on behalf of deviceID. Every failure is
	// expressed in the returned outcome, never as a Go error.
	Submit(ctx context.Context, deviceID string, item models.SubmitItem) models.SubmitResult

	// SubmitBatch runs the items in order and returns one result per item.
	// It errors only when the batch itself is malformed.
	SubmitBatch(ctx context.Context, req models.SubmitBatchRequest) (models.SubmitBatchResponse, error)
}

// ConflictResolver reconciles conflicts recorded by the ActionProcessor.
type ConflictResolver interface {
	Resolve(ctx context.Context, req models.ResolveConflictRequest) (models.ResolveConflictResponse, error)
	ListConflicts(ctx context.Context, req models.ListConflictsRequest) ([]models.Conflict, error)
}

// DeviceRegistry tracks known devices and their acknowledged checkpoints.
type DeviceRegistry interface {
	Register(ctx context.Context, req models.RegisterDeviceRequest) (models.DeviceSyncState, error)
	Get(ctx context.Context, deviceID string) (models.DeviceSyncState, error)
	UpdateCheckpoint(ctx context.Context, req models.CheckpointRequest) (models.CheckpointResponse, error)
	Touch(ctx context.Context, deviceID string) error
}

// ResourceService exposes read access to server resources. Clients use it to
// re-derive local work after a server_wins resolution.
type ResourceService interface {
	GetResource(ctx context.Context, key string) (models.Resource, error)
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}

// idGenerator produces unique identifiers (UUIDv7 or ULID).
type idGenerator interface {
	Generate() string
}

package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// DeviceRepository persists registered devices on the server.
type DeviceRepository interface {
	UpsertDevice(ctx context.Context, device models.DeviceSyncState) (models.DeviceSyncState, error)
	GetDevice(ctx context.Context, deviceID string) (models.DeviceSyncState, error)
	AdvanceCheckpoint(ctx context.Context, deviceID string, checkpoint models.Checkpoint) (bool, error)
	TouchDevice(ctx context.Context, deviceID string, at time.Time) error
}

// ResourceWrite describes a versioned write. ExpectedVersion 0 creates the
// resource at version 1; otherwise the stored version must equal it and is
// incremented.
type ResourceWrite struct {
	Key             string
	OwnerID         string
	Snapshot        models.Snapshot
	ExpectedVersion int64
	ActionID        string
	DeviceID        string
	At              time.Time
}

// AppliedRecord is the history entry written by an action.
type AppliedRecord struct {
	ResourceKey string
	Version     int64
	AppliedAt   time.Time
}

// ResourceRepository reads and writes server resources and their history.
type ResourceRepository interface {
	GetResource(ctx context.Context, key string) (models.Resource, error)
	GetSnapshotAt(ctx context.Context, key string, version int64) (models.Snapshot, error)
	FindAppliedByAction(ctx context.Context, actionID string) (AppliedRecord, error)
	WriteResource(ctx context.Context, write ResourceWrite) (models.Resource, error)
}

// ConflictFilter narrows ListConflicts.
type ConflictFilter struct {
	DeviceID string
	OpenOnly bool
}

// ConflictResolution closes a conflict. When Write is set the resource is
// written in the same transaction and NewVersion is taken from the write.
type ConflictResolution struct {
	ConflictID       string
	Strategy         models.ResolutionStrategy
	ResolvedSnapshot models.Snapshot
	NewVersion       int64
	At               time.Time
	Write            *ResourceWrite
}

// ConflictRepository persists conflicts. There is at most one conflict per
// action id.
type ConflictRepository interface {
	SaveConflict(ctx context.Context, conflict models.Conflict) (models.Conflict, error)
	GetConflict(ctx context.Context, id string) (models.Conflict, error)
	ListConflicts(ctx context.Context, filter ConflictFilter) ([]models.Conflict, error)
	RecordStrategy(ctx context.Context, id string, strategy models.ResolutionStrategy) error
	ResolveConflict(ctx context.Context, resolution ConflictResolution) (models.Conflict, error)
}

// IdempotencyCache remembers submit results for a bounded time.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) (models.SubmitResult, error)
	Put(ctx context.Context, key string, result models.SubmitResult) error
	RunGC(ctx context.Context) error
	Close() error
}

// DocumentStore hands out upload targets for document bodies.
type DocumentStore interface {
	UploadTarget(ctx context.Context, key string, contentType string, size int64) (models.UploadTarget, error)
}

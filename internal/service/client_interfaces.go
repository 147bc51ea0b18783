package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

// ActionStore is the durable queue of actions recorded on one device.
// Writes for the same device are serialized.
type ActionStore interface {
	// Enqueue stores a new pending action. It fills in the id, max retries
	// and the client timestamp when they are zero, and rejects unknown
	// dependency ids and dependency cycles.
	Enqueue(ctx context.Context, action models.Action) (models.Action, error)

	Get(ctx context.Context, id string) (models.Action, error)

	// ListPending returns every non-terminal action of the device
	// (pending, in_flight and conflicted) in enqueue order.
	ListPending(ctx context.Context, deviceID string) ([]models.Action, error)

	ListByStatus(ctx context.Context, deviceID string, statuses ...models.ActionStatus) ([]models.Action, error)

	// Update is the only mutator of a stored action. The status change must
	// be an allowed transition; fields are applied together with it.
	Update(ctx context.Context, id string, status models.ActionStatus, fields models.ActionFields) (models.Action, error)

	// Requeue moves a failed action back to pending with a fresh retry
	// budget.
	Requeue(ctx context.Context, id string) (models.Action, error)

	// Purge removes one terminal action last updated before the retention
	// window. It refuses while any unsynced action depends on it.
	Purge(ctx context.Context, id string, retention time.Duration) error

	// PurgeSynced removes synced actions older than retention that no
	// unsynced action depends on. Failed actions are kept.
	PurgeSynced(ctx context.Context, deviceID string, retention time.Duration) (int64, error)
}

// RetryScheduler decides when and whether a transient failure is retried.
type RetryScheduler interface {
	// NextDelay returns min(base * 2^retryCount, cap) with ±20% jitter.
	NextDelay(retryCount int) time.Duration

	// ShouldRetry reports whether the last failure of action was transient
	// and retries remain.
	ShouldRetry(action models.Action) bool
}

// ConnectivityProbe measures round trip latency to the server.
type ConnectivityProbe interface {
	Probe(ctx context.Context) (time.Duration, error)
}

// NetworkMonitor classifies connectivity and publishes transitions. It
// never touches the action queue.
type NetworkMonitor interface {
	// Subscribe returns a channel of state changes. Slow subscribers only
	// see the newest event. cancel releases the subscription.
	Subscribe() (events <-chan models.NetworkEvent, cancel func())

	// Report feeds an externally observed state, e.g. from the OS.
	Report(status models.NetworkStatus, latency time.Duration)

	// ProbeNow runs the probe once and returns the resulting state.
	ProbeNow(ctx context.Context) models.NetworkStatus

	Status() (models.NetworkStatus, time.Duration)

	// Run probes every interval until ctx is done.
	Run(ctx context.Context, interval time.Duration) error
}

// ProofService builds offline proofs and queues them for sync.
type ProofService interface {
	// Build creates the proof, persists it and enqueues its create_proof
	// action.
	Build(ctx context.Context, req models.BuildProofRequest) (models.OfflineProof, models.Action, error)

	// ListActive returns unexpired proofs whose sync status is pending or
	// failed.
	ListActive(ctx context.Context, deviceID string) ([]models.OfflineProof, error)

	Get(ctx context.Context, id string) (models.OfflineProof, error)
}

// SyncCoordinator drives sync passes for one device.
type SyncCoordinator interface {
	// RunPass runs one pass now. While another pass runs the call returns
	// at once with a coalesced report and a rerun is scheduled.
	RunPass(ctx context.Context, trigger models.SyncTrigger) (models.PassReport, error)

	// Trigger asks for a pass without waiting for it. Used from Run.
	Trigger(trigger models.SyncTrigger)

	// Run reacts to network transitions and triggers until ctx is done.
	Run(ctx context.Context) error

	Counters() models.SyncCounters
	Status() models.SyncStatus
}

// ClientConflictService is the device half of conflict resolution.
type ClientConflictService interface {
	List(ctx context.Context) ([]models.Conflict, error)

	// Refresh pulls open conflicts of the device from the server and stores
	// the ones missing locally.
	Refresh(ctx context.Context) ([]models.Conflict, error)

	// Resolve resolves the conflict on the server, settles the conflicted
	// action, releases actions blocked on it and triggers a pass.
	Resolve(ctx context.Context, req models.ResolveConflictRequest) (models.ResolveConflictResponse, error)
}

// ClientDeviceService registers the device and reports its local state.
type ClientDeviceService interface {
	Register(ctx context.Context, capabilities []string) (models.DeviceSyncState, error)
	State(ctx context.Context) (models.DeviceSyncState, error)
}

// ClientSyncJob periodically triggers sync passes.
type ClientSyncJob interface {
	// Start launches the background goroutine. It triggers a pass every
	// interval, defaulting to 5 minutes when interval is not positive. A
	// running job is stopped first.
	Start(ctx context.Context, interval time.Duration)

	// Stop cancels the goroutine and waits for it to exit.
	Stop()
}

package client

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

const (
	testDevice = "dev-1"
	testUser   = "user-1"
)

// ── actions ──────────────────────────────────────────────────────────────────

type fakeActions struct {
	actions   []models.Action
	rejectAt  int
	requeued  []string
	purgedFor time.Duration
}

func (f *fakeActions) Enqueue(_ context.Context, a models.Action) (models.Action, error) {
	if f.rejectAt > 0 && len(f.actions)+1 == f.rejectAt {
		return models.Action{}, fmt.Errorf("%w: rejected", service.ErrInvalidDataProvided)
	}
	a.ID = fmt.Sprintf("a-%d", len(f.actions)+1)
	a.Status = models.StatusPending
	f.actions = append(f.actions, a)
	return a, nil
}

func (f *fakeActions) Get(_ context.Context, id string) (models.Action, error) {
	for _, a := range f.actions {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Action{}, store.ErrActionNotFound
}

func (f *fakeActions) ListPending(context.Context, string) ([]models.Action, error) {
	return f.ListByStatus(context.Background(), testDevice, models.StatusPending, models.StatusInFlight, models.StatusConflicted)
}

func (f *fakeActions) ListByStatus(_ context.Context, _ string, statuses ...models.ActionStatus) ([]models.Action, error) {
	var out []models.Action
	for _, a := range f.actions {
		for _, s := range statuses {
			if a.Status == s {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (f *fakeActions) Update(context.Context, string, models.ActionStatus, models.ActionFields) (models.Action, error) {
	return models.Action{}, nil
}

func (f *fakeActions) Requeue(ctx context.Context, id string) (models.Action, error) {
	a, err := f.Get(ctx, id)
	if err != nil {
		return models.Action{}, err
	}
	f.requeued = append(f.requeued, id)
	a.Status = models.StatusPending
	return a, nil
}

func (f *fakeActions) Purge(context.Context, string, time.Duration) error { return nil }

func (f *fakeActions) PurgeSynced(_ context.Context, _ string, retention time.Duration) (int64, error) {
	f.purgedFor = retention
	return 2, nil
}

// ── conflicts, device, proofs ────────────────────────────────────────────────

type fakeConflicts struct {
	local     []models.Conflict
	remote    []models.Conflict
	resolve   models.ResolveConflictResponse
	lastReq   models.ResolveConflictRequest
	refreshed bool
}

func (f *fakeConflicts) List(context.Context) ([]models.Conflict, error) { return f.local, nil }

func (f *fakeConflicts) Refresh(context.Context) ([]models.Conflict, error) {
	f.refreshed = true
	return f.remote, nil
}

func (f *fakeConflicts) Resolve(_ context.Context, req models.ResolveConflictRequest) (models.ResolveConflictResponse, error) {
	f.lastReq = req
	resp := f.resolve
	resp.ConflictID = req.ConflictID
	resp.Strategy = req.Strategy
	return resp, nil
}

type fakeDevice struct {
	capabilities []string
}

func (f *fakeDevice) Register(_ context.Context, capabilities []string) (models.DeviceSyncState, error) {
	f.capabilities = capabilities
	return models.DeviceSyncState{DeviceID: testDevice, UserID: testUser}, nil
}

func (f *fakeDevice) State(context.Context) (models.DeviceSyncState, error) {
	return models.DeviceSyncState{
		DeviceID:           testDevice,
		UserID:             testUser,
		LastSyncCheckpoint: models.Checkpoint{Version: 7},
		PendingActionIDs:   []string{"a-1", "a-2"},
	}, nil
}

type fakeProofs struct {
	lastReq models.BuildProofRequest
	active  []models.OfflineProof
}

func (f *fakeProofs) Build(_ context.Context, req models.BuildProofRequest) (models.OfflineProof, models.Action, error) {
	f.lastReq = req
	return models.OfflineProof{ID: "proof-1", InputDigest: "abc", ExpiresAt: time.Now().Add(time.Hour)},
		models.Action{ID: "a-9", Type: models.ActionCreateProof}, nil
}

func (f *fakeProofs) ListActive(context.Context, string) ([]models.OfflineProof, error) {
	return f.active, nil
}

func (f *fakeProofs) Get(context.Context, string) (models.OfflineProof, error) {
	return models.OfflineProof{}, store.ErrProofNotFound
}

// ── sync ─────────────────────────────────────────────────────────────────────

type fakeMonitor struct {
	probes int
}

func (f *fakeMonitor) Subscribe() (<-chan models.NetworkEvent, func()) {
	return make(chan models.NetworkEvent), func() {}
}

func (f *fakeMonitor) Report(models.NetworkStatus, time.Duration) {}

func (f *fakeMonitor) ProbeNow(context.Context) models.NetworkStatus {
	f.probes++
	return models.NetworkOnline
}

func (f *fakeMonitor) Status() (models.NetworkStatus, time.Duration) {
	return models.NetworkOnline, 40 * time.Millisecond
}

func (f *fakeMonitor) Run(ctx context.Context, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

type fakeCoordinator struct {
	report   models.PassReport
	triggers []models.SyncTrigger
}

func (f *fakeCoordinator) RunPass(_ context.Context, trigger models.SyncTrigger) (models.PassReport, error) {
	f.triggers = append(f.triggers, trigger)
	report := f.report
	report.Trigger = trigger
	return report, nil
}

func (f *fakeCoordinator) Trigger(models.SyncTrigger) {}

func (f *fakeCoordinator) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeCoordinator) Counters() models.SyncCounters {
	return models.SyncCounters{Passes: 3, Applied: 5}
}

func (f *fakeCoordinator) Status() models.SyncStatus { return models.SyncIdle }

// ── app ──────────────────────────────────────────────────────────────────────

type fakeApp struct {
	actions     *fakeActions
	conflicts   *fakeConflicts
	device      *fakeDevice
	proofs      *fakeProofs
	monitor     *fakeMonitor
	coordinator *fakeCoordinator

	closed int
}

func newFakeApp() *fakeApp {
	return &fakeApp{
		actions:     &fakeActions{},
		conflicts:   &fakeConflicts{},
		device:      &fakeDevice{},
		proofs:      &fakeProofs{},
		monitor:     &fakeMonitor{},
		coordinator: &fakeCoordinator{},
	}
}

func (f *fakeApp) app() *App {
	return &App{
		cfg: &config.ClientConfig{
			Workers: config.ClientWorkers{PurgeRetention: 48 * time.Hour},
			Device:  config.ClientDevice{UserID: testUser},
		},
		services: &service.ClientServices{
			DeviceID:    testDevice,
			Actions:     f.actions,
			Monitor:     f.monitor,
			Proofs:      f.proofs,
			Coordinator: f.coordinator,
			Conflicts:   f.conflicts,
			Device:      f.device,
			SyncJob:     service.NewClientSyncJob(f.coordinator),
		},
		closers: []func() error{func() error { f.closed++; return nil }},
		logger:  logger.Nop(),
	}
}

func (f *fakeApp) builder() AppBuilder {
	return func(context.Context, config.ClientOptions) (*App, error) {
		return f.app(), nil
	}
}

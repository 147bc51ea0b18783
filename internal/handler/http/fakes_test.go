package http

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

const (
	testDevice  = "dev-1"
	testHashKey = "test-hash-key"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	utils.InitHasherPool(testHashKey)
	os.Exit(m.Run())
}

func errDeviceNotFound(id string) error {
	return fmt.Errorf("%w: %s", store.ErrDeviceNotFound, id)
}

func errResourceNotFound(key string) error {
	return fmt.Errorf("%w: %s", store.ErrResourceNotFound, key)
}

type stubAppInfo struct{ version string }

func (s stubAppInfo) GetAppVersion(context.Context) string { return s.version }

type stubProcessor struct {
	mu       sync.Mutex
	requests []models.SubmitBatchRequest
	err      error
}

func (s *stubProcessor) Submit(_ context.Context, _ string, item models.SubmitItem) models.SubmitResult {
	version := item.Action.Payload.ExpectedVersion() + 1
	return models.SubmitResult{ActionID: item.Action.ID, Outcome: models.OutcomeApplied, AppliedVersion: &version}
}

func (s *stubProcessor) SubmitBatch(ctx context.Context, req models.SubmitBatchRequest) (models.SubmitBatchResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.err != nil {
		return models.SubmitBatchResponse{}, s.err
	}

	results := make([]models.SubmitResult, 0, len(req.Items))
	for _, item := range req.Items {
		results = append(results, s.Submit(ctx, req.DeviceID, item))
	}
	return models.SubmitBatchResponse{Results: results}, nil
}

type stubResolver struct {
	lastResolve models.ResolveConflictRequest
	lastList    models.ListConflictsRequest
	conflicts   []models.Conflict
	err         error
}

func (s *stubResolver) Resolve(_ context.Context, req models.ResolveConflictRequest) (models.ResolveConflictResponse, error) {
	s.lastResolve = req
	if s.err != nil {
		return models.ResolveConflictResponse{}, s.err
	}
	return models.ResolveConflictResponse{
		ConflictID:        req.ConflictID,
		Resolved:          true,
		Strategy:          req.Strategy,
		NewVersion:        3,
		ReleasedActionIDs: []string{},
	}, nil
}

func (s *stubResolver) ListConflicts(_ context.Context, req models.ListConflictsRequest) ([]models.Conflict, error) {
	s.lastList = req
	return s.conflicts, s.err
}

type stubRegistry struct {
	mu         sync.Mutex
	devices    map[string]models.DeviceSyncState
	touched    []string
	checkpoint models.CheckpointRequest
	err        error
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{devices: map[string]models.DeviceSyncState{
		testDevice: {DeviceID: testDevice, UserID: "user-1", SyncStatus: models.SyncIdle},
	}}
}

func (s *stubRegistry) Register(_ context.Context, req models.RegisterDeviceRequest) (models.DeviceSyncState, error) {
	if s.err != nil {
		return models.DeviceSyncState{}, s.err
	}
	state := models.DeviceSyncState{
		DeviceID:           req.DeviceID,
		UserID:             req.UserID,
		PublicKey:          req.PublicKey,
		SyncStatus:         models.SyncIdle,
		LastSyncCheckpoint: models.Checkpoint{At: testEpoch},
		RegisteredAt:       testEpoch,
	}
	s.mu.Lock()
	s.devices[req.DeviceID] = state
	s.mu.Unlock()
	return state, nil
}

func (s *stubRegistry) Get(_ context.Context, deviceID string) (models.DeviceSyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[deviceID]
	if !ok {
		return models.DeviceSyncState{}, errDeviceNotFound(deviceID)
	}
	return d, nil
}

func (s *stubRegistry) UpdateCheckpoint(_ context.Context, req models.CheckpointRequest) (models.CheckpointResponse, error) {
	s.checkpoint = req
	if s.err != nil {
		return models.CheckpointResponse{}, s.err
	}
	return models.CheckpointResponse{Advanced: true, Checkpoint: req.Checkpoint}, nil
}

func (s *stubRegistry) Touch(_ context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = append(s.touched, deviceID)
	if _, ok := s.devices[deviceID]; !ok {
		return errDeviceNotFound(deviceID)
	}
	return nil
}

type stubResources struct {
	rows map[string]models.Resource
}

func (s stubResources) GetResource(_ context.Context, key string) (models.Resource, error) {
	r, ok := s.rows[key]
	if !ok {
		return models.Resource{}, errResourceNotFound(key)
	}
	return r, nil
}

// testServices bundles the stubs behind a service.Services.
type testServices struct {
	processor *stubProcessor
	resolver  *stubResolver
	registry  *stubRegistry
	metrics   *service.ProcessorMetrics
	services  *service.Services
}

func newTestServices() *testServices {
	ts := &testServices{
		processor: &stubProcessor{},
		resolver:  &stubResolver{},
		registry:  newStubRegistry(),
		metrics:   service.NewProcessorMetrics(),
	}
	ts.services = &service.Services{
		ActionProcessor:  ts.processor,
		ConflictResolver: ts.resolver,
		DeviceRegistry:   ts.registry,
		ResourceService: stubResources{rows: map[string]models.Resource{
			"profile:p1": {Key: "profile:p1", Kind: models.KindProfile, Version: 2, Snapshot: models.Snapshot{"name": "Ann"}},
		}},
		AppInfoService: stubAppInfo{version: "1.2.3"},
		Metrics:        ts.metrics,
	}
	return ts
}

func newTestRouter(t *testing.T) (*testServices, *Handler) {
	t.Helper()
	ts := newTestServices()
	return ts, NewHandler(ts.services, logger.Nop())
}

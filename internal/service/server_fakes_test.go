package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

// memResources is an in-memory store.ResourceRepository with history.
type memResources struct {
	mu       sync.Mutex
	rows     map[string]models.Resource
	history  map[string]map[int64]models.Snapshot
	applied  map[string]store.AppliedRecord
	writeErr error
}

func newMemResources() *memResources {
	return &memResources{
		rows:    make(map[string]models.Resource),
		history: make(map[string]map[int64]models.Snapshot),
		applied: make(map[string]store.AppliedRecord),
	}
}

func (m *memResources) GetResource(_ context.Context, key string) (models.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[key]
	if !ok {
		return models.Resource{}, store.ErrResourceNotFound
	}
	r.Snapshot = r.Snapshot.Clone()
	return r, nil
}

func (m *memResources) GetSnapshotAt(_ context.Context, key string, version int64) (models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.history[key][version]
	if !ok {
		return nil, store.ErrResourceNotFound
	}
	return s.Clone(), nil
}

func (m *memResources) FindAppliedByAction(_ context.Context, actionID string) (store.AppliedRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.applied[actionID]
	if !ok {
		return store.AppliedRecord{}, store.ErrResourceNotFound
	}
	return r, nil
}

func (m *memResources) WriteResource(_ context.Context, w store.ResourceWrite) (models.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return models.Resource{}, m.writeErr
	}
	if _, ok := m.applied[w.ActionID]; ok {
		return models.Resource{}, store.ErrActionAlreadyApplied
	}

	current, exists := m.rows[w.Key]
	switch {
	case w.ExpectedVersion == 0 && exists:
		return models.Resource{}, store.ErrResourceExists
	case w.ExpectedVersion != 0 && !exists:
		return models.Resource{}, store.ErrResourceNotFound
	case exists && current.Version != w.ExpectedVersion:
		return models.Resource{}, store.ErrVersionConflict
	}

	next := models.Resource{
		Key:       w.Key,
		Kind:      models.ResourceKind(w.Key),
		OwnerID:   w.OwnerID,
		Version:   w.ExpectedVersion + 1,
		Snapshot:  w.Snapshot.Clone(),
		UpdatedBy: w.DeviceID,
		UpdatedAt: w.At,
	}
	if exists {
		next.OwnerID = current.OwnerID
	}
	m.rows[w.Key] = next
	if m.history[w.Key] == nil {
		m.history[w.Key] = make(map[int64]models.Snapshot)
	}
	m.history[w.Key][next.Version] = w.Snapshot.Clone()
	m.applied[w.ActionID] = store.AppliedRecord{ResourceKey: w.Key, Version: next.Version, AppliedAt: w.At}
	return next, nil
}

func (m *memResources) version(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[key].Version
}

// memServerConflicts keeps one conflict per action id.
type memServerConflicts struct {
	mu        sync.Mutex
	rows      map[string]models.Conflict
	byAction  map[string]string
	resources *memResources
}

func newMemServerConflicts(resources *memResources) *memServerConflicts {
	return &memServerConflicts{
		rows:      make(map[string]models.Conflict),
		byAction:  make(map[string]string),
		resources: resources,
	}
}

func (m *memServerConflicts) SaveConflict(_ context.Context, c models.Conflict) (models.Conflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byAction[c.ActionID]; ok {
		return m.rows[id], nil
	}
	m.rows[c.ID] = c
	m.byAction[c.ActionID] = c.ID
	return c, nil
}

func (m *memServerConflicts) GetConflict(_ context.Context, id string) (models.Conflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return models.Conflict{}, store.ErrConflictNotFound
	}
	return c, nil
}

func (m *memServerConflicts) ListConflicts(_ context.Context, filter store.ConflictFilter) ([]models.Conflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Conflict
	for _, c := range m.rows {
		if c.DeviceID != filter.DeviceID || (filter.OpenOnly && !c.Open()) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memServerConflicts) RecordStrategy(_ context.Context, id string, strategy models.ResolutionStrategy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return store.ErrConflictNotFound
	}
	c.ResolutionStrategy = strategy
	m.rows[id] = c
	return nil
}

func (m *memServerConflicts) ResolveConflict(ctx context.Context, res store.ConflictResolution) (models.Conflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[res.ConflictID]
	if !ok {
		return models.Conflict{}, store.ErrConflictNotFound
	}
	if !c.Open() {
		return models.Conflict{}, store.ErrConflictResolved
	}

	version := res.NewVersion
	if res.Write != nil {
		written, err := m.resources.WriteResource(ctx, *res.Write)
		if err != nil {
			return models.Conflict{}, err
		}
		version = written.Version
	}

	at := res.At
	c.ResolutionStrategy = res.Strategy
	c.ResolvedSnapshot = res.ResolvedSnapshot
	c.ResolvedAt = &at
	c.NewVersion = &version
	m.rows[c.ID] = c
	return c, nil
}

// memRegistry is an in-memory store.DeviceRepository.
type memRegistry struct {
	mu      sync.Mutex
	rows    map[string]models.DeviceSyncState
	touched map[string]time.Time
}

func newMemRegistry() *memRegistry {
	return &memRegistry{rows: make(map[string]models.DeviceSyncState), touched: make(map[string]time.Time)}
}

func (m *memRegistry) UpsertDevice(_ context.Context, d models.DeviceSyncState) (models.DeviceSyncState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.rows[d.DeviceID]; ok {
		d.LastSyncCheckpoint = old.LastSyncCheckpoint
		d.RegisteredAt = old.RegisteredAt
	} else {
		d.LastSyncCheckpoint = models.Checkpoint{At: d.RegisteredAt}
	}
	m.rows[d.DeviceID] = d
	return d, nil
}

func (m *memRegistry) GetDevice(_ context.Context, id string) (models.DeviceSyncState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok {
		return models.DeviceSyncState{}, store.ErrDeviceNotFound
	}
	return d, nil
}

func (m *memRegistry) AdvanceCheckpoint(_ context.Context, id string, cp models.Checkpoint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok {
		return false, store.ErrDeviceNotFound
	}
	if !cp.After(d.LastSyncCheckpoint) {
		return false, nil
	}
	d.LastSyncCheckpoint = cp
	m.rows[id] = d
	return true, nil
}

func (m *memRegistry) TouchDevice(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return store.ErrDeviceNotFound
	}
	m.touched[id] = at
	return nil
}

// memCache is an in-memory store.IdempotencyCache.
type memCache struct {
	mu   sync.Mutex
	rows map[string]models.SubmitResult
}

func newMemCache() *memCache {
	return &memCache{rows: make(map[string]models.SubmitResult)}
}

func (m *memCache) Get(_ context.Context, key string) (models.SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[key]
	if !ok {
		return models.SubmitResult{}, store.ErrCacheMiss
	}
	return r, nil
}

func (m *memCache) Put(_ context.Context, key string, result models.SubmitResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[key] = result
	return nil
}

func (m *memCache) RunGC(context.Context) error { return nil }

func (m *memCache) Close() error { return nil }

func (m *memCache) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.rows)
}

func (m *memCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[key]
	return ok
}

// stubDocuments issues predictable upload targets.
type stubDocuments struct{}

func (stubDocuments) UploadTarget(_ context.Context, key, contentType string, _ int64) (models.UploadTarget, error) {
	return models.UploadTarget{
		Method:     "PUT",
		URL:        "https://uploads.example.test/documents/" + key,
		Headers:    map[string]string{"Content-Type": contentType},
		StorageKey: "documents/" + key,
		ExpiresAt:  testEpoch.Add(15 * time.Minute),
	}, nil
}

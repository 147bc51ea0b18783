package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

// memActions is an in-memory store.ActionRepository. Payloads are round
// tripped through JSON so callers never share pointers with the store.
// With honourCtx set every call fails once its context is done, like a
// real driver.
type memActions struct {
	mu        sync.Mutex
	rows      map[string]models.Action
	order     []string
	honourCtx bool
}

func newMemActions() *memActions {
	return &memActions{rows: make(map[string]models.Action)}
}

func (m *memActions) copyAction(a models.Action) models.Action {
	if a.Payload != nil {
		raw, err := json.Marshal(a.Payload)
		if err != nil {
			panic(err)
		}
		a.Payload, err = models.DecodePayload(a.Type, raw)
		if err != nil {
			panic(err)
		}
	}
	a.Dependencies = slices.Clone(a.Dependencies)
	return a
}

func (m *memActions) alive(ctx context.Context) error {
	if m.honourCtx {
		return ctx.Err()
	}
	return nil
}

func (m *memActions) InsertAction(ctx context.Context, action models.Action) error {
	if err := m.alive(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[action.ID]; ok {
		return store.ErrActionExists
	}
	m.rows[action.ID] = m.copyAction(action)
	m.order = append(m.order, action.ID)
	return nil
}

func (m *memActions) GetAction(ctx context.Context, id string) (models.Action, error) {
	if err := m.alive(ctx); err != nil {
		return models.Action{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return models.Action{}, store.ErrActionNotFound
	}
	return m.copyAction(a), nil
}

func (m *memActions) ListActions(ctx context.Context, filter store.ActionFilter) ([]models.Action, error) {
	if err := m.alive(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Action
	for _, id := range m.order {
		a, ok := m.rows[id]
		if !ok {
			continue
		}
		if filter.DeviceID != "" && a.DeviceID != filter.DeviceID {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, a.Status) {
			continue
		}
		if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, a.ID) {
			continue
		}
		out = append(out, m.copyAction(a))
	}
	return out, nil
}

func (m *memActions) ListDependents(ctx context.Context, id string) ([]models.Action, error) {
	if err := m.alive(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Action
	for _, rid := range m.order {
		a, ok := m.rows[rid]
		if ok && a.DependsOn(id) {
			out = append(out, m.copyAction(a))
		}
	}
	return out, nil
}

func (m *memActions) UpdateAction(ctx context.Context, action models.Action) error {
	if err := m.alive(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[action.ID]; !ok {
		return store.ErrActionNotFound
	}
	m.rows[action.ID] = m.copyAction(action)
	return nil
}

func (m *memActions) DeleteAction(ctx context.Context, id string) error {
	if err := m.alive(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return store.ErrActionNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memActions) DeleteSyncedBefore(ctx context.Context, deviceID string, before time.Time) (int64, error) {
	if err := m.alive(ctx); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, a := range m.rows {
		if a.DeviceID != deviceID || a.Status != models.StatusSynced || !a.UpdatedAt.Before(before) {
			continue
		}
		live := false
		for _, other := range m.rows {
			if other.DependsOn(id) && other.Status != models.StatusSynced {
				live = true
				break
			}
		}
		if !live {
			delete(m.rows, id)
			removed++
		}
	}
	return removed, nil
}

// status returns the stored status of id, or "" when missing.
func (m *memActions) status(id string) models.ActionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id].Status
}

func (m *memActions) get(id string) models.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyAction(m.rows[id])
}

func (m *memActions) put(action models.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[action.ID]; !ok {
		m.order = append(m.order, action.ID)
	}
	m.rows[action.ID] = m.copyAction(action)
}

type memProofs struct {
	mu   sync.Mutex
	rows map[string]models.OfflineProof
}

func newMemProofs() *memProofs {
	return &memProofs{rows: make(map[string]models.OfflineProof)}
}

func (m *memProofs) SaveProof(_ context.Context, proof models.OfflineProof) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[proof.ID] = proof
	return nil
}

func (m *memProofs) GetProof(_ context.Context, id string) (models.OfflineProof, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return models.OfflineProof{}, store.ErrProofNotFound
	}
	return p, nil
}

func (m *memProofs) ListProofs(_ context.Context, deviceID string, statuses ...models.ProofSyncStatus) ([]models.OfflineProof, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.OfflineProof
	for _, p := range m.rows {
		if p.DeviceID == deviceID && (len(statuses) == 0 || slices.Contains(statuses, p.SyncStatus)) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.OfflineProof) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (m *memProofs) SetProofStatusByAction(_ context.Context, actionID string, syncStatus models.ProofSyncStatus, validation models.ValidationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.rows {
		if p.ActionID == actionID {
			p.SyncStatus = syncStatus
			p.ValidationStatus = validation
			m.rows[id] = p
		}
	}
	return nil
}

func (m *memProofs) DeleteProof(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

type memDevices struct {
	mu   sync.Mutex
	rows map[string]models.DeviceSyncState
}

func newMemDevices() *memDevices {
	return &memDevices{rows: make(map[string]models.DeviceSyncState)}
}

func (m *memDevices) SaveDeviceState(_ context.Context, state models.DeviceSyncState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[state.DeviceID] = state
	return nil
}

func (m *memDevices) GetDeviceState(_ context.Context, deviceID string) (models.DeviceSyncState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[deviceID]
	if !ok {
		return models.DeviceSyncState{}, store.ErrDeviceNotFound
	}
	return s, nil
}

func (m *memDevices) SaveCheckpoint(_ context.Context, deviceID string, checkpoint models.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[deviceID]
	if !ok {
		return store.ErrDeviceNotFound
	}
	s.LastSyncCheckpoint = checkpoint
	m.rows[deviceID] = s
	return nil
}

func (m *memDevices) SetStatus(_ context.Context, deviceID string, network models.NetworkStatus, sync models.SyncStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[deviceID]
	if !ok {
		return store.ErrDeviceNotFound
	}
	s.NetworkStatus = network
	s.SyncStatus = sync
	m.rows[deviceID] = s
	return nil
}

type memConflicts struct {
	mu   sync.Mutex
	rows map[string]models.Conflict
}

func newMemConflicts() *memConflicts {
	return &memConflicts{rows: make(map[string]models.Conflict)}
}

func (m *memConflicts) SaveConflict(_ context.Context, conflict models.Conflict) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[conflict.ID] = conflict
	return nil
}

func (m *memConflicts) GetConflict(_ context.Context, id string) (models.Conflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return models.Conflict{}, store.ErrConflictNotFound
	}
	return c, nil
}

func (m *memConflicts) ListConflicts(_ context.Context, deviceID string) ([]models.Conflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Conflict
	for _, c := range m.rows {
		if c.DeviceID == deviceID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memConflicts) DeleteConflict(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return store.ErrConflictNotFound
	}
	delete(m.rows, id)
	return nil
}

// seqIDs hands out predictable ids.
type seqIDs struct {
	prefix string
	n      atomic.Int64
}

func (g *seqIDs) Generate() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.n.Add(1))
}

// fixedClock returns a settable clock.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

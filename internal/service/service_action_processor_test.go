// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/internal/crypto"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/validators"
	"github.com/MKhiriev/go-offline-sync/models"
)

type serverFixture struct {
	processor *actionProcessor
	resolver  *conflictResolver
	resources *memResources
	conflicts *memServerConflicts
	devices   *memRegistry
	cache     *memCache
	metrics   *ProcessorMetrics
	key       *crypto.DeviceKey
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	validator, err := validators.NewActionValidator()
	require.NoError(t, err)
	key, err := crypto.DeriveDeviceKey(testDevice, []byte("device-secret"))
	require.NoError(t, err)

	resources := newMemResources()
	f := &serverFixture{
		resources: resources,
		conflicts: newMemServerConflicts(resources),
		devices:   newMemRegistry(),
		cache:     newMemCache(),
		metrics:   NewProcessorMetrics(),
		key:       key,
	}
	f.devices.rows[testDevice] = models.DeviceSyncState{
		DeviceID:  testDevice,
		UserID:    "user-1",
		PublicKey: key.PublicKeyBase64(),
	}

	storages := &store.Storages{
		Devices:     f.devices,
		Resources:   f.resources,
		Conflicts:   f.conflicts,
		Idempotency: f.cache,
		Documents:   stubDocuments{},
	}
	locks := NewKeyedLocker()
	clock := func() time.Time { return testEpoch }

	f.processor = NewActionProcessor(storages, validator, locks, f.metrics, &seqIDs{prefix: "conflict"}, logger.Nop()).(*actionProcessor)
	f.processor.now = clock
	f.resolver = NewConflictResolver(storages, validator, locks, f.metrics, logger.Nop()).(*conflictResolver)
	f.resolver.now = clock
	return f
}

func (f *serverFixture) submit(action models.Action) models.SubmitResult {
	return f.processor.Submit(context.Background(), testDevice, models.SubmitItem{Action: action, IdempotencyKey: action.ID})
}

func profileUpdate(id, profileID string, base int64, fields map[string]any) models.Action {
	return models.Action{
		ID:       id,
		Type:     models.ActionUpdateProfile,
		DeviceID: testDevice,
		OwnerID:  "user-1",
		Payload:  &models.UpdateProfilePayload{ProfileID: profileID, BaseVersion: base, Fields: fields},
	}
}

// seedProfile brings profile p1 to version 2: {name: Ann, city: Y}, with
// version 1 being {name: Ann, city: X}.
func (f *serverFixture) seedProfile(t *testing.T) {
	t.Helper()
	require.Equal(t, models.OutcomeApplied, f.submit(profileUpdate("seed-1", "p1", 0, map[string]any{"name": "Ann", "city": "X"})).Outcome)
	require.Equal(t, models.OutcomeApplied, f.submit(profileUpdate("seed-2", "p1", 1, map[string]any{"city": "Y"})).Outcome)
}

func (f *serverFixture) proofAction(t *testing.T, id string, tamper func(*crypto.PlaceholderClaims, *models.CreateProofPayload)) models.Action {
	t.Helper()

	digest, err := crypto.InputDigest(map[string]any{"birth_date": "1990-04-01"})
	require.NoError(t, err)
	nonce := strings.Repeat("ab", crypto.NonceSize)

	payload := &models.CreateProofPayload{
		ProofID:     "proof-" + id,
		ProofType:   "age_over",
		InputDigest: digest,
		Nonce:       nonce,
		CreatedAt:   testEpoch.Add(-time.Hour),
		ExpiresAt:   testEpoch.Add(time.Hour),
	}
	claims := crypto.PlaceholderClaims{
		Digest:    digest,
		ProofType: payload.ProofType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testDevice,
			Subject:   payload.ProofID,
			ID:        nonce,
			IssuedAt:  jwt.NewNumericDate(payload.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(payload.ExpiresAt),
		},
	}
	if tamper != nil {
		tamper(&claims, payload)
	}
	payload.Placeholder, err = f.key.SignPlaceholder(claims)
	require.NoError(t, err)

	return models.Action{
		ID: id, Type: models.ActionCreateProof, DeviceID: testDevice, OwnerID: "user-1", Payload: payload,
	}
}

// ── applied / duplicate ──────────────────────────────────────────────────────

func TestActionProcessor_Submit_AppliesNewResource(t *testing.T) {
	f := newServerFixture(t)

	result := f.submit(profileUpdate("a1", "p1", 0, map[string]any{"name": "Ann"}))

	require.Equal(t, models.OutcomeApplied, result.Outcome, result.Error)
	require.NotNil(t, result.AppliedVersion)
	assert.Equal(t, int64(1), *result.AppliedVersion)
	assert.Equal(t, "profile:p1", result.ResourceKey)
	require.NotNil(t, result.ServerTime)
	assert.Equal(t, testEpoch, *result.ServerTime)

	resource, err := f.resources.GetResource(context.Background(), "profile:p1")
	require.NoError(t, err)
	assert.Equal(t, models.Snapshot{"name": "Ann"}, resource.Snapshot)
	assert.Equal(t, "user-1", resource.OwnerID)
	assert.True(t, f.cache.has("a1"))
}

func TestActionProcessor_Submit_ProfileUpdatesArePartial(t *testing.T) {
	f := newServerFixture(t)
	f.seedProfile(t)

	resource, err := f.resources.GetResource(context.Background(), "profile:p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), resource.Version)
	assert.Equal(t, models.Snapshot{"name": "Ann", "city": "Y"}, resource.Snapshot)
}

func TestActionProcessor_Submit_Duplicates(t *testing.T) {
	tests := []struct {
		name       string
		clearCache bool
	}{
		{"from cache", false},
		{"from history after cache expiry", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServerFixture(t)
			action := profileUpdate("a1", "p1", 0, map[string]any{"name": "Ann"})
			require.Equal(t, models.OutcomeApplied, f.submit(action).Outcome)
			if tt.clearCache {
				f.cache.clear()
			}

			again := f.submit(action)

			assert.Equal(t, models.OutcomeDuplicate, again.Outcome)
			require.NotNil(t, again.AppliedVersion)
			assert.Equal(t, int64(1), *again.AppliedVersion)
			assert.Equal(t, int64(1), f.resources.version("profile:p1"), "applied once")

			counters := f.metrics.Snapshot()
			assert.Equal(t, int64(2), counters.Submitted)
			assert.Equal(t, int64(1), counters.Applied)
			assert.Equal(t, int64(1), counters.Duplicates)
		})
	}
}

// ── conflicts ────────────────────────────────────────────────────────────────

func TestActionProcessor_Submit_VersionMismatch(t *testing.T) {
	f := newServerFixture(t)
	f.seedProfile(t)

	result := f.submit(profileUpdate("a3", "p1", 1, map[string]any{"name": "Bob"}))

	require.Equal(t, models.OutcomeConflict, result.Outcome)
	require.NotNil(t, result.Conflict)
	c := result.Conflict
	assert.Equal(t, models.ConflictVersionMismatch, c.Type)
	assert.Equal(t, "a3", c.ActionID)
	assert.Equal(t, int64(1), c.BaseVersion)
	assert.Equal(t, int64(2), c.ServerVersion)
	assert.Equal(t, models.Snapshot{"name": "Ann", "city": "X"}, c.BaseSnapshot)
	assert.Equal(t, models.Snapshot{"name": "Bob", "city": "X"}, c.LocalSnapshot)
	assert.Equal(t, models.Snapshot{"name": "Ann", "city": "Y"}, c.ServerSnapshot)
	assert.True(t, c.Open())
	assert.Equal(t, int64(2), f.resources.version("profile:p1"), "conflicts never write")
}

func TestActionProcessor_Submit_ResubmittedConflictIsStable(t *testing.T) {
	f := newServerFixture(t)
	f.seedProfile(t)
	action := profileUpdate("a3", "p1", 1, map[string]any{"name": "Bob"})

	first := f.submit(action)
	f.cache.clear()
	second := f.submit(action)

	require.Equal(t, models.OutcomeConflict, second.Outcome)
	assert.Equal(t, first.Conflict.ID, second.Conflict.ID)
	assert.Len(t, f.conflicts.rows, 1)
}

func TestActionProcessor_Submit_ConcurrentCreate(t *testing.T) {
	f := newServerFixture(t)
	require.Equal(t, models.OutcomeApplied, f.submit(profileUpdate("a1", "p1", 0, map[string]any{"name": "Ann"})).Outcome)

	result := f.submit(profileUpdate("a2", "p1", 0, map[string]any{"name": "Bob"}))

	require.Equal(t, models.OutcomeConflict, result.Outcome)
	assert.Equal(t, models.ConflictConcurrentModification, result.Conflict.Type)
	assert.Nil(t, result.Conflict.BaseSnapshot)
}

func TestActionProcessor_Submit_SameKeyIsSerialized(t *testing.T) {
	f := newServerFixture(t)

	const writers = 10
	results := make([]models.SubmitResult, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = f.submit(profileUpdate(fmt.Sprintf("w%d", i), "p1", 0, map[string]any{"n": i}))
		}()
	}
	wg.Wait()

	outcomes := map[models.Outcome]int{}
	for _, r := range results {
		outcomes[r.Outcome]++
	}
	assert.Equal(t, 1, outcomes[models.OutcomeApplied])
	assert.Equal(t, writers-1, outcomes[models.OutcomeConflict])
	assert.Equal(t, int64(1), f.resources.version("profile:p1"))
}

// ── rejections ───────────────────────────────────────────────────────────────

func TestActionProcessor_Submit_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		action    func(f *serverFixture, t *testing.T) models.Action
		wantError error
		cached    bool
	}{
		{
			name: "invalid payload",
			action: func(*serverFixture, *testing.T) models.Action {
				return profileUpdate("r1", "p1", 0, map[string]any{})
			},
			wantError: validators.ErrEmptyFields,
			cached:    true,
		},
		{
			name: "action of another device",
			action: func(*serverFixture, *testing.T) models.Action {
				a := profileUpdate("r2", "p1", 0, map[string]any{"name": "Ann"})
				a.DeviceID = "dev-2"
				return a
			},
			wantError: ErrDeviceMismatch,
			cached:    true,
		},
		{
			name: "update of unknown resource",
			action: func(*serverFixture, *testing.T) models.Action {
				return profileUpdate("r3", "ghost", 3, map[string]any{"name": "Ann"})
			},
			wantError: ErrUnknownResource,
		},
		{
			name: "placeholder over another digest",
			action: func(f *serverFixture, t *testing.T) models.Action {
				return f.proofAction(t, "r4", func(c *crypto.PlaceholderClaims, _ *models.CreateProofPayload) {
					c.Digest = strings.Repeat("0", 64)
				})
			},
			wantError: ErrPlaceholderMismatch,
			cached:    true,
		},
		{
			name: "expired proof",
			action: func(f *serverFixture, t *testing.T) models.Action {
				return f.proofAction(t, "r5", func(c *crypto.PlaceholderClaims, p *models.CreateProofPayload) {
					p.ExpiresAt = testEpoch
					c.ExpiresAt = jwt.NewNumericDate(testEpoch)
				})
			},
			wantError: ErrProofExpired,
			cached:    true,
		},
		{
			name: "verification of unknown profile",
			action: func(*serverFixture, *testing.T) models.Action {
				return models.Action{
					ID: "r6", Type: models.ActionSubmitVerification, DeviceID: testDevice, OwnerID: "user-1",
					Payload: &models.SubmitVerificationPayload{VerificationID: "v1", ProfileID: "ghost", ProfileVersion: 1, Method: "manual"},
				}
			},
			wantError: ErrUnknownResource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServerFixture(t)
			action := tt.action(f, t)

			result := f.submit(action)

			assert.Equal(t, models.OutcomeRejected, result.Outcome)
			assert.Contains(t, result.Error, tt.wantError.Error())
			assert.Equal(t, tt.cached, f.cache.has(action.ID))
			assert.Equal(t, int64(1), f.metrics.Snapshot().Rejected)
		})
	}
}

func TestActionProcessor_Submit_UnregisteredDeviceIsReevaluated(t *testing.T) {
	f := newServerFixture(t)
	registered := f.devices.rows[testDevice]
	delete(f.devices.rows, testDevice)
	action := profileUpdate("a1", "p1", 0, map[string]any{"name": "Ann"})

	result := f.submit(action)
	require.Equal(t, models.OutcomeRejected, result.Outcome)
	assert.Contains(t, result.Error, ErrDeviceNotRegistered.Error())

	f.devices.rows[testDevice] = registered
	result = f.submit(action)
	assert.Equal(t, models.OutcomeApplied, result.Outcome)
}

func TestActionProcessor_Submit_StorageFailureIsNotCached(t *testing.T) {
	f := newServerFixture(t)
	f.resources.writeErr = errors.New("connection reset")
	action := profileUpdate("a1", "p1", 0, map[string]any{"name": "Ann"})

	result := f.submit(action)
	assert.Equal(t, models.OutcomeError, result.Outcome)
	assert.False(t, f.cache.has("a1"))

	f.resources.writeErr = nil
	result = f.submit(action)
	assert.Equal(t, models.OutcomeApplied, result.Outcome)
	assert.Equal(t, int64(1), f.metrics.Snapshot().Errors)
}

// ── payload kinds ────────────────────────────────────────────────────────────

func TestActionProcessor_Submit_ProofWithValidPlaceholder(t *testing.T) {
	f := newServerFixture(t)

	result := f.submit(f.proofAction(t, "p1", nil))

	require.Equal(t, models.OutcomeApplied, result.Outcome, result.Error)
	assert.Equal(t, "proof:proof-p1", result.ResourceKey)
}

func TestActionProcessor_Submit_ProofSignedByAnotherDevice(t *testing.T) {
	f := newServerFixture(t)
	other, err := crypto.DeriveDeviceKey("dev-2", []byte("other-secret"))
	require.NoError(t, err)

	f.key = other
	forged := f.proofAction(t, "p1", nil)

	result := f.submit(forged)
	assert.Equal(t, models.OutcomeRejected, result.Outcome)
	assert.Equal(t, int64(0), f.resources.version("proof:proof-p1"))
}

func TestActionProcessor_Submit_Verification(t *testing.T) {
	tests := []struct {
		name           string
		profileVersion int64
		want           models.Outcome
	}{
		{"matching profile version", 2, models.OutcomeApplied},
		{"stale profile version", 1, models.OutcomeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServerFixture(t)
			f.seedProfile(t)

			result := f.submit(models.Action{
				ID: "v", Type: models.ActionSubmitVerification, DeviceID: testDevice, OwnerID: "user-1",
				Payload: &models.SubmitVerificationPayload{
					VerificationID: "ver-1", ProfileID: "p1", ProfileVersion: tt.profileVersion, Method: "document",
				},
			})

			require.Equal(t, tt.want, result.Outcome, result.Error)
			if tt.want == models.OutcomeConflict {
				assert.Equal(t, models.ConflictDependencyFailure, result.Conflict.Type)
				assert.Equal(t, int64(2), result.Conflict.ServerVersion)
				assert.Equal(t, "verification:ver-1", result.Conflict.ResourceKey)
			}
		})
	}
}

func TestActionProcessor_Submit_DocumentGetsFreshUploadTarget(t *testing.T) {
	f := newServerFixture(t)
	action := models.Action{
		ID: "d1", Type: models.ActionUploadDocument, DeviceID: testDevice, OwnerID: "user-1",
		Payload: &models.UploadDocumentPayload{
			DocumentID: "doc-1", FileName: "passport.pdf", ContentType: "application/pdf",
			SizeBytes: 2048, SHA256: strings.Repeat("c", 64),
		},
	}

	first := f.submit(action)
	require.Equal(t, models.OutcomeApplied, first.Outcome, first.Error)
	require.NotNil(t, first.Upload)
	assert.Equal(t, "PUT", first.Upload.Method)
	assert.Equal(t, "documents/doc-1", first.Upload.StorageKey)

	cached, err := f.cache.Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Nil(t, cached.Upload, "targets are never cached")

	again := f.submit(action)
	assert.Equal(t, models.OutcomeDuplicate, again.Outcome)
	require.NotNil(t, again.Upload)
}

// ── SubmitBatch ──────────────────────────────────────────────────────────────

func TestActionProcessor_SubmitBatch_InOrder(t *testing.T) {
	f := newServerFixture(t)
	first := profileUpdate("a1", "p1", 0, map[string]any{"name": "Ann"})
	second := profileUpdate("a2", "p1", 1, map[string]any{"city": "X"})
	second.Dependencies = []string{"a1"}

	resp, err := f.processor.SubmitBatch(context.Background(), models.SubmitBatchRequest{
		DeviceID: testDevice,
		Items: []models.SubmitItem{
			{Action: first, IdempotencyKey: first.ID},
			{Action: second, IdempotencyKey: second.ID},
		},
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "a1", resp.Results[0].ActionID)
	assert.Equal(t, models.OutcomeApplied, resp.Results[0].Outcome)
	assert.Equal(t, models.OutcomeApplied, resp.Results[1].Outcome)
	assert.Equal(t, int64(2), *resp.Results[1].AppliedVersion)
	assert.Equal(t, testEpoch, f.devices.touched[testDevice])
}

func TestActionProcessor_SubmitBatch_BadItemDoesNotFailNeighbours(t *testing.T) {
	f := newServerFixture(t)
	good := profileUpdate("a1", "p1", 0, map[string]any{"name": "Ann"})
	bad := profileUpdate("a2", "p2", 0, map[string]any{"name": "Bob"})

	resp, err := f.processor.SubmitBatch(context.Background(), models.SubmitBatchRequest{
		DeviceID: testDevice,
		Items: []models.SubmitItem{
			{Action: bad, IdempotencyKey: "not-the-id"},
			{Action: good, IdempotencyKey: good.ID},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeRejected, resp.Results[0].Outcome)
	assert.Equal(t, models.OutcomeApplied, resp.Results[1].Outcome)
}

func TestActionProcessor_SubmitBatch_Malformed(t *testing.T) {
	tests := []struct {
		name string
		req  models.SubmitBatchRequest
	}{
		{"no device", models.SubmitBatchRequest{Items: []models.SubmitItem{{}}}},
		{"no items", models.SubmitBatchRequest{DeviceID: testDevice}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServerFixture(t)

			_, err := f.processor.SubmitBatch(context.Background(), tt.req)
			require.ErrorIs(t, err, ErrInvalidDataProvided)
		})
	}
}

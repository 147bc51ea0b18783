// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/crypto"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/validators"
	"github.com/MKhiriev/go-offline-sync/models"
)

type actionProcessor struct {
	devices   store.DeviceRepository
	resources store.ResourceRepository
	conflicts store.ConflictRepository
	cache     store.IdempotencyCache
	documents store.DocumentStore

	validator validators.Validator
	locks     *KeyedLocker
	metrics   *ProcessorMetrics
	ids       idGenerator

	now    func() time.Time
	logger *logger.Logger
}

// NewActionProcessor wires the processor to the server storages. locks and
// metrics are shared with the conflict resolver so that resolutions and
// submissions for the same resource key are serialized.
func NewActionProcessor(
	storages *store.Storages,
	validator validators.Validator,
	locks *KeyedLocker,
	metrics *ProcessorMetrics,
	ids idGenerator,
	logger *logger.Logger,
) ActionProcessor {
	return &actionProcessor{
		devices:   storages.Devices,
		resources: storages.Resources,
		conflicts: storages.Conflicts,
		cache:     storages.Idempotency,
		documents: storages.Documents,
		validator: validator,
		locks:     locks,
		metrics:   metrics,
		ids:       ids,
		now:       time.Now,
		logger:    logger,
	}
}

// SubmitBatch implements ActionProcessor. Items run strictly in the order the
// device sent them, so a dependency listed earlier in the batch is applied
// before its dependents are evaluated.
func (p *actionProcessor) SubmitBatch(ctx context.Context, req models.SubmitBatchRequest) (models.SubmitBatchResponse, error) {
	if err := p.validator.Validate(ctx, req); err != nil {
		return models.SubmitBatchResponse{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	if err := p.devices.TouchDevice(ctx, req.DeviceID, p.now().UTC()); err != nil && !errors.Is(err, store.ErrDeviceNotFound) {
		logger.FromContext(ctx).Warn().Err(err).
			Str("func", "actionProcessor.SubmitBatch").
			Str("device_id", req.DeviceID).
			Msg("failed to touch device")
	}

	results := make([]models.SubmitResult, 0, len(req.Items))
	for _, item := range req.Items {
		results = append(results, p.Submit(ctx, req.DeviceID, item))
	}
	return models.SubmitBatchResponse{Results: results}, nil
}

// Submit implements ActionProcessor.
func (p *actionProcessor) Submit(ctx context.Context, deviceID string, item models.SubmitItem) models.SubmitResult {
	p.metrics.submitted.Add(1)

	result := p.submit(ctx, deviceID, item)
	p.metrics.countOutcome(result.Outcome)

	logger.FromContext(ctx).Debug().
		Str("device_id", deviceID).
		Str("action_id", item.Action.ID).
		Str("outcome", string(result.Outcome)).
		Msg("action processed")
	return result
}

func (p *actionProcessor) submit(ctx context.Context, deviceID string, item models.SubmitItem) models.SubmitResult {
	action := item.Action

	if cached, ok := p.lookup(ctx, item.IdempotencyKey); ok {
		return p.replay(ctx, action, cached)
	}

	if err := p.validator.Validate(ctx, item); err != nil {
		return p.reject(ctx, item, err, true)
	}
	if action.DeviceID != deviceID {
		return p.reject(ctx, item, fmt.Errorf("%w: %s", ErrDeviceMismatch, action.DeviceID), true)
	}

	// The cache may have expired since the first delivery; history is the
	// durable record of every applied action id.
	record, err := p.resources.FindAppliedByAction(ctx, action.ID)
	switch {
	case err == nil:
		return p.duplicate(ctx, action, record)
	case !errors.Is(err, store.ErrResourceNotFound):
		return p.fail(action, err)
	}

	device, err := p.devices.GetDevice(ctx, deviceID)
	if errors.Is(err, store.ErrDeviceNotFound) {
		return p.reject(ctx, item, fmt.Errorf("%w: %s", ErrDeviceNotRegistered, deviceID), false)
	}
	if err != nil {
		return p.fail(action, err)
	}

	if proof, ok := action.Payload.(*models.CreateProofPayload); ok {
		if err = p.checkPlaceholder(device, proof); err != nil {
			return p.reject(ctx, item, err, true)
		}
	}

	unlock := p.locks.Lock(action.ResourceKey())
	defer unlock()

	return p.apply(ctx, item)
}

// apply runs under the resource key lock.
func (p *actionProcessor) apply(ctx context.Context, item models.SubmitItem) models.SubmitResult {
	action := item.Action
	payload := action.Payload
	key := payload.ResourceKey()

	if verification, ok := payload.(*models.SubmitVerificationPayload); ok {
		if result, done := p.checkVerification(ctx, item, verification); done {
			return result
		}
	}

	current, err := currentResource(ctx, p.resources, key)
	if err != nil {
		return p.fail(action, err)
	}

	expected := payload.ExpectedVersion()
	if expected > 0 && current.Version == 0 {
		return p.reject(ctx, item, fmt.Errorf("%w: %s", ErrUnknownResource, key), false)
	}
	if expected != current.Version {
		conflictType := models.ConflictVersionMismatch
		if expected == 0 {
			conflictType = models.ConflictConcurrentModification
		}
		return p.conflict(ctx, item, current, conflictType)
	}

	now := p.now().UTC()
	written, err := p.resources.WriteResource(ctx, store.ResourceWrite{
		Key:             key,
		OwnerID:         action.OwnerID,
		Snapshot:        nextSnapshot(current.Snapshot, payload),
		ExpectedVersion: expected,
		ActionID:        action.ID,
		DeviceID:        action.DeviceID,
		At:              now,
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrActionAlreadyApplied):
		record, findErr := p.resources.FindAppliedByAction(ctx, action.ID)
		if findErr != nil {
			return p.fail(action, findErr)
		}
		return p.duplicate(ctx, action, record)
	case errors.Is(err, store.ErrResourceExists), errors.Is(err, store.ErrVersionConflict):
		// Another writer outside this process moved the resource.
		current, err = currentResource(ctx, p.resources, key)
		if err != nil {
			return p.fail(action, err)
		}
		return p.conflict(ctx, item, current, models.ConflictConcurrentModification)
	default:
		return p.fail(action, err)
	}

	version := written.Version
	result := models.SubmitResult{
		ActionID:       action.ID,
		Outcome:        models.OutcomeApplied,
		AppliedVersion: &version,
		ResourceKey:    key,
		ServerTime:     &now,
	}
	p.remember(ctx, item.IdempotencyKey, result)

	p.attachUpload(ctx, action, &result)
	return result
}

// checkVerification makes sure the profile (and proof) a verification refers
// to exist, and that the profile is still at the version the device saw.
func (p *actionProcessor) checkVerification(ctx context.Context, item models.SubmitItem, v *models.SubmitVerificationPayload) (models.SubmitResult, bool) {
	profileKey := models.ResourceKeyFor(models.KindProfile, v.ProfileID)
	profile, err := p.resources.GetResource(ctx, profileKey)
	if errors.Is(err, store.ErrResourceNotFound) {
		return p.reject(ctx, item, fmt.Errorf("%w: %s", ErrUnknownResource, profileKey), false), true
	}
	if err != nil {
		return p.fail(item.Action, err), true
	}

	if v.ProofID != "" {
		proofKey := models.ResourceKeyFor(models.KindProof, v.ProofID)
		_, err = p.resources.GetResource(ctx, proofKey)
		if errors.Is(err, store.ErrResourceNotFound) {
			return p.reject(ctx, item, fmt.Errorf("%w: %s", ErrUnknownResource, proofKey), false), true
		}
		if err != nil {
			return p.fail(item.Action, err), true
		}
	}

	if profile.Version == v.ProfileVersion {
		return models.SubmitResult{}, false
	}

	conflict := models.Conflict{
		ID:             p.ids.Generate(),
		ActionID:       item.Action.ID,
		DeviceID:       item.Action.DeviceID,
		ResourceKey:    v.ResourceKey(),
		Type:           models.ConflictDependencyFailure,
		BaseVersion:    v.ProfileVersion,
		ServerVersion:  profile.Version,
		LocalSnapshot:  v.Snapshot(),
		ServerSnapshot: profile.Snapshot,
		CreatedAt:      p.now().UTC(),
	}
	return p.recordConflict(ctx, item, conflict), true
}

func (p *actionProcessor) checkPlaceholder(device models.DeviceSyncState, proof *models.CreateProofPayload) error {
	pub, err := crypto.ParsePublicKey(device.PublicKey)
	if err != nil {
		return err
	}
	claims, err := crypto.VerifyPlaceholder(proof.Placeholder, pub)
	if err != nil {
		return err
	}
	if claims.Digest != proof.InputDigest ||
		claims.Subject != proof.ProofID ||
		claims.ID != proof.Nonce ||
		claims.Issuer != device.DeviceID ||
		claims.ProofType != proof.ProofType {
		return ErrPlaceholderMismatch
	}
	if !p.now().Before(proof.ExpiresAt) {
		return fmt.Errorf("%w: expired at %s", ErrProofExpired, proof.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return nil
}

func (p *actionProcessor) conflict(ctx context.Context, item models.SubmitItem, current models.Resource, conflictType models.ConflictType) models.SubmitResult {
	action := item.Action
	base := action.Payload.ExpectedVersion()

	var baseSnapshot models.Snapshot
	if base > 0 {
		snapshot, err := p.resources.GetSnapshotAt(ctx, current.Key, base)
		switch {
		case err == nil:
			baseSnapshot = snapshot
		case !errors.Is(err, store.ErrResourceNotFound):
			return p.fail(action, err)
		}
	}

	return p.recordConflict(ctx, item, models.Conflict{
		ID:             p.ids.Generate(),
		ActionID:       action.ID,
		DeviceID:       action.DeviceID,
		ResourceKey:    current.Key,
		Type:           conflictType,
		BaseVersion:    base,
		ServerVersion:  current.Version,
		BaseSnapshot:   baseSnapshot,
		LocalSnapshot:  nextSnapshot(baseSnapshot, action.Payload),
		ServerSnapshot: current.Snapshot,
		CreatedAt:      p.now().UTC(),
	})
}

// recordConflict stores the conflict. The repository keeps one row per
// action id, so a resubmitted action gets its original conflict back.
func (p *actionProcessor) recordConflict(ctx context.Context, item models.SubmitItem, conflict models.Conflict) models.SubmitResult {
	saved, err := p.conflicts.SaveConflict(ctx, conflict)
	if err != nil {
		return p.fail(item.Action, err)
	}

	now := p.now().UTC()
	if !saved.Open() && saved.NewVersion != nil {
		version := *saved.NewVersion
		return models.SubmitResult{
			ActionID:       item.Action.ID,
			Outcome:        models.OutcomeDuplicate,
			AppliedVersion: &version,
			ResourceKey:    saved.ResourceKey,
			ServerTime:     &now,
		}
	}

	result := models.SubmitResult{
		ActionID:    item.Action.ID,
		Outcome:     models.OutcomeConflict,
		Conflict:    &saved,
		ResourceKey: saved.ResourceKey,
		ServerTime:  &now,
	}
	p.remember(ctx, item.IdempotencyKey, result)
	return result
}

// reject reports a permanent failure. Rejections that depend only on the
// action itself are cached; those that depend on server state (unknown
// device or resource) are not, so a manual retry is evaluated again.
func (p *actionProcessor) reject(ctx context.Context, item models.SubmitItem, reason error, cache bool) models.SubmitResult {
	logger.FromContext(ctx).Info().
		Str("func", "actionProcessor.reject").
		Str("action_id", item.Action.ID).
		Str("reason", reason.Error()).
		Msg("action rejected")

	result := models.SubmitResult{
		ActionID: item.Action.ID,
		Outcome:  models.OutcomeRejected,
		Error:    reason.Error(),
	}
	if cache && item.IdempotencyKey != "" {
		p.remember(ctx, item.IdempotencyKey, result)
	}
	return result
}

// fail reports an infrastructure failure. It is never cached so the device
// retry gets a fresh evaluation.
func (p *actionProcessor) fail(action models.Action, err error) models.SubmitResult {
	p.logger.Err(err).
		Str("func", "actionProcessor.fail").
		Str("action_id", action.ID).
		Msg("failed to process action")

	return models.SubmitResult{
		ActionID: action.ID,
		Outcome:  models.OutcomeError,
		Error:    err.Error(),
	}
}

func (p *actionProcessor) duplicate(ctx context.Context, action models.Action, record store.AppliedRecord) models.SubmitResult {
	version := record.Version
	at := record.AppliedAt
	result := models.SubmitResult{
		ActionID:       action.ID,
		Outcome:        models.OutcomeDuplicate,
		AppliedVersion: &version,
		ResourceKey:    record.ResourceKey,
		ServerTime:     &at,
	}
	p.attachUpload(ctx, action, &result)
	return result
}

// replay answers from the cache. An applied result is reported as duplicate
// with the original applied version; conflicts and rejections are returned
// as they were.
func (p *actionProcessor) replay(ctx context.Context, action models.Action, cached models.SubmitResult) models.SubmitResult {
	cached.ActionID = action.ID
	if cached.Outcome != models.OutcomeApplied && cached.Outcome != models.OutcomeDuplicate {
		return cached
	}
	cached.Outcome = models.OutcomeDuplicate
	cached.Upload = nil
	p.attachUpload(ctx, action, &cached)
	return cached
}

func (p *actionProcessor) lookup(ctx context.Context, key string) (models.SubmitResult, bool) {
	if key == "" {
		return models.SubmitResult{}, false
	}
	cached, err := p.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrCacheMiss) {
			logger.FromContext(ctx).Warn().Err(err).
				Str("func", "actionProcessor.lookup").
				Str("idempotency_key", key).
				Msg("idempotency cache read failed, falling back to history")
		}
		return models.SubmitResult{}, false
	}
	return cached, true
}

func (p *actionProcessor) remember(ctx context.Context, key string, result models.SubmitResult) {
	if err := p.cache.Put(ctx, key, result); err != nil {
		logger.FromContext(ctx).Warn().Err(err).
			Str("func", "actionProcessor.remember").
			Str("idempotency_key", key).
			Msg("failed to cache submit result")
	}
}

// attachUpload adds a fresh upload target to applied or duplicate
// upload_document results. Targets expire, so they are never cached.
func (p *actionProcessor) attachUpload(ctx context.Context, action models.Action, result *models.SubmitResult) {
	doc, ok := action.Payload.(*models.UploadDocumentPayload)
	if !ok || p.documents == nil {
		return
	}

	target, err := p.documents.UploadTarget(ctx, doc.DocumentID, doc.ContentType, doc.SizeBytes)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "actionProcessor.attachUpload").
			Str("document_id", doc.DocumentID).
			Msg("failed to create upload target")
		return
	}
	result.Upload = &target
}

// currentResource returns the stored resource, or an empty one at version 0
// when the key does not exist yet.
func currentResource(ctx context.Context, resources store.ResourceRepository, key string) (models.Resource, error) {
	resource, err := resources.GetResource(ctx, key)
	if errors.Is(err, store.ErrResourceNotFound) {
		return models.Resource{Key: key, Kind: models.ResourceKind(key)}, nil
	}
	if err != nil {
		return models.Resource{}, err
	}
	return resource, nil
}

// nextSnapshot is the resource state after payload is applied on top of
// current. Profile updates are partial; every other payload replaces the
// whole snapshot.
func nextSnapshot(current models.Snapshot, payload models.Payload) models.Snapshot {
	if _, partial := payload.(*models.UpdateProfilePayload); !partial {
		return payload.Snapshot()
	}
	next := current.Clone()
	if next == nil {
		next = models.Snapshot{}
	}
	maps.Copy(next, payload.Snapshot())
	return next
}

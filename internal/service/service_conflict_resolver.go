// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/validators"
	"github.com/MKhiriev/go-offline-sync/models"
)

type conflictResolver struct {
	conflicts store.ConflictRepository
	resources store.ResourceRepository
	devices   store.DeviceRepository

	validator validators.Validator
	locks     *KeyedLocker
	metrics   *ProcessorMetrics

	now    func() time.Time
	logger *logger.Logger
}

func NewConflictResolver(
	storages *store.Storages,
	validator validators.Validator,
	locks *KeyedLocker,
	metrics *ProcessorMetrics,
	logger *logger.Logger,
) ConflictResolver {
	return &conflictResolver{
		conflicts: storages.Conflicts,
		resources: storages.Resources,
		devices:   storages.Devices,
		validator: validator,
		locks:     locks,
		metrics:   metrics,
		now:       time.Now,
		logger:    logger,
	}
}

// Resolve implements ConflictResolver.
//
//   - server_wins keeps the current server version, nothing is written.
//   - client_wins writes the local snapshot as a new version.
//   - merge writes the three-way merge of base, local and server, or leaves
//     the conflict open as manual when both sides changed the same field.
//   - manual writes mergedData as a new version, or only records the
//     strategy when no data was given.
//
// Resolving an already resolved conflict returns its stored result, so a
// device may retry a resolution whose answer it lost.
func (r *conflictResolver) Resolve(ctx context.Context, req models.ResolveConflictRequest) (models.ResolveConflictResponse, error) {
	log := logger.FromContext(ctx)

	if err := r.validator.Validate(ctx, req); err != nil {
		return models.ResolveConflictResponse{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	conflict, err := r.conflicts.GetConflict(ctx, req.ConflictID)
	if err != nil {
		return models.ResolveConflictResponse{}, err
	}
	if !conflict.Open() {
		return resolvedResponse(conflict), nil
	}

	unlock := r.locks.Lock(conflict.ResourceKey)
	defer unlock()

	current, err := currentResource(ctx, r.resources, conflict.ResourceKey)
	if err != nil {
		return models.ResolveConflictResponse{}, err
	}

	var snapshot models.Snapshot
	switch req.Strategy {
	case models.StrategyServerWins:
		return r.close(ctx, conflict, store.ConflictResolution{
			ConflictID:       conflict.ID,
			Strategy:         req.Strategy,
			ResolvedSnapshot: current.Snapshot,
			NewVersion:       current.Version,
			At:               r.now().UTC(),
		})

	case models.StrategyClientWins:
		snapshot = conflict.LocalSnapshot

	case models.StrategyMerge:
		if conflict.Type == models.ConflictDependencyFailure {
			// the server snapshot belongs to another resource
			return r.leaveOpen(ctx, conflict, current, "merge is not applicable to a dependency failure")
		}
		merged, overlaps := mergeSnapshots(conflict.BaseSnapshot, conflict.LocalSnapshot, current.Snapshot)
		if len(overlaps) > 0 {
			return r.leaveOpen(ctx, conflict, current, "both sides changed "+strings.Join(overlaps, ", "))
		}
		snapshot = merged

	case models.StrategyManual:
		if req.MergedData == nil {
			return r.leaveOpen(ctx, conflict, current, "waiting for merged data")
		}
		snapshot = req.MergedData
	}

	ownerID, err := r.ownerOf(ctx, conflict, current)
	if err != nil {
		return models.ResolveConflictResponse{}, err
	}

	at := r.now().UTC()
	response, err := r.close(ctx, conflict, store.ConflictResolution{
		ConflictID:       conflict.ID,
		Strategy:         req.Strategy,
		ResolvedSnapshot: snapshot,
		At:               at,
		Write: &store.ResourceWrite{
			Key:             conflict.ResourceKey,
			OwnerID:         ownerID,
			Snapshot:        snapshot,
			ExpectedVersion: current.Version,
			ActionID:        resolutionActionID(conflict.ID),
			DeviceID:        conflict.DeviceID,
			At:              at,
		},
	})
	if err != nil {
		log.Err(err).Str("func", "conflictResolver.Resolve").
			Str("conflict_id", conflict.ID).
			Str("strategy", string(req.Strategy)).
			Msg("failed to resolve conflict")
	}
	return response, err
}

func (r *conflictResolver) ListConflicts(ctx context.Context, req models.ListConflictsRequest) ([]models.Conflict, error) {
	if req.DeviceID == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataProvided, validators.ErrEmptyDeviceID)
	}
	return r.conflicts.ListConflicts(ctx, store.ConflictFilter{DeviceID: req.DeviceID, OpenOnly: req.OpenOnly})
}

func (r *conflictResolver) close(ctx context.Context, conflict models.Conflict, resolution store.ConflictResolution) (models.ResolveConflictResponse, error) {
	resolved, err := r.conflicts.ResolveConflict(ctx, resolution)
	if errors.Is(err, store.ErrConflictResolved) {
		stored, getErr := r.conflicts.GetConflict(ctx, conflict.ID)
		if getErr != nil {
			return models.ResolveConflictResponse{}, getErr
		}
		return resolvedResponse(stored), nil
	}
	if err != nil {
		return models.ResolveConflictResponse{}, err
	}

	r.metrics.resolved.Add(1)
	logger.FromContext(ctx).Info().
		Str("conflict_id", conflict.ID).
		Str("strategy", string(resolution.Strategy)).
		Msg("conflict resolved")
	return resolvedResponse(resolved), nil
}

// leaveOpen records manual as the pending strategy. The conflict stays open
// and the current server version is reported.
func (r *conflictResolver) leaveOpen(ctx context.Context, conflict models.Conflict, current models.Resource, reason string) (models.ResolveConflictResponse, error) {
	if err := r.conflicts.RecordStrategy(ctx, conflict.ID, models.StrategyManual); err != nil {
		return models.ResolveConflictResponse{}, err
	}

	logger.FromContext(ctx).Info().
		Str("conflict_id", conflict.ID).
		Str("reason", reason).
		Msg("conflict left open for manual resolution")

	return models.ResolveConflictResponse{
		ConflictID:        conflict.ID,
		Resolved:          false,
		Strategy:          models.StrategyManual,
		NewVersion:        current.Version,
		ResourceKey:       conflict.ResourceKey,
		ReleasedActionIDs: []string{},
	}, nil
}

// ownerOf returns the owner for a resolution write. A resource that does not
// exist yet is owned by the user of the device that raised the conflict.
func (r *conflictResolver) ownerOf(ctx context.Context, conflict models.Conflict, current models.Resource) (string, error) {
	if current.OwnerID != "" {
		return current.OwnerID, nil
	}
	device, err := r.devices.GetDevice(ctx, conflict.DeviceID)
	if err != nil {
		return "", err
	}
	return device.UserID, nil
}

func resolvedResponse(c models.Conflict) models.ResolveConflictResponse {
	var version int64
	if c.NewVersion != nil {
		version = *c.NewVersion
	}
	return models.ResolveConflictResponse{
		ConflictID:        c.ID,
		Resolved:          !c.Open(),
		Strategy:          c.ResolutionStrategy,
		NewVersion:        version,
		ResourceKey:       c.ResourceKey,
		ReleasedActionIDs: []string{},
	}
}

// resolutionActionID names the history row written by a resolution.
func resolutionActionID(conflictID string) string {
	return "resolve:" + conflictID
}

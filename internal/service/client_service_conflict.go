// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

type clientConflictService struct {
	deviceID    string
	conflicts   store.LocalConflictRepository
	proofs      store.ProofRepository
	actions     ActionStore
	adapter     adapter.ServerAdapter
	coordinator SyncCoordinator
	logger      *logger.Logger
}

func NewClientConflictService(deviceID string, conflicts store.LocalConflictRepository, proofs store.ProofRepository,
	actions ActionStore, serverAdapter adapter.ServerAdapter, coordinator SyncCoordinator, logger *logger.Logger) ClientConflictService {
	return &clientConflictService{
		deviceID:    deviceID,
		conflicts:   conflicts,
		proofs:      proofs,
		actions:     actions,
		adapter:     serverAdapter,
		coordinator: coordinator,
		logger:      logger,
	}
}

func (s *clientConflictService) List(ctx context.Context) ([]models.Conflict, error) {
	return s.conflicts.ListConflicts(ctx, s.deviceID)
}

// Refresh stores conflicts the device does not know about yet and settles
// local ones that were resolved elsewhere.
func (s *clientConflictService) Refresh(ctx context.Context) ([]models.Conflict, error) {
	remote, err := s.adapter.ListConflicts(ctx, models.ListConflictsRequest{DeviceID: s.deviceID})
	if err != nil {
		return nil, mapAdapterError(err, nil)
	}

	open := make([]models.Conflict, 0, len(remote))
	for _, conflict := range remote {
		local, getErr := s.conflicts.GetConflict(ctx, conflict.ID)
		known := getErr == nil
		if getErr != nil && !errors.Is(getErr, store.ErrConflictNotFound) {
			return nil, getErr
		}

		if conflict.Open() {
			open = append(open, conflict)
			if !known {
				if err = s.conflicts.SaveConflict(ctx, conflict); err != nil {
					return nil, err
				}
			}
			continue
		}

		if known && conflict.NewVersion != nil {
			if _, err = s.settle(ctx, local, models.ResolveConflictResponse{
				ConflictID:  conflict.ID,
				Resolved:    true,
				Strategy:    conflict.ResolutionStrategy,
				NewVersion:  *conflict.NewVersion,
				ResourceKey: conflict.ResourceKey,
			}); err != nil {
				return nil, err
			}
		}
	}
	return open, nil
}

func (s *clientConflictService) Resolve(ctx context.Context, req models.ResolveConflictRequest) (models.ResolveConflictResponse, error) {
	local, err := s.conflicts.GetConflict(ctx, req.ConflictID)
	if err != nil {
		return models.ResolveConflictResponse{}, err
	}

	resp, err := s.adapter.ResolveConflict(ctx, req)
	if err != nil {
		return models.ResolveConflictResponse{}, mapAdapterError(err, store.ErrConflictNotFound)
	}
	if !resp.Resolved {
		local.ResolutionStrategy = resp.Strategy
		if err = s.conflicts.SaveConflict(ctx, local); err != nil {
			return models.ResolveConflictResponse{}, err
		}
		resp.ReleasedActionIDs = []string{}
		return resp, nil
	}

	return s.settle(ctx, local, resp)
}

// settle marks the conflicted action synced, drops the local copy and
// releases every action blocked on it.
func (s *clientConflictService) settle(ctx context.Context, local models.Conflict, resp models.ResolveConflictResponse) (models.ResolveConflictResponse, error) {
	log := logger.FromContext(ctx)

	action, err := s.actions.Update(ctx, local.ActionID, models.StatusSynced, models.ActionFields{
		Resolution:       &resp.Strategy,
		AppliedVersion:   &resp.NewVersion,
		ClearNextAttempt: true,
	})
	if err != nil && !errors.Is(err, store.ErrActionNotFound) {
		return models.ResolveConflictResponse{}, fmt.Errorf("settle conflicted action %s: %w", local.ActionID, err)
	}
	if err == nil && action.Type == models.ActionCreateProof {
		if err = s.proofs.SetProofStatusByAction(ctx, action.ID, models.ProofSyncSynced, models.ValidationValid); err != nil {
			log.Err(err).Str("func", "clientConflictService.settle").Msg("failed to update proof status")
		}
	}

	if err = s.conflicts.DeleteConflict(ctx, local.ID); err != nil && !errors.Is(err, store.ErrConflictNotFound) {
		return models.ResolveConflictResponse{}, err
	}

	released, err := s.release(ctx, local.ActionID, models.AppliedOutput{
		ActionID:    local.ActionID,
		ResourceKey: resp.ResourceKey,
		Version:     resp.NewVersion,
	})
	if err != nil {
		return models.ResolveConflictResponse{}, err
	}
	resp.ReleasedActionIDs = released

	log.Info().
		Str("conflict_id", local.ID).
		Str("strategy", string(resp.Strategy)).
		Int64("new_version", resp.NewVersion).
		Strs("released", released).
		Msg("conflict resolved")

	s.coordinator.Trigger(models.TriggerResolution)
	return resp, nil
}

func (s *clientConflictService) release(ctx context.Context, actionID string, output models.AppliedOutput) ([]string, error) {
	pending, err := s.actions.ListByStatus(ctx, s.deviceID, models.StatusPending)
	if err != nil {
		return nil, err
	}

	released := []string{}
	empty := ""
	for _, action := range pending {
		direct := action.DependsOn(actionID)
		if action.BlockedBy != actionID && !direct {
			continue
		}

		fields := models.ActionFields{BlockedBy: &empty}
		if binder, ok := action.Payload.(models.DependencyBinder); ok && direct {
			binder.BindDependency(output)
			fields.Payload = action.Payload
		}
		if _, err = s.actions.Update(ctx, action.ID, models.StatusPending, fields); err != nil {
			return nil, fmt.Errorf("release action %s: %w", action.ID, err)
		}
		released = append(released, action.ID)
	}
	return released, nil
}

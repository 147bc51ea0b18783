// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/validators"
	"github.com/MKhiriev/go-offline-sync/models"
)

type actionStore struct {
	actions   store.ActionRepository
	validator validators.Validator
	ids       idGenerator

	// writers serializes every mutation per device id.
	writers *KeyedLocker

	maxRetries int
	now        func() time.Time
	logger     *logger.Logger
}

// NewActionStore returns the ActionStore over the local action repository.
// maxRetries is the default retry budget of new actions.
func NewActionStore(actions store.ActionRepository, validator validators.Validator, ids idGenerator, maxRetries int, logger *logger.Logger) ActionStore {
	if maxRetries <= 0 {
		maxRetries = models.DefaultMaxRetries
	}
	return &actionStore{
		actions:    actions,
		validator:  validator,
		ids:        ids,
		writers:    NewKeyedLocker(),
		maxRetries: maxRetries,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *actionStore) Enqueue(ctx context.Context, action models.Action) (models.Action, error) {
	log := logger.FromContext(ctx)

	now := s.now().UTC()
	if action.ID == "" {
		action.ID = s.ids.Generate()
	}
	if action.Payload != nil && action.Type == "" {
		action.Type = action.Payload.ActionType()
	}
	if action.ClientTimestamp.IsZero() {
		action.ClientTimestamp = now
	}
	if action.MaxRetries <= 0 {
		action.MaxRetries = s.maxRetries
	}
	action.Status = models.StatusPending
	action.RetryCount = 0
	action.NextAttemptAt = nil
	action.BlockedBy = ""
	action.CreatedAt = now
	action.UpdatedAt = now

	if err := s.validator.Validate(ctx, action); err != nil {
		return models.Action{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	unlock := s.writers.Lock(action.DeviceID)
	defer unlock()

	if err := s.checkDependencies(ctx, action); err != nil {
		return models.Action{}, err
	}

	if err := s.actions.InsertAction(ctx, action); err != nil {
		log.Err(err).Str("func", "actionStore.Enqueue").
			Str("action_id", action.ID).
			Msg("failed to insert action")
		return models.Action{}, err
	}

	log.Debug().
		Str("action_id", action.ID).
		Str("type", string(action.Type)).
		Strs("dependencies", action.Dependencies).
		Msg("action enqueued")
	return action, nil
}

// checkDependencies rejects unknown ids and any dependency from which the
// new action is reachable in the stored graph.
func (s *actionStore) checkDependencies(ctx context.Context, action models.Action) error {
	if len(action.Dependencies) == 0 {
		return nil
	}

	known, err := s.actions.ListActions(ctx, store.ActionFilter{IDs: action.Dependencies})
	if err != nil {
		return err
	}
	found := make(map[string]struct{}, len(known))
	for _, dep := range known {
		if dep.DeviceID != action.DeviceID {
			return fmt.Errorf("%w: %s belongs to device %s", ErrUnknownDependency, dep.ID, dep.DeviceID)
		}
		found[dep.ID] = struct{}{}
	}
	for _, id := range action.Dependencies {
		if _, ok := found[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownDependency, id)
		}
	}

	visited := make(map[string]bool)
	stack := append([]string(nil), action.Dependencies...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if id == action.ID {
			return fmt.Errorf("%w: through %s", ErrDependencyCycle, id)
		}
		if visited[id] {
			continue
		}
		visited[id] = true

		dep, getErr := s.actions.GetAction(ctx, id)
		if errors.Is(getErr, store.ErrActionNotFound) {
			// purged once synced
			continue
		}
		if getErr != nil {
			return getErr
		}
		stack = append(stack, dep.Dependencies...)
	}
	return nil
}

func (s *actionStore) Get(ctx context.Context, id string) (models.Action, error) {
	return s.actions.GetAction(ctx, id)
}

func (s *actionStore) ListPending(ctx context.Context, deviceID string) ([]models.Action, error) {
	return s.ListByStatus(ctx, deviceID, models.StatusPending, models.StatusInFlight, models.StatusConflicted)
}

func (s *actionStore) ListByStatus(ctx context.Context, deviceID string, statuses ...models.ActionStatus) ([]models.Action, error) {
	return s.actions.ListActions(ctx, store.ActionFilter{DeviceID: deviceID, Statuses: statuses})
}

func (s *actionStore) Update(ctx context.Context, id string, status models.ActionStatus, fields models.ActionFields) (models.Action, error) {
	action, err := s.actions.GetAction(ctx, id)
	if err != nil {
		return models.Action{}, err
	}

	unlock := s.writers.Lock(action.DeviceID)
	defer unlock()

	// re-read under the device lock
	action, err = s.actions.GetAction(ctx, id)
	if err != nil {
		return models.Action{}, err
	}
	return s.update(ctx, action, status, fields)
}

func (s *actionStore) update(ctx context.Context, action models.Action, status models.ActionStatus, fields models.ActionFields) (models.Action, error) {
	if !action.Status.CanTransition(status) {
		return models.Action{}, fmt.Errorf("%w: %s -> %s (action %s)", ErrInvalidTransition, action.Status, status, action.ID)
	}

	fields.Apply(&action)
	action.Status = status
	action.UpdatedAt = s.now().UTC()

	if err := s.actions.UpdateAction(ctx, action); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "actionStore.Update").
			Str("action_id", action.ID).
			Str("status", string(status)).
			Msg("failed to update action")
		return models.Action{}, err
	}
	return action, nil
}

func (s *actionStore) Requeue(ctx context.Context, id string) (models.Action, error) {
	action, err := s.actions.GetAction(ctx, id)
	if err != nil {
		return models.Action{}, err
	}

	unlock := s.writers.Lock(action.DeviceID)
	defer unlock()

	action, err = s.actions.GetAction(ctx, id)
	if err != nil {
		return models.Action{}, err
	}
	if action.Status != models.StatusFailed {
		return models.Action{}, fmt.Errorf("%w: %s is %s", ErrActionNotFailed, id, action.Status)
	}

	zero := 0
	empty := ""
	noKind := models.ErrorKind("")
	return s.update(ctx, action, models.StatusPending, models.ActionFields{
		RetryCount:       &zero,
		ClearNextAttempt: true,
		LastError:        &empty,
		LastErrorKind:    &noKind,
		BlockedBy:        &empty,
	})
}

func (s *actionStore) Purge(ctx context.Context, id string, retention time.Duration) error {
	action, err := s.actions.GetAction(ctx, id)
	if err != nil {
		return err
	}

	unlock := s.writers.Lock(action.DeviceID)
	defer unlock()

	action, err = s.actions.GetAction(ctx, id)
	if err != nil {
		return err
	}
	if !action.Status.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrActionNotTerminal, id, action.Status)
	}
	if s.now().Sub(action.UpdatedAt) < retention {
		return fmt.Errorf("%w: %s", ErrRetentionNotElapsed, id)
	}

	dependents, err := s.actions.ListDependents(ctx, id)
	if err != nil {
		return err
	}
	// a failed dependent can still be requeued and would then wait for
	// a dependency that no longer exists
	for _, dependent := range dependents {
		if dependent.Status != models.StatusSynced {
			return fmt.Errorf("%w: %s needs %s", ErrActionHasDependents, dependent.ID, id)
		}
	}

	return s.actions.DeleteAction(ctx, id)
}

func (s *actionStore) PurgeSynced(ctx context.Context, deviceID string, retention time.Duration) (int64, error) {
	unlock := s.writers.Lock(deviceID)
	defer unlock()

	removed, err := s.actions.DeleteSyncedBefore(ctx, deviceID, s.now().UTC().Add(-retention))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logger.FromContext(ctx).Info().
			Str("device_id", deviceID).
			Int64("removed", removed).
			Msg("purged synced actions")
	}
	return removed, nil
}

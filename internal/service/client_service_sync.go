// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

type syncCoordinator struct {
	deviceID  string
	actions   ActionStore
	proofs    store.ProofRepository
	devices   store.DeviceStateRepository
	conflicts store.LocalConflictRepository
	adapter   adapter.ServerAdapter
	monitor   NetworkMonitor
	retry     RetryScheduler
	cfg       config.Sync

	mu      sync.Mutex
	running bool
	rerun   bool
	status  models.SyncStatus

	triggers chan models.SyncTrigger
	metrics  syncMetrics

	now    func() time.Time
	logger *logger.Logger
}

// SyncDeps bundles what a coordinator needs besides its settings.
type SyncDeps struct {
	Actions   ActionStore
	Proofs    store.ProofRepository
	Devices   store.DeviceStateRepository
	Conflicts store.LocalConflictRepository
	Adapter   adapter.ServerAdapter
	Monitor   NetworkMonitor
	Retry     RetryScheduler
}

func NewSyncCoordinator(deviceID string, deps SyncDeps, cfg config.Sync, logger *logger.Logger) SyncCoordinator {
	if cfg.Pipeline <= 0 {
		cfg.Pipeline = 4
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	return &syncCoordinator{
		deviceID:  deviceID,
		actions:   deps.Actions,
		proofs:    deps.Proofs,
		devices:   deps.Devices,
		conflicts: deps.Conflicts,
		adapter:   deps.Adapter,
		monitor:   deps.Monitor,
		retry:     deps.Retry,
		cfg:       cfg,
		status:    models.SyncIdle,
		triggers:  make(chan models.SyncTrigger, 1),
		now:       time.Now,
		logger:    logger.WithDevice(deviceID),
	}
}

func (c *syncCoordinator) Counters() models.SyncCounters {
	return c.metrics.snapshot()
}

func (c *syncCoordinator) Status() models.SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// RunPass runs a pass, then keeps running while triggers arrived during it.
func (c *syncCoordinator) RunPass(ctx context.Context, trigger models.SyncTrigger) (models.PassReport, error) {
	c.mu.Lock()
	if c.running {
		c.rerun = true
		c.mu.Unlock()
		c.logger.Debug().Str("trigger", string(trigger)).Msg("pass already running, coalesced")
		return models.PassReport{Trigger: trigger, Coalesced: true}, nil
	}
	c.running = true
	c.mu.Unlock()

	for {
		report, err := c.pass(ctx, trigger)

		c.mu.Lock()
		again := c.rerun && err == nil && ctx.Err() == nil
		c.rerun = false
		if !again {
			c.running = false
			c.mu.Unlock()
			return report, err
		}
		c.mu.Unlock()
	}
}

func (c *syncCoordinator) Trigger(trigger models.SyncTrigger) {
	select {
	case c.triggers <- trigger:
	default:
		// one queued pass covers every trigger
	}
}

// Run starts a pass on every trigger and on every transition that makes
// the network usable again. Going offline cancels the passes in progress:
// calls already issued settle, nothing new is submitted.
func (c *syncCoordinator) Run(ctx context.Context) error {
	events, unsubscribe := c.monitor.Subscribe()
	defer unsubscribe()

	var wg sync.WaitGroup
	defer wg.Wait()

	passCtx, cancelPass := context.WithCancel(ctx)
	defer func() { cancelPass() }()

	start := func(trigger models.SyncTrigger) {
		wg.Add(1)
		go func(ctx context.Context) {
			defer wg.Done()
			c.runLogged(ctx, trigger)
		}(passCtx)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-events:
			if event.To == models.NetworkOffline {
				cancelPass()
				passCtx, cancelPass = context.WithCancel(ctx)
				continue
			}
			if reconnected(event) {
				start(models.TriggerConnectivity)
			}
		case trigger := <-c.triggers:
			start(trigger)
		}
	}
}

func reconnected(event models.NetworkEvent) bool {
	switch {
	case event.To == models.NetworkOnline:
		return event.From != models.NetworkOnline
	case event.To == models.NetworkDegraded:
		return event.From == models.NetworkOffline
	}
	return false
}

func (c *syncCoordinator) runLogged(ctx context.Context, trigger models.SyncTrigger) {
	report, err := c.RunPass(ctx, trigger)
	switch {
	case errors.Is(err, ErrOffline):
		c.logger.Debug().Str("trigger", string(trigger)).Msg("skipped pass while offline")
	case err != nil:
		c.logger.Err(err).Str("func", "syncCoordinator.Run").Str("trigger", string(trigger)).Msg("sync pass failed")
	case !report.Coalesced && !report.Suppressed:
		c.logger.Info().
			Str("trigger", string(trigger)).
			Int("submitted", report.Submitted).
			Int("applied", report.Applied).
			Int("conflicts", report.Conflicts).
			Int("failed", report.Failed).
			Msg("sync pass finished")
	}
}

func (c *syncCoordinator) setStatus(ctx context.Context, network models.NetworkStatus, status models.SyncStatus) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()

	if err := c.devices.SetStatus(ctx, c.deviceID, network, status); err != nil && !errors.Is(err, store.ErrDeviceNotFound) {
		c.logger.Err(err).Str("func", "syncCoordinator.setStatus").Msg("failed to store sync status")
	}
}

// submission is one settled call.
type submission struct {
	action models.Action
	result models.SubmitResult
	err    error
}

func (c *syncCoordinator) pass(ctx context.Context, trigger models.SyncTrigger) (models.PassReport, error) {
	report := models.PassReport{Trigger: trigger, Started: c.now().UTC()}
	defer func() { report.Finished = c.now().UTC() }()

	network, _ := c.monitor.Status()
	if network == models.NetworkOffline {
		network = c.monitor.ProbeNow(ctx)
	}
	if network == models.NetworkOffline {
		c.setStatus(ctx, network, models.SyncIdle)
		return report, ErrOffline
	}

	queue, err := c.actions.ListPending(ctx, c.deviceID)
	if err != nil {
		c.setStatus(ctx, network, models.SyncError)
		return report, fmt.Errorf("list pending actions: %w", err)
	}

	if network == models.NetworkDegraded && trigger == models.TriggerConnectivity &&
		c.cfg.DegradedBatchThreshold > 0 && len(queue) > c.cfg.DegradedBatchThreshold {
		c.metrics.suppressed.Add(1)
		c.logger.Info().Int("pending", len(queue)).Msg("connectivity pass suppressed on degraded network")
		report.Suppressed = true
		return report, nil
	}

	c.metrics.passes.Add(1)
	c.setStatus(ctx, network, models.SyncRamping)

	plan, err := c.plan(ctx, queue)
	if err != nil {
		c.setStatus(ctx, network, models.SyncError)
		return report, err
	}
	report.Blocked = len(plan.blockedBy)
	report.Waiting = len(plan.waiting)

	for id := range plan.cyclic {
		c.fail(ctx, plan.actions[id], ErrDependencyCycle.Error(), models.ErrorKindPermanent, false, &report)
	}

	c.setStatus(ctx, network, models.SyncSyncing)
	c.execute(ctx, plan, &report)
	report.Cancelled = ctx.Err() != nil

	// the pass leaves a consistent device status behind even when cancelled
	storeCtx := context.WithoutCancel(ctx)
	open, err := c.openConflicts(storeCtx)
	if err != nil {
		c.setStatus(storeCtx, network, models.SyncError)
		return report, err
	}
	if open {
		c.setStatus(storeCtx, network, models.SyncConflict)
		return report, nil
	}

	if !report.Cancelled {
		report.Checkpoint = c.advanceCheckpoint(ctx)
	}
	c.setStatus(storeCtx, network, models.SyncIdle)
	return report, nil
}

// plan resets interrupted submissions, computes dependency state and
// persists every change of BlockedBy.
func (c *syncCoordinator) plan(ctx context.Context, queue []models.Action) (*passPlan, error) {
	inQueue := make(map[string]bool, len(queue))
	for i, action := range queue {
		inQueue[action.ID] = true
		if action.Status != models.StatusInFlight {
			continue
		}
		reset, err := c.actions.Update(ctx, action.ID, models.StatusPending, models.ActionFields{})
		if err != nil {
			return nil, fmt.Errorf("reset interrupted action %s: %w", action.ID, err)
		}
		queue[i] = reset
	}

	var outside []string
	for _, action := range queue {
		for _, dep := range action.Dependencies {
			if !inQueue[dep] {
				outside = append(outside, dep)
			}
		}
	}
	external := make(map[string]models.ActionStatus, len(outside))
	if len(outside) > 0 {
		deps, err := c.actions.ListByStatus(ctx, c.deviceID)
		if err != nil {
			return nil, fmt.Errorf("load dependencies: %w", err)
		}
		wanted := make(map[string]bool, len(outside))
		for _, id := range outside {
			wanted[id] = true
		}
		for _, dep := range deps {
			if wanted[dep.ID] {
				external[dep.ID] = dep.Status
			}
		}
	}

	plan := buildPassPlan(queue, external, c.now())

	for id, action := range plan.actions {
		if action.Status != models.StatusPending {
			continue
		}
		blockedBy := plan.blockedBy[id]
		if blockedBy == action.BlockedBy {
			continue
		}
		updated, err := c.actions.Update(ctx, id, models.StatusPending, models.ActionFields{BlockedBy: &blockedBy})
		if err != nil {
			return nil, fmt.Errorf("mark blocked action %s: %w", id, err)
		}
		plan.actions[id] = updated
	}
	return plan, nil
}

// execute submits runnable actions in dependency order with at most
// Pipeline calls in flight. A dependent is issued only once its
// dependencies are synced in the store. Cancelling ctx stops new
// submissions; calls already issued run to completion or timeout and
// their outcome is stored even after ctx is done.
func (c *syncCoordinator) execute(ctx context.Context, plan *passPlan, report *models.PassReport) {
	storeCtx := context.WithoutCancel(ctx)
	ready := newReadyQueue(plan.roots())
	results := make(chan submission)
	inflight := 0

	for {
		for inflight < c.cfg.Pipeline && ready.Len() > 0 && ctx.Err() == nil {
			action := ready.pop()
			issued, err := c.actions.Update(ctx, action.ID, models.StatusInFlight, models.ActionFields{})
			if err != nil {
				c.logger.Err(err).Str("func", "syncCoordinator.execute").
					Str("action_id", action.ID).
					Msg("failed to mark action in flight")
				continue
			}
			inflight++
			report.Submitted++
			c.metrics.attempts.Add(1)
			go c.submit(ctx, issued, results)
		}
		if inflight == 0 {
			return
		}

		s := <-results
		inflight--

		output, synced := c.settle(storeCtx, plan, s, report)
		if !synced {
			continue
		}
		c.bind(storeCtx, plan, s.action.ID, output)
		for _, id := range plan.release(s.action.ID) {
			ready.push(plan.actions[id])
		}
	}
}

func (c *syncCoordinator) submit(ctx context.Context, action models.Action, results chan<- submission) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.CallTimeout)
	defer cancel()

	resp, err := c.adapter.SubmitActions(callCtx, models.SubmitBatchRequest{
		DeviceID: c.deviceID,
		Items:    []models.SubmitItem{{Action: action, IdempotencyKey: action.ID}},
	})

	s := submission{action: action, err: err}
	if err == nil {
		if len(resp.Results) != 1 {
			s.err = fmt.Errorf("%w: %d results for 1 item", adapter.ErrBadGateway, len(resp.Results))
		} else {
			s.result = resp.Results[0]
		}
	}
	results <- s
}

// settle stores the outcome of one submission. It reports whether the
// action is now synced, with the output dependents bind.
func (c *syncCoordinator) settle(ctx context.Context, plan *passPlan, s submission, report *models.PassReport) (models.AppliedOutput, bool) {
	action := s.action
	log := c.logger.With().Str("action_id", action.ID).Logger()

	if s.err != nil {
		kind := errorKind(s.err)
		if kind == models.ErrorKindTransient {
			c.metrics.transientErrors.Add(1)
		}
		c.fail(ctx, action, s.err.Error(), kind, true, report)
		c.blockDependents(ctx, plan, action.ID, report)
		return models.AppliedOutput{}, false
	}

	result := s.result
	switch result.Outcome {
	case models.OutcomeApplied, models.OutcomeDuplicate:
		if _, err := c.actions.Update(ctx, action.ID, models.StatusSynced, models.ActionFields{
			ServerTimestamp:  result.ServerTime,
			AppliedVersion:   result.AppliedVersion,
			ClearNextAttempt: true,
		}); err != nil {
			log.Err(err).Str("func", "syncCoordinator.settle").Msg("failed to mark action synced")
			return models.AppliedOutput{}, false
		}
		if result.Outcome == models.OutcomeApplied {
			c.metrics.applied.Add(1)
			report.Applied++
		} else {
			c.metrics.duplicates.Add(1)
			report.Duplicates++
		}
		c.setProofStatus(ctx, action, models.ProofSyncSynced, models.ValidationValid)
		if result.Upload != nil {
			log.Info().
				Str("method", result.Upload.Method).
				Str("url", result.Upload.URL).
				Time("expires_at", result.Upload.ExpiresAt).
				Msg("document upload target issued")
		}

		output, ok := result.Output()
		if !ok {
			output = models.AppliedOutput{ActionID: action.ID, ResourceKey: action.ResourceKey()}
		}
		return output, true

	case models.OutcomeConflict:
		fields := models.ActionFields{ServerTimestamp: result.ServerTime}
		if result.Conflict != nil {
			fields.ConflictID = &result.Conflict.ID
		}
		if _, err := c.actions.Update(ctx, action.ID, models.StatusConflicted, fields); err != nil {
			log.Err(err).Str("func", "syncCoordinator.settle").Msg("failed to mark action conflicted")
			return models.AppliedOutput{}, false
		}
		if result.Conflict != nil {
			if err := c.conflicts.SaveConflict(ctx, *result.Conflict); err != nil {
				log.Err(err).Str("func", "syncCoordinator.settle").Msg("failed to store local conflict")
			}
		}
		c.metrics.conflicts.Add(1)
		report.Conflicts++
		c.blockDependents(ctx, plan, action.ID, report)
		return models.AppliedOutput{}, false

	case models.OutcomeRejected:
		c.metrics.rejected.Add(1)
		report.Rejected++
		c.fail(ctx, action, result.Error, models.ErrorKindPermanent, false, report)
		c.setProofStatus(ctx, action, models.ProofSyncFailed, models.ValidationInvalid)
		c.blockDependents(ctx, plan, action.ID, report)
		return models.AppliedOutput{}, false

	default:
		c.metrics.transientErrors.Add(1)
		c.fail(ctx, action, result.Error, resultErrorKind(result.Outcome), true, report)
		c.blockDependents(ctx, plan, action.ID, report)
		return models.AppliedOutput{}, false
	}
}

// fail schedules a retry when the failure is transient and budget remains,
// otherwise moves the action to failed. attempted counts the failure
// against the retry budget.
func (c *syncCoordinator) fail(ctx context.Context, action models.Action, msg string, kind models.ErrorKind, attempted bool, report *models.PassReport) {
	if attempted {
		action.RetryCount++
	}
	action.LastErrorKind = kind

	fields := models.ActionFields{
		RetryCount:    &action.RetryCount,
		LastError:     &msg,
		LastErrorKind: &kind,
	}

	if attempted && c.retry.ShouldRetry(action) {
		next := c.now().UTC().Add(c.retry.NextDelay(action.RetryCount - 1))
		fields.NextAttemptAt = &next
		if _, err := c.actions.Update(ctx, action.ID, models.StatusPending, fields); err != nil {
			c.logger.Err(err).Str("func", "syncCoordinator.fail").Str("action_id", action.ID).Msg("failed to schedule retry")
			return
		}
		report.Retried++
		c.logger.Debug().
			Str("action_id", action.ID).
			Int("retry", action.RetryCount).
			Time("next_attempt_at", next).
			Msg("action scheduled for retry")
		return
	}

	fields.ClearNextAttempt = true
	if _, err := c.actions.Update(ctx, action.ID, models.StatusFailed, fields); err != nil {
		c.logger.Err(err).Str("func", "syncCoordinator.fail").Str("action_id", action.ID).Msg("failed to mark action failed")
		return
	}
	c.metrics.terminalFailures.Add(1)
	report.Failed++
	if kind == models.ErrorKindTransient {
		c.setProofStatus(ctx, action, models.ProofSyncFailed, models.ValidationPending)
	}
	c.logger.Warn().
		Str("action_id", action.ID).
		Str("kind", string(kind)).
		Str("error", msg).
		Msg("action failed")
}

// blockDependents points every queued dependent of id at it. Retried
// actions are pending again, so their dependents only wait.
func (c *syncCoordinator) blockDependents(ctx context.Context, plan *passPlan, id string, report *models.PassReport) {
	current, err := c.actions.Get(ctx, id)
	if err != nil || current.Status == models.StatusPending {
		return
	}

	for _, depID := range plan.dependentsOf(id) {
		dependent, ok := plan.actions[depID]
		if !ok || dependent.Status != models.StatusPending || dependent.BlockedBy == id {
			continue
		}
		blockedBy := id
		updated, err := c.actions.Update(ctx, depID, models.StatusPending, models.ActionFields{BlockedBy: &blockedBy})
		if err != nil {
			c.logger.Err(err).Str("func", "syncCoordinator.blockDependents").Str("action_id", depID).Msg("failed to block dependent")
			continue
		}
		plan.actions[depID] = updated
		report.Blocked++
	}
}

// bind hands the output of a synced action to its queued dependents and
// persists their rewritten payloads.
func (c *syncCoordinator) bind(ctx context.Context, plan *passPlan, id string, output models.AppliedOutput) {
	for depID, dependent := range plan.actions {
		if !dependent.DependsOn(id) || dependent.Status != models.StatusPending {
			continue
		}
		binder, ok := dependent.Payload.(models.DependencyBinder)
		if !ok {
			continue
		}
		binder.BindDependency(output)

		updated, err := c.actions.Update(ctx, depID, models.StatusPending, models.ActionFields{Payload: dependent.Payload})
		if err != nil {
			c.logger.Err(err).Str("func", "syncCoordinator.bind").Str("action_id", depID).Msg("failed to bind dependency output")
			continue
		}
		plan.actions[depID] = updated
	}
}

func (c *syncCoordinator) setProofStatus(ctx context.Context, action models.Action, syncStatus models.ProofSyncStatus, validation models.ValidationStatus) {
	if action.Type != models.ActionCreateProof {
		return
	}
	if err := c.proofs.SetProofStatusByAction(ctx, action.ID, syncStatus, validation); err != nil {
		c.logger.Err(err).Str("func", "syncCoordinator.setProofStatus").Str("action_id", action.ID).Msg("failed to update proof status")
	}
}

func (c *syncCoordinator) openConflicts(ctx context.Context) (bool, error) {
	local, err := c.conflicts.ListConflicts(ctx, c.deviceID)
	if err != nil {
		return false, fmt.Errorf("list local conflicts: %w", err)
	}
	if len(local) > 0 {
		return true, nil
	}
	conflicted, err := c.actions.ListByStatus(ctx, c.deviceID, models.StatusConflicted)
	if err != nil {
		return false, fmt.Errorf("list conflicted actions: %w", err)
	}
	return len(conflicted) > 0, nil
}

// advanceCheckpoint stores the next checkpoint and reports it. A failed
// report is retried by the next clean pass.
func (c *syncCoordinator) advanceCheckpoint(ctx context.Context) *models.Checkpoint {
	state, err := c.devices.GetDeviceState(ctx, c.deviceID)
	if err != nil {
		if !errors.Is(err, store.ErrDeviceNotFound) {
			c.logger.Err(err).Str("func", "syncCoordinator.advanceCheckpoint").Msg("failed to load device state")
		}
		return nil
	}

	checkpoint := models.Checkpoint{
		At:      c.now().UTC(),
		Version: state.LastSyncCheckpoint.Version + 1,
	}
	if err = c.devices.SaveCheckpoint(ctx, c.deviceID, checkpoint); err != nil {
		c.logger.Err(err).Str("func", "syncCoordinator.advanceCheckpoint").Msg("failed to store checkpoint")
		return nil
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.CallTimeout)
	defer cancel()
	if _, err = c.adapter.ReportCheckpoint(callCtx, models.CheckpointRequest{
		DeviceID:   c.deviceID,
		Checkpoint: checkpoint,
	}); err != nil {
		c.logger.Warn().Err(err).Int64("version", checkpoint.Version).Msg("failed to report checkpoint")
	}
	return &checkpoint
}

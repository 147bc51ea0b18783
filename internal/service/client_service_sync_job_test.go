// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/models"
)

// spyCoordinator считает вызовы RunPass и Trigger и запоминает последний триггер.
type spyCoordinator struct {
	calls    atomic.Int64
	triggers atomic.Int64
	err      error

	mu      sync.Mutex
	trigger models.SyncTrigger
}

func (s *spyCoordinator) RunPass(_ context.Context, trigger models.SyncTrigger) (models.PassReport, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.trigger = trigger
	s.mu.Unlock()
	return models.PassReport{Trigger: trigger}, s.err
}

func (s *spyCoordinator) Trigger(models.SyncTrigger) { s.triggers.Add(1) }

func (s *spyCoordinator) Run(context.Context) error { return nil }

func (s *spyCoordinator) Counters() models.SyncCounters { return models.SyncCounters{} }

func (s *spyCoordinator) Status() models.SyncStatus { return models.SyncIdle }

func (s *spyCoordinator) lastTrigger() models.SyncTrigger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trigger
}

// ── NewClientSyncJob ─────────────────────────────────────────────────────────

func TestNewClientSyncJob_ReturnsInterface(t *testing.T) {
	spy := &spyCoordinator{}
	job := NewClientSyncJob(spy)
	require.NotNil(t, job)

	// проверяем что возвращённый объект реализует ClientSyncJob
	var _ ClientSyncJob = job
}

// ── Start / Stop ─────────────────────────────────────────────────────────────

func TestClientSyncJob_Start_RunsPeriodicPasses(t *testing.T) {
	spy := &spyCoordinator{}
	job := NewClientSyncJob(spy)

	// Интервал 10ms, за 55ms должно быть ~5 тиков
	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(55 * time.Millisecond)
	job.Stop()

	got := spy.calls.Load()
	assert.GreaterOrEqual(t, got, int64(3), "RunPass должен быть вызван несколько раз, вызвано: %d", got)
	assert.Equal(t, models.TriggerPeriodic, spy.lastTrigger())
}

func TestClientSyncJob_Stop_StopsGoroutine(t *testing.T) {
	spy := &spyCoordinator{}
	job := NewClientSyncJob(spy)

	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	job.Stop()

	callsAfterStop := spy.calls.Load()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, callsAfterStop, spy.calls.Load(), "после Stop новых вызовов быть не должно")
}

func TestClientSyncJob_Stop_BeforeStart_NoPanic(t *testing.T) {
	job := NewClientSyncJob(&spyCoordinator{})

	assert.NotPanics(t, func() { job.Stop() })
}

func TestClientSyncJob_DoubleStop_NoPanic(t *testing.T) {
	job := NewClientSyncJob(&spyCoordinator{})

	job.Start(context.Background(), 10*time.Millisecond)
	job.Stop()

	assert.NotPanics(t, func() { job.Stop() })
}

func TestClientSyncJob_Start_DefaultInterval(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
	}{
		{"zero", 0},
		{"negative", -time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &spyCoordinator{}
			job := NewClientSyncJob(spy)
			ctx, cancel := context.WithCancel(context.Background())

			// дефолт 5 минут, за 20ms вызовов быть не должно
			job.Start(ctx, tt.interval)
			time.Sleep(20 * time.Millisecond)
			cancel()
			job.Stop()

			assert.Equal(t, int64(0), spy.calls.Load())
		})
	}
}

func TestClientSyncJob_Restart_StopsPrevious(t *testing.T) {
	spy := &spyCoordinator{}
	job := NewClientSyncJob(spy)
	ctx := context.Background()

	job.Start(ctx, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	callsBefore := spy.calls.Load()
	assert.Greater(t, callsBefore, int64(0))

	// Start повторно на том же job, внутри вызовет Stop()
	job.Start(ctx, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	job.Stop()

	assert.Greater(t, spy.calls.Load(), callsBefore, "второй Start должен продолжить генерировать вызовы")
}

func TestClientSyncJob_ContextCancel_StopsJob(t *testing.T) {
	job := NewClientSyncJob(&spyCoordinator{})
	ctx, cancel := context.WithCancel(context.Background())

	job.Start(ctx, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		job.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop завис после отмены контекста")
	}
}

func TestClientSyncJob_PassError_DoesNotStopJob(t *testing.T) {
	spy := &spyCoordinator{err: ErrOffline}
	job := NewClientSyncJob(spy)

	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(55 * time.Millisecond)
	job.Stop()

	got := spy.calls.Load()
	assert.GreaterOrEqual(t, got, int64(3), "несмотря на ошибки, RunPass продолжает вызываться: %d", got)
}

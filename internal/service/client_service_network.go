// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

// pingProbe measures latency as the duration of a Ping call.
type pingProbe struct {
	adapter adapter.ServerAdapter
	timeout time.Duration
}

func NewPingProbe(serverAdapter adapter.ServerAdapter, timeout time.Duration) ConnectivityProbe {
	return &pingProbe{adapter: serverAdapter, timeout: timeout}
}

func (p *pingProbe) Probe(ctx context.Context) (time.Duration, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	if _, err := p.adapter.Ping(ctx); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

type networkMonitor struct {
	probe           ConnectivityProbe
	degradedLatency time.Duration

	mu          sync.Mutex
	status      models.NetworkStatus
	latency     time.Duration
	subscribers map[int]chan models.NetworkEvent
	nextID      int

	now    func() time.Time
	logger *logger.Logger
}

// NewNetworkMonitor returns a monitor that starts offline until the first
// probe or report says otherwise.
func NewNetworkMonitor(probe ConnectivityProbe, degradedLatency time.Duration, logger *logger.Logger) NetworkMonitor {
	return &networkMonitor{
		probe:           probe,
		degradedLatency: degradedLatency,
		status:          models.NetworkOffline,
		subscribers:     make(map[int]chan models.NetworkEvent),
		now:             time.Now,
		logger:          logger,
	}
}

func (m *networkMonitor) Subscribe() (<-chan models.NetworkEvent, func()) {
	ch := make(chan models.NetworkEvent, 1)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, id)
			m.mu.Unlock()
		})
	}
}

func (m *networkMonitor) Status() (models.NetworkStatus, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.latency
}

func (m *networkMonitor) Report(status models.NetworkStatus, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.status
	m.status = status
	m.latency = latency
	if prev == status {
		return
	}

	event := models.NetworkEvent{From: prev, To: status, Latency: latency, At: m.now().UTC()}
	m.logger.Info().
		Str("from", string(prev)).
		Str("to", string(status)).
		Dur("latency", latency).
		Msg("network status changed")

	for _, ch := range m.subscribers {
		publish(ch, event)
	}
}

// publish delivers event, replacing an unread older one.
func publish(ch chan models.NetworkEvent, event models.NetworkEvent) {
	for {
		select {
		case ch <- event:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (m *networkMonitor) ProbeNow(ctx context.Context) models.NetworkStatus {
	latency, err := m.probe.Probe(ctx)
	status := m.classify(latency, err)
	if err != nil && ctx.Err() != nil {
		// shutting down, not a network observation
		current, _ := m.Status()
		return current
	}
	m.Report(status, latency)
	return status
}

func (m *networkMonitor) classify(latency time.Duration, err error) models.NetworkStatus {
	switch {
	case err != nil:
		return models.NetworkOffline
	case m.degradedLatency > 0 && latency >= m.degradedLatency:
		return models.NetworkDegraded
	default:
		return models.NetworkOnline
	}
}

func (m *networkMonitor) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	m.ProbeNow(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.ProbeNow(ctx)
		}
	}
}

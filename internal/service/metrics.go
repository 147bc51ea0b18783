package service

import (
	"sync/atomic"

	"github.com/MKhiriev/go-offline-sync/models"
)

// ProcessorMetrics counts server outcomes. Shared by the processor and the
// conflict resolver, read by GET /api/metrics.
type ProcessorMetrics struct {
	submitted  atomic.Int64
	applied    atomic.Int64
	duplicates atomic.Int64
	conflicts  atomic.Int64
	rejected   atomic.Int64
	errors     atomic.Int64
	resolved   atomic.Int64
}

func NewProcessorMetrics() *ProcessorMetrics {
	return &ProcessorMetrics{}
}

func (m *ProcessorMetrics) countOutcome(outcome models.Outcome) {
	switch outcome {
	case models.OutcomeApplied:
		m.applied.Add(1)
	case models.OutcomeDuplicate:
		m.duplicates.Add(1)
	case models.OutcomeConflict:
		m.conflicts.Add(1)
	case models.OutcomeRejected:
		m.rejected.Add(1)
	case models.OutcomeError:
		m.errors.Add(1)
	}
}

// Snapshot returns a copy of the counters.
func (m *ProcessorMetrics) Snapshot() models.ProcessorCounters {
	return models.ProcessorCounters{
		Submitted:  m.submitted.Load(),
		Applied:    m.applied.Load(),
		Duplicates: m.duplicates.Load(),
		Conflicts:  m.conflicts.Load(),
		Rejected:   m.rejected.Load(),
		Errors:     m.errors.Load(),
		Resolved:   m.resolved.Load(),
	}
}

// syncMetrics counts client pass activity.
type syncMetrics struct {
	passes           atomic.Int64
	suppressed       atomic.Int64
	attempts         atomic.Int64
	applied          atomic.Int64
	duplicates       atomic.Int64
	conflicts        atomic.Int64
	rejected         atomic.Int64
	transientErrors  atomic.Int64
	terminalFailures atomic.Int64
}

func (m *syncMetrics) snapshot() models.SyncCounters {
	return models.SyncCounters{
		Passes:           m.passes.Load(),
		Suppressed:       m.suppressed.Load(),
		Attempts:         m.attempts.Load(),
		Applied:          m.applied.Load(),
		Duplicates:       m.duplicates.Load(),
		Conflicts:        m.conflicts.Load(),
		Rejected:         m.rejected.Load(),
		TransientErrors:  m.transientErrors.Load(),
		TerminalFailures: m.terminalFailures.Load(),
	}
}

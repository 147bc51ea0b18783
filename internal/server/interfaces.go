package server

import "context"

// Server runs the transports devices talk to. It satisfies the workers
// package's Worker interface so it can share a lifecycle with background
// jobs.
type Server interface {
	// Run blocks until ctx is done or a transport fails.
	Run(ctx context.Context) error

	// Shutdown gracefully stops every transport. Safe to call more than once.
	Shutdown()
}

// Package server runs the sync server's HTTP and gRPC transports under one
// lifecycle: both start together and a failure of one, or cancellation of
// the run context, drains the other.
package server

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides transport-layer abstractions for communicating with
// the sync server.
//
// The primary abstraction is [ServerAdapter], which decouples the service layer
// from the underlying protocol. Two implementations ship with the package:
// HTTP/REST over resty ([NewHTTPServerAdapter]) and gRPC with a JSON codec
// ([NewGRPCServerAdapter]).
//
// Transport failures are mapped to the sentinel values in errors.go so that
// callers can tell transient failures ([IsTransient]) from permanent ones
// with [errors.Is], whatever the protocol.
package adapter

import (
	"context"

	"github.com/MKhiriev/go-offline-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// ServerAdapter defines transport-agnostic communication with the sync
// server. Every call carries the device id the adapter was built for.
type ServerAdapter interface {
	// Ping checks that the server is reachable.
	Ping(ctx context.Context) (models.PingResponse, error)

	// RegisterDevice registers (or re-registers) the device and returns the
	// server-side sync state, including the stored checkpoint.
	RegisterDevice(ctx context.Context, req models.RegisterDeviceRequest) (models.DeviceSyncState, error)

	// ReportCheckpoint reports a checkpoint reached after a clean pass.
	ReportCheckpoint(ctx context.Context, req models.CheckpointRequest) (models.CheckpointResponse, error)

	// SubmitActions sends an ordered batch and returns one result per item.
	// The integrity hash over the items is computed by the adapter.
	SubmitActions(ctx context.Context, req models.SubmitBatchRequest) (models.SubmitBatchResponse, error)

	// ResolveConflict asks the server to resolve a conflict.
	ResolveConflict(ctx context.Context, req models.ResolveConflictRequest) (models.ResolveConflictResponse, error)

	// ListConflicts returns the server conflict records of a device.
	ListConflicts(ctx context.Context, req models.ListConflictsRequest) ([]models.Conflict, error)

	// GetResource returns the authoritative state of a resource.
	GetResource(ctx context.Context, key string) (models.Resource, error)

	// Close releases the underlying connection, if any.
	Close() error
}

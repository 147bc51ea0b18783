// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// NetworkStatus is the connectivity classification of a device.
type NetworkStatus string

const (
	NetworkOffline  NetworkStatus = "offline"
	NetworkOnline   NetworkStatus = "online"
	NetworkDegraded NetworkStatus = "degraded"
)

// SyncStatus is the sync state machine position of a device.
type SyncStatus string

const (
	SyncIdle     SyncStatus = "idle"
	SyncRamping  SyncStatus = "ramping"
	SyncSyncing  SyncStatus = "syncing"
	SyncConflict SyncStatus = "conflict"
	SyncError    SyncStatus = "error"
)

// Checkpoint marks the last pass that finished without open conflicts.
// Version only grows.
type Checkpoint struct {
	At      time.Time `json:"at"`
	Version int64     `json:"version"`
}

// After reports whether c is strictly newer than other.
func (c Checkpoint) After(other Checkpoint) bool {
	return c.Version > other.Version
}

// DeviceSyncState is the per-device sync bookkeeping shared between the
// device and the server registry.
type DeviceSyncState struct {
	DeviceID     string   `json:"device_id"`
	UserID       string   `json:"user_id"`
	Capabilities []string `json:"capabilities,omitempty"`

	// PublicKey is the base64 ed25519 key the device signs placeholders with.
	PublicKey string `json:"public_key,omitempty"`

	LastSyncCheckpoint Checkpoint `json:"last_sync_checkpoint"`

	// PendingActionIDs lists non-terminal actions in enqueue order.
	PendingActionIDs []string `json:"pending_action_ids,omitempty"`

	NetworkStatus NetworkStatus `json:"network_status,omitempty"`
	SyncStatus    SyncStatus    `json:"sync_status,omitempty"`

	RegisteredAt time.Time `json:"registered_at"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}

// RegisterDeviceRequest is the body of the device registration call.
type RegisterDeviceRequest struct {
	DeviceID     string   `json:"device_id"`
	UserID       string   `json:"user_id"`
	Capabilities []string `json:"capabilities,omitempty"`
	PublicKey    string   `json:"public_key,omitempty"`
}

// CheckpointRequest reports a new checkpoint for a device.
type CheckpointRequest struct {
	DeviceID   string     `json:"device_id"`
	Checkpoint Checkpoint `json:"checkpoint"`
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// ConflictType describes why an action could not be applied.
type ConflictType string

const (
	// ConflictVersionMismatch means the action was based on an older
	// resource version.
	ConflictVersionMismatch ConflictType = "version_mismatch"

	// ConflictConcurrentModification means another writer got to the
	// resource first while this action was being applied, or the action
	// tried to create a resource that already exists.
	ConflictConcurrentModification ConflictType = "concurrent_modification"

	// ConflictDependencyFailure means a resource the action refers to is
	// no longer in the state the action assumed.
	ConflictDependencyFailure ConflictType = "dependency_failure"
)

// ResolutionStrategy selects how a conflict is reconciled.
type ResolutionStrategy string

const (
	StrategyServerWins ResolutionStrategy = "server_wins"
	StrategyClientWins ResolutionStrategy = "client_wins"
	StrategyMerge      ResolutionStrategy = "merge"
	StrategyManual     ResolutionStrategy = "manual"
)

// Valid reports whether s is a known strategy.
func (s ResolutionStrategy) Valid() bool {
	switch s {
	case StrategyServerWins, StrategyClientWins, StrategyMerge, StrategyManual:
		return true
	}
	return false
}

// Conflict records a disagreement between a device action and the server
// state of the resource it targets.
type Conflict struct {
	ID          string       `json:"id"`
	ActionID    string       `json:"action_id"`
	DeviceID    string       `json:"device_id"`
	ResourceKey string       `json:"resource_key"`
	Type        ConflictType `json:"conflict_type"`

	// BaseVersion is the version the action was made against.
	BaseVersion int64 `json:"base_version"`

	// ServerVersion is the resource version when the conflict was detected.
	ServerVersion int64 `json:"server_version"`

	// BaseSnapshot is the server state at BaseVersion, when known.
	BaseSnapshot   Snapshot `json:"base_snapshot,omitempty"`
	LocalSnapshot  Snapshot `json:"local_snapshot"`
	ServerSnapshot Snapshot `json:"server_snapshot"`

	ResolutionStrategy ResolutionStrategy `json:"resolution_strategy,omitempty"`
	ResolvedSnapshot   Snapshot           `json:"resolved_snapshot,omitempty"`
	ResolvedAt         *time.Time         `json:"resolved_at,omitempty"`
	NewVersion         *int64             `json:"new_version,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Open reports whether the conflict still awaits resolution.
func (c Conflict) Open() bool {
	return c.ResolvedAt == nil
}

// ResolveConflictRequest is the body of the resolve call.
type ResolveConflictRequest struct {
	ConflictID string             `json:"conflict_id"`
	Strategy   ResolutionStrategy `json:"strategy"`
	MergedData Snapshot           `json:"merged_data,omitempty"`
}

// ResolveConflictResponse reports the resolution result. Resolved is false
// when the conflict stays open (manual without data, or a merge that
// touched the same field on both sides).
type ResolveConflictResponse struct {
	ConflictID        string             `json:"conflict_id"`
	Resolved          bool               `json:"resolved"`
	Strategy          ResolutionStrategy `json:"strategy"`
	NewVersion        int64              `json:"new_version"`
	ResourceKey       string             `json:"resource_key"`
	ReleasedActionIDs []string           `json:"released_action_ids"`
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ActionType is the closed set of operations a device can queue.
type ActionType string

const (
	// ActionCreateProof registers an offline proof placeholder on the server.
	ActionCreateProof ActionType = "create_proof"

	// ActionUpdateProfile changes fields of a profile resource.
	ActionUpdateProfile ActionType = "update_profile"

	// ActionSubmitVerification submits a verification request that refers
	// to a profile version and optionally to a proof.
	ActionSubmitVerification ActionType = "submit_verification"

	// ActionUploadDocument registers document metadata and obtains an
	// upload target for the document body.
	ActionUploadDocument ActionType = "upload_document"
)

// Valid reports whether t is one of the known action types.
func (t ActionType) Valid() bool {
	switch t {
	case ActionCreateProof, ActionUpdateProfile, ActionSubmitVerification, ActionUploadDocument:
		return true
	}
	return false
}

// ActionStatus is the lifecycle state of a queued action.
//
//	pending -> in_flight -> synced | conflicted | failed
//	in_flight -> pending (transient failure, retries left)
//	conflicted -> synced (resolved)
//	failed -> pending (manual requeue)
type ActionStatus string

const (
	StatusPending    ActionStatus = "pending"
	StatusInFlight   ActionStatus = "in_flight"
	StatusSynced     ActionStatus = "synced"
	StatusConflicted ActionStatus = "conflicted"
	StatusFailed     ActionStatus = "failed"
)

var allowedTransitions = map[ActionStatus][]ActionStatus{
	StatusPending:    {StatusPending, StatusInFlight, StatusFailed},
	StatusInFlight:   {StatusPending, StatusSynced, StatusConflicted, StatusFailed},
	StatusConflicted: {StatusConflicted, StatusSynced},
	StatusFailed:     {StatusFailed, StatusPending},
	StatusSynced:     {StatusSynced},
}

// CanTransition reports whether an action may move from s to next.
func (s ActionStatus) CanTransition(next ActionStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further automatic processing happens for s.
func (s ActionStatus) Terminal() bool {
	return s == StatusSynced || s == StatusFailed
}

// Priority orders ready actions inside a sync pass. Higher goes first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

var priorityNames = [...]string{"low", "medium", "high", "critical"}

func (p Priority) String() string {
	if p < PriorityLow || p > PriorityCritical {
		return fmt.Sprintf("priority(%d)", int(p))
	}
	return priorityNames[p]
}

// ParsePriority converts a priority name into a Priority.
func ParsePriority(s string) (Priority, error) {
	for i, name := range priorityNames {
		if strings.EqualFold(s, name) {
			return Priority(i), nil
		}
	}
	return PriorityLow, fmt.Errorf("unknown priority %q", s)
}

func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ErrorKind classifies the last failure of an action.
type ErrorKind string

const (
	// ErrorKindTransient marks network, timeout and 5xx failures. Retried.
	ErrorKindTransient ErrorKind = "transient"

	// ErrorKindPermanent marks validation and other non-retryable failures.
	ErrorKindPermanent ErrorKind = "permanent"
)

// DefaultMaxRetries is used when an action is enqueued without MaxRetries.
const DefaultMaxRetries = 3

// Action is a unit of user intent recorded on a device while it may be
// offline. Its ID doubles as the idempotency key on the server.
type Action struct {
	// ID is a client-generated unique identifier (UUIDv7).
	ID string `json:"id"`

	// Type selects the concrete Payload variant.
	Type ActionType `json:"type"`

	// Payload carries type-specific data. Never contains raw proof inputs.
	Payload Payload `json:"payload"`

	OwnerID  string `json:"owner_id"`
	DeviceID string `json:"device_id"`

	// ClientTimestamp is when the user performed the action on the device.
	ClientTimestamp time.Time `json:"client_timestamp"`

	// ServerTimestamp is set once the server accepted the action.
	ServerTimestamp *time.Time `json:"server_timestamp,omitempty"`

	Status     ActionStatus `json:"status"`
	RetryCount int          `json:"retry_count"`
	MaxRetries int          `json:"max_retries"`

	// NextAttemptAt gates resubmission after a transient failure.
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`

	Priority Priority `json:"priority"`

	// Dependencies lists action ids that must be synced first.
	Dependencies []string `json:"dependencies,omitempty"`

	// BlockedBy is the dependency currently preventing submission because
	// it is conflicted or failed. Empty when the action is not blocked.
	BlockedBy string `json:"blocked_by,omitempty"`

	LastError     string    `json:"last_error,omitempty"`
	LastErrorKind ErrorKind `json:"last_error_kind,omitempty"`

	// ConflictID refers to the server conflict record of a conflicted action.
	ConflictID string `json:"conflict_id,omitempty"`

	// AppliedVersion is the resource version produced by this action.
	AppliedVersion *int64 `json:"applied_version,omitempty"`

	// Resolution records how a conflict on this action was resolved.
	Resolution ResolutionStrategy `json:"resolution,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResourceKey returns the key of the resource the action writes.
func (a Action) ResourceKey() string {
	if a.Payload == nil {
		return ""
	}
	return a.Payload.ResourceKey()
}

// DependsOn reports whether id is a direct dependency of the action.
func (a Action) DependsOn(id string) bool {
	for _, dep := range a.Dependencies {
		if dep == id {
			return true
		}
	}
	return false
}

// ReadyAt reports whether the backoff gate has passed at now.
func (a Action) ReadyAt(now time.Time) bool {
	return a.NextAttemptAt == nil || !a.NextAttemptAt.After(now)
}

type actionJSON struct {
	ID              string             `json:"id"`
	Type            ActionType         `json:"type"`
	Payload         json.RawMessage    `json:"payload"`
	OwnerID         string             `json:"owner_id"`
	DeviceID        string             `json:"device_id"`
	ClientTimestamp time.Time          `json:"client_timestamp"`
	ServerTimestamp *time.Time         `json:"server_timestamp,omitempty"`
	Status          ActionStatus       `json:"status"`
	RetryCount      int                `json:"retry_count"`
	MaxRetries      int                `json:"max_retries"`
	NextAttemptAt   *time.Time         `json:"next_attempt_at,omitempty"`
	Priority        Priority           `json:"priority"`
	Dependencies    []string           `json:"dependencies,omitempty"`
	BlockedBy       string             `json:"blocked_by,omitempty"`
	LastError       string             `json:"last_error,omitempty"`
	LastErrorKind   ErrorKind          `json:"last_error_kind,omitempty"`
	ConflictID      string             `json:"conflict_id,omitempty"`
	AppliedVersion  *int64             `json:"applied_version,omitempty"`
	Resolution      ResolutionStrategy `json:"resolution,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// MarshalJSON encodes the payload next to its type tag.
func (a Action) MarshalJSON() ([]byte, error) {
	var payload json.RawMessage
	if a.Payload != nil {
		raw, err := json.Marshal(a.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", a.Type, err)
		}
		payload = raw
	}

	return json.Marshal(actionJSON{
		ID:              a.ID,
		Type:            a.Type,
		Payload:         payload,
		OwnerID:         a.OwnerID,
		DeviceID:        a.DeviceID,
		ClientTimestamp: a.ClientTimestamp,
		ServerTimestamp: a.ServerTimestamp,
		Status:          a.Status,
		RetryCount:      a.RetryCount,
		MaxRetries:      a.MaxRetries,
		NextAttemptAt:   a.NextAttemptAt,
		Priority:        a.Priority,
		Dependencies:    a.Dependencies,
		BlockedBy:       a.BlockedBy,
		LastError:       a.LastError,
		LastErrorKind:   a.LastErrorKind,
		ConflictID:      a.ConflictID,
		AppliedVersion:  a.AppliedVersion,
		Resolution:      a.Resolution,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	})
}

// UnmarshalJSON decodes the payload into the variant selected by type.
func (a *Action) UnmarshalJSON(data []byte) error {
	var raw actionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var payload Payload
	if len(raw.Payload) > 0 && string(raw.Payload) != "null" {
		decoded, err := DecodePayload(raw.Type, raw.Payload)
		if err != nil {
			return err
		}
		payload = decoded
	}

	*a = Action{
		ID:              raw.ID,
		Type:            raw.Type,
		Payload:         payload,
		OwnerID:         raw.OwnerID,
		DeviceID:        raw.DeviceID,
		ClientTimestamp: raw.ClientTimestamp,
		ServerTimestamp: raw.ServerTimestamp,
		Status:          raw.Status,
		RetryCount:      raw.RetryCount,
		MaxRetries:      raw.MaxRetries,
		NextAttemptAt:   raw.NextAttemptAt,
		Priority:        raw.Priority,
		Dependencies:    raw.Dependencies,
		BlockedBy:       raw.BlockedBy,
		LastError:       raw.LastError,
		LastErrorKind:   raw.LastErrorKind,
		ConflictID:      raw.ConflictID,
		AppliedVersion:  raw.AppliedVersion,
		Resolution:      raw.Resolution,
		CreatedAt:       raw.CreatedAt,
		UpdatedAt:       raw.UpdatedAt,
	}
	return nil
}

// ActionFields is a partial update applied together with a status change.
// Only non-nil fields are written.
type ActionFields struct {
	RetryCount       *int
	NextAttemptAt    *time.Time
	ClearNextAttempt bool
	ServerTimestamp  *time.Time
	AppliedVersion   *int64
	LastError        *string
	LastErrorKind    *ErrorKind
	BlockedBy        *string
	ConflictID       *string
	Resolution       *ResolutionStrategy
	Payload          Payload
}

// Apply copies the set fields onto a.
func (f ActionFields) Apply(a *Action) {
	if f.RetryCount != nil {
		a.RetryCount = *f.RetryCount
	}
	if f.NextAttemptAt != nil {
		at := *f.NextAttemptAt
		a.NextAttemptAt = &at
	}
	if f.ClearNextAttempt {
		a.NextAttemptAt = nil
	}
	if f.ServerTimestamp != nil {
		ts := *f.ServerTimestamp
		a.ServerTimestamp = &ts
	}
	if f.AppliedVersion != nil {
		v := *f.AppliedVersion
		a.AppliedVersion = &v
	}
	if f.LastError != nil {
		a.LastError = *f.LastError
	}
	if f.LastErrorKind != nil {
		a.LastErrorKind = *f.LastErrorKind
	}
	if f.BlockedBy != nil {
		a.BlockedBy = *f.BlockedBy
	}
	if f.ConflictID != nil {
		a.ConflictID = *f.ConflictID
	}
	if f.Resolution != nil {
		a.Resolution = *f.Resolution
	}
	if f.Payload != nil {
		a.Payload = f.Payload
	}
}

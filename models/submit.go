// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// Outcome is the per-action result of a submission.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeConflict  Outcome = "conflict"
	OutcomeRejected  Outcome = "rejected"

	// OutcomeError is a transient server-side failure. It is never cached.
	OutcomeError Outcome = "error"
)

// SubmitItem pairs an action with its idempotency key (the action id).
type SubmitItem struct {
	Action         Action `json:"action"`
	IdempotencyKey string `json:"idempotency_key"`
}

// SubmitResult is the server answer for one SubmitItem.
type SubmitResult struct {
	ActionID       string        `json:"action_id"`
	Outcome        Outcome       `json:"outcome"`
	Conflict       *Conflict     `json:"conflict,omitempty"`
	AppliedVersion *int64        `json:"applied_version,omitempty"`
	ResourceKey    string        `json:"resource_key,omitempty"`
	ServerTime     *time.Time    `json:"server_time,omitempty"`
	Upload         *UploadTarget `json:"upload,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// Output converts an applied or duplicate result into the value bound
// into dependent actions.
func (r SubmitResult) Output() (AppliedOutput, bool) {
	if r.AppliedVersion == nil {
		return AppliedOutput{}, false
	}
	return AppliedOutput{ActionID: r.ActionID, ResourceKey: r.ResourceKey, Version: *r.AppliedVersion}, true
}

// UploadTarget tells the device where to put a document body.
type UploadTarget struct {
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	Headers    map[string]string `json:"headers,omitempty"`
	StorageKey string            `json:"storage_key"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// SubmitBatchRequest is the body of the batch submit call. Hash is the HMAC
// of the JSON encoded Items.
type SubmitBatchRequest struct {
	DeviceID string       `json:"device_id"`
	Items    []SubmitItem `json:"items"`
	Hash     string       `json:"hash,omitempty"`
}

// SubmitBatchResponse holds one result per submitted item, in order.
type SubmitBatchResponse struct {
	Results []SubmitResult `json:"results"`
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// ValidationStatus is the server verdict on an offline proof.
type ValidationStatus string

const (
	ValidationPending ValidationStatus = "pending"
	ValidationValid   ValidationStatus = "valid"
	ValidationInvalid ValidationStatus = "invalid"
	ValidationExpired ValidationStatus = "expired"
)

// ProofSyncStatus tracks whether the proof's create_proof action reached
// the server.
type ProofSyncStatus string

const (
	ProofSyncPending ProofSyncStatus = "pending"
	ProofSyncSynced  ProofSyncStatus = "synced"
	ProofSyncFailed  ProofSyncStatus = "failed"
)

// OfflineProof is a placeholder proof generated on a device without server
// contact. Only the digest of the inputs is kept.
type OfflineProof struct {
	ID        string `json:"id"`
	ProofType string `json:"proof_type"`

	// InputDigest is the hex SHA-256 of the canonicalized inputs.
	InputDigest string `json:"input_digest"`

	// Placeholder is the device-signed compact token standing in for the
	// real proof until the server validates it.
	Placeholder string `json:"placeholder"`
	Nonce       string `json:"nonce"`

	DeviceID string `json:"device_id"`
	ActionID string `json:"action_id"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	ValidationStatus ValidationStatus `json:"validation_status"`
	SyncStatus       ProofSyncStatus  `json:"sync_status"`
}

// Expired reports whether the proof is past its validity window at now.
func (p OfflineProof) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// StatusAt returns the validation status as observed at now. Expiry wins
// over any stored verdict.
func (p OfflineProof) StatusAt(now time.Time) ValidationStatus {
	if p.Expired(now) {
		return ValidationExpired
	}
	return p.ValidationStatus
}

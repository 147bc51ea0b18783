// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"
)

// ErrUnknownActionType is returned when a payload is decoded for a type
// outside the closed ActionType set.
var ErrUnknownActionType = errors.New("unknown action type")

// Resource key prefixes, one per resource kind.
const (
	KindProof        = "proof"
	KindProfile      = "profile"
	KindVerification = "verification"
	KindDocument     = "document"
)

// Payload is the type-specific body of an Action.
type Payload interface {
	// ActionType is the tag this variant is encoded under.
	ActionType() ActionType

	// ResourceKey identifies the server resource the action writes.
	ResourceKey() string

	// ExpectedVersion is the resource version the change was made against.
	// Zero means the action creates the resource.
	ExpectedVersion() int64

	// Snapshot is the resource state the action wants to store.
	Snapshot() Snapshot
}

// DependencyBinder is implemented by payloads that consume outputs of the
// actions they depend on.
type DependencyBinder interface {
	BindDependency(out AppliedOutput)
}

// AppliedOutput describes what an applied (or resolved) action produced.
type AppliedOutput struct {
	ActionID    string `json:"action_id"`
	ResourceKey string `json:"resource_key"`
	Version     int64  `json:"version"`
}

// ResourceKeyFor joins a kind and an id into a resource key.
func ResourceKeyFor(kind, id string) string {
	return kind + ":" + id
}

// DecodePayload decodes raw into the variant registered for t.
func DecodePayload(t ActionType, raw []byte) (Payload, error) {
	var p Payload
	switch t {
	case ActionCreateProof:
		p = &CreateProofPayload{}
	case ActionUpdateProfile:
		p = &UpdateProfilePayload{}
	case ActionSubmitVerification:
		p = &SubmitVerificationPayload{}
	case ActionUploadDocument:
		p = &UploadDocumentPayload{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionType, t)
	}

	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return p, nil
}

// ── create_proof ──────────────────────────────────────────────────────────────

// CreateProofPayload registers an offline proof. It carries the input
// digest and the signed placeholder, never the raw inputs.
type CreateProofPayload struct {
	ProofID     string    `json:"proof_id"`
	ProofType   string    `json:"proof_type"`
	InputDigest string    `json:"input_digest"`
	Placeholder string    `json:"placeholder"`
	Nonce       string    `json:"nonce"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (p *CreateProofPayload) ActionType() ActionType { return ActionCreateProof }

func (p *CreateProofPayload) ResourceKey() string { return ResourceKeyFor(KindProof, p.ProofID) }

func (p *CreateProofPayload) ExpectedVersion() int64 { return 0 }

func (p *CreateProofPayload) Snapshot() Snapshot {
	return Snapshot{
		"proof_type":   p.ProofType,
		"input_digest": p.InputDigest,
		"nonce":        p.Nonce,
		"created_at":   p.CreatedAt.UTC().Format(time.RFC3339Nano),
		"expires_at":   p.ExpiresAt.UTC().Format(time.RFC3339Nano),
	}
}

// ── update_profile ────────────────────────────────────────────────────────────

// UpdateProfilePayload sets profile fields on top of BaseVersion.
// BaseVersion 0 creates the profile.
type UpdateProfilePayload struct {
	ProfileID   string         `json:"profile_id"`
	BaseVersion int64          `json:"base_version"`
	Fields      map[string]any `json:"fields"`
}

func (p *UpdateProfilePayload) ActionType() ActionType { return ActionUpdateProfile }

func (p *UpdateProfilePayload) ResourceKey() string {
	return ResourceKeyFor(KindProfile, p.ProfileID)
}

func (p *UpdateProfilePayload) ExpectedVersion() int64 { return p.BaseVersion }

func (p *UpdateProfilePayload) Snapshot() Snapshot {
	return Snapshot(maps.Clone(p.Fields))
}

// BindDependency moves the base version forward when a dependency wrote
// the same profile.
func (p *UpdateProfilePayload) BindDependency(out AppliedOutput) {
	if out.ResourceKey == p.ResourceKey() && out.Version > p.BaseVersion {
		p.BaseVersion = out.Version
	}
}

// ── submit_verification ───────────────────────────────────────────────────────

// SubmitVerificationPayload asks the server to verify a profile at a given
// version, optionally backed by an offline proof.
type SubmitVerificationPayload struct {
	VerificationID string `json:"verification_id"`
	ProfileID      string `json:"profile_id"`
	ProfileVersion int64  `json:"profile_version"`
	ProofID        string `json:"proof_id,omitempty"`
	Method         string `json:"method"`
}

func (p *SubmitVerificationPayload) ActionType() ActionType { return ActionSubmitVerification }

func (p *SubmitVerificationPayload) ResourceKey() string {
	return ResourceKeyFor(KindVerification, p.VerificationID)
}

func (p *SubmitVerificationPayload) ExpectedVersion() int64 { return 0 }

func (p *SubmitVerificationPayload) Snapshot() Snapshot {
	s := Snapshot{
		"profile_id":      p.ProfileID,
		"profile_version": p.ProfileVersion,
		"method":          p.Method,
	}
	if p.ProofID != "" {
		s["proof_id"] = p.ProofID
	}
	return s
}

// BindDependency adopts the profile version written by a dependency.
func (p *SubmitVerificationPayload) BindDependency(out AppliedOutput) {
	if out.ResourceKey == ResourceKeyFor(KindProfile, p.ProfileID) {
		p.ProfileVersion = out.Version
	}
}

// ── upload_document ───────────────────────────────────────────────────────────

// UploadDocumentPayload registers document metadata. The body itself is
// uploaded to the target returned in the submit result.
type UploadDocumentPayload struct {
	DocumentID  string `json:"document_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	SHA256      string `json:"sha256"`
	BaseVersion int64  `json:"base_version"`
}

func (p *UploadDocumentPayload) ActionType() ActionType { return ActionUploadDocument }

func (p *UploadDocumentPayload) ResourceKey() string {
	return ResourceKeyFor(KindDocument, p.DocumentID)
}

func (p *UploadDocumentPayload) ExpectedVersion() int64 { return p.BaseVersion }

func (p *UploadDocumentPayload) Snapshot() Snapshot {
	return Snapshot{
		"file_name":    p.FileName,
		"content_type": p.ContentType,
		"size_bytes":   p.SizeBytes,
		"sha256":       p.SHA256,
	}
}

func (p *UploadDocumentPayload) BindDependency(out AppliedOutput) {
	if out.ResourceKey == p.ResourceKey() && out.Version > p.BaseVersion {
		p.BaseVersion = out.Version
	}
}

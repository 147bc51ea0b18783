// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MKhiriev/go-offline-sync/internal/crypto"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

// ErrEmptyProofType is returned by Build when no proof type is given.
var ErrEmptyProofType = errors.New("empty proof type")

type proofService struct {
	proofs  store.ProofRepository
	actions ActionStore
	key     *crypto.DeviceKey
	ownerID string
	ids     idGenerator

	defaultValidity time.Duration

	now    func() time.Time
	logger *logger.Logger
}

func NewProofService(proofs store.ProofRepository, actions ActionStore, key *crypto.DeviceKey, ownerID string, ids idGenerator, defaultValidity time.Duration, logger *logger.Logger) ProofService {
	if defaultValidity <= 0 {
		defaultValidity = 24 * time.Hour
	}
	return &proofService{
		proofs:          proofs,
		actions:         actions,
		key:             key,
		ownerID:         ownerID,
		ids:             ids,
		defaultValidity: defaultValidity,
		now:             time.Now,
		logger:          logger,
	}
}

// Build hashes the inputs, signs a placeholder for the digest and queues
// the create_proof action. The raw inputs are dropped after hashing.
func (s *proofService) Build(ctx context.Context, req models.BuildProofRequest) (models.OfflineProof, models.Action, error) {
	log := logger.FromContext(ctx)

	if req.ProofType == "" {
		return models.OfflineProof{}, models.Action{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, ErrEmptyProofType)
	}
	validity := req.Validity
	if validity <= 0 {
		validity = s.defaultValidity
	}

	digest, err := crypto.InputDigest(req.Inputs)
	if err != nil {
		return models.OfflineProof{}, models.Action{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}
	nonce, err := crypto.NewNonce()
	if err != nil {
		return models.OfflineProof{}, models.Action{}, err
	}

	createdAt := s.now().UTC().Truncate(time.Second)
	proof := models.OfflineProof{
		ID:               s.ids.Generate(),
		ProofType:        req.ProofType,
		InputDigest:      digest,
		Nonce:            nonce,
		DeviceID:         s.key.DeviceID(),
		CreatedAt:        createdAt,
		ExpiresAt:        createdAt.Add(validity),
		ValidationStatus: models.ValidationPending,
		SyncStatus:       models.ProofSyncPending,
	}

	proof.Placeholder, err = s.key.SignPlaceholder(crypto.PlaceholderClaims{
		Digest:    digest,
		ProofType: req.ProofType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    proof.DeviceID,
			Subject:   proof.ID,
			ID:        nonce,
			IssuedAt:  jwt.NewNumericDate(proof.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(proof.ExpiresAt),
		},
	})
	if err != nil {
		log.Err(err).Str("func", "proofService.Build").Msg("failed to sign placeholder")
		return models.OfflineProof{}, models.Action{}, err
	}

	// The proof row lands before its action so the sync pass can always
	// find the proof a create_proof action points at.
	proof.ActionID = s.ids.Generate()
	if err = s.proofs.SaveProof(ctx, proof); err != nil {
		log.Err(err).Str("func", "proofService.Build").
			Str("proof_id", proof.ID).
			Msg("failed to save proof")
		return models.OfflineProof{}, models.Action{}, err
	}

	action, err := s.actions.Enqueue(ctx, models.Action{
		ID:           proof.ActionID,
		Type:         models.ActionCreateProof,
		DeviceID:     proof.DeviceID,
		OwnerID:      s.ownerID,
		Priority:     req.Priority,
		Dependencies: req.Dependencies,
		Payload: &models.CreateProofPayload{
			ProofID:     proof.ID,
			ProofType:   proof.ProofType,
			InputDigest: proof.InputDigest,
			Placeholder: proof.Placeholder,
			Nonce:       proof.Nonce,
			CreatedAt:   proof.CreatedAt,
			ExpiresAt:   proof.ExpiresAt,
		},
	})
	if err != nil {
		if delErr := s.proofs.DeleteProof(context.WithoutCancel(ctx), proof.ID); delErr != nil {
			log.Err(delErr).Str("func", "proofService.Build").
				Str("proof_id", proof.ID).
				Msg("failed to drop proof of unqueued action")
		}
		return models.OfflineProof{}, models.Action{}, err
	}

	log.Info().
		Str("proof_id", proof.ID).
		Str("action_id", action.ID).
		Str("proof_type", proof.ProofType).
		Time("expires_at", proof.ExpiresAt).
		Msg("offline proof built")
	return proof, action, nil
}

func (s *proofService) ListActive(ctx context.Context, deviceID string) ([]models.OfflineProof, error) {
	proofs, err := s.proofs.ListProofs(ctx, deviceID, models.ProofSyncPending, models.ProofSyncFailed)
	if err != nil {
		return nil, err
	}

	now := s.now()
	active := make([]models.OfflineProof, 0, len(proofs))
	for _, proof := range proofs {
		if proof.Expired(now) {
			continue
		}
		active = append(active, proof)
	}
	return active, nil
}

// Get returns the proof with its validation status as seen now.
func (s *proofService) Get(ctx context.Context, id string) (models.OfflineProof, error) {
	proof, err := s.proofs.GetProof(ctx, id)
	if err != nil {
		return models.OfflineProof{}, err
	}
	proof.ValidationStatus = proof.StatusAt(s.now())
	return proof, nil
}

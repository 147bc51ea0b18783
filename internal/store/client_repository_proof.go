package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

type localProofRepository struct {
	*DB
	logger *logger.Logger
}

// NewLocalProofRepository returns the SQLite-backed [ProofRepository].
func NewLocalProofRepository(db *DB, logger *logger.Logger) ProofRepository {
	return &localProofRepository{
		DB:     db,
		logger: logger,
	}
}

func (l *localProofRepository) SaveProof(ctx context.Context, proof models.OfflineProof) error {
	log := logger.FromContext(ctx)

	_, err := l.DB.ExecContext(ctx, saveProof,
		proof.ID,
		proof.ProofType,
		proof.InputDigest,
		proof.Placeholder,
		proof.Nonce,
		proof.DeviceID,
		proof.ActionID,
		proof.CreatedAt,
		proof.ExpiresAt,
		string(proof.ValidationStatus),
		string(proof.SyncStatus),
	)
	if err != nil {
		log.Err(err).
			Str("func", "localProofRepository.SaveProof").
			Str("proof_id", proof.ID).
			Msg("failed to save offline proof")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (l *localProofRepository) GetProof(ctx context.Context, id string) (models.OfflineProof, error) {
	proof, err := scanProof(l.DB.QueryRowContext(ctx, getProof, id))
	if isNoRows(err) {
		return models.OfflineProof{}, fmt.Errorf("%w: %s", ErrProofNotFound, id)
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localProofRepository.GetProof").
			Str("proof_id", id).
			Msg("failed to scan offline proof")
		return models.OfflineProof{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return proof, nil
}

func (l *localProofRepository) ListProofs(ctx context.Context, deviceID string, statuses ...models.ProofSyncStatus) ([]models.OfflineProof, error) {
	log := logger.FromContext(ctx)

	builder := l.builder.
		Select(proofColumns...).
		From("offline_proofs").
		Where(sq.Eq{"device_id": deviceID}).
		OrderBy("created_at")
	if len(statuses) > 0 {
		values := make([]string, 0, len(statuses))
		for _, status := range statuses {
			values = append(values, string(status))
		}
		builder = builder.Where(sq.Eq{"sync_status": values})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := l.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "localProofRepository.ListProofs").
			Str("device_id", deviceID).
			Msg("failed to execute query for offline proofs")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var proofs []models.OfflineProof
	for rows.Next() {
		proof, scanErr := scanProof(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		proofs = append(proofs, proof)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}
	return proofs, nil
}

func (l *localProofRepository) SetProofStatusByAction(ctx context.Context, actionID string, syncStatus models.ProofSyncStatus, validation models.ValidationStatus) error {
	_, err := l.DB.ExecContext(ctx, setProofStatusByAction, string(syncStatus), string(validation), actionID)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localProofRepository.SetProofStatusByAction").
			Str("action_id", actionID).
			Msg("failed to update offline proof status")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (l *localProofRepository) DeleteProof(ctx context.Context, id string) error {
	if _, err := l.DB.ExecContext(ctx, deleteProof, id); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localProofRepository.DeleteProof").
			Str("proof_id", id).
			Msg("failed to delete offline proof")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func scanProof(row rowScanner) (models.OfflineProof, error) {
	var proof models.OfflineProof
	err := row.Scan(
		&proof.ID,
		&proof.ProofType,
		&proof.InputDigest,
		&proof.Placeholder,
		&proof.Nonce,
		&proof.DeviceID,
		&proof.ActionID,
		&proof.CreatedAt,
		&proof.ExpiresAt,
		&proof.ValidationStatus,
		&proof.SyncStatus,
	)
	return proof, err
}

package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

type localConflictRepository struct {
	*DB
	logger *logger.Logger
}

// NewLocalConflictRepository returns the SQLite-backed
// [LocalConflictRepository].
func NewLocalConflictRepository(db *DB, logger *logger.Logger) LocalConflictRepository {
	return &localConflictRepository{
		DB:     db,
		logger: logger,
	}
}

func (l *localConflictRepository) SaveConflict(ctx context.Context, conflict models.Conflict) error {
	_, err := l.DB.ExecContext(ctx, saveLocalConflict,
		conflict.ID,
		conflict.ActionID,
		conflict.DeviceID,
		conflict.ResourceKey,
		string(conflict.Type),
		conflict.BaseVersion,
		conflict.ServerVersion,
		conflict.BaseSnapshot,
		conflict.LocalSnapshot,
		conflict.ServerSnapshot,
		conflict.CreatedAt,
	)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localConflictRepository.SaveConflict").
			Str("conflict_id", conflict.ID).
			Msg("failed to save local conflict copy")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (l *localConflictRepository) GetConflict(ctx context.Context, id string) (models.Conflict, error) {
	conflict, err := scanLocalConflict(l.DB.QueryRowContext(ctx, getLocalConflict, id))
	if isNoRows(err) {
		return models.Conflict{}, fmt.Errorf("%w: %s", ErrConflictNotFound, id)
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localConflictRepository.GetConflict").
			Str("conflict_id", id).
			Msg("failed to scan local conflict")
		return models.Conflict{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return conflict, nil
}

func (l *localConflictRepository) ListConflicts(ctx context.Context, deviceID string) ([]models.Conflict, error) {
	log := logger.FromContext(ctx)

	rows, err := l.DB.QueryContext(ctx, listLocalConflicts, deviceID)
	if err != nil {
		log.Err(err).
			Str("func", "localConflictRepository.ListConflicts").
			Str("device_id", deviceID).
			Msg("failed to execute query for local conflicts")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var conflicts []models.Conflict
	for rows.Next() {
		conflict, scanErr := scanLocalConflict(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		conflicts = append(conflicts, conflict)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}
	return conflicts, nil
}

func (l *localConflictRepository) DeleteConflict(ctx context.Context, id string) error {
	if _, err := l.DB.ExecContext(ctx, deleteLocalConflict, id); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localConflictRepository.DeleteConflict").
			Str("conflict_id", id).
			Msg("failed to delete local conflict copy")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func scanLocalConflict(row rowScanner) (models.Conflict, error) {
	var conflict models.Conflict
	err := row.Scan(
		&conflict.ID,
		&conflict.ActionID,
		&conflict.DeviceID,
		&conflict.ResourceKey,
		&conflict.Type,
		&conflict.BaseVersion,
		&conflict.ServerVersion,
		&conflict.BaseSnapshot,
		&conflict.LocalSnapshot,
		&conflict.ServerSnapshot,
		&conflict.CreatedAt,
	)
	return conflict, err
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

// conflictRepository is the PostgreSQL-backed implementation of
// [ConflictRepository]. Resolved conflicts are kept with their resolution
// fields filled.
type conflictRepository struct {
	*DB
	logger *logger.Logger
}

// NewConflictRepository constructs a [ConflictRepository].
func NewConflictRepository(db *DB, logger *logger.Logger) ConflictRepository {
	return &conflictRepository{
		DB:     db,
		logger: logger,
	}
}

// SaveConflict inserts the conflict or, when the action already has one,
// refreshes its server side and returns the stored row.
func (c *conflictRepository) SaveConflict(ctx context.Context, conflict models.Conflict) (models.Conflict, error) {
	saved, err := scanConflict(c.DB.QueryRowContext(ctx, saveConflict,
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
	))
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "conflictRepository.SaveConflict").
			Str("action_id", conflict.ActionID).
			Msg("failed to save conflict")
		return models.Conflict{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return saved, nil
}

func (c *conflictRepository) GetConflict(ctx context.Context, id string) (models.Conflict, error) {
	conflict, err := scanConflict(c.DB.QueryRowContext(ctx, getConflict, id))
	if isNoRows(err) {
		return models.Conflict{}, fmt.Errorf("%w: %s", ErrConflictNotFound, id)
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "conflictRepository.GetConflict").
			Str("conflict_id", id).
			Msg("failed to get conflict")
		return models.Conflict{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return conflict, nil
}

func (c *conflictRepository) ListConflicts(ctx context.Context, filter ConflictFilter) ([]models.Conflict, error) {
	log := logger.FromContext(ctx)

	query, args, err := c.buildListConflictsQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := c.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.ListConflicts").
			Str("device_id", filter.DeviceID).
			Msg("failed to execute query for conflicts")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	conflicts := make([]models.Conflict, 0, 8)
	for rows.Next() {
		conflict, scanErr := scanConflict(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "conflictRepository.ListConflicts").
				Msg("failed to scan conflict row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		conflicts = append(conflicts, conflict)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}
	return conflicts, nil
}

// RecordStrategy notes the chosen strategy on a conflict that stays open.
func (c *conflictRepository) RecordStrategy(ctx context.Context, id string, strategy models.ResolutionStrategy) error {
	result, err := c.DB.ExecContext(ctx, recordStrategy, id, string(strategy))
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "conflictRepository.RecordStrategy").
			Str("conflict_id", id).
			Msg("failed to record resolution strategy")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return requireAffected(result, ErrConflictNotFound, id)
}

// ResolveConflict closes the conflict, writing the resource first when
// resolution.Write is set. Both happen in one transaction.
func (c *conflictRepository) ResolveConflict(ctx context.Context, resolution ConflictResolution) (models.Conflict, error) {
	log := logger.FromContext(ctx)

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.ResolveConflict").
			Str("conflict_id", resolution.ConflictID).
			Msg("failed to begin transaction")
		return models.Conflict{}, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	current, err := scanConflict(tx.QueryRowContext(ctx, getConflictForUpdate, resolution.ConflictID))
	if isNoRows(err) {
		return models.Conflict{}, fmt.Errorf("%w: %s", ErrConflictNotFound, resolution.ConflictID)
	}
	if err != nil {
		return models.Conflict{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	if !current.Open() {
		return models.Conflict{}, fmt.Errorf("%w: %s", ErrConflictResolved, resolution.ConflictID)
	}

	newVersion := resolution.NewVersion
	if resolution.Write != nil {
		resource, writeErr := writeResource(ctx, tx, *resolution.Write)
		if writeErr != nil {
			return models.Conflict{}, writeErr
		}
		newVersion = resource.Version
	}

	resolved, err := scanConflict(tx.QueryRowContext(ctx, resolveConflict,
		resolution.ConflictID,
		string(resolution.Strategy),
		resolution.ResolvedSnapshot,
		resolution.At,
		newVersion,
	))
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.ResolveConflict").
			Str("conflict_id", resolution.ConflictID).
			Msg("failed to mark conflict resolved")
		return models.Conflict{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).
			Str("func", "conflictRepository.ResolveConflict").
			Str("conflict_id", resolution.ConflictID).
			Msg("failed to commit transaction")
		return models.Conflict{}, fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return resolved, nil
}

func (c *conflictRepository) buildListConflictsQuery(filter ConflictFilter) (string, []any, error) {
	builder := c.builder.
		Select(conflictColumns).
		From("conflicts").
		OrderBy("created_at")

	if filter.DeviceID != "" {
		builder = builder.Where(sq.Eq{"device_id": filter.DeviceID})
	}
	if filter.OpenOnly {
		builder = builder.Where(sq.Eq{"resolved_at": nil})
	}
	return builder.ToSql()
}

func scanConflict(row rowScanner) (models.Conflict, error) {
	var (
		conflict   models.Conflict
		resolvedAt sql.NullTime
		newVersion sql.NullInt64
	)
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
		&conflict.ResolutionStrategy,
		&conflict.ResolvedSnapshot,
		&resolvedAt,
		&newVersion,
		&conflict.CreatedAt,
	)
	if err != nil {
		return models.Conflict{}, err
	}
	conflict.ResolvedAt = timePtr(resolvedAt)
	conflict.NewVersion = int64Ptr(newVersion)
	return conflict, nil
}

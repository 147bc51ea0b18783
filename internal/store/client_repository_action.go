package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

type localActionRepository struct {
	*DB
	logger *logger.Logger
}

// NewLocalActionRepository returns the SQLite-backed [ActionRepository].
func NewLocalActionRepository(db *DB, logger *logger.Logger) ActionRepository {
	return &localActionRepository{
		DB:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (l *localActionRepository) InsertAction(ctx context.Context, action models.Action) error {
	log := logger.FromContext(ctx)

	payload, err := json.Marshal(action.Payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodingValue, err)
	}

	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "localActionRepository.InsertAction").
			Str("action_id", action.ID).
			Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, insertAction,
		action.ID,
		string(action.Type),
		string(payload),
		action.OwnerID,
		action.DeviceID,
		action.ClientTimestamp,
		nullTime(action.ServerTimestamp),
		string(action.Status),
		action.RetryCount,
		action.MaxRetries,
		nullTime(action.NextAttemptAt),
		int(action.Priority),
		action.BlockedBy,
		action.LastError,
		string(action.LastErrorKind),
		action.ConflictID,
		nullInt64(action.AppliedVersion),
		string(action.Resolution),
		action.CreatedAt,
		action.UpdatedAt,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrActionExists, action.ID)
		}
		log.Err(err).
			Str("func", "localActionRepository.InsertAction").
			Str("action_id", action.ID).
			Msg("failed to insert action")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	for _, dep := range action.Dependencies {
		if _, err = tx.ExecContext(ctx, insertActionDependency, action.ID, dep); err != nil {
			log.Err(err).
				Str("func", "localActionRepository.InsertAction").
				Str("action_id", action.ID).
				Str("depends_on", dep).
				Msg("failed to insert action dependency")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).
			Str("func", "localActionRepository.InsertAction").
			Str("action_id", action.ID).
			Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

func (l *localActionRepository) GetAction(ctx context.Context, id string) (models.Action, error) {
	actions, err := l.ListActions(ctx, ActionFilter{IDs: []string{id}})
	if err != nil {
		return models.Action{}, err
	}
	if len(actions) == 0 {
		return models.Action{}, fmt.Errorf("%w: %s", ErrActionNotFound, id)
	}
	return actions[0], nil
}

func (l *localActionRepository) ListActions(ctx context.Context, filter ActionFilter) ([]models.Action, error) {
	query, args, err := l.buildListActionsQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return l.queryActions(ctx, "localActionRepository.ListActions", query, args...)
}

func (l *localActionRepository) ListDependents(ctx context.Context, id string) ([]models.Action, error) {
	query, args, err := l.builder.
		Select(actionColumns...).
		From("actions a").
		Join("action_dependencies d ON d.action_id = a.id").
		Where(sq.Eq{"d.depends_on": id}).
		OrderBy("a.seq").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return l.queryActions(ctx, "localActionRepository.ListDependents", query, args...)
}

func (l *localActionRepository) UpdateAction(ctx context.Context, action models.Action) error {
	log := logger.FromContext(ctx)

	payload, err := json.Marshal(action.Payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodingValue, err)
	}

	result, err := l.DB.ExecContext(ctx, updateAction,
		string(payload),
		string(action.Status),
		action.RetryCount,
		nullTime(action.NextAttemptAt),
		nullTime(action.ServerTimestamp),
		action.BlockedBy,
		action.LastError,
		string(action.LastErrorKind),
		action.ConflictID,
		nullInt64(action.AppliedVersion),
		string(action.Resolution),
		action.UpdatedAt,
		action.ID,
	)
	if err != nil {
		log.Err(err).
			Str("func", "localActionRepository.UpdateAction").
			Str("action_id", action.ID).
			Msg("failed to update action")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return requireAffected(result, ErrActionNotFound, action.ID)
}

func (l *localActionRepository) DeleteAction(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	result, err := l.DB.ExecContext(ctx, deleteAction, id)
	if err != nil {
		log.Err(err).
			Str("func", "localActionRepository.DeleteAction").
			Str("action_id", id).
			Msg("failed to delete action")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return requireAffected(result, ErrActionNotFound, id)
}

func (l *localActionRepository) DeleteSyncedBefore(ctx context.Context, deviceID string, before time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	result, err := l.DB.ExecContext(ctx, deleteSyncedActionsBefore, deviceID, before)
	if err != nil {
		log.Err(err).
			Str("func", "localActionRepository.DeleteSyncedBefore").
			Str("device_id", deviceID).
			Msg("failed to purge synced actions")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return removed, nil
}

func (l *localActionRepository) buildListActionsQuery(filter ActionFilter) (string, []any, error) {
	builder := l.builder.
		Select(actionColumns...).
		From("actions a").
		OrderBy("a.seq")

	if filter.DeviceID != "" {
		builder = builder.Where(sq.Eq{"a.device_id": filter.DeviceID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		builder = builder.Where(sq.Eq{"a.status": statuses})
	}
	if len(filter.IDs) > 0 {
		builder = builder.Where(sq.Eq{"a.id": filter.IDs})
	}

	return builder.ToSql()
}

func (l *localActionRepository) queryActions(ctx context.Context, funcName, query string, args ...any) ([]models.Action, error) {
	log := logger.FromContext(ctx)

	rows, err := l.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", funcName).Msg("failed to execute query for actions")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	actions := make([]models.Action, 0, 16)
	for rows.Next() {
		action, scanErr := scanAction(rows)
		if scanErr != nil {
			log.Err(scanErr).Str("func", funcName).Msg("failed to scan action row")
			return nil, scanErr
		}
		actions = append(actions, action)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).Str("func", funcName).Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}
	// the client pool holds a single connection
	rows.Close()

	if err = l.loadDependencies(ctx, actions); err != nil {
		log.Err(err).Str("func", funcName).Msg("failed to load action dependencies")
		return nil, err
	}
	return actions, nil
}

// loadDependencies fills Dependencies of every action in insertion order.
func (l *localActionRepository) loadDependencies(ctx context.Context, actions []models.Action) error {
	if len(actions) == 0 {
		return nil
	}

	ids := make([]string, len(actions))
	index := make(map[string]int, len(actions))
	for i, action := range actions {
		ids[i] = action.ID
		index[action.ID] = i
	}

	query, args, err := l.builder.
		Select("action_id", "depends_on").
		From("action_dependencies").
		Where(sq.Eq{"action_id": ids}).
		OrderBy("rowid").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := l.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var actionID, dependsOn string
		if err = rows.Scan(&actionID, &dependsOn); err != nil {
			return fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		i := index[actionID]
		actions[i].Dependencies = append(actions[i].Dependencies, dependsOn)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return nil
}

func scanAction(row rowScanner) (models.Action, error) {
	var (
		action          models.Action
		payload         string
		serverTimestamp sql.NullTime
		nextAttemptAt   sql.NullTime
		appliedVersion  sql.NullInt64
		priority        int
	)

	err := row.Scan(
		&action.ID,
		&action.Type,
		&payload,
		&action.OwnerID,
		&action.DeviceID,
		&action.ClientTimestamp,
		&serverTimestamp,
		&action.Status,
		&action.RetryCount,
		&action.MaxRetries,
		&nextAttemptAt,
		&priority,
		&action.BlockedBy,
		&action.LastError,
		&action.LastErrorKind,
		&action.ConflictID,
		&appliedVersion,
		&action.Resolution,
		&action.CreatedAt,
		&action.UpdatedAt,
	)
	if err != nil {
		return models.Action{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	action.Priority = models.Priority(priority)
	action.ServerTimestamp = timePtr(serverTimestamp)
	action.NextAttemptAt = timePtr(nextAttemptAt)
	action.AppliedVersion = int64Ptr(appliedVersion)

	if payload != "" && payload != "null" {
		action.Payload, err = models.DecodePayload(action.Type, []byte(payload))
		if err != nil {
			return models.Action{}, fmt.Errorf("%w: %w", ErrEncodingValue, err)
		}
	}
	return action, nil
}

func requireAffected(result sql.Result, notFound error, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

// resourceRepository is the PostgreSQL-backed implementation of
// [ResourceRepository]. Every write appends a row to resource_versions in
// the same statement.
type resourceRepository struct {
	*DB
	logger *logger.Logger
}

// NewResourceRepository constructs a [ResourceRepository].
func NewResourceRepository(db *DB, logger *logger.Logger) ResourceRepository {
	return &resourceRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *resourceRepository) GetResource(ctx context.Context, key string) (models.Resource, error) {
	resource, err := scanResource(r.DB.QueryRowContext(ctx, getResource, key))
	if isNoRows(err) {
		return models.Resource{}, fmt.Errorf("%w: %s", ErrResourceNotFound, key)
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "resourceRepository.GetResource").
			Str("resource_key", key).
			Msg("failed to get resource")
		return models.Resource{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return resource, nil
}

func (r *resourceRepository) GetSnapshotAt(ctx context.Context, key string, version int64) (models.Snapshot, error) {
	var snapshot models.Snapshot
	err := r.DB.QueryRowContext(ctx, getSnapshotAt, key, version).Scan(&snapshot)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %s@%d", ErrResourceNotFound, key, version)
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "resourceRepository.GetSnapshotAt").
			Str("resource_key", key).
			Int64("version", version).
			Msg("failed to get resource history")
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return snapshot, nil
}

func (r *resourceRepository) FindAppliedByAction(ctx context.Context, actionID string) (AppliedRecord, error) {
	var record AppliedRecord
	err := r.DB.QueryRowContext(ctx, findAppliedByAction, actionID).Scan(
		&record.ResourceKey,
		&record.Version,
		&record.AppliedAt,
	)
	if isNoRows(err) {
		return AppliedRecord{}, fmt.Errorf("%w: action %s", ErrResourceNotFound, actionID)
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "resourceRepository.FindAppliedByAction").
			Str("action_id", actionID).
			Msg("failed to look up applied action")
		return AppliedRecord{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return record, nil
}

// WriteResource creates or updates a resource with its history row.
// It returns ErrResourceExists for a create on an existing key and
// ErrVersionConflict when the stored version is not write.ExpectedVersion.
func (r *resourceRepository) WriteResource(ctx context.Context, write ResourceWrite) (models.Resource, error) {
	return writeResource(ctx, r.DB, write)
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func writeResource(ctx context.Context, q rowQuerier, write ResourceWrite) (models.Resource, error) {
	log := logger.FromContext(ctx)

	var (
		resource models.Resource
		err      error
		missing  error
	)
	if write.ExpectedVersion == 0 {
		resource, err = scanResource(q.QueryRowContext(ctx, createResource,
			write.Key,
			models.ResourceKind(write.Key),
			write.OwnerID,
			write.Snapshot,
			write.DeviceID,
			write.At,
			write.ActionID,
		))
		missing = ErrResourceExists
	} else {
		resource, err = scanResource(q.QueryRowContext(ctx, updateResource,
			write.Key,
			write.Snapshot,
			write.DeviceID,
			write.At,
			write.ExpectedVersion,
			write.ActionID,
		))
		missing = ErrVersionConflict
	}

	switch {
	case isNoRows(err):
		return models.Resource{}, fmt.Errorf("%w: %s", missing, write.Key)
	case isUniqueViolation(err):
		return models.Resource{}, fmt.Errorf("%w: %s", ErrActionAlreadyApplied, write.ActionID)
	case err != nil:
		log.Err(err).
			Str("func", "resourceRepository.WriteResource").
			Str("resource_key", write.Key).
			Str("action_id", write.ActionID).
			Int64("expected_version", write.ExpectedVersion).
			Msg("failed to write resource")
		return models.Resource{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return resource, nil
}

func scanResource(row rowScanner) (models.Resource, error) {
	var resource models.Resource
	err := row.Scan(
		&resource.Key,
		&resource.Kind,
		&resource.OwnerID,
		&resource.Version,
		&resource.Snapshot,
		&resource.UpdatedBy,
		&resource.UpdatedAt,
	)
	return resource, err
}

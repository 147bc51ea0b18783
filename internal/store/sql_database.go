// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/migrations"
)

// ErrorClassificator decides whether a failed database call may be retried.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

// DB wraps *sql.DB with the driver-specific error classifier and the
// squirrel builder matching the driver placeholder format.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	builder            sq.StatementBuilderType
	migrate            func(context.Context, *sql.DB) error
	logger             *logger.Logger
}

// Migrate applies the embedded schema of the connected database.
func (db *DB) Migrate(ctx context.Context) error {
	if db.migrate == nil {
		return migrations.MigrateServer(ctx, db.DB)
	}
	return db.migrate(ctx, db.DB)
}

// IsRetryable reports whether err is a transient database failure.
func (db *DB) IsRetryable(err error) bool {
	if err == nil || db.errorClassificator == nil {
		return false
	}
	return db.errorClassificator.Classify(err) == Retryable
}

package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

// ClientStorages groups all device-local repositories. They share one
// SQLite connection.
type ClientStorages struct {
	Actions   ActionRepository
	Proofs    ProofRepository
	Devices   DeviceStateRepository
	Conflicts LocalConflictRepository

	db *DB
}

// NewClientStorages opens the SQLite file named in cfg.DB.DSN, creating it
// when needed, and applies pending migrations.
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, logger *logger.Logger) (*ClientStorages, error) {
	logger.Debug().Msg("creating client storages...")

	db, err := NewConnectSQLite(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return newClientStorages(db, logger), nil
}

func newClientStorages(db *DB, logger *logger.Logger) *ClientStorages {
	return &ClientStorages{
		Actions:   NewLocalActionRepository(db, logger),
		Proofs:    NewLocalProofRepository(db, logger),
		Devices:   NewLocalDeviceStateRepository(db, logger),
		Conflicts: NewLocalConflictRepository(db, logger),
		db:        db,
	}
}

// Close releases the database connection.
func (s *ClientStorages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

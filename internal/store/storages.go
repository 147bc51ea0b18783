package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

// Storages groups the server-side storage backends.
type Storages struct {
	Devices     DeviceRepository
	Resources   ResourceRepository
	Conflicts   ConflictRepository
	Idempotency IdempotencyCache

	// Documents is nil when neither a bucket nor a local dir is configured.
	Documents DocumentStore

	db *DB
}

// NewStorages connects to PostgreSQL, applies migrations, opens the
// idempotency cache and picks the document store.
func NewStorages(ctx context.Context, cfg config.Storage, log *logger.Logger) (*Storages, error) {
	log.Info().Msg("creating new storages...")

	db, err := NewConnectPostgres(ctx, cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	if err = db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	cache, err := NewIdempotencyCache(cfg.Idempotency, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	documents, err := newDocumentStore(ctx, cfg.Documents, log)
	if err != nil {
		cache.Close()
		db.Close()
		return nil, err
	}

	return &Storages{
		Devices:     NewDeviceRepository(db, log),
		Resources:   NewResourceRepository(db, log),
		Conflicts:   NewConflictRepository(db, log),
		Idempotency: cache,
		Documents:   documents,
		db:          db,
	}, nil
}

func newDocumentStore(ctx context.Context, cfg config.Documents, log *logger.Logger) (DocumentStore, error) {
	if cfg.Bucket != "" {
		return NewS3DocumentStore(ctx, cfg, log)
	}
	documents, err := NewFileDocumentStore(cfg.LocalDir)
	if errors.Is(err, ErrDocumentStoreDisabled) {
		log.Warn().Msg("no document store configured, upload_document actions get no upload target")
		return nil, nil
	}
	return documents, err
}

// Close releases the cache and the database connection.
func (s *Storages) Close() error {
	var errs []error
	if s.Idempotency != nil {
		errs = append(errs, s.Idempotency.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

const idempotencyKeyPrefix = "submit/"

// badgerIdempotencyCache keeps submit results in badger with a per-entry
// TTL. Expired entries disappear on read; the value log is reclaimed by
// RunGC.
type badgerIdempotencyCache struct {
	db     *badger.DB
	ttl    time.Duration
	logger *logger.Logger
}

// NewIdempotencyCache opens the cache. An empty cfg.Dir keeps it in memory.
func NewIdempotencyCache(cfg config.Idempotency, log *logger.Logger) (IdempotencyCache, error) {
	opts := badger.DefaultOptions(cfg.Dir).
		WithLogger(badgerLogger{log}).
		WithLoggingLevel(badger.WARNING)
	if cfg.Dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		log.Err(err).Str("func", "NewIdempotencyCache").Msg("failed to open idempotency cache")
		return nil, fmt.Errorf("open idempotency cache: %w", err)
	}

	return &badgerIdempotencyCache{
		db:     db,
		ttl:    cfg.TTL,
		logger: log,
	}, nil
}

func (c *badgerIdempotencyCache) Get(ctx context.Context, key string) (models.SubmitResult, error) {
	var result models.SubmitResult
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(idempotencyKeyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &result)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.SubmitResult{}, ErrCacheMiss
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "badgerIdempotencyCache.Get").
			Str("idempotency_key", key).
			Msg("failed to read idempotency cache")
		return models.SubmitResult{}, fmt.Errorf("read idempotency cache: %w", err)
	}
	return result, nil
}

// Put records result under key. OutcomeError results are never cached. A
// zero TTL keeps entries until the cache is dropped.
func (c *badgerIdempotencyCache) Put(ctx context.Context, key string, result models.SubmitResult) error {
	if result.Outcome == models.OutcomeError {
		return nil
	}

	value, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodingValue, err)
	}

	entry := badger.NewEntry([]byte(idempotencyKeyPrefix+key), value)
	if c.ttl > 0 {
		entry = entry.WithTTL(c.ttl)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "badgerIdempotencyCache.Put").
			Str("idempotency_key", key).
			Msg("failed to write idempotency cache")
		return fmt.Errorf("write idempotency cache: %w", err)
	}
	return nil
}

// RunGC rewrites value log files until badger reports nothing to collect.
func (c *badgerIdempotencyCache) RunGC(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.db.RunValueLogGC(0.5)
		switch {
		case err == nil:
			continue
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
			return nil
		default:
			return fmt.Errorf("idempotency cache gc: %w", err)
		}
	}
}

func (c *badgerIdempotencyCache) Close() error {
	return c.db.Close()
}

// badgerLogger routes badger's internal logging through zerolog.
type badgerLogger struct {
	log *logger.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.log.Error().Str("component", "badger").Msgf(format, args...)
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.log.Warn().Str("component", "badger").Msgf(format, args...)
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.log.Info().Str("component", "badger").Msgf(format, args...)
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.log.Debug().Str("component", "badger").Msgf(format, args...)
}

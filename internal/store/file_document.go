package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

// MethodFile marks an upload target that is a path on the server host.
const MethodFile = "FILE"

// fileDocumentStore places document bodies under a local directory. It is
// used when no S3 bucket is configured.
type fileDocumentStore struct {
	dir string
}

// NewFileDocumentStore creates dir when missing.
func NewFileDocumentStore(dir string) (DocumentStore, error) {
	if dir == "" {
		return nil, ErrDocumentStoreDisabled
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve documents dir: %w", err)
	}
	if err = os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}
	return &fileDocumentStore{dir: abs}, nil
}

func (f *fileDocumentStore) UploadTarget(ctx context.Context, key string, contentType string, size int64) (models.UploadTarget, error) {
	now := time.Now()
	storageKey := documentStorageKey(key, now)
	path := filepath.Join(f.dir, filepath.FromSlash(storageKey))

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return models.UploadTarget{}, fmt.Errorf("create document dir: %w", err)
	}

	return models.UploadTarget{
		Method:     MethodFile,
		URL:        "file://" + filepath.ToSlash(path),
		Headers:    map[string]string{"Content-Type": contentType},
		StorageKey: storageKey,
		ExpiresAt:  now.UTC(),
	}, nil
}

package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

type appInfoService struct {
	appVersion string

	logger *logger.Logger
}

// NewAppInfoService returns the service behind GET /api/version.
func NewAppInfoService(cfg config.App, logger *logger.Logger) (AppInfoService, error) {
	if cfg.Version == "" {
		return nil, ErrVersionIsNotSpecified
	}

	return &appInfoService{
		appVersion: cfg.Version,
		logger:     logger,
	}, nil
}

func (s *appInfoService) GetAppVersion(ctx context.Context) string {
	return s.appVersion
}

type resourceService struct {
	resources store.ResourceRepository

	logger *logger.Logger
}

func NewResourceService(resources store.ResourceRepository, logger *logger.Logger) ResourceService {
	return &resourceService{resources: resources, logger: logger}
}

func (s *resourceService) GetResource(ctx context.Context, key string) (models.Resource, error) {
	if models.ResourceKind(key) == key {
		return models.Resource{}, fmt.Errorf("%w: malformed resource key %q", ErrInvalidDataProvided, key)
	}
	return s.resources.GetResource(ctx, key)
}

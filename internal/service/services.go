package service

import (
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/internal/validators"
)

// Services groups the server-side services.
type Services struct {
	ActionProcessor  ActionProcessor
	ConflictResolver ConflictResolver
	DeviceRegistry   DeviceRegistry
	ResourceService  ResourceService
	AppInfoService   AppInfoService

	Metrics *ProcessorMetrics
}

func NewServices(storages *store.Storages, cfg config.StructuredConfig, logger *logger.Logger) (*Services, error) {
	validator, err := validators.NewActionValidator()
	if err != nil {
		return nil, fmt.Errorf("create action validator: %w", err)
	}

	appInfo, err := NewAppInfoService(cfg.App, logger)
	if err != nil {
		return nil, err
	}

	locks := NewKeyedLocker()
	metrics := NewProcessorMetrics()

	return &Services{
		ActionProcessor:  NewActionProcessor(storages, validator, locks, metrics, utils.NewULIDGenerator(), logger),
		ConflictResolver: NewConflictResolver(storages, validator, locks, metrics, logger),
		DeviceRegistry:   NewDeviceRegistry(storages.Devices, validator, logger),
		ResourceService:  NewResourceService(storages.Resources, logger),
		AppInfoService:   appInfo,
		Metrics:          metrics,
	}, nil
}

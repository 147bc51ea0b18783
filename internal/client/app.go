package client

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/crypto"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/internal/workers"
	"github.com/MKhiriev/go-offline-sync/models"
)

const identityFileName = "identity.json"

// App is one device: its local storage, the server adapter and the client
// services built over them.
type App struct {
	cfg      *config.ClientConfig
	services *service.ClientServices

	closers []func() error
	logger  *logger.Logger
}

// AppBuilder builds the App the CLI commands run against.
type AppBuilder func(ctx context.Context, opts config.ClientOptions) (*App, error)

// NewApp loads the client config, the device identity (creating one on
// first use), opens the local database and connects the server adapter.
func NewApp(ctx context.Context, opts config.ClientOptions) (*App, error) {
	cfg, err := config.GetClientConfig(opts)
	if err != nil {
		return nil, err
	}

	log := logger.NewClientLogger("offline-sync-client", cfg.Device.DataDir)

	key, created, err := crypto.LoadOrCreateIdentity(
		filepath.Join(cfg.Device.DataDir, identityFileName),
		utils.NewUUIDGenerator().Generate,
	)
	if err != nil {
		return nil, fmt.Errorf("load device identity: %w", err)
	}
	if created {
		log.Info().Str("device_id", key.DeviceID()).Msg("new device identity created")
	}
	log = log.WithDevice(key.DeviceID())

	storages, err := store.NewClientStorages(ctx, cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	serverAdapter, err := newServerAdapter(cfg, key.DeviceID(), log)
	if err != nil {
		storages.Close()
		return nil, err
	}

	services, err := service.NewClientServices(storages, serverAdapter, key, cfg, log)
	if err != nil {
		serverAdapter.Close()
		storages.Close()
		return nil, err
	}

	return &App{
		cfg:      cfg,
		services: services,
		closers:  []func() error{serverAdapter.Close, storages.Close},
		logger:   log,
	}, nil
}

func newServerAdapter(cfg *config.ClientConfig, deviceID string, log *logger.Logger) (adapter.ServerAdapter, error) {
	switch cfg.Adapter.Transport {
	case config.TransportGRPC:
		return adapter.NewGRPCServerAdapter(cfg.Adapter, cfg.App, deviceID, log)
	default:
		return adapter.NewHTTPServerAdapter(cfg.Adapter, cfg.App, deviceID, log)
	}
}

// Close releases the adapter connection and the local database.
func (a *App) Close() error {
	var errs []error
	for _, closeFn := range a.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}

// Run keeps the device syncing until ctx is done: it registers the device,
// probes connectivity, reacts to network transitions, triggers periodic
// passes and sweeps old synced actions.
func (a *App) Run(ctx context.Context) error {
	ctx = a.logger.WithContext(ctx)

	if _, err := a.services.Device.Register(ctx, nil); err != nil {
		a.logger.Warn().Err(err).Msg("device registration failed, continuing offline")
	}

	return a.workers().Run(ctx)
}

func (a *App) workers() *workers.Workers {
	cfg := a.cfg.Workers
	return workers.NewWorkers(a.logger,
		workers.Func(func(ctx context.Context) error {
			return a.services.Monitor.Run(ctx, cfg.ProbeInterval)
		}),
		workers.Func(a.services.Coordinator.Run),
		workers.Func(func(ctx context.Context) error {
			a.services.SyncJob.Start(ctx, cfg.SyncInterval)
			<-ctx.Done()
			a.services.SyncJob.Stop()
			return nil
		}),
		workers.Every("purge", cfg.PurgeInterval, a.logger, func(ctx context.Context) error {
			purged, err := a.services.Actions.PurgeSynced(ctx, a.services.DeviceID, cfg.PurgeRetention)
			if purged > 0 {
				a.logger.Info().Int64("purged", purged).Msg("synced actions purged")
			}
			return err
		}),
	)
}

// SyncNow runs one manual pass, probing the network first so a pass is not
// refused on a stale offline state.
func (a *App) SyncNow(ctx context.Context) (models.PassReport, error) {
	ctx = a.logger.WithContext(ctx)
	a.services.Monitor.ProbeNow(ctx)
	return a.services.Coordinator.RunPass(ctx, models.TriggerManual)
}

package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Supported client transports.
const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// ClientApp holds client-side application settings derived from the shared
// structured config.
type ClientApp struct {
	// HashKey is the HMAC key used by the client for batch integrity checks.
	HashKey string
	// Version is reported by the status command.
	Version string
}

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// HTTPAddress is the HTTP endpoint address used by the client.
	HTTPAddress string
	// GRPCAddress is the gRPC endpoint address used by the client.
	GRPCAddress string
	// Transport is either TransportHTTP or TransportGRPC.
	Transport string
	// RequestTimeout is the default timeout for outbound client requests.
	RequestTimeout time.Duration
}

// ClientDB contains local database connection settings for the client.
type ClientDB struct {
	// DSN is the SQLite file path used by the client.
	DSN string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// DB holds local database settings.
	DB ClientDB
}

// ClientWorkers contains client background worker settings.
type ClientWorkers struct {
	// SyncInterval defines how often the periodic sync trigger fires.
	SyncInterval time.Duration
	// ProbeInterval defines how often connectivity is probed.
	ProbeInterval time.Duration
	// PurgeInterval defines how often the retention sweep runs.
	PurgeInterval time.Duration
	// PurgeRetention is how long synced actions are kept.
	PurgeRetention time.Duration
}

// ClientDevice identifies the local device and its owner.
type ClientDevice struct {
	// DataDir holds the database, device identity and logs.
	DataDir string
	// UserID is stamped on every enqueued action.
	UserID string
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// App contains application-level client settings.
	App ClientApp
	// Adapter contains client transport addresses and timeouts.
	Adapter ClientAdapter
	// Storage contains client storage settings.
	Storage ClientStorage
	// Workers contains background job settings.
	Workers ClientWorkers
	// Sync contains coordinator tuning.
	Sync Sync
	// Device contains identity and data directory settings.
	Device ClientDevice
}

// ClientOptions are command-line overrides supplied by the client CLI.
// Zero values leave the underlying configuration untouched.
type ClientOptions struct {
	ConfigPath    string
	DataDir       string
	ServerAddress string
	GRPCAddress   string
	Transport     string
	UserID        string
	HashKey       string
}

func (o ClientOptions) layer() *StructuredConfig {
	return &StructuredConfig{
		App:     App{HashKey: o.HashKey},
		Adapter: Adapter{HTTPAddress: o.ServerAddress, GRPCAddress: o.GRPCAddress, Transport: o.Transport},
		Client:  Client{DataDir: o.DataDir, UserID: o.UserID},

		JSONFilePath: o.ConfigPath,
	}
}

// GetClientConfig builds and validates a client-specific config view.
//
// Layers are defaults, .env, environment, JSON file and finally opts, so
// flags given to the CLI always win.
func GetClientConfig(opts ClientOptions) (*ClientConfig, error) {
	b := newConfigBuilder().
		withDefaults().
		withDotEnv().
		withEnv().
		with(&StructuredConfig{JSONFilePath: opts.ConfigPath}).
		withJSON().
		with(opts.layer())

	cfg, err := b.merge()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return newClientConfig(cfg)
}

func newClientConfig(cfg *StructuredConfig) (*ClientConfig, error) {
	dsn := cfg.Storage.DB.DSN
	if dsn == "" {
		dsn = filepath.Join(cfg.Client.DataDir, "client.db")
	}

	clientCfg := &ClientConfig{
		App: ClientApp{
			HashKey: cfg.App.HashKey,
			Version: cfg.App.Version,
		},
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			GRPCAddress:    cfg.Adapter.GRPCAddress,
			Transport:      cfg.Adapter.Transport,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{
			DB: ClientDB{
				DSN: dsn,
			},
		},
		Workers: ClientWorkers{
			SyncInterval:   cfg.Workers.SyncInterval,
			ProbeInterval:  cfg.Workers.ProbeInterval,
			PurgeInterval:  cfg.Workers.PurgeInterval,
			PurgeRetention: cfg.Workers.PurgeRetention,
		},
		Sync: cfg.Sync,
		Device: ClientDevice{
			DataDir: cfg.Client.DataDir,
			UserID:  cfg.Client.UserID,
		},
	}

	return clientCfg, clientCfg.validate()
}

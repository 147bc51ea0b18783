package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] for JSON files, with
// durations accepted as strings ("30s") or nanoseconds.
type StructuredJSONConfig struct {
	App struct {
		HashKey string `json:"hash_key"`
		Version string `json:"version"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`

		Idempotency struct {
			Dir string   `json:"dir"`
			TTL Duration `json:"ttl"`
		} `json:"idempotency,omitempty"`

		Documents struct {
			Bucket     string   `json:"bucket"`
			Region     string   `json:"region"`
			Endpoint   string   `json:"endpoint"`
			AccessKey  string   `json:"access_key"`
			SecretKey  string   `json:"secret_key"`
			PresignTTL Duration `json:"presign_ttl"`
			LocalDir   string   `json:"local_dir"`
		} `json:"documents,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		GRPCAddress    string   `json:"grpc_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`

	Adapter struct {
		HTTPAddress    string   `json:"http_address"`
		GRPCAddress    string   `json:"grpc_address"`
		Transport      string   `json:"transport"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"adapter,omitempty"`

	Workers struct {
		SyncInterval   Duration `json:"sync_interval"`
		ProbeInterval  Duration `json:"probe_interval"`
		PurgeInterval  Duration `json:"purge_interval"`
		PurgeRetention Duration `json:"purge_retention"`
		GCInterval     Duration `json:"gc_interval"`
	} `json:"workers,omitempty"`

	Sync struct {
		MaxRetries             int      `json:"max_retries"`
		BaseDelay              Duration `json:"base_delay"`
		MaxDelay               Duration `json:"max_delay"`
		Pipeline               int      `json:"pipeline"`
		CallTimeout            Duration `json:"call_timeout"`
		DegradedLatency        Duration `json:"degraded_latency"`
		DegradedBatchThreshold int      `json:"degraded_batch_threshold"`
		ProofValidity          Duration `json:"proof_validity"`
	} `json:"sync,omitempty"`

	Client struct {
		DataDir string `json:"data_dir"`
		UserID  string `json:"user_id"`
	} `json:"client,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			HashKey: jsonCfg.App.HashKey,
			Version: jsonCfg.App.Version,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
			Idempotency: Idempotency{
				Dir: jsonCfg.Storage.Idempotency.Dir,
				TTL: time.Duration(jsonCfg.Storage.Idempotency.TTL),
			},
			Documents: Documents{
				Bucket:     jsonCfg.Storage.Documents.Bucket,
				Region:     jsonCfg.Storage.Documents.Region,
				Endpoint:   jsonCfg.Storage.Documents.Endpoint,
				AccessKey:  jsonCfg.Storage.Documents.AccessKey,
				SecretKey:  jsonCfg.Storage.Documents.SecretKey,
				PresignTTL: time.Duration(jsonCfg.Storage.Documents.PresignTTL),
				LocalDir:   jsonCfg.Storage.Documents.LocalDir,
			},
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			GRPCAddress:    jsonCfg.Server.GRPCAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
		},
		Adapter: Adapter{
			HTTPAddress:    jsonCfg.Adapter.HTTPAddress,
			GRPCAddress:    jsonCfg.Adapter.GRPCAddress,
			Transport:      jsonCfg.Adapter.Transport,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
		},
		Workers: Workers{
			SyncInterval:   time.Duration(jsonCfg.Workers.SyncInterval),
			ProbeInterval:  time.Duration(jsonCfg.Workers.ProbeInterval),
			PurgeInterval:  time.Duration(jsonCfg.Workers.PurgeInterval),
			PurgeRetention: time.Duration(jsonCfg.Workers.PurgeRetention),
			GCInterval:     time.Duration(jsonCfg.Workers.GCInterval),
		},
		Sync: Sync{
			MaxRetries:             jsonCfg.Sync.MaxRetries,
			BaseDelay:              time.Duration(jsonCfg.Sync.BaseDelay),
			MaxDelay:               time.Duration(jsonCfg.Sync.MaxDelay),
			Pipeline:               jsonCfg.Sync.Pipeline,
			CallTimeout:            time.Duration(jsonCfg.Sync.CallTimeout),
			DegradedLatency:        time.Duration(jsonCfg.Sync.DegradedLatency),
			DegradedBatchThreshold: jsonCfg.Sync.DegradedBatchThreshold,
			ProofValidity:          time.Duration(jsonCfg.Sync.ProofValidity),
		},
		Client: Client{
			DataDir: jsonCfg.Client.DataDir,
			UserID:  jsonCfg.Client.UserID,
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

const appDirName = "go-offline-sync"

// Defaults returns the lowest-priority configuration layer.
func Defaults() *StructuredConfig {
	return &StructuredConfig{
		App: App{Version: "dev"},
		Storage: Storage{
			Idempotency: Idempotency{TTL: time.Hour},
			Documents:   Documents{PresignTTL: 15 * time.Minute},
		},
		Server: Server{
			HTTPAddress:    "localhost:8080",
			RequestTimeout: 30 * time.Second,
		},
		Adapter: Adapter{
			HTTPAddress:    "localhost:8080",
			Transport:      TransportHTTP,
			RequestTimeout: 15 * time.Second,
		},
		Workers: Workers{
			SyncInterval:   5 * time.Minute,
			ProbeInterval:  15 * time.Second,
			PurgeInterval:  time.Hour,
			PurgeRetention: 7 * 24 * time.Hour,
			GCInterval:     10 * time.Minute,
		},
		Sync: Sync{
			MaxRetries:             3,
			BaseDelay:              time.Second,
			MaxDelay:               5 * time.Minute,
			Pipeline:               4,
			CallTimeout:            10 * time.Second,
			DegradedLatency:        2 * time.Second,
			DegradedBatchThreshold: 50,
			ProofValidity:          24 * time.Hour,
		},
		Client: Client{
			DataDir: DefaultDataDir(),
		},
		EnvFile: ".env",
	}
}

// DefaultDataDir is the per-user data directory of the client.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, appDirName)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "strings"

// validate checks that the final merged [StructuredConfig] satisfies the
// server's invariants before it is used at startup.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Server.HTTPAddress == "" && cfg.Server.GRPCAddress == "" {
		return ErrInvalidServerConfigs
	}

	if cfg.Storage.Idempotency.TTL <= 0 {
		return ErrInvalidStorageConfigs
	}

	if cfg.Workers.GCInterval <= 0 {
		return ErrInvalidWorkerConfigs
	}

	if cfg.App.HashKey == "" {
		return ErrInvalidAppConfigs
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.RequestTimeout == 0 {
		return ErrInvalidAdapterConfigs
	}

	switch cfg.Adapter.Transport {
	case TransportHTTP:
		if cfg.Adapter.HTTPAddress == "" {
			return ErrInvalidAdapterConfigs
		}
	case TransportGRPC:
		if cfg.Adapter.GRPCAddress == "" {
			return ErrInvalidAdapterConfigs
		}
	default:
		return ErrInvalidAdapterConfigs
	}

	if cfg.Workers.SyncInterval == 0 || cfg.Workers.ProbeInterval == 0 {
		return ErrInvalidWorkerConfigs
	}

	if cfg.App.HashKey == "" {
		return ErrInvalidAppConfigs
	}

	s := cfg.Sync
	if s.Pipeline < 1 || s.MaxRetries < 0 || s.BaseDelay <= 0 || s.MaxDelay < s.BaseDelay || s.CallTimeout <= 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "context"

// Client is the lifecycle of a device agent.
type Client interface {
	// Run keeps the device syncing and blocks until ctx is done.
	Run(ctx context.Context) error

	// Close releases the local database and the server connection.
	Close() error
}

var _ Client = (*App)(nil)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"strings"
	"time"
)

// Resource is the server-of-record state addressed by a resource key.
type Resource struct {
	Key       string    `json:"key"`
	Kind      string    `json:"kind"`
	OwnerID   string    `json:"owner_id"`
	Version   int64     `json:"version"`
	Snapshot  Snapshot  `json:"snapshot"`
	UpdatedBy string    `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResourceKind returns the kind prefix of a resource key.
func ResourceKind(key string) string {
	kind, _, _ := strings.Cut(key, ":")
	return kind
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"maps"
)

// Snapshot is a JSON object describing resource state. It is stored as
// JSONB on the server and as TEXT on the client.
type Snapshot map[string]any

// Value implements driver.Valuer.
func (s Snapshot) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *Snapshot) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("snapshot: unsupported source type %T", src)
	}

	var out Snapshot
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	*s = out
	return nil
}

// Clone returns a shallow copy.
func (s Snapshot) Clone() Snapshot {
	return maps.Clone(s)
}

// Normalize round-trips s through JSON so values compare the same way as
// snapshots loaded from storage (numbers become float64).
func (s Snapshot) Normalize() (Snapshot, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out Snapshot
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/models"
)

var (
	ErrEmptyBatch     = errors.New("batch file has no actions")
	ErrDuplicateRef   = errors.New("duplicate ref in batch file")
	ErrMissingPayload = errors.New("action has no payload")
)

// batchFile is the YAML document accepted by "enqueue --file":
//
//	actions:
//	  - ref: profile
//	    type: update_profile
//	    priority: high
//	    payload:
//	      profile_id: p1
//	      fields: {name: Ann}
//	  - type: submit_verification
//	    depends_on: [profile]
//	    payload: {verification_id: v1, profile_id: p1, method: manual}
//
// depends_on entries name the ref of an earlier action in the same file or
// the id of an action already in the queue.
type batchFile struct {
	Actions []batchEntry `yaml:"actions"`
}

type batchEntry struct {
	Ref        string         `yaml:"ref"`
	Type       string         `yaml:"type"`
	Priority   string         `yaml:"priority"`
	MaxRetries int            `yaml:"max_retries"`
	DependsOn  []string       `yaml:"depends_on"`
	Payload    map[string]any `yaml:"payload"`
}

func parseBatch(r io.Reader) ([]batchEntry, error) {
	var file batchFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyBatch
		}
		return nil, fmt.Errorf("decode batch file: %w", err)
	}
	if len(file.Actions) == 0 {
		return nil, ErrEmptyBatch
	}

	seen := make(map[string]struct{}, len(file.Actions))
	for _, entry := range file.Actions {
		if entry.Ref == "" {
			continue
		}
		if _, ok := seen[entry.Ref]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRef, entry.Ref)
		}
		seen[entry.Ref] = struct{}{}
	}
	return file.Actions, nil
}

// action converts the entry into an action of deviceID. refs maps the refs
// of already enqueued entries to their action ids.
func (e batchEntry) action(deviceID, ownerID string, refs map[string]string) (models.Action, error) {
	if e.Payload == nil {
		return models.Action{}, ErrMissingPayload
	}

	priority, err := parsePriority(e.Priority)
	if err != nil {
		return models.Action{}, err
	}

	raw, err := json.Marshal(e.Payload)
	if err != nil {
		return models.Action{}, fmt.Errorf("encode payload: %w", err)
	}
	actionType := models.ActionType(e.Type)
	payload, err := models.DecodePayload(actionType, raw)
	if err != nil {
		return models.Action{}, err
	}

	dependencies := make([]string, 0, len(e.DependsOn))
	for _, dep := range e.DependsOn {
		if id, ok := refs[dep]; ok {
			dep = id
		}
		dependencies = append(dependencies, dep)
	}

	return models.Action{
		Type:         actionType,
		Payload:      payload,
		OwnerID:      ownerID,
		DeviceID:     deviceID,
		Priority:     priority,
		MaxRetries:   e.MaxRetries,
		Dependencies: dependencies,
	}, nil
}

// enqueueBatch enqueues entries in file order and stops at the first
// rejected entry. Actions enqueued before it stay queued.
func enqueueBatch(ctx context.Context, actions service.ActionStore, deviceID, ownerID string, entries []batchEntry) ([]models.Action, error) {
	refs := make(map[string]string, len(entries))
	enqueued := make([]models.Action, 0, len(entries))

	for i, entry := range entries {
		action, err := entry.action(deviceID, ownerID, refs)
		if err != nil {
			return enqueued, fmt.Errorf("action #%d: %w", i+1, err)
		}

		action, err = actions.Enqueue(ctx, action)
		if err != nil {
			return enqueued, fmt.Errorf("action #%d: %w", i+1, err)
		}

		if entry.Ref != "" {
			refs[entry.Ref] = action.ID
		}
		enqueued = append(enqueued, action)
	}

	return enqueued, nil
}

func parsePriority(s string) (models.Priority, error) {
	if s == "" {
		return models.PriorityMedium, nil
	}
	return models.ParsePriority(s)
}

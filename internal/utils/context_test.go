// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"context"
	"testing"
)

func TestContextKeyString(t *testing.T) {
	key := contextKey("testKey")
	if key.String() != "testKey" {
		t.Errorf("expected 'testKey', got '%s'", key.String())
	}
}

func TestGetDeviceIDFromContext_Success(t *testing.T) {
	ctx := WithDeviceID(context.Background(), "dev-42")

	deviceID, ok := GetDeviceIDFromContext(ctx)
	if !ok {
		t.Fatal("expected ok=true, got false")
	}
	if deviceID != "dev-42" {
		t.Errorf("expected 'dev-42', got '%s'", deviceID)
	}
}

func TestGetDeviceIDFromContext_Missing(t *testing.T) {
	if _, ok := GetDeviceIDFromContext(context.Background()); ok {
		t.Fatal("expected ok=false for empty context")
	}
}

func TestGetDeviceIDFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), DeviceIDCtxKey, 42)
	if _, ok := GetDeviceIDFromContext(ctx); ok {
		t.Fatal("expected ok=false for non-string value")
	}
}

func TestGetDeviceIDFromContext_Empty(t *testing.T) {
	ctx := WithDeviceID(context.Background(), "")
	if _, ok := GetDeviceIDFromContext(ctx); ok {
		t.Fatal("expected ok=false for empty device id")
	}
}

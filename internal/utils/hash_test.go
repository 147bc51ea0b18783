// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/MKhiriev/go-offline-sync/models"
)

const testHashKey = "test-secret-key"

func TestInitHasherPoolAndHash(t *testing.T) {
	InitHasherPool(testHashKey)

	data := []byte("test-data")

	sum1 := Hash(data)
	sum2 := Hash(data)

	if len(sum1) == 0 {
		t.Fatal("hash result is empty")
	}

	if !bytes.Equal(sum1, sum2) {
		t.Fatal("hash must be deterministic for the same input")
	}

	h := hmac.New(sha256.New, []byte(testHashKey))
	h.Write(data)
	expected := h.Sum(nil)

	if !bytes.Equal(sum1, expected) {
		t.Fatalf("unexpected hash value\nwant: %x\ngot:  %x", expected, sum1)
	}
}

func TestHashJSON_SubmitItems(t *testing.T) {
	InitHasherPool(testHashKey)

	items := []models.SubmitItem{{
		IdempotencyKey: "a-1",
		Action: models.Action{
			ID:      "a-1",
			Type:    models.ActionUpdateProfile,
			Payload: &models.UpdateProfilePayload{ProfileID: "p", Fields: map[string]any{"x": "y"}},
		},
	}}

	got, err := HashJSON(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, _ := json.Marshal(items)
	if want := HashString(string(raw), testHashKey); got != want {
		t.Fatalf("pooled and one-off hashes differ\nwant: %s\ngot:  %s", want, got)
	}
	if _, err := hex.DecodeString(got); err != nil {
		t.Fatalf("hash is not hex: %v", err)
	}
}

func TestHashJSON_Unencodable(t *testing.T) {
	InitHasherPool(testHashKey)
	if _, err := HashJSON(make(chan int)); err == nil {
		t.Fatal("expected error for unencodable value")
	}
}

func TestEqualHash(t *testing.T) {
	if !EqualHash("abc", "abc") {
		t.Fatal("expected equal hashes")
	}
	if EqualHash("abc", "abd") {
		t.Fatal("expected different hashes")
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/hkdf"
)

const (
	// deviceKeyInfo is the HKDF info label for placeholder signing keys.
	deviceKeyInfo = "offline-sync/device-signing-key/v1"

	// secretSize is the length of the random device secret.
	secretSize = 32
)

// DeviceKey is the ed25519 signing identity of a device.
type DeviceKey struct {
	deviceID string
	private  ed25519.PrivateKey
}

// DeriveDeviceKey derives the device signing key from a device secret with
// HKDF-SHA256, salted with the device id. The same inputs always give the
// same key.
func DeriveDeviceKey(deviceID string, secret []byte) (*DeviceKey, error) {
	if deviceID == "" || len(secret) == 0 {
		return nil, ErrInvalidIdentity
	}

	seed := make([]byte, ed25519.SeedSize)
	r := hkdf.New(sha256.New, secret, []byte(deviceID), []byte(deviceKeyInfo))
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, fmt.Errorf("derive device key: %w", err)
	}

	return &DeviceKey{deviceID: deviceID, private: ed25519.NewKeyFromSeed(seed)}, nil
}

// DeviceID returns the device the key belongs to.
func (k *DeviceKey) DeviceID() string {
	return k.deviceID
}

// PublicKey returns the verification key.
func (k *DeviceKey) PublicKey() ed25519.PublicKey {
	return k.private.Public().(ed25519.PublicKey)
}

// PublicKeyBase64 returns the verification key in the form sent at device
// registration.
func (k *DeviceKey) PublicKeyBase64() string {
	return base64.StdEncoding.EncodeToString(k.PublicKey())
}

// ParsePublicKey decodes a base64 ed25519 public key.
func ParsePublicKey(encoded string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, ErrInvalidPublicKey
	}
	return ed25519.PublicKey(raw), nil
}

type identityFile struct {
	DeviceID string `json:"device_id"`
	Secret   string `json:"secret"`
}

// LoadOrCreateIdentity reads the device identity stored at path or, when
// it does not exist yet, creates one with a fresh id from newID and a
// random secret. created reports whether a new identity was written.
func LoadOrCreateIdentity(path string, newID func() string) (key *DeviceKey, created bool, err error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var id identityFile
		if err := json.Unmarshal(data, &id); err != nil {
			return nil, false, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
		}
		secret, err := base64.StdEncoding.DecodeString(id.Secret)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
		}
		key, err := DeriveDeviceKey(id.DeviceID, secret)
		return key, false, err
	case !errors.Is(err, fs.ErrNotExist):
		return nil, false, fmt.Errorf("read device identity: %w", err)
	}

	secret := make([]byte, secretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, false, fmt.Errorf("generate device secret: %w", err)
	}

	id := identityFile{DeviceID: newID(), Secret: base64.StdEncoding.EncodeToString(secret)}
	data, err = json.Marshal(id)
	if err != nil {
		return nil, false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, false, fmt.Errorf("create identity dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, false, fmt.Errorf("write device identity: %w", err)
	}

	key, err = DeriveDeviceKey(id.DeviceID, secret)
	return key, true, err
}

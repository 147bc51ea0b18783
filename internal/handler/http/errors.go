// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors produced by the transport itself, before a request reaches
// the service layer.
var (
	// ErrEmptyDeviceIDHeader is returned when a device route is called
	// without the X-Device-ID header.
	ErrEmptyDeviceIDHeader = errors.New("empty `X-Device-ID` header")

	// ErrForeignDevice is returned when the device named in the path or body
	// differs from the calling device.
	ErrForeignDevice = errors.New("request targets another device")

	// ErrIntegrityCheckFailed is returned when the batch hash does not match
	// the submitted items.
	ErrIntegrityCheckFailed = errors.New("integrity check failed")

	// ErrBodyTooLarge is returned when a request body exceeds maxBodyBytes.
	ErrBodyTooLarge = errors.New("request body too large")
)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
)

// withDevice identifies the calling device by the X-Device-ID header.
//
// The id is stored in the request context under [utils.DeviceIDCtxKey] and
// added to the request logger. The registry's last-seen time is refreshed on
// every call. An unknown device is let through: the action processor reports
// it per item, so the device learns to register again.
func (h *Handler) withDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		deviceID := r.Header.Get(utils.DeviceIDHeader)
		if deviceID == "" {
			log.Err(ErrEmptyDeviceIDHeader).Send()
			writeError(w, ErrEmptyDeviceIDHeader)
			return
		}

		ctx := r.Context()
		err := h.services.DeviceRegistry.Touch(ctx, deviceID)
		switch {
		case errors.Is(err, store.ErrDeviceNotFound):
			log.Warn().Str("device_id", deviceID).Msg("request from unregistered device")
		case err != nil:
			log.Err(err).Str("device_id", deviceID).Msg("failed to touch device")
		}

		ctx = log.WithDevice(deviceID).WithContext(ctx)
		ctx = utils.WithDeviceID(ctx, deviceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

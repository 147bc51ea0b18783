package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

func (h *Handler) registerDevice(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	var req models.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.registerDevice").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	// the header is optional here, but must agree with the body when set
	if header := r.Header.Get(utils.DeviceIDHeader); header != "" && header != req.DeviceID {
		log.Error().Str("func", "*Handler.registerDevice").
			Str("header_device_id", header).
			Str("body_device_id", req.DeviceID).
			Msg("device id mismatch")
		writeError(w, ErrForeignDevice)
		return
	}

	state, err := h.services.DeviceRegistry.Register(r.Context(), req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.registerDevice").Msg("error registering device")
		writeError(w, err)
		return
	}

	utils.WriteJSON(w, state, http.StatusOK)
}

func (h *Handler) getDevice(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := h.ownDevice(w, r)
	if !ok {
		return
	}

	state, err := h.services.DeviceRegistry.Get(r.Context(), deviceID)
	if err != nil {
		logger.FromRequest(r).Err(err).Str("func", "*Handler.getDevice").Msg("error getting device")
		writeError(w, err)
		return
	}

	utils.WriteJSON(w, state, http.StatusOK)
}

func (h *Handler) reportCheckpoint(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	deviceID, ok := h.ownDevice(w, r)
	if !ok {
		return
	}

	var req models.CheckpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.reportCheckpoint").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}
	req.DeviceID = deviceID

	resp, err := h.services.DeviceRegistry.UpdateCheckpoint(r.Context(), req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.reportCheckpoint").Msg("error updating checkpoint")
		writeError(w, err)
		return
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}

// ownDevice returns the {deviceID} path parameter. A device may only read
// and write its own registry row.
func (h *Handler) ownDevice(w http.ResponseWriter, r *http.Request) (string, bool) {
	deviceID := chi.URLParam(r, "deviceID")
	caller, _ := utils.GetDeviceIDFromContext(r.Context())
	if deviceID != caller {
		logger.FromRequest(r).Error().
			Str("path_device_id", deviceID).
			Msg("device id mismatch")
		writeError(w, ErrForeignDevice)
		return "", false
	}
	return deviceID, true
}

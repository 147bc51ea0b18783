package http

import (
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

// submitBatch runs POST /api/actions/batch. Per-item failures are reported
// inside the 200 response; only a malformed batch is an HTTP error.
func (h *Handler) submitBatch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	var req models.SubmitBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.submitBatch").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	caller, _ := utils.GetDeviceIDFromContext(r.Context())
	if req.DeviceID != caller {
		log.Error().Str("func", "*Handler.submitBatch").
			Str("body_device_id", req.DeviceID).
			Msg("batch submitted for another device")
		writeError(w, ErrForeignDevice)
		return
	}

	resp, err := h.services.ActionProcessor.SubmitBatch(r.Context(), req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.submitBatch").Msg("error submitting batch")
		writeError(w, err)
		return
	}

	log.Debug().Int("items", len(req.Items)).Msg("batch processed")
	utils.WriteJSON(w, resp, http.StatusOK)
}

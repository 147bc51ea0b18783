package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

// listConflicts runs GET /api/conflicts?device_id=...&open=true. The
// device_id parameter defaults to the caller.
func (h *Handler) listConflicts(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	caller, _ := utils.GetDeviceIDFromContext(r.Context())
	deviceID := r.URL.Query().Get("device_id")
	if deviceID == "" {
		deviceID = caller
	}
	if deviceID != caller {
		writeError(w, ErrForeignDevice)
		return
	}

	var openOnly bool
	if raw := r.URL.Query().Get("open"); raw != "" {
		var err error
		if openOnly, err = strconv.ParseBool(raw); err != nil {
			http.Error(w, "invalid `open` parameter", http.StatusBadRequest)
			return
		}
	}

	conflicts, err := h.services.ConflictResolver.ListConflicts(r.Context(), models.ListConflictsRequest{
		DeviceID: deviceID,
		OpenOnly: openOnly,
	})
	if err != nil {
		log.Err(err).Str("func", "*Handler.listConflicts").Msg("error listing conflicts")
		writeError(w, err)
		return
	}
	if conflicts == nil {
		conflicts = []models.Conflict{}
	}

	utils.WriteJSON(w, conflicts, http.StatusOK)
}

func (h *Handler) resolveConflict(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	var req models.ResolveConflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.resolveConflict").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}
	req.ConflictID = chi.URLParam(r, "conflictID")

	resp, err := h.services.ConflictResolver.Resolve(r.Context(), req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.resolveConflict").
			Str("conflict_id", req.ConflictID).
			Msg("error resolving conflict")
		writeError(w, err)
		return
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}

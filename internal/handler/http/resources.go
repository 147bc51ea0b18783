package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
)

func (h *Handler) getResource(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	resource, err := h.services.ResourceService.GetResource(r.Context(), key)
	if err != nil {
		logger.FromRequest(r).Err(err).Str("func", "*Handler.getResource").
			Str("key", key).
			Msg("error getting resource")
		writeError(w, err)
		return
	}

	utils.WriteJSON(w, resource, http.StatusOK)
}

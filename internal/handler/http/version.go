package http

import (
	"net/http"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

// ping answers the connectivity probe of the devices.
func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, models.PingResponse{Status: "ok", ServerTime: time.Now().UTC()}, http.StatusOK)
}

func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	serverVersion := h.services.AppInfoService.GetAppVersion(r.Context())

	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(serverVersion))
}

func (h *Handler) getMetrics(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, h.services.Metrics.Snapshot(), http.StatusOK)
}

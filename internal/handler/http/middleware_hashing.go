package http

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
)

// batchHashing checks the HMAC a device computes over the items of a batch
// before the body reaches submitBatch. A batch without a hash is refused.
func (h *Handler) batchHashing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		var req struct {
			Items json.RawMessage `json:"items"`
			Hash  string          `json:"hash"`
		}

		body, err := io.ReadAll(r.Body)
		if isBodyTooLarge(err) {
			log.Warn().Str("func", "*Handler.batchHashing").Int("limit", maxBodyBytes).Msg("batch body too large")
			writeError(w, ErrBodyTooLarge)
			return
		}
		if err != nil {
			log.Err(err).Str("func", "*Handler.batchHashing").Msg("failed to read request body")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		// restore request body
		r.Body = io.NopCloser(bytes.NewReader(body))

		if err := json.Unmarshal(body, &req); err != nil {
			log.Err(err).Str("func", "*Handler.batchHashing").Msg("failed to decode JSON")
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		// the hash covers the items exactly as the device encoded them
		hashedItems := hex.EncodeToString(utils.Hash(req.Items))
		if req.Hash == "" || !utils.EqualHash(hashedItems, req.Hash) {
			log.Error().Str("func", "*Handler.batchHashing").
				Str("hash from request", req.Hash).
				Str("hashed items", hashedItems).
				Msg("hashes are not equal")
			writeError(w, ErrIntegrityCheckFailed)
			return
		}

		next.ServeHTTP(w, r)
	})
}

package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseFactID extracts and validates the fact ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on
// error (after writing an error response).
// Expects path parameter: fid
func ParseFactID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	raw := r.PathValue("fid")
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.Debug("Invalid fact ID in path",
			zap.String("raw", raw),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_fact_id", "Invalid fact ID format"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}

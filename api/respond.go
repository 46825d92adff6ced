package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/roomies/models"
)

// --- Response helpers ---
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeServiceError maps domain errors to status codes. Anything unknown is
// logged and reported as an internal error.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, models.ErrInvalidAction):
		writeError(w, http.StatusBadRequest, "invalid_action")
	case errors.Is(err, models.ErrProfileIncomplete):
		writeError(w, http.StatusForbidden, "incomplete_profile")
	default:
		log.Error("request failed",
			zap.Error(err),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
		)
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

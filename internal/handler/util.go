package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/wavelength-ai/chat-insights/internal/apperr"
	"github.com/wavelength-ai/chat-insights/pkg/logger"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeAppError maps the error taxonomy onto HTTP status codes. Internal
// causes are logged but never leaked to clients.
func writeAppError(w http.ResponseWriter, log *logger.Logger, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		log.Error("unexpected error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch appErr.Kind {
	case apperr.KindValidation:
		writeError(w, http.StatusBadRequest, appErr.Msg)
	case apperr.KindNotFound:
		writeError(w, http.StatusNotFound, appErr.Msg)
	default:
		log.Error("request failed", zap.String("kind", string(appErr.Kind)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, appErr.Msg)
	}
}

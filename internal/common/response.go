package common

import (
	"encoding/json"
	"net/http"

	"codearena/internal/platform/logger"

	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithServiceError maps err to a status code. Server-side failures are
// logged in full and the client only sees an opaque message.
func RespondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatusFromError(err)
	if status >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		RespondWithError(w, status, ErrInternalServer.Error())
		return
	}
	RespondWithError(w, status, err.Error())
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.L().Error("failed to marshal response", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

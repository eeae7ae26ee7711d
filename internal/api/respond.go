package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/dictameal/backend/internal/errors"
	"github.com/dictameal/backend/internal/logger"
	"github.com/dictameal/backend/internal/middleware"
	"github.com/dictameal/backend/internal/sentry"
)

const (
	maxJSONBody  = 16 << 20
	maxAudioBody = 25 << 20
)

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Type               apperrors.ErrorType `json:"type"`
	Message            string              `json:"message"`
	ErrorCode          string              `json:"errorCode"`
	RecoverySuggestion string              `json:"recoverySuggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps err to its status and JSON body. Foreign errors become a
// generic 500 so internals never leak to clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.NewInternalError("internal server error", err)
	}

	ctx := r.Context()
	userID, _ := middleware.GetUserID(ctx)
	if appErr.StatusCode >= 500 {
		slog.ErrorContext(ctx, "Request failed",
			"path", r.URL.Path,
			"status", appErr.StatusCode,
			"error_code", appErr.ErrorCode,
			"error", err,
			"user_id", userID,
			logger.WithTraceContext(ctx),
		)
		if !appErr.IsOperational {
			sentry.CaptureError(ctx, err)
		}
	} else {
		slog.InfoContext(ctx, "Request rejected",
			"path", r.URL.Path,
			"status", appErr.StatusCode,
			"error_code", appErr.ErrorCode,
			"error", appErr.Message,
			"user_id", userID,
		)
	}

	message := appErr.Message
	if !appErr.IsOperational {
		message = "internal server error"
	}
	writeJSON(w, appErr.StatusCode, ErrorResponse{
		Type:               appErr.Type,
		Message:            message,
		ErrorCode:          appErr.ErrorCode,
		RecoverySuggestion: appErr.Recovery,
	})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.NewBadRequestError("request body too large", "BODY_TOO_LARGE", "Send a smaller request.")
		}
		return apperrors.NewBadRequestError("invalid request body", "INVALID_BODY", "Send a JSON object.")
	}
	return nil
}

func unavailable(feature string) error {
	return apperrors.NewUnavailableError(feature+" is not configured on this server", "FEATURE_DISABLED")
}

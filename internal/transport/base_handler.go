package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Error("http error", "status", status, "message", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errorResp := map[string]interface{}{
		"code":    status,
		"message": message,
	}

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		h.Logger.Error("failed to encode error response", "error", err)
	}
}

// HandleServiceError maps service-layer errors to HTTP responses. AppError
// carries its own status and code; anything else becomes a 500.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.Logger.Error("service error",
			"type", appErr.Type,
			"code", appErr.Code,
			"message", appErr.Message,
			"cause", appErr.Cause)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(appErr.StatusCode)

		resp := map[string]interface{}{
			"code":    string(appErr.Code),
			"message": appErr.Message,
		}
		if appErr.Details != nil {
			resp["details"] = appErr.Details
		}

		if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
			h.Logger.Error("failed to encode error response", "error", encErr)
		}
		return
	}

	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}

// HandleError is shorthand for HandleServiceError where the handler built
// the error itself.
func (h *BaseHandler) HandleError(w http.ResponseWriter, err error) {
	h.HandleServiceError(w, err)
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}

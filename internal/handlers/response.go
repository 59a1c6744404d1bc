package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"statusboard-backend/internal/middleware"
	"statusboard-backend/internal/models"
	"statusboard-backend/internal/services"
)

type sessionStore interface {
	Load(ctx context.Context, id string) (*services.Session, error)
	Save(ctx context.Context, s *services.Session) error
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *services.ValidationError:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", e.Fields, r))
	case *services.ConflictError:
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", e.Message, r))
	case *services.NotFoundError:
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", e.Message, r))
	case *services.UnauthorizedError:
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", e.Message, r))
	case *services.ForbiddenError:
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", e.Message, r))
	case *services.RateLimitError:
		writeJSON(w, http.StatusTooManyRequests, errorResp("RATE_LIMITED", e.Message, r))
	case *services.IOError:
		writeJSON(w, http.StatusInternalServerError, errorResp("IO_ERROR", e.Message, r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

// loadSession resolves the session named by the request's token claims.
// It writes the error response itself and returns nil on failure.
func loadSession(w http.ResponseWriter, r *http.Request, sessions sessionStore) *services.Session {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Missing session", r))
		return nil
	}

	sess, err := sessions.Load(r.Context(), claims.SessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			writeJSON(w, http.StatusUnauthorized, errorResp("SESSION_EXPIRED", "Session expired. Please log in again.", r))
			return nil
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("IO_ERROR", services.MsgSessionFailed, r))
		return nil
	}
	return sess
}

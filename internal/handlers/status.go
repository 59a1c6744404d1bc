package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"statusboard-backend/internal/models"
	"statusboard-backend/internal/services"
)

type statusEngine interface {
	LoadStatus(ctx context.Context, sess *services.Session) (models.StatusView, error)
	Transition(ctx context.Context, sess *services.Session, newStatus models.Status) (*models.TransitionResponse, error)
	VisibleLogs(ctx context.Context, sess *services.Session) ([]models.LogEntry, error)
}

type StatusHandler struct {
	engine   statusEngine
	sessions sessionStore
	logger   *zap.Logger
}

func NewStatusHandler(engine *services.StatusEngine, sessions services.SessionStore, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{engine: engine, sessions: sessions, logger: logger}
}

func (h *StatusHandler) Statuses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"statuses": models.Statuses})
}

func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := loadSession(w, r, h.sessions)
	if sess == nil {
		return
	}

	view, err := h.engine.LoadStatus(r.Context(), sess)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.saveSession(r.Context(), sess)

	writeJSON(w, http.StatusOK, view)
}

func (h *StatusHandler) Transition(w http.ResponseWriter, r *http.Request) {
	sess := loadSession(w, r, h.sessions)
	if sess == nil {
		return
	}

	var req models.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	resp, err := h.engine.Transition(r.Context(), sess, req.Status)
	// The displayed status is kept even when the update failed.
	h.saveSession(r.Context(), sess)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *StatusHandler) Logs(w http.ResponseWriter, r *http.Request) {
	sess := loadSession(w, r, h.sessions)
	if sess == nil {
		return
	}

	entries, err := h.engine.VisibleLogs(r.Context(), sess)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": entries})
}

func (h *StatusHandler) saveSession(ctx context.Context, sess *services.Session) {
	if err := h.sessions.Save(ctx, sess); err != nil && h.logger != nil {
		h.logger.Warn("failed to save session", zap.String("user", sess.User), zap.Error(err))
	}
}

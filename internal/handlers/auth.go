package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"statusboard-backend/internal/models"
	"statusboard-backend/internal/services"
)

type authService interface {
	ListUsers(ctx context.Context) ([]string, error)
	CreateAccount(ctx context.Context, req models.CreateAccountRequest) error
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, *services.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error)
	Logout(ctx context.Context, sess *services.Session, refreshToken string) error
}

type AuthHandler struct {
	authService authService
	sessions    sessionStore
}

func NewAuthHandler(authService *services.AuthService, sessions services.SessionStore) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions}
}

func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	names, err := h.authService.ListUsers(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"users": names})
}

func (h *AuthHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.authService.CreateAccount(r.Context(), req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Account created", "name": req.Name})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	resp, _, err := h.authService.Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	tokens, err := h.authService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := loadSession(w, r, h.sessions)
	if sess == nil {
		return
	}

	// The refresh token is optional; a bare logout still ends the session.
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.authService.Logout(r.Context(), sess, req.RefreshToken); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Session restores {currentUser, isAdmin} for a reloaded dashboard.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess := loadSession(w, r, h.sessions)
	if sess == nil {
		return
	}

	writeJSON(w, http.StatusOK, sess.Info())
}

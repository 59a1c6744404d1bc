package handlers

import (
	"context"
	"net/http"

	"statusboard-backend/internal/middleware"
	"statusboard-backend/internal/models"
	"statusboard-backend/internal/services"
)

type stubSessions struct {
	sessions map[string]*services.Session
	saved    []services.Session
	loadErr  error
}

func newStubSessions(sessions ...*services.Session) *stubSessions {
	s := &stubSessions{sessions: make(map[string]*services.Session)}
	for _, sess := range sessions {
		s.sessions[sess.ID] = sess
	}
	return s
}

func (s *stubSessions) Load(ctx context.Context, id string) (*services.Session, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, services.ErrSessionNotFound
	}
	return sess, nil
}

func (s *stubSessions) Save(ctx context.Context, sess *services.Session) error {
	s.saved = append(s.saved, *sess)
	return nil
}

type stubEngine struct {
	view       models.StatusView
	resp       *models.TransitionResponse
	logs       []models.LogEntry
	err        error
	lastStatus models.Status
	echo       models.Status
}

func (e *stubEngine) LoadStatus(ctx context.Context, sess *services.Session) (models.StatusView, error) {
	return e.view, e.err
}

func (e *stubEngine) Transition(ctx context.Context, sess *services.Session, newStatus models.Status) (*models.TransitionResponse, error) {
	e.lastStatus = newStatus
	if e.echo != "" {
		sess.DisplayedStatus = e.echo
	}
	return e.resp, e.err
}

func (e *stubEngine) VisibleLogs(ctx context.Context, sess *services.Session) ([]models.LogEntry, error) {
	return e.logs, e.err
}

type stubAuth struct {
	createErr  error
	created    *models.CreateAccountRequest
	loginResp  *models.LoginResponse
	loginErr   error
	users      []string
	loggedOut  string
	logoutErr  error
	refreshErr error
}

func (a *stubAuth) ListUsers(ctx context.Context) ([]string, error) {
	return a.users, nil
}

func (a *stubAuth) CreateAccount(ctx context.Context, req models.CreateAccountRequest) error {
	a.created = &req
	return a.createErr
}

func (a *stubAuth) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, *services.Session, error) {
	return a.loginResp, nil, a.loginErr
}

func (a *stubAuth) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	return &models.AuthTokens{AccessToken: "new"}, a.refreshErr
}

func (a *stubAuth) Logout(ctx context.Context, sess *services.Session, refreshToken string) error {
	a.loggedOut = sess.ID
	return a.logoutErr
}

func withSession(r *http.Request, sess *services.Session) *http.Request {
	claims := &middleware.Claims{User: sess.User, IsAdmin: sess.IsAdmin, SessionID: sess.ID}
	return r.WithContext(middleware.WithClaims(r.Context(), claims))
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"statusboard-backend/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrRefreshNotFound = errors.New("refresh token not found")
)

// Session is the per-login context: who is acting, whether they are an
// admin, and what the dashboard currently shows. It is built on login and
// removed on logout.
type Session struct {
	ID              string        `json:"id"`
	User            string        `json:"user"`
	IsAdmin         bool          `json:"isAdmin"`
	DisplayedStatus models.Status `json:"displayedStatus"`
	StatusSince     time.Time     `json:"statusSince"`
}

func NewSession(user string, isAdmin bool, now time.Time) *Session {
	return &Session{
		ID:              uuid.NewString(),
		User:            user,
		IsAdmin:         isAdmin,
		DisplayedStatus: models.StatusInactive,
		StatusSince:     now,
	}
}

// Apply makes the session display the stored record.
func (s *Session) Apply(rec models.StatusRecord) {
	s.DisplayedStatus = rec.CurrentStatus
	s.StatusSince = rec.UpdatedAt
}

func (s *Session) TimerRunning() bool {
	return s.DisplayedStatus != models.StatusInactive
}

// View renders the session for the dashboard at now.
func (s *Session) View(now time.Time) models.StatusView {
	view := models.StatusView{
		User:          s.User,
		CurrentStatus: s.DisplayedStatus,
		StatusSince:   s.StatusSince,
		TimerRunning:  s.TimerRunning(),
	}
	if view.TimerRunning {
		view.Elapsed = FormatElapsed(now.Sub(s.StatusSince))
	}
	return view
}

func (s *Session) Info() models.SessionInfo {
	return models.SessionInfo{CurrentUser: s.User, IsAdmin: s.IsAdmin}
}

type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	SaveRefresh(ctx context.Context, token, sessionID string) error
	LookupRefresh(ctx context.Context, token string) (string, error)
	DeleteRefresh(ctx context.Context, token string) error
}

// SessionManager caches sessions and refresh tokens in Redis so that a
// reload restores {currentUser, isAdmin} and the displayed status.
type SessionManager struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewSessionManager(redisClient *redis.Client, ttl time.Duration) *SessionManager {
	return &SessionManager{redis: redisClient, ttl: ttl}
}

func sessionKey(id string) string    { return "session:" + id }
func refreshKey(token string) string { return "refresh:" + token }

func (m *SessionManager) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return m.redis.Set(ctx, sessionKey(s.ID), data, m.ttl).Err()
}

func (m *SessionManager) Load(ctx context.Context, id string) (*Session, error) {
	raw, err := m.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	s := &Session{}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return s, nil
}

func (m *SessionManager) Delete(ctx context.Context, id string) error {
	return m.redis.Del(ctx, sessionKey(id)).Err()
}

func (m *SessionManager) SaveRefresh(ctx context.Context, token, sessionID string) error {
	return m.redis.Set(ctx, refreshKey(token), sessionID, m.ttl).Err()
}

// LookupRefresh returns the session bound to token.
func (m *SessionManager) LookupRefresh(ctx context.Context, token string) (string, error) {
	sessionID, err := m.redis.Get(ctx, refreshKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrRefreshNotFound
		}
		return "", err
	}
	return sessionID, nil
}

func (m *SessionManager) DeleteRefresh(ctx context.Context, token string) error {
	return m.redis.Del(ctx, refreshKey(token)).Err()
}

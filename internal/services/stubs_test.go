package services

import (
	"context"
	"fmt"
	"sync"

	"statusboard-backend/internal/models"
	"statusboard-backend/internal/repository"
)

type stubStatusStore struct {
	records  map[string]models.StatusRecord
	writes   int
	readErr  error
	writeErr error
}

func newStubStatusStore() *stubStatusStore {
	return &stubStatusStore{records: make(map[string]models.StatusRecord)}
}

func (s *stubStatusStore) ReadStatus(ctx context.Context, user string) (*models.StatusRecord, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	rec, ok := s.records[user]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (s *stubStatusStore) WriteStatus(ctx context.Context, user string, rec models.StatusRecord) error {
	s.writes++
	if s.writeErr != nil {
		return s.writeErr
	}
	s.records[user] = rec
	return nil
}

type stubLogStore struct {
	entries   []models.LogEntry
	reverse   bool
	appendErr error
	readErr   error
	reads     int
	lastReads int
}

func (s *stubLogStore) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	entry.ID = fmt.Sprintf("log-%d", len(s.entries)+1)
	s.entries = append(s.entries, *entry)
	return nil
}

// ReadAllLogs returns entries in insertion order, or reversed to prove
// callers do not rely on store order.
func (s *stubLogStore) ReadAllLogs(ctx context.Context) ([]models.LogEntry, error) {
	s.reads++
	if s.readErr != nil {
		return nil, s.readErr
	}
	out := make([]models.LogEntry, len(s.entries))
	copy(out, s.entries)
	if s.reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func (s *stubLogStore) LastLogForUser(ctx context.Context, user string) (*models.LogEntry, error) {
	s.lastReads++
	if s.readErr != nil {
		return nil, s.readErr
	}
	last := latestEntry(entriesForUser(s.entries, user))
	if last == nil {
		return nil, repository.ErrNotFound
	}
	entry := *last
	return &entry, nil
}

type stubUserStore struct {
	users   map[string]*models.User
	creates int
	err     error
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: make(map[string]*models.User)}
}

func (s *stubUserStore) CreateUser(ctx context.Context, user *models.User) error {
	s.creates++
	if s.err != nil {
		return s.err
	}
	if _, ok := s.users[user.Name]; ok {
		return repository.ErrDuplicate
	}
	s.users[user.Name] = user
	return nil
}

func (s *stubUserStore) GetUser(ctx context.Context, name string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.users[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (s *stubUserStore) ListUsers(ctx context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	names := make([]string, 0, len(s.users))
	for name := range s.users {
		names = append(names, name)
	}
	return names, nil
}

type stubSessionStore struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	refresh   map[string]string
	loadErr   error
	lookupErr error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]*Session), refresh: make(map[string]string)}
}

func (s *stubSessionStore) Save(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *sess
	s.sessions[sess.ID] = &copied
	return nil
}

func (s *stubSessionStore) Load(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *sess
	return &copied, nil
}

func (s *stubSessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *stubSessionStore) SaveRefresh(ctx context.Context, token, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[token] = sessionID
	return nil
}

func (s *stubSessionStore) LookupRefresh(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return "", s.lookupErr
	}
	id, ok := s.refresh[token]
	if !ok {
		return "", ErrRefreshNotFound
	}
	return id, nil
}

func (s *stubSessionStore) DeleteRefresh(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refresh, token)
	return nil
}

type stubTokenIssuer struct{}

func (stubTokenIssuer) GenerateAccessToken(user string, isAdmin bool, sessionID string) (string, error) {
	return fmt.Sprintf("token:%s:%t:%s", user, isAdmin, sessionID), nil
}

func (stubTokenIssuer) AccessTokenTTLSeconds() int { return 900 }

type recordingPublisher struct {
	views   []models.StatusView
	logouts []string
}

func (p *recordingPublisher) PublishStatus(ctx context.Context, user string, view models.StatusView) error {
	p.views = append(p.views, view)
	return nil
}

func (p *recordingPublisher) PublishLogout(ctx context.Context, user, sessionID string) error {
	p.logouts = append(p.logouts, user+"/"+sessionID)
	return nil
}

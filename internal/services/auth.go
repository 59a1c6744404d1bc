package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"statusboard-backend/internal/clock"
	"statusboard-backend/internal/models"
	"statusboard-backend/internal/repository"
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, name string) (*models.User, error)
	ListUsers(ctx context.Context) ([]string, error)
}

// LogoutPublisher notifies live dashboards that a session has ended.
type LogoutPublisher interface {
	PublishLogout(ctx context.Context, user, sessionID string) error
}

type TokenIssuer interface {
	GenerateAccessToken(user string, isAdmin bool, sessionID string) (string, error)
	AccessTokenTTLSeconds() int
}

type AuthService struct {
	users     UserStore
	statuses  StatusStore
	sessions  SessionStore
	publisher LogoutPublisher
	jwt       TokenIssuer
	adminCode string
	pinCost   int
	clock     clock.Clock
	logger    *zap.Logger
}

func NewAuthService(users UserStore, statuses StatusStore, sessions SessionStore, publisher LogoutPublisher, jwt TokenIssuer, adminCode string, clk clock.Clock, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:     users,
		statuses:  statuses,
		sessions:  sessions,
		publisher: publisher,
		jwt:       jwt,
		adminCode: adminCode,
		pinCost:   pinHashCost,
		clock:     clk,
		logger:    logger,
	}
}

var pinRegex = regexp.MustCompile(`^[0-9]{4}$`)

const pinHashCost = 12

func (s *AuthService) isAdminCode(secret string) bool {
	return s.adminCode != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(s.adminCode)) == 1
}

func (s *AuthService) ListUsers(ctx context.Context) ([]string, error) {
	names, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, &IOError{Message: MsgUsersLoadFailed, Err: err}
	}
	return names, nil
}

// CreateAccount registers name with a 4-digit PIN or the admin code and
// seeds an Inactive status record. The admin code itself is never stored.
func (s *AuthService) CreateAccount(ctx context.Context, req models.CreateAccountRequest) error {
	fieldErrors := make(map[string]string)

	if req.Name == "" {
		fieldErrors["name"] = "Name is required"
	}
	isAdmin := s.isAdminCode(req.Pin)
	if !isAdmin && !pinRegex.MatchString(req.Pin) {
		fieldErrors["pin"] = "PIN must be 4 digits or admin code"
	}

	if len(fieldErrors) > 0 {
		return &ValidationError{Fields: fieldErrors}
	}

	user := &models.User{Name: req.Name}
	if !isAdmin {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Pin), s.pinCost)
		if err != nil {
			return fmt.Errorf("failed to hash pin: %w", err)
		}
		user.PinHash = string(hash)
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return &ConflictError{Message: "User already exists"}
		}
		return &IOError{Message: MsgAccountCreationFailed, Err: err}
	}

	initial := models.StatusRecord{CurrentStatus: models.StatusInactive, UpdatedAt: s.clock.Now()}
	if err := s.statuses.WriteStatus(ctx, req.Name, initial); err != nil {
		return &IOError{Message: MsgAccountCreationFailed, Err: err}
	}

	s.logger.Info("account created", zap.String("user", req.Name))
	return nil
}

// Login authenticates a known name with its PIN, or with the admin code
// regardless of the stored PIN, and opens a session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, *Session, error) {
	if req.Name == "" || req.Pin == "" {
		return nil, nil, &ValidationError{Fields: map[string]string{"credentials": "Select name and enter PIN"}}
	}

	user, err := s.users.GetUser(ctx, req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, &UnauthorizedError{Message: "Invalid credentials"}
		}
		return nil, nil, &IOError{Message: MsgUsersLoadFailed, Err: err}
	}

	isAdmin := s.isAdminCode(req.Pin)
	if !isAdmin && (user.PinHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PinHash), []byte(req.Pin)) != nil) {
		return nil, nil, &UnauthorizedError{Message: "Invalid credentials"}
	}

	now := s.clock.Now()
	sess := NewSession(req.Name, isAdmin, now)

	rec, err := s.statuses.ReadStatus(ctx, req.Name)
	switch {
	case err == nil:
		sess.Apply(*rec)
	case !errors.Is(err, repository.ErrNotFound):
		// The dashboard reloads status right after login; keep the default.
		s.logger.Warn("status fetch failed during login", zap.String("user", req.Name), zap.Error(err))
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, nil, &IOError{Message: MsgSessionFailed, Err: err}
	}

	tokens, err := s.issueTokens(ctx, sess)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("login", zap.String("user", sess.User), zap.Bool("admin", sess.IsAdmin))

	return &models.LoginResponse{
		AuthTokens:  *tokens,
		CurrentUser: sess.User,
		IsAdmin:     sess.IsAdmin,
	}, sess, nil
}

// RefreshToken rotates refreshToken. The old token is only removed once the
// replacement has been issued, so a store failure leaves it usable.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	sessionID, err := s.sessions.LookupRefresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return nil, &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
		}
		return nil, &IOError{Message: MsgSessionFailed, Err: err}
	}

	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			s.sessions.DeleteRefresh(ctx, refreshToken)
			return nil, &UnauthorizedError{Message: "Session expired. Please log in again."}
		}
		return nil, &IOError{Message: MsgSessionFailed, Err: err}
	}

	tokens, err := s.issueTokens(ctx, sess)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.DeleteRefresh(ctx, refreshToken); err != nil {
		return nil, &IOError{Message: MsgSessionFailed, Err: err}
	}
	return tokens, nil
}

// Logout tears down the session and, when given, its refresh token, then
// tells open dashboards of the session to stop their timers.
func (s *AuthService) Logout(ctx context.Context, sess *Session, refreshToken string) error {
	if refreshToken != "" {
		if err := s.sessions.DeleteRefresh(ctx, refreshToken); err != nil {
			return &IOError{Message: MsgSessionFailed, Err: err}
		}
	}
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return &IOError{Message: MsgSessionFailed, Err: err}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishLogout(ctx, sess.User, sess.ID); err != nil {
			s.logger.Warn("failed to publish logout", zap.String("user", sess.User), zap.Error(err))
		}
	}

	s.logger.Info("logout", zap.String("user", sess.User))
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, sess *Session) (*models.AuthTokens, error) {
	accessToken, err := s.jwt.GenerateAccessToken(sess.User, sess.IsAdmin, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken(64)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.SaveRefresh(ctx, refreshToken, sess.ID); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.AccessTokenTTLSeconds(),
	}, nil
}

func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

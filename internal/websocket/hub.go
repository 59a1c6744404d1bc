package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"statusboard-backend/internal/clock"
	"statusboard-backend/internal/middleware"
	"statusboard-backend/internal/models"
	"statusboard-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type tokenParser interface {
	ParseToken(tokenStr string) (*middleware.Claims, error)
}

type statusLoader interface {
	LoadStatus(ctx context.Context, sess *services.Session) (models.StatusView, error)
}

type sessionLoader interface {
	Load(ctx context.Context, id string) (*services.Session, error)
	Save(ctx context.Context, s *services.Session) error
}

// Hub fans a user's status updates out to every open dashboard of that
// user. Each dashboard connection owns one timer.
type Hub struct {
	mu          sync.RWMutex
	clients     map[string][]*client
	cancelFuncs map[string]context.CancelFunc

	redisClient *redis.Client
	tokens      tokenParser
	sessions    sessionLoader
	engine      statusLoader
	clock       clock.Clock
	interval    time.Duration
	logger      *zap.Logger
}

func NewHub(redisClient *redis.Client, tokens tokenParser, sessions sessionLoader, engine statusLoader, clk clock.Clock, logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[string][]*client),
		cancelFuncs: make(map[string]context.CancelFunc),
		redisClient: redisClient,
		tokens:      tokens,
		sessions:    sessions,
		engine:      engine,
		clock:       clk,
		interval:    services.TimerTickInterval,
		logger:      logger,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.ParseToken(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sess, err := h.sessions.Load(r.Context(), claims.SessionID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Every dashboard load recomputes the timer from the stored status.
	view, err := h.engine.LoadStatus(r.Context(), sess)
	if err != nil {
		h.logger.Warn("status fetch failed for websocket", zap.String("user", sess.User), zap.Error(err))
		view = sess.View(h.clock.Now())
	} else if saveErr := h.sessions.Save(r.Context(), sess); saveErr != nil {
		h.logger.Warn("failed to save session", zap.String("user", sess.User), zap.Error(saveErr))
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(conn, sess.ID, services.NewTimer(h.clock, h.interval))
	h.register(sess.User, c)
	c.apply(view)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregister(sess.User, c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) register(user string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[user] = append(h.clients[user], c)

	// Start pub/sub subscription if this is the first connection for this user
	if len(h.clients[user]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[user] = cancel
		go h.subscribe(ctx, user)
	}

	h.logger.Info("websocket connected", zap.String("user", user), zap.Int("total", len(h.clients[user])))
}

func (h *Hub) unregister(user string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.close()

	clients := h.clients[user]
	for i, existing := range clients {
		if existing == c {
			h.clients[user] = append(clients[:i], clients[i+1:]...)
			break
		}
	}

	if len(h.clients[user]) == 0 {
		delete(h.clients, user)
		if cancel, ok := h.cancelFuncs[user]; ok {
			cancel()
			delete(h.cancelFuncs, user)
		}
	}

	h.logger.Info("websocket disconnected", zap.String("user", user))
}

func (h *Hub) subscribe(ctx context.Context, user string) {
	pubsub := h.redisClient.Subscribe(ctx, services.StatusChannel(user))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.dispatch(user, []byte(msg.Payload))
		}
	}
}

// dispatch forwards a published status update and restarts each
// connection's timer from it. A logout notice clears and closes the
// connections of that session only.
func (h *Hub) dispatch(user string, data []byte) {
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		h.logger.Debug("ignoring pub/sub payload", zap.String("user", user), zap.Error(err))
		return
	}

	switch msg.Type {
	case models.WSTypeStatusUpdate:
		var view models.StatusView
		if err := json.Unmarshal(msg.Payload, &view); err != nil {
			h.logger.Debug("ignoring malformed status update", zap.String("user", user), zap.Error(err))
			return
		}
		h.mu.RLock()
		defer h.mu.RUnlock()
		for _, c := range h.clients[user] {
			c.apply(view)
		}

	case models.WSTypeLogout:
		var notice models.LogoutNotice
		if err := json.Unmarshal(msg.Payload, &notice); err != nil || notice.SessionID == "" {
			h.logger.Debug("ignoring malformed logout notice", zap.String("user", user))
			return
		}
		h.mu.RLock()
		defer h.mu.RUnlock()
		for _, c := range h.clients[user] {
			if c.sessionID == notice.SessionID {
				c.logout(user)
			}
		}
		h.logger.Info("session logged out", zap.String("user", user), zap.String("session", notice.SessionID))

	default:
		h.logger.Debug("ignoring pub/sub payload", zap.String("user", user), zap.String("type", msg.Type))
	}
}

// Connections reports the number of open dashboards for user.
func (h *Hub) Connections(user string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[user])
}

package websocket

import (
	"sync"

	"github.com/gorilla/websocket"

	"statusboard-backend/internal/models"
	"statusboard-backend/internal/services"
)

type messageWriter interface {
	WriteJSON(v interface{}) error
	Close() error
}

// client serialises writes to one dashboard connection; timer ticks and
// status updates arrive from different goroutines. life orders timer
// restarts against close so a closed client never restarts its timer.
type client struct {
	life      sync.Mutex
	mu        sync.Mutex
	conn      messageWriter
	sessionID string
	timer     *services.Timer
	closed    bool
}

func newClient(conn *websocket.Conn, sessionID string, timer *services.Timer) *client {
	return &client{conn: conn, sessionID: sessionID, timer: timer}
}

func (c *client) send(msg models.WSMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	return c.conn.WriteJSON(msg)
}

// apply pushes the status and restarts or cancels the timer.
func (c *client) apply(view models.StatusView) {
	c.life.Lock()
	defer c.life.Unlock()
	if c.closed {
		return
	}
	c.send(models.WSMessage{Type: models.WSTypeStatusUpdate, Payload: view})

	if !view.TimerRunning {
		c.timer.Stop()
		return
	}
	c.timer.Start(view.StatusSince, func(elapsed string) {
		c.send(models.WSMessage{Type: models.WSTypeTimerTick, Payload: models.TimerTick{Elapsed: elapsed}})
	})
}

// logout clears the dashboard and drops the connection.
func (c *client) logout(user string) {
	c.life.Lock()
	defer c.life.Unlock()
	c.timer.Stop()
	c.send(models.WSMessage{
		Type:    models.WSTypeStatusUpdate,
		Payload: models.StatusView{User: user, CurrentStatus: models.StatusInactive},
	})
	c.send(models.WSMessage{Type: models.WSTypeLogout, Payload: models.LogoutNotice{SessionID: c.sessionID}})
	c.closeLocked()
}

// close is safe to call more than once.
func (c *client) close() {
	c.life.Lock()
	defer c.life.Unlock()
	c.closeLocked()
}

func (c *client) closeLocked() {
	c.timer.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.conn.Close()
}

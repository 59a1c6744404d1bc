package websocket

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"statusboard-backend/internal/clock"
	"statusboard-backend/internal/models"
	"statusboard-backend/internal/services"
)

type fakeConn struct {
	mu     sync.Mutex
	msgs   []models.WSMessage
	closed bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, v.(models.WSMessage))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) count(msgType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.msgs {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

func (f *fakeConn) lastTick() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.msgs) - 1; i >= 0; i-- {
		if tick, ok := f.msgs[i].Payload.(models.TimerTick); ok {
			return tick.Elapsed
		}
	}
	return ""
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func newTestClient(clk clock.Clock) (*client, *fakeConn) {
	return newSessionClient(clk, "sid-1")
}

func newSessionClient(clk clock.Clock, sessionID string) (*client, *fakeConn) {
	conn := &fakeConn{}
	return &client{conn: conn, sessionID: sessionID, timer: services.NewTimer(clk, 10*time.Millisecond)}, conn
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) lastUpdate() (models.StatusView, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.msgs) - 1; i >= 0; i-- {
		if view, ok := f.msgs[i].Payload.(models.StatusView); ok {
			return view, true
		}
	}
	return models.StatusView{}, false
}

func TestClient_ApplyStartsTimer(t *testing.T) {
	since := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(since.Add(90 * time.Second))
	c, conn := newTestClient(clk)
	defer c.close()

	c.apply(models.StatusView{User: "Ana", CurrentStatus: models.StatusRecording, StatusSince: since, TimerRunning: true})

	waitUntil(t, func() bool { return conn.count(models.WSTypeTimerTick) > 0 })
	if conn.count(models.WSTypeStatusUpdate) != 1 {
		t.Fatalf("expected one status update")
	}
	if got := conn.lastTick(); got != "00:01:30" {
		t.Fatalf("expected 00:01:30, got %s", got)
	}
}

func TestClient_ApplyInactiveStopsTimer(t *testing.T) {
	clk := clock.NewFixed(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	c, conn := newTestClient(clk)
	defer c.close()

	c.apply(models.StatusView{User: "Ana", CurrentStatus: models.StatusBreak, StatusSince: clk.Now(), TimerRunning: true})
	waitUntil(t, func() bool { return conn.count(models.WSTypeTimerTick) > 0 })

	c.apply(models.StatusView{User: "Ana", CurrentStatus: models.StatusInactive})
	if c.timer.Running() {
		t.Fatalf("expected timer to be stopped")
	}

	ticks := conn.count(models.WSTypeTimerTick)
	time.Sleep(50 * time.Millisecond)
	if conn.count(models.WSTypeTimerTick) != ticks {
		t.Fatalf("expected no ticks after Inactive")
	}
}

func TestClient_Close(t *testing.T) {
	c, conn := newTestClient(clock.NewFixed(time.Now()))
	c.close()

	if !conn.closed {
		t.Fatalf("expected connection to be closed")
	}
}

func TestHub_DispatchAppliesStatusUpdate(t *testing.T) {
	clk := clock.NewFixed(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	h := NewHub(nil, nil, nil, nil, clk, zap.NewNop())

	ana, anaConn := newTestClient(clk)
	ben, benConn := newTestClient(clk)
	defer ana.close()
	defer ben.close()
	h.clients["Ana"] = []*client{ana}
	h.clients["Ben"] = []*client{ben}

	data, _ := json.Marshal(models.WSMessage{
		Type:    models.WSTypeStatusUpdate,
		Payload: models.StatusView{User: "Ana", CurrentStatus: models.StatusInactive},
	})
	h.dispatch("Ana", data)
	h.dispatch("Ana", []byte(`{"type":"timer_tick"}`))

	if anaConn.count(models.WSTypeStatusUpdate) != 1 {
		t.Fatalf("expected one update for Ana")
	}
	if benConn.count(models.WSTypeStatusUpdate) != 0 {
		t.Fatalf("expected Ben untouched")
	}
	if h.Connections("Ana") != 1 || h.Connections("Carl") != 0 {
		t.Fatalf("unexpected connection counts")
	}
}

func TestHub_DispatchLogoutClosesOnlyThatSession(t *testing.T) {
	since := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(since.Add(time.Minute))
	h := NewHub(nil, nil, nil, nil, clk, zap.NewNop())

	phone, phoneConn := newSessionClient(clk, "sid-phone")
	laptop, laptopConn := newSessionClient(clk, "sid-laptop")
	defer laptop.close()
	h.clients["Ana"] = []*client{phone, laptop}

	running := models.StatusView{User: "Ana", CurrentStatus: models.StatusRecording, StatusSince: since, TimerRunning: true}
	phone.apply(running)
	laptop.apply(running)
	waitUntil(t, func() bool { return phoneConn.count(models.WSTypeTimerTick) > 0 })

	data, _ := json.Marshal(models.WSMessage{Type: models.WSTypeLogout, Payload: models.LogoutNotice{SessionID: "sid-phone"}})
	h.dispatch("Ana", data)

	if phone.timer.Running() || !phoneConn.isClosed() {
		t.Fatalf("expected logged out connection to stop ticking and close")
	}
	view, ok := phoneConn.lastUpdate()
	if !ok || view.TimerRunning || view.CurrentStatus != models.StatusInactive {
		t.Fatalf("expected cleared status before close, got %+v", view)
	}
	if phoneConn.count(models.WSTypeLogout) != 1 {
		t.Fatalf("expected logout notice to be sent")
	}

	ticks := phoneConn.count(models.WSTypeTimerTick)
	phone.apply(running)
	time.Sleep(50 * time.Millisecond)
	if phoneConn.count(models.WSTypeTimerTick) != ticks || phone.timer.Running() {
		t.Fatalf("expected closed connection to ignore later updates")
	}

	if !laptop.timer.Running() || laptopConn.isClosed() {
		t.Fatalf("expected other session of the same user to keep running")
	}
}

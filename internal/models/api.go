package models

// WebSocket message types
const (
	WSTypeStatusUpdate = "status_update"
	WSTypeTimerTick    = "timer_tick"
	WSTypeLogout       = "logout"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type TimerTick struct {
	Elapsed string `json:"elapsed"`
}

// LogoutNotice ends every dashboard connection of one session.
type LogoutNotice struct {
	SessionID string `json:"sessionId"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

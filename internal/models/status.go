package models

import "time"

type Status string

const (
	StatusInactive      Status = "Inactive"
	StatusTechIssues    Status = "Tech issues"
	StatusRecording     Status = "Recording"
	StatusSettingUpRoom Status = "Setting up room"
	StatusBreak         Status = "Break"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusInactive,
	StatusTechIssues,
	StatusRecording,
	StatusSettingUpRoom,
	StatusBreak,
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// StatusRecord is the single mutable status row per user.
type StatusRecord struct {
	CurrentStatus Status    `json:"currentStatus"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// LogEntry is an immutable record of one transition.
// Name and User carry the same identifier.
type LogEntry struct {
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name"`
	User      string    `json:"user"`
	OldStatus Status    `json:"oldStatus"`
	NewStatus Status    `json:"newStatus"`
	TimeSpent float64   `json:"timeSpent"`
}

type TransitionRequest struct {
	Status Status `json:"status"`
}

// StatusView is what the dashboard renders for the current user.
type StatusView struct {
	User          string    `json:"user"`
	CurrentStatus Status    `json:"currentStatus"`
	StatusSince   time.Time `json:"statusSince"`
	Elapsed       string    `json:"elapsed"`
	TimerRunning  bool      `json:"timerRunning"`
}

type TransitionResponse struct {
	Status    StatusView `json:"status"`
	Entry     *LogEntry  `json:"entry,omitempty"`
	Persisted bool       `json:"persisted"`
}

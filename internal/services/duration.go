package services

import (
	"math"
	"time"

	"statusboard-backend/internal/models"
)

// Elapsed is the outcome of ElapsedHours.
// Known is false when the user has no prior entry; Anomaly is set when the
// raw difference was negative and had to be clamped to zero.
type Elapsed struct {
	Hours   float64
	Known   bool
	Anomaly bool
}

// ElapsedHours returns the hours between now and the chronologically last
// entry in prior, rounded to two decimals. prior must already be filtered to
// a single user; its order is not trusted.
func ElapsedHours(prior []models.LogEntry, now time.Time) Elapsed {
	last := latestEntry(prior)
	if last == nil {
		return Elapsed{}
	}

	hours := now.Sub(last.Timestamp).Hours()
	if hours < 0 {
		return Elapsed{Hours: 0, Known: true, Anomaly: true}
	}
	return Elapsed{Hours: roundHours(hours), Known: true}
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

// latestEntry picks the max timestamp; on ties the later element wins.
func latestEntry(entries []models.LogEntry) *models.LogEntry {
	var last *models.LogEntry
	for i := range entries {
		if last == nil || !entries[i].Timestamp.Before(last.Timestamp) {
			last = &entries[i]
		}
	}
	return last
}

func entriesForUser(all []models.LogEntry, user string) []models.LogEntry {
	own := make([]models.LogEntry, 0)
	for _, entry := range all {
		if entry.Name == user {
			own = append(own, entry)
		}
	}
	return own
}

package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"statusboard-backend/internal/clock"
	"statusboard-backend/internal/models"
	"statusboard-backend/internal/repository"
)

const defaultAuditInterval = time.Hour

// Divergence is a user whose status record trails the log. It is left
// behind when a log append succeeded and the status write did not.
type Divergence struct {
	User          string
	UpdatedAt     time.Time
	MissingStatus bool
	LastLogAt     time.Time
	LastLogStatus models.Status
}

// ConsistencyAuditor periodically compares each user's status record with
// their latest log entry and reports divergences. It never repairs them.
type ConsistencyAuditor struct {
	users    UserStore
	statuses StatusStore
	logs     LogStore
	clock    clock.Clock
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

func NewConsistencyAuditor(users UserStore, statuses StatusStore, logs LogStore, clk clock.Clock, interval time.Duration, logger *zap.Logger) *ConsistencyAuditor {
	if interval <= 0 {
		interval = defaultAuditInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsistencyAuditor{
		users:    users,
		statuses: statuses,
		logs:     logs,
		clock:    clk,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

func (a *ConsistencyAuditor) Start() {
	go a.loop()
	a.logger.Info("consistency auditor started", zap.Duration("interval", a.interval))
}

func (a *ConsistencyAuditor) Stop() {
	select {
	case <-a.stopChan:
		return
	default:
		close(a.stopChan)
	}
}

func (a *ConsistencyAuditor) loop() {
	// Run on startup as well as by interval.
	a.RunOnce(context.Background())

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopChan:
			return
		case <-ticker.C:
			a.RunOnce(context.Background())
		}
	}
}

// RunOnce audits every known user and returns the divergences found.
func (a *ConsistencyAuditor) RunOnce(ctx context.Context) []Divergence {
	started := a.clock.Now()
	names, err := a.users.ListUsers(ctx)
	if err != nil {
		a.logger.Warn("audit: failed to list users", zap.Error(err))
		return nil
	}

	var found []Divergence
	for _, name := range names {
		d, err := a.auditUser(ctx, name)
		if err != nil {
			a.logger.Warn("audit: failed to check user", zap.String("user", name), zap.Error(err))
			continue
		}
		if d == nil {
			continue
		}
		found = append(found, *d)
		a.logger.Warn("audit: status record behind log",
			zap.String("user", d.User),
			zap.Bool("missing_status", d.MissingStatus),
			zap.Time("updated_at", d.UpdatedAt),
			zap.Time("last_log_at", d.LastLogAt),
			zap.String("last_log_status", string(d.LastLogStatus)),
		)
	}

	a.logger.Debug("audit finished",
		zap.Int("users", len(names)),
		zap.Int("divergent", len(found)),
		zap.Duration("took", a.clock.Now().Sub(started)),
	)
	return found
}

func (a *ConsistencyAuditor) auditUser(ctx context.Context, user string) (*Divergence, error) {
	last, err := a.logs.LastLogForUser(ctx, user)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec, err := a.statuses.ReadStatus(ctx, user)
	if errors.Is(err, repository.ErrNotFound) {
		return &Divergence{User: user, MissingStatus: true, LastLogAt: last.Timestamp, LastLogStatus: last.NewStatus}, nil
	}
	if err != nil {
		return nil, err
	}

	if !statusBehindLog(rec, last) {
		return nil, nil
	}
	return &Divergence{User: user, UpdatedAt: rec.UpdatedAt, LastLogAt: last.Timestamp, LastLogStatus: last.NewStatus}, nil
}

func statusBehindLog(rec *models.StatusRecord, last *models.LogEntry) bool {
	return rec.UpdatedAt.Before(last.Timestamp)
}

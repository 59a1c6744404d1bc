package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"statusboard-backend/internal/clock"
	"statusboard-backend/internal/models"
	"statusboard-backend/internal/repository"
)

type StatusStore interface {
	ReadStatus(ctx context.Context, user string) (*models.StatusRecord, error)
	WriteStatus(ctx context.Context, user string, rec models.StatusRecord) error
}

type LogStore interface {
	AppendLog(ctx context.Context, entry *models.LogEntry) error
	ReadAllLogs(ctx context.Context) ([]models.LogEntry, error)
	LastLogForUser(ctx context.Context, user string) (*models.LogEntry, error)
}

type StatusPublisher interface {
	PublishStatus(ctx context.Context, user string, view models.StatusView) error
}

type EngineOptions struct {
	// PersistInactive records Inactive like any other status. When false,
	// Inactive only pauses the display and nothing is written.
	PersistInactive bool
	// IndexedLookup reads only the user's latest entry instead of scanning
	// the whole log when computing elapsed time.
	IndexedLookup bool
}

type StatusEngine struct {
	statuses  StatusStore
	logs      LogStore
	clock     clock.Clock
	publisher StatusPublisher
	opts      EngineOptions
	logger    *zap.Logger
}

func NewStatusEngine(statuses StatusStore, logs LogStore, clk clock.Clock, publisher StatusPublisher, opts EngineOptions, logger *zap.Logger) *StatusEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusEngine{
		statuses:  statuses,
		logs:      logs,
		clock:     clk,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
	}
}

// Transition moves the session's user to newStatus.
//
// The session's displayed status is updated even when a store call fails;
// callers should persist the session either way.
func (e *StatusEngine) Transition(ctx context.Context, sess *Session, newStatus models.Status) (*models.TransitionResponse, error) {
	if !newStatus.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "Unknown status"}}
	}

	now := e.clock.Now()

	if newStatus == models.StatusInactive && !e.opts.PersistInactive {
		sess.DisplayedStatus = models.StatusInactive
		sess.StatusSince = now
		view := sess.View(now)
		e.publish(ctx, sess.User, view)
		return &models.TransitionResponse{Status: view}, nil
	}

	if newStatus == sess.DisplayedStatus {
		return &models.TransitionResponse{Status: sess.View(now)}, nil
	}

	oldStatus := sess.DisplayedStatus
	sess.DisplayedStatus = newStatus
	sess.StatusSince = now

	prior, err := e.priorEntries(ctx, sess.User)
	if err != nil {
		return nil, &IOError{Message: MsgUpdateFailed, Err: err}
	}

	elapsed := ElapsedHours(prior, now)
	if elapsed.Anomaly {
		e.logger.Warn("negative elapsed time clamped to zero",
			zap.String("user", sess.User),
			zap.Time("now", now),
		)
	}

	entry := models.LogEntry{
		Timestamp: now,
		Name:      sess.User,
		User:      sess.User,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		TimeSpent: elapsed.Hours,
	}

	if err := e.logs.AppendLog(ctx, &entry); err != nil {
		return nil, &IOError{Message: MsgUpdateFailed, Err: err}
	}

	if err := e.statuses.WriteStatus(ctx, sess.User, models.StatusRecord{CurrentStatus: newStatus, UpdatedAt: now}); err != nil {
		e.logger.Warn("status record diverged from log after partial write",
			zap.String("user", sess.User),
			zap.String("log_id", entry.ID),
			zap.String("new_status", string(newStatus)),
			zap.Error(err),
		)
		return nil, &IOError{Message: MsgUpdateFailed, Err: err}
	}

	view := sess.View(now)
	e.publish(ctx, sess.User, view)

	return &models.TransitionResponse{Status: view, Entry: &entry, Persisted: true}, nil
}

// LoadStatus refreshes the session from the stored status record. A missing
// record reads as Inactive since now.
func (e *StatusEngine) LoadStatus(ctx context.Context, sess *Session) (models.StatusView, error) {
	now := e.clock.Now()

	rec, err := e.statuses.ReadStatus(ctx, sess.User)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		rec = &models.StatusRecord{CurrentStatus: models.StatusInactive, UpdatedAt: now}
	case err != nil:
		return models.StatusView{}, &IOError{Message: MsgStatusFetchFailed, Err: err}
	}

	e.checkConsistency(ctx, sess.User, rec)

	sess.Apply(*rec)
	return sess.View(now), nil
}

// VisibleLogs returns the entries the session may see, in store order.
func (e *StatusEngine) VisibleLogs(ctx context.Context, sess *Session) ([]models.LogEntry, error) {
	all, err := e.logs.ReadAllLogs(ctx)
	if err != nil {
		return nil, &IOError{Message: MsgLogsLoadFailed, Err: err}
	}
	if sess.IsAdmin {
		return all, nil
	}
	return entriesForUser(all, sess.User), nil
}

func (e *StatusEngine) View(sess *Session) models.StatusView {
	return sess.View(e.clock.Now())
}

func (e *StatusEngine) priorEntries(ctx context.Context, user string) ([]models.LogEntry, error) {
	if e.opts.IndexedLookup {
		last, err := e.logs.LastLogForUser(ctx, user)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []models.LogEntry{*last}, nil
	}

	all, err := e.logs.ReadAllLogs(ctx)
	if err != nil {
		return nil, err
	}
	return entriesForUser(all, user), nil
}

// checkConsistency logs when the status record is older than the user's
// latest log entry, which only happens after a partial write.
func (e *StatusEngine) checkConsistency(ctx context.Context, user string, rec *models.StatusRecord) {
	last, err := e.logs.LastLogForUser(ctx, user)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			e.logger.Debug("consistency check skipped", zap.String("user", user), zap.Error(err))
		}
		return
	}

	if statusBehindLog(rec, last) {
		e.logger.Warn("status record older than latest log entry",
			zap.String("user", user),
			zap.Time("updated_at", rec.UpdatedAt),
			zap.Time("last_log_at", last.Timestamp),
			zap.String("last_log_status", string(last.NewStatus)),
		)
	}
}

func (e *StatusEngine) publish(ctx context.Context, user string, view models.StatusView) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishStatus(ctx, user, view); err != nil {
		e.logger.Warn("failed to publish status update", zap.String("user", user), zap.Error(err))
	}
}

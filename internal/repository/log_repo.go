package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"statusboard-backend/internal/models"
)

type LogRepo struct {
	pool *pgxpool.Pool
}

func NewLogRepo(pool *pgxpool.Pool) *LogRepo {
	return &LogRepo{pool: pool}
}

const logColumns = "id, ts, name, user_name, old_status, new_status, time_spent"

// AppendLog inserts an immutable entry and assigns its opaque id.
func (r *LogRepo) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO status_logs (id, ts, name, user_name, old_status, new_status, time_spent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, entry.Timestamp, entry.Name, entry.User, entry.OldStatus, entry.NewStatus, entry.TimeSpent)
	if err != nil {
		return err
	}
	entry.ID = id.String()
	return nil
}

// ReadAllLogs returns every entry in insertion order.
func (r *LogRepo) ReadAllLogs(ctx context.Context) ([]models.LogEntry, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+logColumns+" FROM status_logs ORDER BY seq")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.LogEntry, 0)
	for rows.Next() {
		entry, scanErr := scanLogEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, *entry)
	}

	return entries, rows.Err()
}

// LastLogForUser returns the user's chronologically latest entry using the (name, ts) index.
func (r *LogRepo) LastLogForUser(ctx context.Context, user string) (*models.LogEntry, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+logColumns+" FROM status_logs WHERE name = $1 ORDER BY ts DESC, seq DESC LIMIT 1", user)
	entry, err := scanLogEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func scanLogEntry(row pgx.Row) (*models.LogEntry, error) {
	var id uuid.UUID
	entry := &models.LogEntry{}
	if err := row.Scan(
		&id, &entry.Timestamp, &entry.Name, &entry.User,
		&entry.OldStatus, &entry.NewStatus, &entry.TimeSpent,
	); err != nil {
		return nil, err
	}
	entry.ID = id.String()
	entry.Timestamp = entry.Timestamp.UTC()
	return entry, nil
}

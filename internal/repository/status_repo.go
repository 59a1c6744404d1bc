package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"statusboard-backend/internal/models"
)

type StatusRepo struct {
	pool *pgxpool.Pool
}

func NewStatusRepo(pool *pgxpool.Pool) *StatusRepo {
	return &StatusRepo{pool: pool}
}

func (r *StatusRepo) ReadStatus(ctx context.Context, user string) (*models.StatusRecord, error) {
	rec := &models.StatusRecord{}
	err := r.pool.QueryRow(ctx,
		"SELECT current_status, updated_at FROM statuses WHERE user_name = $1", user,
	).Scan(&rec.CurrentStatus, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

// WriteStatus overwrites the user's status row in place.
func (r *StatusRepo) WriteStatus(ctx context.Context, user string, rec models.StatusRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO statuses (user_name, current_status, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_name) DO UPDATE
		SET current_status = EXCLUDED.current_status,
			updated_at = EXCLUDED.updated_at
	`, user, rec.CurrentStatus, rec.UpdatedAt)
	return err
}

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"statusboard-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) CreateUser(ctx context.Context, user *models.User) error {
	tag, err := r.pool.Exec(ctx,
		"INSERT INTO users (name, pin_hash) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING",
		user.Name, user.PinHash,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *UserRepo) GetUser(ctx context.Context, name string) (*models.User, error) {
	user := &models.User{}
	err := r.pool.QueryRow(ctx, "SELECT name, pin_hash FROM users WHERE name = $1", name).
		Scan(&user.Name, &user.PinHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListUsers returns every known user name, sorted.
func (r *UserRepo) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, "SELECT name FROM users ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if scanErr := rows.Scan(&name); scanErr != nil {
			return nil, scanErr
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

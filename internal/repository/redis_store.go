package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"statusboard-backend/internal/models"
)

// Redis key layout:
// users (hash name -> pin hash), statuses:<name>, logs (append-only list).
const (
	redisUsersKey      = "users"
	redisLogsKey       = "logs"
	redisStatusPrefix  = "statuses:"
	redisLastLogPrefix = "logs:last:"
)

func statusKey(user string) string  { return redisStatusPrefix + user }
func lastLogKey(user string) string { return redisLastLogPrefix + user }

type RedisStatusRepo struct {
	client *redis.Client
}

func NewRedisStatusRepo(client *redis.Client) *RedisStatusRepo {
	return &RedisStatusRepo{client: client}
}

func (r *RedisStatusRepo) ReadStatus(ctx context.Context, user string) (*models.StatusRecord, error) {
	raw, err := r.client.Get(ctx, statusKey(user)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rec := &models.StatusRecord{}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("failed to decode status for %s: %w", user, err)
	}
	return rec, nil
}

func (r *RedisStatusRepo) WriteStatus(ctx context.Context, user string, rec models.StatusRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, statusKey(user), data, 0).Err()
}

type RedisLogRepo struct {
	client *redis.Client
}

func NewRedisLogRepo(client *redis.Client) *RedisLogRepo {
	return &RedisLogRepo{client: client}
}

// AppendLog pushes the entry onto the shared list and refreshes the
// per-user last-entry index in the same MULTI block.
func (r *RedisLogRepo) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	stored := *entry
	stored.ID = uuid.NewString()

	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, redisLogsKey, data)
		pipe.Set(ctx, lastLogKey(stored.Name), data, 0)
		return nil
	})
	if err != nil {
		return err
	}

	entry.ID = stored.ID
	return nil
}

func (r *RedisLogRepo) ReadAllLogs(ctx context.Context) ([]models.LogEntry, error) {
	raws, err := r.client.LRange(ctx, redisLogsKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]models.LogEntry, 0, len(raws))
	for _, raw := range raws {
		var entry models.LogEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("failed to decode log entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *RedisLogRepo) LastLogForUser(ctx context.Context, user string) (*models.LogEntry, error) {
	raw, err := r.client.Get(ctx, lastLogKey(user)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	entry := &models.LogEntry{}
	if err := json.Unmarshal(raw, entry); err != nil {
		return nil, fmt.Errorf("failed to decode last log entry for %s: %w", user, err)
	}
	return entry, nil
}

type RedisUserRepo struct {
	client *redis.Client
}

func NewRedisUserRepo(client *redis.Client) *RedisUserRepo {
	return &RedisUserRepo{client: client}
}

func (r *RedisUserRepo) CreateUser(ctx context.Context, user *models.User) error {
	created, err := r.client.HSetNX(ctx, redisUsersKey, user.Name, user.PinHash).Result()
	if err != nil {
		return err
	}
	if !created {
		return ErrDuplicate
	}
	return nil
}

func (r *RedisUserRepo) GetUser(ctx context.Context, name string) (*models.User, error) {
	hash, err := r.client.HGet(ctx, redisUsersKey, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &models.User{Name: name, PinHash: hash}, nil
}

func (r *RedisUserRepo) ListUsers(ctx context.Context) ([]string, error) {
	names, err := r.client.HKeys(ctx, redisUsersKey).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

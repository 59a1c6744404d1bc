package services

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"statusboard-backend/internal/models"
)

// StatusChannel is the pub/sub channel carrying a user's live updates.
func StatusChannel(user string) string {
	return "status_updates:" + user
}

type RedisPublisher struct {
	redis *redis.Client
}

func NewRedisPublisher(redisClient *redis.Client) *RedisPublisher {
	return &RedisPublisher{redis: redisClient}
}

func (p *RedisPublisher) PublishStatus(ctx context.Context, user string, view models.StatusView) error {
	return p.publish(ctx, user, models.WSMessage{Type: models.WSTypeStatusUpdate, Payload: view})
}

// PublishLogout tells every hub holding a dashboard of sessionID to clear it.
func (p *RedisPublisher) PublishLogout(ctx context.Context, user, sessionID string) error {
	return p.publish(ctx, user, models.WSMessage{Type: models.WSTypeLogout, Payload: models.LogoutNotice{SessionID: sessionID}})
}

func (p *RedisPublisher) publish(ctx context.Context, user string, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.redis.Publish(ctx, StatusChannel(user), data).Err()
}

package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const activeParticipantsKey = "active_participants"

// RedisClient mirrors the in-memory registry's membership so presence can
// be inspected from outside the process. The registry stays authoritative;
// this copy is observational only.
type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(ctx context.Context, redisURL string) (*RedisClient, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// AddActiveParticipant records a participant in the presence set.
func (r *RedisClient) AddActiveParticipant(ctx context.Context, id string) error {
	return r.client.SAdd(ctx, activeParticipantsKey, id).Err()
}

// RemoveActiveParticipant drops a participant from the presence set.
func (r *RedisClient) RemoveActiveParticipant(ctx context.Context, id string) error {
	return r.client.SRem(ctx, activeParticipantsKey, id).Err()
}

// ListActiveParticipants returns every mirrored participant id.
func (r *RedisClient) ListActiveParticipants(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, activeParticipantsKey).Result()
}

// CountActive returns the size of the presence set.
func (r *RedisClient) CountActive(ctx context.Context) (int64, error) {
	return r.client.SCard(ctx, activeParticipantsKey).Result()
}

// IsActive reports whether the id is in the presence set.
func (r *RedisClient) IsActive(ctx context.Context, id string) (bool, error) {
	return r.client.SIsMember(ctx, activeParticipantsKey, id).Result()
}

// ClearActiveParticipants empties the presence set. Called at startup so a
// crashed run never leaves ghost entries behind.
func (r *RedisClient) ClearActiveParticipants(ctx context.Context) error {
	return r.client.Del(ctx, activeParticipantsKey).Err()
}

// FlushAll clears the entire database. Test cleanup only.
func (r *RedisClient) FlushAll(ctx context.Context) error {
	return r.client.FlushAll(ctx).Err()
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

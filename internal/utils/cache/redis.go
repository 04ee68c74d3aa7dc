package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/Hakheem/TibaPoint-sub001/internal/utils"
	"github.com/redis/go-redis/v9"
)

func NewRedisClient() *redis.Client {
	db, err := strconv.Atoi(utils.GetConfig("REDIS_DB"))
	if err != nil {
		db = 0
	}
	return redis.NewClient(&redis.Options{
		Addr:     utils.GetConfig("REDIS_ADDR"),
		Password: utils.GetConfig("REDIS_PASSWORD"),
		DB:       db,
	})
}

// ReferenceStore reserves one-shot keys with a TTL. SetNX guarantees only the
// first caller within the window wins, which is what webhook dedup needs.
type ReferenceStore struct {
	client *redis.Client
}

func NewReferenceStore(client *redis.Client) *ReferenceStore {
	return &ReferenceStore{client: client}
}

func (s *ReferenceStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, "1", ttl).Result()
}

func (s *ReferenceStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

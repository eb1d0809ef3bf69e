package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	accountCacheTTL  = 6 * time.Hour
	summonerCacheTTL = time.Hour
)

type cacheBackend interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type CacheManager struct {
	client  cacheBackend
	enabled bool
}

func NewRedisClient(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func NewCacheManager(cfg *Config, client *redis.Client) *CacheManager {
	return &CacheManager{
		client:  client,
		enabled: cfg.CacheEnabled && client != nil,
	}
}

func (cm *CacheManager) Get(ctx context.Context, key string, result interface{}) error {
	if cm == nil || !cm.enabled {
		return redis.Nil
	}

	data, err := cm.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), result)
}

func (cm *CacheManager) Set(ctx context.Context, key string, data interface{}, ttl time.Duration) error {
	if cm == nil || !cm.enabled {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return cm.client.Set(ctx, key, string(jsonData), ttl).Err()
}

func (cm *CacheManager) Key(parts ...string) string {
	key := serviceName
	for _, p := range parts {
		key = key + ":" + p
	}
	return key
}

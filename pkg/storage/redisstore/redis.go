package redisstore

import (
	"context"

	"github.com/c14220110/rekap-billing/config"
	"github.com/go-redis/redis/v8"
)

// NewClient membuat klien Redis dari konfigurasi. Mengembalikan nil bila REDIS_ADDR kosong.
func NewClient(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}

package config

import (
	"github.com/go-redis/redis/v8"
)

func NewRedisClient(c RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})
}

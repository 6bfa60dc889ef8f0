package storage

import (
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

var Redis *redis.Client

func InitializeRedis(addr string) {
	if addr == "" {
		addr = "localhost:6379"
		logrus.Warn("REDIS_URL not set, using localhost:6379 (development mode)")
	}

	Redis = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})

	logrus.WithField("addr", addr).Info("redis initialized")
}

package cache

import (
	"context"
	"time"

	"github.com/nemaks/recordstore/infrastructure/config"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedis connects the shared client when redis is enabled. It is a no-op otherwise, and
// GetRedis then returns nil.
func InitRedis(cfg *config.Config) error {
	if !cfg.Redis.Enabled {
		return nil
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return errors.Wrap(err, "ping redis")
	}

	redisClient = client
	return nil
}

func redisOptions(cfg *config.Config) (*redis.Options, error) {
	if cfg.Redis.Url != "" {
		opts, err := redis.ParseURL(cfg.Redis.Url)
		if err != nil {
			return nil, errors.Wrap(err, "parse redis url")
		}
		return opts, nil
	}

	return &redis.Options{
		Addr:         cfg.GetRedisAddress(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.Db,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
		PoolTimeout:  cfg.Redis.PoolTimeout,
	}, nil
}

func GetRedis() *redis.Client {
	return redisClient
}

func CloseRedis() error {
	if redisClient == nil {
		return nil
	}
	err := redisClient.Close()
	redisClient = nil
	return err
}

package redis

import (
	"context"
	"fmt"

	"wisefido-cardiac/internal/common/config"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient 按配置创建客户端；PoolSize / Timeout 为 0 时保留 go-redis 默认值
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.Timeout > 0 {
		opts.DialTimeout = cfg.Timeout
		opts.ReadTimeout = cfg.Timeout
		opts.WriteTimeout = cfg.Timeout
	}
	return redis.NewClient(opts)
}

// Ping 连通性检查，错误中带上地址和库号
func Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		opts := client.Options()
		return fmt.Errorf("redis %s db=%d unreachable: %w", opts.Addr, opts.DB, err)
	}
	return nil
}

// Close 关闭客户端，nil 安全
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}

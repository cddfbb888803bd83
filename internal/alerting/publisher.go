package alerting

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	redisstreams "wisefido-cardiac/internal/common/redis"
)

// 结果流中的消息类型
const (
	MessageTypeDecision = "decision"
	MessageTypeAnalysis = "analysis"
)

// StreamPublisher 结果时间线发布
type StreamPublisher interface {
	Publish(ctx context.Context, msgType string, data interface{}) error
}

// RedisStreamPublisher 将结果写入 Redis Stream（cardiac:result:stream）
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamPublisher 创建 Stream 发布器；maxLen > 0 时近似裁剪
func NewRedisStreamPublisher(client *redis.Client, stream string, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

// Publish 实现 StreamPublisher
func (p *RedisStreamPublisher) Publish(ctx context.Context, msgType string, data interface{}) error {
	if _, err := redisstreams.PublishJSONToStream(ctx, p.client, p.stream, p.maxLen, msgType, data); err != nil {
		return fmt.Errorf("failed to publish %s to stream %s: %w", msgType, p.stream, err)
	}
	return nil
}

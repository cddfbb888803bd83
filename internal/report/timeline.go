package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"wisefido-cardiac/internal/alerting"
	redisstreams "wisefido-cardiac/internal/common/redis"
	"wisefido-cardiac/internal/models"
)

// Timeline 一个设备的结果时间线
type Timeline struct {
	DeviceID  string
	Decisions []models.DecisionRecord
	Analyses  []models.AnalysisRecord
}

// Empty 时间线中没有任何记录
func (t *Timeline) Empty() bool {
	return len(t.Decisions) == 0 && len(t.Analyses) == 0
}

// StreamReader 以消费者组方式读取结果流
// 同一个组重复运行只读取上次之后的新消息
type StreamReader struct {
	client    *redis.Client
	stream    string
	group     string
	consumer  string
	batchSize int64
	logger    *zap.Logger
}

// NewStreamReader 创建结果流读取器
func NewStreamReader(client *redis.Client, stream, group, consumer string, logger *zap.Logger) *StreamReader {
	return &StreamReader{
		client:    client,
		stream:    stream,
		group:     group,
		consumer:  consumer,
		batchSize: 500,
		logger:    logger,
	}
}

// ReadTimeline 读取结果流中尚未消费的消息，返回指定设备的时间线
// 其他设备的消息同样确认，不会重复读取
func (r *StreamReader) ReadTimeline(ctx context.Context, deviceID string) (*Timeline, error) {
	if err := redisstreams.CreateConsumerGroup(ctx, r.client, r.stream, r.group); err != nil {
		return nil, err
	}

	timeline := &Timeline{DeviceID: deviceID}
	for {
		messages, err := redisstreams.ReadFromStream(ctx, r.client, r.stream, r.group, r.consumer, r.batchSize, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to read result stream %s: %w", r.stream, err)
		}
		if len(messages) == 0 {
			break
		}

		ids := make([]string, 0, len(messages))
		for _, msg := range messages {
			ids = append(ids, msg.ID)
			if err := r.collect(timeline, msg); err != nil {
				r.logger.Warn("Skipping malformed stream message",
					zap.String("stream_id", msg.ID),
					zap.Error(err),
				)
			}
		}
		if err := redisstreams.AckMessages(ctx, r.client, r.stream, r.group, ids...); err != nil {
			return nil, fmt.Errorf("failed to ack stream messages: %w", err)
		}
	}

	sort.SliceStable(timeline.Decisions, func(i, j int) bool {
		return timeline.Decisions[i].Timestamp < timeline.Decisions[j].Timestamp
	})
	sort.SliceStable(timeline.Analyses, func(i, j int) bool {
		return timeline.Analyses[i].Timestamp < timeline.Analyses[j].Timestamp
	})

	r.logger.Info("Result timeline loaded",
		zap.String("device_id", deviceID),
		zap.Int("decisions", len(timeline.Decisions)),
		zap.Int("analyses", len(timeline.Analyses)),
	)
	return timeline, nil
}

func (r *StreamReader) collect(timeline *Timeline, msg redisstreams.StreamMessage) error {
	msgType, _ := msg.Values["type"].(string)
	data, ok := msg.Values["data"].(string)
	if !ok {
		return fmt.Errorf("missing data field")
	}

	switch msgType {
	case alerting.MessageTypeDecision:
		var record models.DecisionRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return fmt.Errorf("failed to unmarshal decision: %w", err)
		}
		if record.DeviceID == timeline.DeviceID {
			timeline.Decisions = append(timeline.Decisions, record)
		}
	case alerting.MessageTypeAnalysis:
		var record models.AnalysisRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return fmt.Errorf("failed to unmarshal analysis: %w", err)
		}
		if record.DeviceID == timeline.DeviceID {
			timeline.Analyses = append(timeline.Analyses, record)
		}
	default:
		return fmt.Errorf("unknown message type %q", msgType)
	}
	return nil
}

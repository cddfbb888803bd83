package report

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-cardiac/internal/alerting"
	redisstreams "wisefido-cardiac/internal/common/redis"
	"wisefido-cardiac/internal/models"
)

const testStream = "cardiac:result:stream"

func setupTestRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func publishSample(t *testing.T, client *redis.Client) {
	t.Helper()
	ctx := context.Background()
	pub := alerting.NewRedisStreamPublisher(client, testStream, 0)

	require.NoError(t, pub.Publish(ctx, alerting.MessageTypeDecision, models.DecisionRecord{
		DeviceID:           "strap-01",
		MonitoringDecision: models.MonitoringDecision{HeartRate: 90, Timestamp: 2000},
		StatusText:         "90 BPM - Normal",
	}))
	require.NoError(t, pub.Publish(ctx, alerting.MessageTypeDecision, models.DecisionRecord{
		DeviceID:           "strap-01",
		MonitoringDecision: models.MonitoringDecision{HeartRate: 72, Timestamp: 1000},
		StatusText:         "72 BPM - Normal",
	}))
	require.NoError(t, pub.Publish(ctx, alerting.MessageTypeDecision, models.DecisionRecord{
		DeviceID:           "strap-02",
		MonitoringDecision: models.MonitoringDecision{HeartRate: 60, Timestamp: 1500},
	}))
	require.NoError(t, pub.Publish(ctx, alerting.MessageTypeAnalysis,
		models.NewAnalysisRecord("strap-01", models.Abnormal{Conditions: []string{"Atrial Fibrillation"}, IsCritical: true}, 1800)))
}

func TestStreamReader_ReadTimeline(t *testing.T) {
	client := setupTestRedis(t)
	publishSample(t, client)

	reader := NewStreamReader(client, testStream, "report-test", "reader-1", zap.NewNop())
	timeline, err := reader.ReadTimeline(context.Background(), "strap-01")
	require.NoError(t, err)

	require.Len(t, timeline.Decisions, 2)
	assert.Equal(t, 72, timeline.Decisions[0].HeartRate)
	assert.Equal(t, 90, timeline.Decisions[1].HeartRate)
	assert.Equal(t, "90 BPM - Normal", timeline.Decisions[1].StatusText)

	require.Len(t, timeline.Analyses, 1)
	assert.Equal(t, models.ResultKindAbnormal, timeline.Analyses[0].Kind)
	assert.True(t, timeline.Analyses[0].IsCritical)
}

func TestStreamReader_GroupReadsOnlyNewMessages(t *testing.T) {
	client := setupTestRedis(t)
	publishSample(t, client)

	reader := NewStreamReader(client, testStream, "report-test", "reader-1", zap.NewNop())
	_, err := reader.ReadTimeline(context.Background(), "strap-01")
	require.NoError(t, err)

	timeline, err := reader.ReadTimeline(context.Background(), "strap-01")
	require.NoError(t, err)
	assert.True(t, timeline.Empty())

	// 另一个组从头读取
	other := NewStreamReader(client, testStream, "report-other", "reader-1", zap.NewNop())
	timeline, err = other.ReadTimeline(context.Background(), "strap-02")
	require.NoError(t, err)
	assert.Len(t, timeline.Decisions, 1)
}

func TestStreamReader_SkipsMalformedMessages(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	_, err := redisstreams.PublishToStream(ctx, client, testStream, 0, map[string]interface{}{
		"type": "decision",
		"data": "{broken",
	})
	require.NoError(t, err)
	_, err = redisstreams.PublishToStream(ctx, client, testStream, 0, map[string]interface{}{
		"type": "heartbeat",
		"data": "{}",
	})
	require.NoError(t, err)

	reader := NewStreamReader(client, testStream, "report-test", "reader-1", zap.NewNop())
	timeline, err := reader.ReadTimeline(ctx, "strap-01")
	require.NoError(t, err)
	assert.True(t, timeline.Empty())
}

func TestStreamReader_EmptyStream(t *testing.T) {
	client := setupTestRedis(t)

	reader := NewStreamReader(client, testStream, "report-test", "reader-1", zap.NewNop())
	timeline, err := reader.ReadTimeline(context.Background(), "strap-01")
	require.NoError(t, err)
	assert.True(t, timeline.Empty())
	assert.Equal(t, "strap-01", timeline.DeviceID)
}

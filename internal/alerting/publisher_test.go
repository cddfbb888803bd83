package alerting

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisefido-cardiac/internal/models"
)

func TestRedisStreamPublisher_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	pub := NewRedisStreamPublisher(client, "cardiac:result:stream", 1000)
	require.NoError(t, pub.Publish(ctx, MessageTypeAnalysis,
		models.NewAnalysisRecord("strap-1", models.Skipped{Reason: "Leads Off / Signal Lost"}, 10)))

	entries, err := client.XRange(ctx, "cardiac:result:stream", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, MessageTypeAnalysis, entries[0].Values["type"])
	assert.Contains(t, entries[0].Values["data"], `"kind":"skipped"`)
}

func TestRedisStreamPublisher_ConnectionError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	pub := NewRedisStreamPublisher(client, "cardiac:result:stream", 0)
	err := pub.Publish(context.Background(), MessageTypeDecision, models.DecisionRecord{DeviceID: "strap-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cardiac:result:stream")
}

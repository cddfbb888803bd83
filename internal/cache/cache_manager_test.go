package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-cardiac/internal/cache"
	"wisefido-cardiac/internal/models"
)

func TestCacheManager_RealtimeKey(t *testing.T) {
	c := cache.NewCacheManager(cache.DefaultConfig(), newFakeKVStore(), zap.NewNop())
	assert.Equal(t, "cardiac:device:strap-1:realtime", c.RealtimeKey("strap-1"))
}

func TestCacheManager_MergesDecisionAndAnalysis(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKVStore()
	c := cache.NewCacheManager(cache.DefaultConfig(), kv, zap.NewNop())

	_, err := c.GetRealtimeData(ctx, "strap-1")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	decision := models.MonitoringDecision{
		HeartRate:     112,
		ActivityState: models.LightActivity,
		SMAValue:      1.2,
		InCooldown:    true,
		Timestamp:     1000,
	}
	require.NoError(t, c.UpdateDecision(ctx, "strap-1", decision, "112 BPM - LIGHT_ACTIVITY (Recovery)"))

	record := models.NewAnalysisRecord("strap-1", models.Abnormal{Conditions: []string{"PVC"}}, 2000)
	require.NoError(t, c.UpdateAnalysis(ctx, record))

	battery := 80
	require.NoError(t, c.UpdateDeviceStatus(ctx, "strap-1", &battery, nil, 1500))

	data, err := c.GetRealtimeData(ctx, "strap-1")
	require.NoError(t, err)
	assert.Equal(t, "strap-1", data.DeviceID)
	require.NotNil(t, data.HeartRate)
	assert.Equal(t, 112, *data.HeartRate)
	require.NotNil(t, data.ActivityState)
	assert.Equal(t, models.LightActivity, *data.ActivityState)
	assert.True(t, data.InCooldown)
	assert.Equal(t, "112 BPM - LIGHT_ACTIVITY (Recovery)", data.StatusText)
	require.NotNil(t, data.LastAnalysis)
	assert.Equal(t, []string{"PVC"}, data.LastAnalysis.Conditions)
	require.NotNil(t, data.Battery)
	assert.Equal(t, 80, *data.Battery)
	assert.Nil(t, data.Temperature)
	assert.Equal(t, int64(2000), data.Timestamp)

	assert.Equal(t, cache.DefaultConfig().RealtimeTTL, kv.ttl(c.RealtimeKey("strap-1")))
}

func TestCacheManager_CorruptEntryIsOverwritten(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKVStore()
	c := cache.NewCacheManager(cache.DefaultConfig(), kv, zap.NewNop())

	require.NoError(t, kv.Set(ctx, c.RealtimeKey("strap-1"), "{not json", 0))

	require.NoError(t, c.UpdateDecision(ctx, "strap-1", models.MonitoringDecision{HeartRate: 70}, "70 BPM - Normal"))
	data, err := c.GetRealtimeData(ctx, "strap-1")
	require.NoError(t, err)
	assert.Equal(t, 70, *data.HeartRate)
}

func TestCacheManager_Delete(t *testing.T) {
	ctx := context.Background()
	c := cache.NewCacheManager(cache.DefaultConfig(), newFakeKVStore(), zap.NewNop())

	require.NoError(t, c.UpdateDecision(ctx, "strap-1", models.MonitoringDecision{HeartRate: 70}, ""))
	require.NoError(t, c.DeleteRealtimeData(ctx, "strap-1"))

	_, err := c.GetRealtimeData(ctx, "strap-1")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

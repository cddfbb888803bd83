package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisefido-cardiac/internal/common/config"
)

func TestNewRedisClient_AppliesOptions(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(&config.RedisConfig{
		Addr:     mr.Addr(),
		DB:       2,
		PoolSize: 7,
		Timeout:  300 * time.Millisecond,
	})
	defer Close(client)

	opts := client.Options()
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, 300*time.Millisecond, opts.ReadTimeout)
	assert.Equal(t, 300*time.Millisecond, opts.WriteTimeout)
	require.NoError(t, Ping(context.Background(), client))
}

func TestPing_ReportsAddress(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client := NewRedisClient(&config.RedisConfig{Addr: addr, Timeout: 200 * time.Millisecond})
	defer Close(client)

	err := Ping(context.Background(), client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, Close(nil))
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"wisefido-cardiac/internal/models"
)

// Config 缓存键与 TTL
type Config struct {
	KeyPrefix      string        // cardiac:device:
	RealtimeSuffix string        // :realtime
	RealtimeTTL    time.Duration // 设备离线后实时数据保留时长
	StatePrefix    string        // cardiac:state:
	StateTTL       time.Duration // 冷却状态保留时长
}

// DefaultConfig 默认缓存配置
func DefaultConfig() Config {
	return Config{
		KeyPrefix:      "cardiac:device:",
		RealtimeSuffix: ":realtime",
		RealtimeTTL:    5 * time.Minute,
		StatePrefix:    "cardiac:state:",
		StateTTL:       30 * time.Minute,
	}
}

// CacheManager 设备实时数据缓存
// 心率决策、节律分析和设备状态分别到达，各自合并进同一条实时记录
// 合并（读-改-写）在进程内串行
type CacheManager struct {
	config Config
	kv     KVStore
	logger *zap.Logger
	mu     sync.Mutex
}

// NewCacheManager 创建缓存管理器
func NewCacheManager(cfg Config, kv KVStore, logger *zap.Logger) *CacheManager {
	return &CacheManager{
		config: cfg,
		kv:     kv,
		logger: logger,
	}
}

// RealtimeKey 构建实时数据键：cardiac:device:{device_id}:realtime
func (c *CacheManager) RealtimeKey(deviceID string) string {
	return fmt.Sprintf("%s%s%s", c.config.KeyPrefix, deviceID, c.config.RealtimeSuffix)
}

// GetRealtimeData 读取实时数据，不存在时返回 ErrCacheMiss
func (c *CacheManager) GetRealtimeData(ctx context.Context, deviceID string) (*models.RealtimeData, error) {
	val, err := c.kv.Get(ctx, c.RealtimeKey(deviceID))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get realtime data: %w", err)
	}

	var data models.RealtimeData
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal realtime data: %w", err)
	}
	return &data, nil
}

// UpdateDecision 合并一次心率决策
func (c *CacheManager) UpdateDecision(ctx context.Context, deviceID string, decision models.MonitoringDecision, statusText string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := c.load(ctx, deviceID)

	hr := decision.HeartRate
	state := decision.ActivityState
	sma := decision.SMAValue
	data.HeartRate = &hr
	data.ActivityState = &state
	data.SMAValue = &sma
	data.InCooldown = decision.InCooldown
	data.StatusText = statusText
	data.Timestamp = decision.Timestamp

	return c.save(ctx, data)
}

// UpdateAnalysis 合并一次节律分析结果
func (c *CacheManager) UpdateAnalysis(ctx context.Context, record models.AnalysisRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := c.load(ctx, record.DeviceID)
	data.LastAnalysis = &record
	if record.Timestamp > data.Timestamp {
		data.Timestamp = record.Timestamp
	}
	return c.save(ctx, data)
}

// UpdateDeviceStatus 合并电量和皮温
func (c *CacheManager) UpdateDeviceStatus(ctx context.Context, deviceID string, battery *int, temperature *float64, timestamp int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := c.load(ctx, deviceID)
	if battery != nil {
		data.Battery = battery
	}
	if temperature != nil {
		data.Temperature = temperature
	}
	if timestamp > data.Timestamp {
		data.Timestamp = timestamp
	}
	return c.save(ctx, data)
}

// DeleteRealtimeData 删除实时数据（设备断开时）
func (c *CacheManager) DeleteRealtimeData(ctx context.Context, deviceID string) error {
	if err := c.kv.Del(ctx, c.RealtimeKey(deviceID)); err != nil {
		return fmt.Errorf("failed to delete realtime data: %w", err)
	}
	return nil
}

// load 读取已有记录；不存在或损坏时从空记录开始
func (c *CacheManager) load(ctx context.Context, deviceID string) *models.RealtimeData {
	data, err := c.GetRealtimeData(ctx, deviceID)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("Failed to read realtime data, overwriting",
				zap.String("device_id", deviceID),
				zap.Error(err),
			)
		}
		return &models.RealtimeData{DeviceID: deviceID}
	}
	return data
}

func (c *CacheManager) save(ctx context.Context, data *models.RealtimeData) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal realtime data: %w", err)
	}
	if err := c.kv.Set(ctx, c.RealtimeKey(data.DeviceID), string(jsonData), c.config.RealtimeTTL); err != nil {
		return fmt.Errorf("failed to set realtime data: %w", err)
	}
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CooldownState 持久化的冷却状态
type CooldownState struct {
	LastExerciseAt int64 `json:"last_exercise_at"` // Unix 毫秒
	UpdatedAt      int64 `json:"updated_at"`
}

// StateManager 监测状态持久化（带 TTL）
// 设备短暂断线重连时恢复冷却计时，避免运动后立即误报
type StateManager struct {
	config Config
	kv     KVStore
	logger *zap.Logger
}

// NewStateManager 创建状态管理器
func NewStateManager(cfg Config, kv KVStore, logger *zap.Logger) *StateManager {
	return &StateManager{
		config: cfg,
		kv:     kv,
		logger: logger,
	}
}

// StateKey 构建状态键：cardiac:state:{device_id}:cooldown
func (s *StateManager) StateKey(deviceID string) string {
	return fmt.Sprintf("%s%s:cooldown", s.config.StatePrefix, deviceID)
}

// LoadLastExercise 读取上次运动时间，不存在时返回零值
func (s *StateManager) LoadLastExercise(ctx context.Context, deviceID string) (time.Time, error) {
	val, err := s.kv.Get(ctx, s.StateKey(deviceID))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get state: %w", err)
	}

	var state CooldownState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return time.Time{}, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if state.LastExerciseAt == 0 {
		return time.Time{}, nil
	}

	s.logger.Debug("Loaded cooldown state",
		zap.String("device_id", deviceID),
		zap.Int64("last_exercise_at", state.LastExerciseAt),
	)
	return time.UnixMilli(state.LastExerciseAt), nil
}

// SaveLastExercise 保存上次运动时间
func (s *StateManager) SaveLastExercise(ctx context.Context, deviceID string, t time.Time) error {
	jsonData, err := json.Marshal(CooldownState{
		LastExerciseAt: t.UnixMilli(),
		UpdatedAt:      time.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := s.kv.Set(ctx, s.StateKey(deviceID), string(jsonData), s.config.StateTTL); err != nil {
		return fmt.Errorf("failed to set state: %w", err)
	}
	return nil
}

// DeleteState 删除状态
func (s *StateManager) DeleteState(ctx context.Context, deviceID string) error {
	if err := s.kv.Del(ctx, s.StateKey(deviceID)); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

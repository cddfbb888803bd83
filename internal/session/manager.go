package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"wisefido-cardiac/internal/monitoring"
)

// CooldownStore 上次运动时间的持久化（设备断线重连后恢复冷却状态）
type CooldownStore interface {
	LoadLastExercise(ctx context.Context, deviceID string) (time.Time, error)
	SaveLastExercise(ctx context.Context, deviceID string, t time.Time) error
}

// Manager 按设备管理监测会话
type Manager struct {
	config     Config
	analyzer   monitoring.Analyzer
	dispatcher Dispatcher
	store      CooldownStore
	clock      monitoring.Clock
	logger     *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	ctx      context.Context
}

// NewManager 创建会话管理器；store 可以为 nil
func NewManager(
	cfg Config,
	analyzer monitoring.Analyzer,
	dispatcher Dispatcher,
	store CooldownStore,
	clock monitoring.Clock,
	logger *zap.Logger,
) *Manager {
	if clock == nil {
		clock = monitoring.SystemClock{}
	}
	return &Manager{
		config:     cfg,
		analyzer:   analyzer,
		dispatcher: dispatcher,
		store:      store,
		clock:      clock,
		logger:     logger,
		sessions:   make(map[string]*Session),
		ctx:        context.Background(),
	}
}

// Start 记录会话使用的上下文；persistInterval > 0 时定期保存冷却状态
func (m *Manager) Start(ctx context.Context, persistInterval time.Duration) {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()

	if persistInterval <= 0 || m.store == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(persistInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.persistAll(ctx)
			}
		}
	}()
}

// Get 返回设备会话，不存在时返回 nil
func (m *Manager) Get(deviceID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[deviceID]
}

// GetOrCreate 返回设备会话，不存在时创建、恢复冷却状态并启动
func (m *Manager) GetOrCreate(deviceID string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[deviceID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[deviceID]; ok {
		return s
	}

	s = NewSession(deviceID, m.config, m.analyzer, m.dispatcher, m.clock, m.logger)
	m.restore(s)
	s.Start(m.ctx)
	m.sessions[deviceID] = s
	return s
}

// Remove 停止并移除设备会话
func (m *Manager) Remove(deviceID string) {
	m.mu.Lock()
	s, ok := m.sessions[deviceID]
	delete(m.sessions, deviceID)
	m.mu.Unlock()
	if !ok {
		return
	}

	s.Stop()
	m.persist(context.Background(), s)
}

// Stop 停止全部会话
func (m *Manager) Stop() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
		m.persist(context.Background(), s)
	}
	m.logger.Info("All monitoring sessions stopped", zap.Int("count", len(sessions)))
}

// Devices 当前有会话的设备（排序）
func (m *Manager) Devices() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LastHeartRate 设备最近一次可用的心率
func (m *Manager) LastHeartRate(deviceID string) (int, bool) {
	s := m.Get(deviceID)
	if s == nil {
		return 0, false
	}
	return s.LastHeartRate()
}

func (m *Manager) restore(s *Session) {
	if m.store == nil {
		return
	}
	last, err := m.store.LoadLastExercise(m.ctx, s.DeviceID())
	if err != nil {
		m.logger.Warn("Failed to load cooldown state",
			zap.String("device_id", s.DeviceID()),
			zap.Error(err),
		)
		return
	}
	if !last.IsZero() {
		s.RestoreLastExercise(last)
	}
}

func (m *Manager) persist(ctx context.Context, s *Session) {
	if m.store == nil {
		return
	}
	last := s.LastExercise()
	if last.IsZero() {
		return
	}
	if err := m.store.SaveLastExercise(ctx, s.DeviceID(), last); err != nil {
		m.logger.Warn("Failed to save cooldown state",
			zap.String("device_id", s.DeviceID()),
			zap.Error(err),
		)
	}
}

func (m *Manager) persistAll(ctx context.Context) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		m.persist(ctx, s)
	}
}

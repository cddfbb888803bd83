package monitoring

import (
	"fmt"
	"sync"
	"time"

	"wisefido-cardiac/internal/models"
)

// 决策原因文本
const (
	ReasonIntenseExercise  = "High HR justified by intense exercise"
	ReasonModerateActivity = "High HR during moderate activity"
	ReasonRecoveryPhase    = "Recovery phase - monitoring elevated HR"
	ReasonReturningToBase  = "Recovery phase - HR returning to baseline"
	ReasonElevatedAtRest   = "Monitoring: Elevated HR at rest"

	reasonNotRecoveringFmt = "CRITICAL: Heart rate not recovering after exercise (HR: %d BPM)"
	reasonTachycardiaFmt   = "CRITICAL ALERT: Tachycardia at rest detected (HR: %d BPM)"
)

// ContextConfig 决策矩阵参数
type ContextConfig struct {
	ElevatedThreshold int           // 开始关注的心率（BPM）
	CriticalThreshold int           // 可能告警的心率（BPM）
	CooldownDuration  time.Duration // 运动后冷却时长
	RecoveryGrace     time.Duration // 冷却开始后的宽限期，期内高心率不告警
}

// DefaultContextConfig 默认参数（100 / 120 BPM，冷却 5 分钟，宽限 2 分钟）
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		ElevatedThreshold: 100,
		CriticalThreshold: 120,
		CooldownDuration:  5 * time.Minute,
		RecoveryGrace:     2 * time.Minute,
	}
}

// ContextAwareMonitor 结合心率、活动状态和冷却计时给出告警决策
//
//	高心率 + 高活动 = 运动（正常）
//	高心率 + 低活动 = 可能病理（告警）
//	正常心率 = 不告警
type ContextAwareMonitor struct {
	mu       sync.Mutex
	config   ContextConfig
	tracker  *ActivityTracker
	cooldown *CooldownTimer
	clock    Clock
}

// NewContextAwareMonitor 创建决策器，tracker 为该设备唯一的活动状态持有者
func NewContextAwareMonitor(config ContextConfig, tracker *ActivityTracker, clock Clock) *ContextAwareMonitor {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ContextAwareMonitor{
		config:   config,
		tracker:  tracker,
		cooldown: NewCooldownTimer(config.CooldownDuration),
		clock:    clock,
	}
}

// UpdateActivity 处理一个加速度样本；中等及以上强度记录为运动并退出冷却
func (m *ContextAwareMonitor) UpdateActivity(ax, ay, az float64) models.ActivityState {
	state := m.tracker.Update(ax, ay, az)
	if state.IsExercise() {
		m.mu.Lock()
		m.cooldown.MarkExercise(m.clock.Now())
		m.mu.Unlock()
	}
	return state
}

// EvaluateHeartRate 对一次心率读数给出决策
func (m *ContextAwareMonitor) EvaluateHeartRate(heartRate int) models.MonitoringDecision {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	inCooldown := m.cooldown.Refresh(now)
	state, sma := m.tracker.Snapshot()

	shouldAlert, reason := m.decide(heartRate, state, inCooldown, m.cooldown.SinceExercise(now))

	decision := models.MonitoringDecision{
		HeartRate:     heartRate,
		ActivityState: state,
		SMAValue:      sma,
		ShouldAlert:   shouldAlert,
		InCooldown:    inCooldown,
		Timestamp:     now.UnixMilli(),
	}
	if reason != "" {
		decision.AlertReason = &reason
	}
	return decision
}

func (m *ContextAwareMonitor) decide(hr int, state models.ActivityState, inCooldown bool, sinceExercise time.Duration) (bool, string) {
	switch {
	case hr < m.config.ElevatedThreshold:
		return false, ""

	// 100-119：只观察，从不告警
	case hr < m.config.CriticalThreshold:
		switch {
		case state.IsExercise():
			return false, ""
		case inCooldown:
			return false, ReasonReturningToBase
		case state == models.Sedentary:
			return false, ReasonElevatedAtRest
		default:
			return false, ""
		}
	}

	switch {
	case state == models.IntenseActivity:
		return false, ReasonIntenseExercise
	case state == models.ModerateActivity:
		return false, ReasonModerateActivity
	case inCooldown:
		if sinceExercise < m.config.RecoveryGrace {
			return false, ReasonRecoveryPhase
		}
		return true, fmt.Sprintf(reasonNotRecoveringFmt, hr)
	default:
		return true, fmt.Sprintf(reasonTachycardiaFmt, hr)
	}
}

// LastExercise 上次运动时间，用于持久化
func (m *ContextAwareMonitor) LastExercise() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cooldown.LastExercise()
}

// RestoreLastExercise 恢复持久化的上次运动时间（设备重连时）
func (m *ContextAwareMonitor) RestoreLastExercise(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cooldown.Restore(t)
}

// DiagnosticInfo 调试信息
func (m *ContextAwareMonitor) DiagnosticInfo() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, sma := m.tracker.Snapshot()
	cooldown := "Not in cooldown"
	if m.cooldown.InCooldown() {
		elapsed := m.cooldown.SinceExercise(m.clock.Now())
		cooldown = fmt.Sprintf("In cooldown (%ds elapsed)", int64(elapsed/time.Second))
	}
	return fmt.Sprintf("Activity: %s\nSMA: %.3f m/s²\nCooldown: %s", state, sma, cooldown)
}

// Reset 清空活动分级和冷却状态
func (m *ContextAwareMonitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracker.Reset()
	m.cooldown.Reset()
}

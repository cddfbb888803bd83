package monitoring

import (
	"math"
	"sync"

	"wisefido-cardiac/internal/models"
)

// StandardGravity 标准重力加速度（m/s²）
const StandardGravity = 9.81

// ActivityConfig 活动分级参数
type ActivityConfig struct {
	SmoothingWindow    int     // SMA 平滑窗口（样本数）
	SedentaryThreshold float64 // SMA 低于此值为 Sedentary
	LightThreshold     float64 // SMA 低于此值为 LightActivity
	ModerateThreshold  float64 // SMA 低于此值为 ModerateActivity，否则 IntenseActivity
}

// DefaultActivityConfig 默认分级参数
func DefaultActivityConfig() ActivityConfig {
	return ActivityConfig{
		SmoothingWindow:    10,
		SedentaryThreshold: 0.5,
		LightThreshold:     2.0,
		ModerateThreshold:  4.0,
	}
}

// CalculateMotionIntensity 去除重力后的合加速度偏差
func CalculateMotionIntensity(ax, ay, az float64) float64 {
	magnitude := math.Sqrt(ax*ax + ay*ay + az*az)
	return math.Abs(magnitude - StandardGravity)
}

// ActivityClassifier 基于平滑运动强度（SMA）的活动分级器
// 非并发安全，并发场景使用 ActivityTracker
type ActivityClassifier struct {
	config ActivityConfig
	window *RingFloat
}

// NewActivityClassifier 创建活动分级器
func NewActivityClassifier(config ActivityConfig) *ActivityClassifier {
	if config.SmoothingWindow < 1 {
		config.SmoothingWindow = DefaultActivityConfig().SmoothingWindow
	}
	return &ActivityClassifier{
		config: config,
		window: NewRingFloat(config.SmoothingWindow),
	}
}

// Update 加入一个加速度样本，返回当前 SMA
func (c *ActivityClassifier) Update(ax, ay, az float64) float64 {
	c.window.Push(CalculateMotionIntensity(ax, ay, az))
	return c.window.Mean()
}

// Classify 加入样本并返回分级结果
func (c *ActivityClassifier) Classify(ax, ay, az float64) models.ActivityState {
	return c.StateFor(c.Update(ax, ay, az))
}

// StateFor 将 SMA 映射到活动状态
func (c *ActivityClassifier) StateFor(sma float64) models.ActivityState {
	switch {
	case sma < c.config.SedentaryThreshold:
		return models.Sedentary
	case sma < c.config.LightThreshold:
		return models.LightActivity
	case sma < c.config.ModerateThreshold:
		return models.ModerateActivity
	default:
		return models.IntenseActivity
	}
}

// CurrentSMA 当前窗口均值，窗口为空时为 0
func (c *ActivityClassifier) CurrentSMA() float64 {
	return c.window.Mean()
}

// Reset 清空平滑窗口
func (c *ActivityClassifier) Reset() {
	c.window.Reset()
}

// ActivityTracker 设备唯一的活动状态持有者
// 每个 IMU 样本更新一次，AiMonitor 和 ContextAwareMonitor 只读
type ActivityTracker struct {
	mu         sync.RWMutex
	classifier *ActivityClassifier
	state      models.ActivityState
	sma        float64
}

// NewActivityTracker 创建活动状态持有者
func NewActivityTracker(config ActivityConfig) *ActivityTracker {
	return &ActivityTracker{
		classifier: NewActivityClassifier(config),
		state:      models.Sedentary,
	}
}

// Update 用新的加速度样本更新状态
func (t *ActivityTracker) Update(ax, ay, az float64) models.ActivityState {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sma = t.classifier.Update(ax, ay, az)
	t.state = t.classifier.StateFor(t.sma)
	return t.state
}

// State 当前活动状态
func (t *ActivityTracker) State() models.ActivityState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// SMA 当前平滑运动强度
func (t *ActivityTracker) SMA() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sma
}

// Snapshot 同时读取状态和 SMA，保证二者一致
func (t *ActivityTracker) Snapshot() (models.ActivityState, float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state, t.sma
}

// Reset 回到 Sedentary、SMA 为 0
func (t *ActivityTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.classifier.Reset()
	t.state = models.Sedentary
	t.sma = 0
}

package monitoring

import "time"

// CooldownTimer 运动后冷却状态机
//
//	active --(MarkExercise)--> active（记录时间）
//	active --(Refresh, 距上次运动 < duration)--> cooldown
//	cooldown --(Refresh, 距上次运动 >= duration)--> active
//
// 状态只在 Refresh 时惰性更新。非并发安全，由 ContextAwareMonitor 加锁使用
type CooldownTimer struct {
	duration     time.Duration
	lastExercise time.Time
	inCooldown   bool
}

// NewCooldownTimer 创建冷却计时器
func NewCooldownTimer(duration time.Duration) *CooldownTimer {
	return &CooldownTimer{duration: duration}
}

// MarkExercise 记录一次中等及以上强度的活动，退出冷却
func (c *CooldownTimer) MarkExercise(now time.Time) {
	c.lastExercise = now
	c.inCooldown = false
}

// Refresh 根据当前时间更新冷却状态并返回
func (c *CooldownTimer) Refresh(now time.Time) bool {
	if c.lastExercise.IsZero() {
		return c.inCooldown
	}
	c.inCooldown = now.Sub(c.lastExercise) < c.duration
	return c.inCooldown
}

// InCooldown 最近一次 Refresh 的结果
func (c *CooldownTimer) InCooldown() bool {
	return c.inCooldown
}

// SinceExercise 距上次运动的时长，从未运动时为 0
func (c *CooldownTimer) SinceExercise(now time.Time) time.Duration {
	if c.lastExercise.IsZero() {
		return 0
	}
	return now.Sub(c.lastExercise)
}

// LastExercise 上次运动时间（零值表示从未运动）
func (c *CooldownTimer) LastExercise() time.Time {
	return c.lastExercise
}

// Restore 从持久化状态恢复上次运动时间，下一次 Refresh 生效
func (c *CooldownTimer) Restore(lastExercise time.Time) {
	c.lastExercise = lastExercise
	c.inCooldown = false
}

// Reset 清空计时状态
func (c *CooldownTimer) Reset() {
	c.lastExercise = time.Time{}
	c.inCooldown = false
}

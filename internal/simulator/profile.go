package simulator

import (
	"time"

	"wisefido-cardiac/internal/monitoring"
)

// Phase 剧本中的一段：心率在时长内从 StartBPM 线性变化到 EndBPM
type Phase struct {
	Name      string
	Duration  time.Duration
	StartBPM  float64
	EndBPM    float64
	Intensity float64 // 运动强度 |‖a‖ - g|（m/s²）
}

// Profile 按时间顺序排列的阶段
type Profile []Phase

// RestRunRest 静息、跑步、恢复三段剧本
func RestRunRest(rest, run, recovery time.Duration) Profile {
	return Profile{
		{Name: "rest", Duration: rest, StartBPM: 72, EndBPM: 72, Intensity: 0.1},
		{Name: "run", Duration: run, StartBPM: 110, EndBPM: 155, Intensity: 6.0},
		{Name: "recovery", Duration: recovery, StartBPM: 140, EndBPM: 78, Intensity: 0.2},
	}
}

// Total 剧本总时长
func (p Profile) Total() time.Duration {
	var total time.Duration
	for _, ph := range p {
		total += ph.Duration
	}
	return total
}

// At 返回 elapsed 时刻所在阶段和该时刻的心率；超出剧本时停留在最后一段的终点
func (p Profile) At(elapsed time.Duration) (Phase, float64) {
	if len(p) == 0 {
		return Phase{}, 0
	}
	for _, ph := range p {
		if elapsed < ph.Duration {
			frac := float64(elapsed) / float64(ph.Duration)
			return ph, ph.StartBPM + (ph.EndBPM-ph.StartBPM)*frac
		}
		elapsed -= ph.Duration
	}
	last := p[len(p)-1]
	return last, last.EndBPM
}

// IMUSim 按阶段强度合成加速度计读数
// z 轴在 g ± Intensity 之间交替，每个样本的运动强度恰为 Intensity
type IMUSim struct {
	sign float64
}

// NewIMUSim 创建加速度计发生器
func NewIMUSim() *IMUSim {
	return &IMUSim{sign: 1}
}

// Next 返回下一个读数（m/s²）
func (s *IMUSim) Next(intensity float64) (ax, ay, az float64) {
	az = monitoring.StandardGravity + s.sign*intensity
	s.sign = -s.sign
	return 0, 0, az
}

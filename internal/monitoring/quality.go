package monitoring

import (
	"math"

	"wisefido-cardiac/internal/models"
)

// DefaultExtremeThreshold ECG 幅值超过此值视为饱和（mV）
const DefaultExtremeThreshold = 10.0

// SignalQualityGate 导联脱落检测
type SignalQualityGate struct {
	ExtremeThreshold float64
}

// NewSignalQualityGate 创建质量门控，threshold <= 0 时使用默认值
func NewSignalQualityGate(threshold float64) *SignalQualityGate {
	if threshold <= 0 {
		threshold = DefaultExtremeThreshold
	}
	return &SignalQualityGate{ExtremeThreshold: threshold}
}

// IsLeadsOff 窗口为空、ECG 完全不变（数字平线）或任一样本饱和时返回 true
// 低幅但有变化的信号不属于导联脱落，交由停搏检测处理
func (g *SignalQualityGate) IsLeadsOff(frames []models.SensorFrame) bool {
	if len(frames) == 0 {
		return true
	}
	first := math.Float64bits(frames[0].ECG)
	flat := true
	for _, f := range frames {
		if math.Abs(f.ECG) > g.ExtremeThreshold {
			return true
		}
		if math.Float64bits(f.ECG) != first {
			flat = false
		}
	}
	return flat
}

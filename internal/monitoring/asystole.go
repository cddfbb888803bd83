package monitoring

import "wisefido-cardiac/internal/models"

// 停搏判定的方差区间（开区间）
// 低于下限视为数字平线（导联脱落），高于上限说明存在正常电活动
const (
	DefaultAsystoleMinVariance = 0.0001
	DefaultAsystoleMaxVariance = 0.05
)

// AsystoleDetector 基于 ECG 方差的停搏检测
type AsystoleDetector struct {
	MinVariance float64
	MaxVariance float64
}

// NewAsystoleDetector 使用默认区间创建检测器
func NewAsystoleDetector() *AsystoleDetector {
	return &AsystoleDetector{
		MinVariance: DefaultAsystoleMinVariance,
		MaxVariance: DefaultAsystoleMaxVariance,
	}
}

// IsPotentialAsystole 方差落在 (MinVariance, MaxVariance) 内时返回 true
func (d *AsystoleDetector) IsPotentialAsystole(frames []models.SensorFrame) bool {
	if len(frames) == 0 {
		return false
	}
	v := Variance(models.ECGValues(frames))
	return v > d.MinVariance && v < d.MaxVariance
}

// Variance 总体方差
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

// Mean 算术平均
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

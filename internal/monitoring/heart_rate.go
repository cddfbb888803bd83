package monitoring

import (
	"math"
	"sync"

	"wisefido-cardiac/internal/models"
)

// HeartRateConfig R 峰检测参数
type HeartRateConfig struct {
	SampleRate          int     // ECG 采样率（Hz）
	MinSeconds          int     // 至少需要的数据时长（秒）
	MinPeakDistanceMs   int64   // 相邻 R 峰最小间隔（毫秒）
	PeakThresholdFactor float64 // 阈值 = 均值 + 标准差 × 系数
	PeakRetentionMs     int64   // R 峰保留时长（毫秒）
	MinBPM              int
	MaxBPM              int
}

// DefaultHeartRateConfig 默认参数（100Hz，5 秒起算，300ms 不应期，10 秒保留）
func DefaultHeartRateConfig() HeartRateConfig {
	return HeartRateConfig{
		SampleRate:          100,
		MinSeconds:          5,
		MinPeakDistanceMs:   300,
		PeakThresholdFactor: 0.5,
		PeakRetentionMs:     10000,
		MinBPM:              30,
		MaxBPM:              250,
	}
}

// HeartRateExtractor 基于自适应阈值的 R 峰检测与心率计算
// 峰值时间在多次调用之间保留，保留窗口以最新帧的时间戳为基准裁剪
type HeartRateExtractor struct {
	mu           sync.Mutex
	config       HeartRateConfig
	peaks        []int64
	lastPeakTime int64
}

// NewHeartRateExtractor 创建心率提取器
func NewHeartRateExtractor(config HeartRateConfig) *HeartRateExtractor {
	return &HeartRateExtractor{config: config}
}

// ExtractHeartRate 处理最近的帧并返回心率（BPM）
// 数据不足、峰值不足或结果超出合理范围时 ok 为 false
func (e *HeartRateExtractor) ExtractHeartRate(frames []models.SensorFrame) (bpm int, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(frames) < e.config.SampleRate*e.config.MinSeconds {
		return 0, false
	}

	e.prune(frames[len(frames)-1].Timestamp)
	e.detectPeaks(frames)
	return e.calculate()
}

// LastHeartRate 使用已保留的峰值重新计算心率，不处理新数据
func (e *HeartRateExtractor) LastHeartRate() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calculate()
}

// Reset 清空峰值状态
func (e *HeartRateExtractor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.peaks = e.peaks[:0]
	e.lastPeakTime = 0
}

func (e *HeartRateExtractor) prune(now int64) {
	kept := e.peaks[:0]
	for _, p := range e.peaks {
		if now-p <= e.config.PeakRetentionMs {
			kept = append(kept, p)
		}
	}
	e.peaks = kept
}

func (e *HeartRateExtractor) detectPeaks(frames []models.SensorFrame) {
	if len(frames) < 3 {
		return
	}

	values := models.ECGValues(frames)
	threshold := Mean(values) + math.Sqrt(Variance(values))*e.config.PeakThresholdFactor

	// 已检出的峰时间戳不大于 lastPeakTime，重复扫描不会重复计入
	for i := 1; i < len(values)-1; i++ {
		cur := values[i]
		if cur <= values[i-1] || cur <= values[i+1] || cur <= threshold {
			continue
		}
		ts := frames[i].Timestamp
		if ts-e.lastPeakTime >= e.config.MinPeakDistanceMs {
			e.peaks = append(e.peaks, ts)
			e.lastPeakTime = ts
		}
	}
}

func (e *HeartRateExtractor) calculate() (int, bool) {
	n := len(e.peaks)
	if n < 2 {
		return 0, false
	}

	// 相邻间隔的均值等于首尾跨度除以间隔数
	avgInterval := float64(e.peaks[n-1]-e.peaks[0]) / float64(n-1)
	if avgInterval <= 0 {
		return 0, false
	}

	bpm := int(math.Round(60000.0 / avgInterval))
	if bpm < e.config.MinBPM || bpm > e.config.MaxBPM {
		return 0, false
	}
	return bpm, true
}

package monitoring

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"wisefido-cardiac/internal/models"
)

// 门控跳过原因
const (
	ReasonIntenseActivity = "User Running / Intense Activity"
	ReasonLeadsOff        = "Leads Off / Signal Lost"
)

// Analyzer 节律分析能力（由 rhythm.AnalyzeHeartRhythmUseCase 实现）
type Analyzer interface {
	Analyze(ctx context.Context, window []models.SensorFrame) models.AnalysisResult
}

// ActivitySource 只读的活动状态来源
type ActivitySource interface {
	State() models.ActivityState
}

// AiMonitorConfig 窗口调度参数
type AiMonitorConfig struct {
	WindowSize int // 分析窗口帧数
	SlideStep  int // 每个周期后丢弃的最旧帧数
	MaxBacklog int // 窗口之外最多积压的帧数，超出后丢弃最旧的帧
}

// DefaultAiMonitorConfig 默认参数（100Hz 下 10 秒窗口，每秒一次）
func DefaultAiMonitorConfig() AiMonitorConfig {
	return AiMonitorConfig{
		WindowSize: 1000,
		SlideStep:  100,
		MaxBacklog: 1000,
	}
}

// AnalysisStats 分析周期统计快照
type AnalysisStats struct {
	CyclesCompleted   int64
	Analyzed          int64 // 实际调用分析器的周期
	SkippedActivity   int64
	SkippedLeadsOff   int64
	Abnormal          int64
	Critical          int64
	Unavailable       int64
	DroppedTriggers   int64 // 周期进行中到达、被丢弃的触发
	Discarded         int64 // 停止后丢弃的结果
	LastCycleDuration time.Duration
	LastCycleAt       time.Time
}

type statsCollector struct {
	mu    sync.RWMutex
	stats AnalysisStats
}

func (c *statsCollector) snapshot() AnalysisStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *statsCollector) recordDropped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.DroppedTriggers++
}

func (c *statsCollector) recordDiscarded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Discarded++
}

func (c *statsCollector) recordCycle(result models.AnalysisResult, duration time.Duration, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.CyclesCompleted++
	c.stats.LastCycleDuration = duration
	c.stats.LastCycleAt = at
	switch r := result.(type) {
	case models.Skipped:
		if r.Reason == ReasonIntenseActivity {
			c.stats.SkippedActivity++
		} else {
			c.stats.SkippedLeadsOff++
		}
	case models.Abnormal:
		c.stats.Analyzed++
		c.stats.Abnormal++
		if r.IsCritical {
			c.stats.Critical++
		}
	case models.Unavailable:
		c.stats.Analyzed++
		c.stats.Unavailable++
	default:
		c.stats.Analyzed++
	}
}

// AiMonitor 滑动窗口调度器
// Process 在接入路径上只做追加和触发；门控和分析在独立 worker 上执行，
// 同一时刻最多一个周期在进行，期间到达的触发被丢弃
type AiMonitor struct {
	config   AiMonitorConfig
	buffer   *SlidingWindowBuffer
	analyzer Analyzer
	quality  *SignalQualityGate
	activity ActivitySource
	onResult func(models.AnalysisResult)
	clock    Clock
	logger   *zap.Logger

	trigger chan struct{}
	busy    atomic.Bool
	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	stats statsCollector
}

// NewAiMonitor 创建窗口调度器
func NewAiMonitor(
	config AiMonitorConfig,
	analyzer Analyzer,
	quality *SignalQualityGate,
	activity ActivitySource,
	onResult func(models.AnalysisResult),
	clock Clock,
	logger *zap.Logger,
) *AiMonitor {
	if clock == nil {
		clock = SystemClock{}
	}
	maxLen := 0
	if config.MaxBacklog > 0 {
		maxLen = config.WindowSize + config.MaxBacklog
	}
	return &AiMonitor{
		config:   config,
		buffer:   NewSlidingWindowBuffer(maxLen),
		analyzer: analyzer,
		quality:  quality,
		activity: activity,
		onResult: onResult,
		clock:    clock,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Start 启动分析 worker
func (m *AiMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running.Load() {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running.Store(true)

	go m.loop(ctx, m.done)
}

// Stop 停止 worker 并等待其退出；返回后不再回调 onResult
func (m *AiMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running.Load() {
		return
	}
	m.running.Store(false)
	m.cancel()
	<-m.done
}

// Process 追加一帧；窗口已满且没有进行中的周期时触发一次分析
func (m *AiMonitor) Process(frame models.SensorFrame) {
	n := m.buffer.Append(frame)
	if n < m.config.WindowSize || !m.running.Load() {
		return
	}
	if !m.busy.CompareAndSwap(false, true) {
		m.stats.recordDropped()
		return
	}
	// busy 保证通道中最多一个触发，发送不会阻塞
	m.trigger <- struct{}{}
}

// BufferLen 当前缓冲帧数
func (m *AiMonitor) BufferLen() int {
	return m.buffer.Len()
}

// Reset 清空缓冲区
func (m *AiMonitor) Reset() {
	m.buffer.Reset()
}

// Stats 周期统计快照
func (m *AiMonitor) Stats() AnalysisStats {
	return m.stats.snapshot()
}

func (m *AiMonitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.trigger:
			result, ok := m.runCycle(ctx)
			m.busy.Store(false)
			if ok && m.onResult != nil {
				m.onResult(result)
			}
		}
	}
}

// runCycle 执行一个分析周期：快照 → 门控/分析 → 滑动
// 回调在 busy 清除后由 loop 执行，期间到达的新窗口可以触发下一个周期
func (m *AiMonitor) runCycle(ctx context.Context) (models.AnalysisResult, bool) {
	start := m.clock.Now()

	window := m.buffer.Snapshot(m.config.WindowSize)
	if len(window) < m.config.WindowSize {
		return nil, false
	}

	result := m.evaluate(ctx, window)
	m.buffer.Slide(m.config.SlideStep)

	if ctx.Err() != nil {
		m.stats.recordDiscarded()
		m.logger.Debug("Discarding analysis result after stop",
			zap.String("kind", result.Kind()),
		)
		return nil, false
	}

	end := m.clock.Now()
	m.stats.recordCycle(result, end.Sub(start), end)
	return result, true
}

// evaluate 剧烈运动和导联脱落门控，通过后交给分析器
func (m *AiMonitor) evaluate(ctx context.Context, window []models.SensorFrame) models.AnalysisResult {
	if m.activity != nil && m.activity.State() == models.IntenseActivity {
		return models.Skipped{Reason: ReasonIntenseActivity}
	}
	if m.quality.IsLeadsOff(window) {
		return models.Skipped{Reason: ReasonLeadsOff}
	}
	return m.analyzer.Analyze(ctx, window)
}

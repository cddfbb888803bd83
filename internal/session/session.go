package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wisefido-cardiac/internal/models"
	"wisefido-cardiac/internal/monitoring"
)

// Dispatcher 结果分发；两个方法之间不保证顺序，实现不得阻塞调用方
type Dispatcher interface {
	DispatchAnalysis(deviceID string, result models.AnalysisResult)
	DispatchDecision(deviceID string, decision models.MonitoringDecision)
}

// Config 单设备监测会话参数
type Config struct {
	HRBufferSize         int // 心率计算使用的最近帧数
	HREvaluationInterval int // 每多少个 ECG 样本评估一次心率
	ExtremeThreshold     float64
	Activity             monitoring.ActivityConfig
	HeartRate            monitoring.HeartRateConfig
	Context              monitoring.ContextConfig
	AiMonitor            monitoring.AiMonitorConfig
}

// DefaultConfig 默认会话参数
func DefaultConfig() Config {
	return Config{
		HRBufferSize:         1000,
		HREvaluationInterval: 100,
		ExtremeThreshold:     monitoring.DefaultExtremeThreshold,
		Activity:             monitoring.DefaultActivityConfig(),
		HeartRate:            monitoring.DefaultHeartRateConfig(),
		Context:              monitoring.DefaultContextConfig(),
		AiMonitor:            monitoring.DefaultAiMonitorConfig(),
	}
}

// Session 一条绑带的监测会话
// 接入方法在 MQTT 回调路径上调用，只做帧合成和追加；节律分析在 AiMonitor 的 worker 上执行
type Session struct {
	id       string
	deviceID string
	config   Config
	clock    monitoring.Clock
	logger   *zap.Logger

	sensors   *monitoring.SensorState
	activity  *monitoring.ActivityTracker
	context   *monitoring.ContextAwareMonitor
	heartRate *monitoring.HeartRateExtractor
	ai        *monitoring.AiMonitor

	hrMu        sync.Mutex
	hrBuffer    *monitoring.SlidingWindowBuffer
	sampleCount int64

	dispatcher Dispatcher
	stopped    atomic.Bool
	startedAt  time.Time
}

// NewSession 创建监测会话
func NewSession(
	deviceID string,
	cfg Config,
	analyzer monitoring.Analyzer,
	dispatcher Dispatcher,
	clock monitoring.Clock,
	logger *zap.Logger,
) *Session {
	if clock == nil {
		clock = monitoring.SystemClock{}
	}
	if cfg.HREvaluationInterval <= 0 {
		cfg.HREvaluationInterval = DefaultConfig().HREvaluationInterval
	}

	s := &Session{
		id:         uuid.New().String(),
		deviceID:   deviceID,
		config:     cfg,
		clock:      clock,
		dispatcher: dispatcher,
	}
	s.logger = logger.With(
		zap.String("device_id", deviceID),
		zap.String("session_id", s.id),
	)

	s.sensors = monitoring.NewSensorState(clock)
	s.activity = monitoring.NewActivityTracker(cfg.Activity)
	s.context = monitoring.NewContextAwareMonitor(cfg.Context, s.activity, clock)
	s.heartRate = monitoring.NewHeartRateExtractor(cfg.HeartRate)
	s.hrBuffer = monitoring.NewSlidingWindowBuffer(cfg.HRBufferSize)
	s.ai = monitoring.NewAiMonitor(
		cfg.AiMonitor,
		analyzer,
		monitoring.NewSignalQualityGate(cfg.ExtremeThreshold),
		s.activity,
		s.onAnalysis,
		clock,
		s.logger,
	)
	return s
}

// ID 会话 ID
func (s *Session) ID() string { return s.id }

// DeviceID 设备 ID
func (s *Session) DeviceID() string { return s.deviceID }

// Start 启动分析 worker
func (s *Session) Start(ctx context.Context) {
	s.stopped.Store(false)
	s.startedAt = s.clock.Now()
	s.ai.Start(ctx)
	s.logger.Info("Monitoring session started")
}

// Stop 停止分析 worker；进行中的分析结果被丢弃，之后的样本被忽略
// 返回时正在进行的心率评估已经结束，不会再有决策被分发
func (s *Session) Stop() {
	if s.stopped.Swap(true) {
		return
	}
	s.hrMu.Lock()
	s.hrMu.Unlock()
	s.ai.Stop()
	stats := s.ai.Stats()
	s.logger.Info("Monitoring session stopped",
		zap.Int64("cycles_completed", stats.CyclesCompleted),
		zap.Int64("dropped_triggers", stats.DroppedTriggers),
		zap.Duration("uptime", s.clock.Now().Sub(s.startedAt)),
	)
}

// OnEcgSample 接入一个 ECG 样本，时间戳取当前时钟
func (s *Session) OnEcgSample(value float64) {
	if s.stopped.Load() {
		return
	}
	s.ingest(s.sensors.CreateFrame(value))
}

// OnEcgSampleAt 接入一个带设备时间戳（毫秒）的 ECG 样本
func (s *Session) OnEcgSampleAt(value float64, timestamp int64) {
	if s.stopped.Load() {
		return
	}
	s.ingest(s.sensors.CreateFrameAt(value, timestamp))
}

// OnEcgBatch 接入网关打包上报的一组连续样本，第 i 个样本时间为 start + i*1000/rate
func (s *Session) OnEcgBatch(samples []float64, start int64, sampleRate int) {
	if sampleRate <= 0 {
		sampleRate = s.config.HeartRate.SampleRate
	}
	for i, v := range samples {
		s.OnEcgSampleAt(v, start+int64(i)*1000/int64(sampleRate))
	}
}

// OnImuSample 接入加速度计样本（m/s²），同时更新活动状态
func (s *Session) OnImuSample(ax, ay, az float64) {
	s.sensors.UpdateAccel(ax, ay, az)
	s.context.UpdateActivity(ax, ay, az)
}

// OnGyroSample 接入陀螺仪样本
func (s *Session) OnGyroSample(gx, gy, gz float64) {
	s.sensors.UpdateGyro(gx, gy, gz)
}

// OnTemperature 接入皮温
func (s *Session) OnTemperature(t float64) {
	s.sensors.UpdateTemperature(t)
}

// OnBattery 接入电量
func (s *Session) OnBattery(level int) {
	s.sensors.UpdateBattery(level)
}

func (s *Session) ingest(frame models.SensorFrame) {
	s.ai.Process(frame)

	s.hrMu.Lock()
	defer s.hrMu.Unlock()
	if s.stopped.Load() {
		return
	}
	s.hrBuffer.Append(frame)
	s.sampleCount++
	if s.sampleCount%int64(s.config.HREvaluationInterval) != 0 {
		return
	}

	bpm, ok := s.heartRate.ExtractHeartRate(s.hrBuffer.Snapshot(s.config.HRBufferSize))
	if !ok {
		return
	}
	decision := s.context.EvaluateHeartRate(bpm)
	if decision.ShouldAlert {
		s.logger.Warn("Heart rate alert",
			zap.Int("heart_rate", decision.HeartRate),
			zap.String("activity_state", decision.ActivityState.String()),
			zap.String("reason", decision.Reason()),
		)
	}
	s.dispatcher.DispatchDecision(s.deviceID, decision)
}

func (s *Session) onAnalysis(result models.AnalysisResult) {
	if r, ok := result.(models.Abnormal); ok && r.IsCritical {
		s.logger.Warn("Critical rhythm finding",
			zap.Strings("conditions", r.Conditions),
		)
	}
	s.dispatcher.DispatchAnalysis(s.deviceID, result)
}

// LastHeartRate 最近一次可用的心率
func (s *Session) LastHeartRate() (int, bool) {
	return s.heartRate.LastHeartRate()
}

// ActivityState 当前活动状态
func (s *Session) ActivityState() models.ActivityState {
	return s.activity.State()
}

// LastExercise 上次运动时间
func (s *Session) LastExercise() time.Time {
	return s.context.LastExercise()
}

// RestoreLastExercise 恢复上次运动时间
func (s *Session) RestoreLastExercise(t time.Time) {
	s.context.RestoreLastExercise(t)
}

// DiagnosticInfo 调试信息
func (s *Session) DiagnosticInfo() string {
	return s.context.DiagnosticInfo()
}

// Stats 分析周期统计
func (s *Session) Stats() monitoring.AnalysisStats {
	return s.ai.Stats()
}

// Reset 清空全部缓冲和状态
func (s *Session) Reset() {
	s.hrMu.Lock()
	s.hrBuffer.Reset()
	s.sampleCount = 0
	s.hrMu.Unlock()

	s.ai.Reset()
	s.heartRate.Reset()
	s.context.Reset()
}

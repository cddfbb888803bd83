package alerting

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"wisefido-cardiac/internal/models"
	"wisefido-cardiac/internal/monitoring"
)

// AlarmStore 报警事件持久化
type AlarmStore interface {
	CreateAlarmEvent(ctx context.Context, tenantID string, event *models.AlarmEvent) error
	GetRecentAlarmEvent(ctx context.Context, tenantID, deviceID, eventType string, within time.Duration) (*models.AlarmEvent, error)
}

// RealtimeCache 设备实时数据缓存
type RealtimeCache interface {
	UpdateDecision(ctx context.Context, deviceID string, decision models.MonitoringDecision, statusText string) error
	UpdateAnalysis(ctx context.Context, record models.AnalysisRecord) error
	UpdateDeviceStatus(ctx context.Context, deviceID string, battery *int, temperature *float64, timestamp int64) error
	DeleteRealtimeData(ctx context.Context, deviceID string) error
}

// Notifier 报警推送
type Notifier interface {
	Notify(ctx context.Context, event *models.AlarmEvent) error
}

// HeartRateLookup 查询设备最近一次可用心率
type HeartRateLookup interface {
	LastHeartRate(deviceID string) (int, bool)
}

// Config 分发参数
type Config struct {
	TenantID          string
	QueueSize         int
	DedupWindow       time.Duration // 同一设备同一类型报警的去重窗口
	ElevatedThreshold int           // 状态文本使用
	OperationTimeout  time.Duration // 单个外部操作超时
}

// DefaultConfig 默认分发参数
func DefaultConfig() Config {
	return Config{
		QueueSize:         1024,
		DedupWindow:       5 * time.Minute,
		ElevatedThreshold: 100,
		OperationTimeout:  5 * time.Second,
	}
}

// DispatchStats 分发统计快照
type DispatchStats struct {
	Enqueued           int64
	Dropped            int64 // 队列满丢弃
	Processed          int64
	AlarmsRaised       int64
	AlarmsDeduplicated int64
	Errors             int64
}

type jobKind int

const (
	jobAnalysis jobKind = iota
	jobDecision
	jobStatus
	jobDisconnect
)

type deviceStatus struct {
	battery     *int
	temperature *float64
	timestamp   int64
}

type dispatchJob struct {
	kind     jobKind
	deviceID string
	decision *models.MonitoringDecision
	result   models.AnalysisResult
	status   deviceStatus
	at       time.Time
}

// Dispatcher 结果分发器
// 接入路径只做非阻塞入队；缓存、Stream、数据库和推送都在 worker 上执行
type Dispatcher struct {
	config    Config
	builder   *AlarmEventBuilder
	store     AlarmStore
	cache     RealtimeCache
	publisher StreamPublisher
	notifier  Notifier
	clock     monitoring.Clock
	logger    *zap.Logger

	lookupMu sync.RWMutex
	lookup   HeartRateLookup

	queue   chan dispatchJob
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
	started atomic.Bool

	statsMu sync.RWMutex
	stats   DispatchStats
}

// NewDispatcher 创建分发器；store、cache、publisher、notifier 均可为 nil
func NewDispatcher(
	cfg Config,
	store AlarmStore,
	cache RealtimeCache,
	publisher StreamPublisher,
	notifier Notifier,
	clock monitoring.Clock,
	logger *zap.Logger,
) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = DefaultConfig().OperationTimeout
	}
	if clock == nil {
		clock = monitoring.SystemClock{}
	}
	return &Dispatcher{
		config:    cfg,
		builder:   NewAlarmEventBuilder(cfg.TenantID),
		store:     store,
		cache:     cache,
		publisher: publisher,
		notifier:  notifier,
		clock:     clock,
		logger:    logger,
		queue:     make(chan dispatchJob, cfg.QueueSize),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// SetHeartRateLookup 设置心率查询（会话管理器在分发器之后创建）
func (d *Dispatcher) SetHeartRateLookup(lookup HeartRateLookup) {
	d.lookupMu.Lock()
	defer d.lookupMu.Unlock()
	d.lookup = lookup
}

// Start 启动 worker，重复调用无效
func (d *Dispatcher) Start(ctx context.Context) {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	go d.run(ctx)
}

// Stop 停止 worker，处理完队列中剩余的任务后返回；未启动时直接返回
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.quit) })
	if !d.started.Load() {
		return
	}
	<-d.done
}

// DispatchAnalysis 实现 session.Dispatcher
func (d *Dispatcher) DispatchAnalysis(deviceID string, result models.AnalysisResult) {
	d.enqueue(dispatchJob{kind: jobAnalysis, deviceID: deviceID, result: result, at: d.clock.Now()})
}

// DispatchDecision 实现 session.Dispatcher
func (d *Dispatcher) DispatchDecision(deviceID string, decision models.MonitoringDecision) {
	d.enqueue(dispatchJob{kind: jobDecision, deviceID: deviceID, decision: &decision, at: d.clock.Now()})
}

// DispatchDeviceStatus 电量 / 皮温写入实时缓存；nil 字段保持原值
func (d *Dispatcher) DispatchDeviceStatus(deviceID string, battery *int, temperature *float64, timestamp int64) {
	d.enqueue(dispatchJob{
		kind:     jobStatus,
		deviceID: deviceID,
		status:   deviceStatus{battery: battery, temperature: temperature, timestamp: timestamp},
		at:       d.clock.Now(),
	})
}

// DispatchDisconnect 绑带断开后删除实时缓存，排在该设备此前入队的结果之后执行
func (d *Dispatcher) DispatchDisconnect(deviceID string) {
	d.enqueue(dispatchJob{kind: jobDisconnect, deviceID: deviceID, at: d.clock.Now()})
}

// Stats 统计快照
func (d *Dispatcher) Stats() DispatchStats {
	d.statsMu.RLock()
	defer d.statsMu.RUnlock()
	return d.stats
}

func (d *Dispatcher) enqueue(job dispatchJob) {
	select {
	case d.queue <- job:
		d.count(func(s *DispatchStats) { s.Enqueued++ })
	default:
		d.count(func(s *DispatchStats) { s.Dropped++ })
		d.logger.Warn("Dispatch queue full, dropping result",
			zap.String("device_id", job.deviceID),
			zap.Int("queue_size", d.config.QueueSize),
		)
	}
}

func (d *Dispatcher) count(f func(*DispatchStats)) {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	f(&d.stats)
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case job := <-d.queue:
			d.handle(ctx, job)
		case <-d.quit:
			d.drain(ctx)
			return
		case <-ctx.Done():
			d.drain(context.Background())
			return
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case job := <-d.queue:
			d.handle(ctx, job)
		default:
			return
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, job dispatchJob) {
	switch job.kind {
	case jobDecision:
		d.handleDecision(ctx, job.deviceID, *job.decision)
	case jobAnalysis:
		d.handleAnalysis(ctx, job.deviceID, job.result, job.at)
	case jobStatus:
		if d.cache != nil {
			d.withTimeout(ctx, "update_device_status", job.deviceID, func(ctx context.Context) error {
				return d.cache.UpdateDeviceStatus(ctx, job.deviceID, job.status.battery, job.status.temperature, job.status.timestamp)
			})
		}
	case jobDisconnect:
		if d.cache != nil {
			d.withTimeout(ctx, "delete_realtime_data", job.deviceID, func(ctx context.Context) error {
				return d.cache.DeleteRealtimeData(ctx, job.deviceID)
			})
		}
	}
	d.count(func(s *DispatchStats) { s.Processed++ })
}

func (d *Dispatcher) handleDecision(ctx context.Context, deviceID string, decision models.MonitoringDecision) {
	statusText := models.DecisionStatusText(decision, d.config.ElevatedThreshold)

	if d.cache != nil {
		d.withTimeout(ctx, "update_realtime_decision", deviceID, func(ctx context.Context) error {
			return d.cache.UpdateDecision(ctx, deviceID, decision, statusText)
		})
	}
	if d.publisher != nil {
		record := models.DecisionRecord{
			DeviceID:           deviceID,
			MonitoringDecision: decision,
			StatusText:         statusText,
		}
		d.withTimeout(ctx, "publish_decision", deviceID, func(ctx context.Context) error {
			return d.publisher.Publish(ctx, MessageTypeDecision, record)
		})
	}

	event, err := d.builder.BuildFromDecision(deviceID, decision)
	if err != nil {
		d.fail("build_decision_event", deviceID, err)
		return
	}
	if event != nil {
		d.raise(ctx, event)
	}
}

func (d *Dispatcher) handleAnalysis(ctx context.Context, deviceID string, result models.AnalysisResult, at time.Time) {
	record := models.NewAnalysisRecord(deviceID, result, at.UnixMilli())

	if d.cache != nil {
		d.withTimeout(ctx, "update_realtime_analysis", deviceID, func(ctx context.Context) error {
			return d.cache.UpdateAnalysis(ctx, record)
		})
	}
	if d.publisher != nil {
		d.withTimeout(ctx, "publish_analysis", deviceID, func(ctx context.Context) error {
			return d.publisher.Publish(ctx, MessageTypeAnalysis, record)
		})
	}

	event, err := d.builder.BuildFromAnalysis(deviceID, result, d.lastHeartRate(deviceID), at)
	if err != nil {
		d.fail("build_analysis_event", deviceID, err)
		return
	}
	if event != nil {
		d.raise(ctx, event)
	}
}

func (d *Dispatcher) lastHeartRate(deviceID string) *int {
	d.lookupMu.RLock()
	lookup := d.lookup
	d.lookupMu.RUnlock()
	if lookup == nil {
		return nil
	}
	hr, ok := lookup.LastHeartRate(deviceID)
	if !ok {
		return nil
	}
	return &hr
}

// raise 去重、持久化并推送报警
// 窗口内已有同类且级别不低于本次的事件时去重；级别升高的事件总是创建
// 去重查询失败时仍然创建事件
func (d *Dispatcher) raise(ctx context.Context, event *models.AlarmEvent) {
	if d.store != nil {
		opCtx, cancel := context.WithTimeout(ctx, d.config.OperationTimeout)
		recent, err := d.store.GetRecentAlarmEvent(opCtx, d.config.TenantID, event.DeviceID, event.EventType, d.config.DedupWindow)
		cancel()
		if err != nil {
			d.fail("check_duplicate", event.DeviceID, err)
		} else if recent != nil {
			if models.AlarmLevelRank(recent.AlarmLevel) >= models.AlarmLevelRank(event.AlarmLevel) {
				d.count(func(s *DispatchStats) { s.AlarmsDeduplicated++ })
				d.logger.Debug("Alarm suppressed by dedup window",
					zap.String("device_id", event.DeviceID),
					zap.String("event_type", event.EventType),
					zap.String("alarm_level", event.AlarmLevel),
					zap.String("recent_event_id", recent.EventID),
				)
				return
			}
			d.logger.Info("Alarm escalated within dedup window",
				zap.String("device_id", event.DeviceID),
				zap.String("event_type", event.EventType),
				zap.String("from_level", recent.AlarmLevel),
				zap.String("to_level", event.AlarmLevel),
			)
		}

		if !d.withTimeout(ctx, "create_alarm_event", event.DeviceID, func(ctx context.Context) error {
			return d.store.CreateAlarmEvent(ctx, d.config.TenantID, event)
		}) {
			return
		}
	}

	d.count(func(s *DispatchStats) { s.AlarmsRaised++ })
	d.logger.Info("Alarm raised",
		zap.String("event_id", event.EventID),
		zap.String("device_id", event.DeviceID),
		zap.String("event_type", event.EventType),
		zap.String("alarm_level", event.AlarmLevel),
	)

	if d.notifier != nil {
		d.withTimeout(ctx, "notify", event.DeviceID, func(ctx context.Context) error {
			return d.notifier.Notify(ctx, event)
		})
	}
}

func (d *Dispatcher) withTimeout(ctx context.Context, op, deviceID string, f func(context.Context) error) bool {
	opCtx, cancel := context.WithTimeout(ctx, d.config.OperationTimeout)
	defer cancel()
	if err := f(opCtx); err != nil {
		d.fail(op, deviceID, err)
		return false
	}
	return true
}

func (d *Dispatcher) fail(op, deviceID string, err error) {
	d.count(func(s *DispatchStats) { s.Errors++ })
	d.logger.Error("Dispatch operation failed",
		zap.String("operation", op),
		zap.String("device_id", deviceID),
		zap.Error(err),
	)
}

package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"wisefido-cardiac/internal/alerting"
	"wisefido-cardiac/internal/cache"
	"wisefido-cardiac/internal/common/database"
	mqttcommon "wisefido-cardiac/internal/common/mqtt"
	rediscommon "wisefido-cardiac/internal/common/redis"
	"wisefido-cardiac/internal/config"
	"wisefido-cardiac/internal/consumer"
	"wisefido-cardiac/internal/monitoring"
	"wisefido-cardiac/internal/notify"
	"wisefido-cardiac/internal/repository"
	"wisefido-cardiac/internal/rhythm"
	"wisefido-cardiac/internal/session"
)

// connectTimeout 启动时 Postgres / Redis 连通性检查的超时
const connectTimeout = 10 * time.Second

// MQTTClient 服务使用的 MQTT 能力（common/mqtt.Client）
type MQTTClient interface {
	consumer.Subscriber
	notify.MQTTPublisher
}

// Dependencies 已建立的外部连接；NATS 可以为 nil
type Dependencies struct {
	DB    *sql.DB
	Redis *redis.Client
	MQTT  MQTTClient
	NATS  notify.NATSPublisher
	Clock monitoring.Clock
}

// CardiacService 心脏监测服务
type CardiacService struct {
	config *config.Config
	logger *zap.Logger
	deps   Dependencies

	alarmRepo  *repository.AlarmEventsRepository
	dispatcher *alerting.Dispatcher
	manager    *session.Manager
	consumer   *consumer.MQTTConsumer

	closers []func()
}

// NewCardiacService 建立数据库、Redis、MQTT、NATS 连接并创建服务
func NewCardiacService(cfg *config.Config, logger *zap.Logger) (*CardiacService, error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	// 初始化数据库
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closers = append(closers, func() { db.Close() })

	// 初始化Redis
	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	if err := rediscommon.Ping(ctx, redisClient); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	closers = append(closers, func() { rediscommon.Close(redisClient) })

	// 初始化MQTT
	mqttClient, err := mqttcommon.NewClient(&cfg.MQTT, logger)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to connect to MQTT: %w", err)
	}
	closers = append(closers, mqttClient.Disconnect)

	deps := Dependencies{DB: db, Redis: redisClient, MQTT: mqttClient}

	// NATS 为可选的告警通道
	if cfg.NATS.URL != "" {
		conn, err := notify.Connect(&cfg.NATS)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		closers = append(closers, func() {
			if err := conn.Drain(); err != nil {
				conn.Close()
			}
		})
		deps.NATS = conn
	} else {
		logger.Warn("NATS_URL not set, alerts are published over MQTT only")
	}

	s := New(cfg, deps, logger)
	s.closers = closers
	return s, nil
}

// New 在已建立的连接上组装服务
func New(cfg *config.Config, deps Dependencies, logger *zap.Logger) *CardiacService {
	c := &cfg.Cardiac
	if deps.Clock == nil {
		deps.Clock = monitoring.SystemClock{}
	}

	// 存储
	alarmRepo := repository.NewAlarmEventsRepository(deps.DB, logger)
	kv := cache.NewRedisKVStore(deps.Redis)
	cacheManager := cache.NewCacheManager(c.Cache, kv, logger)
	stateManager := cache.NewStateManager(c.Cache, kv, logger)
	publisher := alerting.NewRedisStreamPublisher(deps.Redis, c.Stream.Name, c.Stream.MaxLen)

	// 告警下发
	notifiers := notify.MultiNotifier{notify.NewMQTTNotifier(deps.MQTT, cfg.MQTT.QoS, logger)}
	if deps.NATS != nil {
		notifiers = append(notifiers, notify.NewNATSNotifier(deps.NATS, c.AlertSubjectPrefix, logger))
	}

	// 节律分析
	analyzer := rhythm.NewAnalyzeHeartRhythmUseCase(
		rhythm.NewModelClassifier(newModel(c.Model, logger), rhythm.DefaultThresholdDecoder(), rhythm.DefaultModelInputSize),
		monitoring.NewAsystoleDetector(),
		c.CriticalLabels,
		logger,
	)

	dispatcher := alerting.NewDispatcher(c.Dispatch, alarmRepo, cacheManager, publisher, notifiers, deps.Clock, logger)
	manager := session.NewManager(c.Session, analyzer, dispatcher, stateManager, deps.Clock, logger)
	dispatcher.SetHeartRateLookup(manager)

	strapConsumer := consumer.NewMQTTConsumer(deps.MQTT, manager, dispatcher, deps.Clock, c.Topics.Strap, cfg.MQTT.QoS, logger)

	return &CardiacService{
		config:     cfg,
		logger:     logger,
		deps:       deps,
		alarmRepo:  alarmRepo,
		dispatcher: dispatcher,
		manager:    manager,
		consumer:   strapConsumer,
	}
}

func newModel(cfg rhythm.RemoteModelConfig, logger *zap.Logger) rhythm.Model {
	if cfg.BaseURL == "" {
		logger.Warn("CARDIAC_MODEL_URL not set, rhythm analysis reports unavailable")
		return rhythm.UnavailableModel{}
	}
	return rhythm.NewRemoteModel(cfg, logger)
}

// Start 启动服务
func (s *CardiacService) Start(ctx context.Context) error {
	if err := s.alarmRepo.EnsureSchema(ctx); err != nil {
		return err
	}

	s.dispatcher.Start(ctx)
	s.manager.Start(ctx, s.config.Cardiac.PersistInterval)

	if err := s.consumer.Start(); err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	s.logger.Info("Cardiac service started",
		zap.String("tenant_id", s.config.Cardiac.TenantID),
		zap.String("strap_topic", s.config.Cardiac.Topics.Strap),
		zap.String("result_stream", s.config.Cardiac.Stream.Name),
	)
	return nil
}

// Stop 停止服务：先停止接入，再停止会话，最后排空分发队列并关闭连接
func (s *CardiacService) Stop() error {
	s.consumer.Stop()
	s.manager.Stop()
	s.dispatcher.Stop()

	stats := s.dispatcher.Stats()
	s.logger.Info("Dispatcher drained",
		zap.Int64("processed", stats.Processed),
		zap.Int64("dropped", stats.Dropped),
		zap.Int64("alarms_raised", stats.AlarmsRaised),
	)

	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
	return nil
}

// Manager 会话管理器
func (s *CardiacService) Manager() *session.Manager {
	return s.manager
}

// DispatchStats 分发统计
func (s *CardiacService) DispatchStats() alerting.DispatchStats {
	return s.dispatcher.Stats()
}

package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"wisefido-cardiac/internal/alerting"
	"wisefido-cardiac/internal/cache"
	"wisefido-cardiac/internal/common/config"
	"wisefido-cardiac/internal/rhythm"
	"wisefido-cardiac/internal/session"
)

// ServiceName 服务名称（日志 service_name 字段、MQTT ClientID 默认值）
const ServiceName = "wisefido-cardiac"

// Config 心脏监测服务配置
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig
	NATS     config.NATSConfig

	// 心脏监测服务特定配置
	Cardiac struct {
		TenantID string
		Topics   struct {
			Strap string // 绑带数据主题，如 "strap/+/+"
		}
		Stream struct {
			Name   string // 结果时间线 Redis Stream
			MaxLen int64
		}
		AlertSubjectPrefix string   // NATS 告警主题前缀
		CriticalLabels     []string // 需要立即告警的节律结论，为空时使用默认列表
		PersistInterval    time.Duration
		Model              rhythm.RemoteModelConfig
		Session            session.Config
		Dispatch           alerting.Config
		Cache              cache.Config
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置；envFiles 为空时尝试读取当前目录的 .env，文件不存在不视为错误
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "owlrd")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Redis.PoolSize = getEnvInt("REDIS_POOL_SIZE", 0)
	cfg.Redis.Timeout = getEnvDuration("REDIS_TIMEOUT", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", ServiceName)
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(getEnvInt("MQTT_QOS", 1))

	cfg.NATS.URL = getEnv("NATS_URL", "")
	cfg.NATS.Name = getEnv("NATS_NAME", ServiceName)
	cfg.NATS.Timeout = getEnvDuration("NATS_TIMEOUT", 3*time.Second)
	cfg.NATS.ReconnectWait = getEnvDuration("NATS_RECONNECT_WAIT", 500*time.Millisecond)

	c := &cfg.Cardiac
	c.TenantID = getEnv("CARDIAC_TENANT_ID", "00000000-0000-0000-0000-000000000000")
	c.Topics.Strap = getEnv("CARDIAC_TOPIC_STRAP", "strap/+/+")
	c.Stream.Name = getEnv("CARDIAC_RESULT_STREAM", "cardiac:result:stream")
	c.Stream.MaxLen = int64(getEnvInt("CARDIAC_RESULT_STREAM_MAXLEN", 100000))
	c.AlertSubjectPrefix = getEnv("CARDIAC_ALERT_SUBJECT_PREFIX", "cardiac.alerts.")
	if labels := getEnv("CARDIAC_CRITICAL_LABELS", ""); labels != "" {
		c.CriticalLabels = splitList(labels)
	}
	c.PersistInterval = getEnvDuration("CARDIAC_PERSIST_INTERVAL", 30*time.Second)

	c.Model.BaseURL = getEnv("CARDIAC_MODEL_URL", "")
	c.Model.Model = getEnv("CARDIAC_MODEL_NAME", "")
	c.Model.Timeout = getEnvDuration("CARDIAC_MODEL_TIMEOUT", 2*time.Second)
	c.Model.RetryCount = getEnvInt("CARDIAC_MODEL_RETRY", 0)

	s := session.DefaultConfig()
	s.HRBufferSize = getEnvInt("CARDIAC_HR_BUFFER_SIZE", s.HRBufferSize)
	s.HREvaluationInterval = getEnvInt("CARDIAC_HR_EVAL_INTERVAL", s.HREvaluationInterval)
	s.ExtremeThreshold = getEnvFloat("CARDIAC_EXTREME_THRESHOLD", s.ExtremeThreshold)
	s.Activity.SmoothingWindow = getEnvInt("CARDIAC_ACTIVITY_WINDOW", s.Activity.SmoothingWindow)
	s.Activity.SedentaryThreshold = getEnvFloat("CARDIAC_ACTIVITY_SEDENTARY", s.Activity.SedentaryThreshold)
	s.Activity.LightThreshold = getEnvFloat("CARDIAC_ACTIVITY_LIGHT", s.Activity.LightThreshold)
	s.Activity.ModerateThreshold = getEnvFloat("CARDIAC_ACTIVITY_MODERATE", s.Activity.ModerateThreshold)
	s.HeartRate.SampleRate = getEnvInt("CARDIAC_ECG_SAMPLE_RATE", s.HeartRate.SampleRate)
	s.Context.ElevatedThreshold = getEnvInt("CARDIAC_HR_ELEVATED", s.Context.ElevatedThreshold)
	s.Context.CriticalThreshold = getEnvInt("CARDIAC_HR_CRITICAL", s.Context.CriticalThreshold)
	s.Context.CooldownDuration = getEnvDuration("CARDIAC_COOLDOWN", s.Context.CooldownDuration)
	s.Context.RecoveryGrace = getEnvDuration("CARDIAC_RECOVERY_GRACE", s.Context.RecoveryGrace)
	s.AiMonitor.WindowSize = getEnvInt("CARDIAC_WINDOW_SIZE", s.AiMonitor.WindowSize)
	s.AiMonitor.SlideStep = getEnvInt("CARDIAC_SLIDE_STEP", s.AiMonitor.SlideStep)
	s.AiMonitor.MaxBacklog = getEnvInt("CARDIAC_MAX_BACKLOG", s.AiMonitor.MaxBacklog)
	c.Session = s

	d := alerting.DefaultConfig()
	d.TenantID = c.TenantID
	d.QueueSize = getEnvInt("CARDIAC_DISPATCH_QUEUE", d.QueueSize)
	d.DedupWindow = getEnvDuration("CARDIAC_DEDUP_WINDOW", d.DedupWindow)
	d.ElevatedThreshold = s.Context.ElevatedThreshold
	d.OperationTimeout = getEnvDuration("CARDIAC_OPERATION_TIMEOUT", d.OperationTimeout)
	c.Dispatch = d

	cc := cache.DefaultConfig()
	cc.RealtimeTTL = getEnvDuration("CARDIAC_REALTIME_TTL", cc.RealtimeTTL)
	cc.StateTTL = getEnvDuration("CARDIAC_STATE_TTL", cc.StateTTL)
	c.Cache = cc

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

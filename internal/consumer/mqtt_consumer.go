package consumer

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	mqttcommon "wisefido-cardiac/internal/common/mqtt"
	"wisefido-cardiac/internal/models"
	"wisefido-cardiac/internal/monitoring"
	"wisefido-cardiac/internal/session"
)

// DefaultTopic 绑带数据订阅主题，格式 strap/{device_id}/{kind}
const DefaultTopic = "strap/+/+"

// Subscriber MQTT 订阅端（common/mqtt.Client）
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// SessionRegistry 设备会话注册表（session.Manager）
type SessionRegistry interface {
	GetOrCreate(deviceID string) *session.Session
	Remove(deviceID string)
}

// StatusSink 设备状态写入（alerting.Dispatcher），调用只入队，不做 I/O
type StatusSink interface {
	DispatchDeviceStatus(deviceID string, battery *int, temperature *float64, timestamp int64)
	DispatchDisconnect(deviceID string)
}

// MQTTConsumer 消费网关转发的绑带数据并驱动设备会话
type MQTTConsumer struct {
	subscriber Subscriber
	sessions   SessionRegistry
	status     StatusSink
	clock      monitoring.Clock
	topic      string
	qos        byte
	logger     *zap.Logger
}

// NewMQTTConsumer 创建 MQTT 消费者；status 可以为 nil
func NewMQTTConsumer(
	subscriber Subscriber,
	sessions SessionRegistry,
	status StatusSink,
	clock monitoring.Clock,
	topic string,
	qos byte,
	logger *zap.Logger,
) *MQTTConsumer {
	if clock == nil {
		clock = monitoring.SystemClock{}
	}
	if topic == "" {
		topic = DefaultTopic
	}
	return &MQTTConsumer{
		subscriber: subscriber,
		sessions:   sessions,
		status:     status,
		clock:      clock,
		topic:      topic,
		qos:        qos,
		logger:     logger,
	}
}

// Start 订阅绑带主题
func (c *MQTTConsumer) Start() error {
	if err := c.subscriber.Subscribe(c.topic, c.qos, c.HandleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to strap topic: %w", err)
	}
	c.logger.Info("MQTT consumer started", zap.String("topic", c.topic))
	return nil
}

// Stop 取消订阅
func (c *MQTTConsumer) Stop() {
	if err := c.subscriber.Unsubscribe(c.topic); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.Error(err))
	}
	c.logger.Info("MQTT consumer stopped")
}

// ParseTopic 解析 strap/{device_id}/{kind}
func ParseTopic(topic string) (deviceID, kind string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "strap" || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("invalid topic format: %s", topic)
	}
	return parts[1], parts[2], nil
}

// HandleMessage 处理一条绑带消息
func (c *MQTTConsumer) HandleMessage(topic string, payload []byte) error {
	deviceID, kind, err := ParseTopic(topic)
	if err != nil {
		return err
	}

	switch kind {
	case models.StrapKindECG:
		return c.handleECG(deviceID, payload)
	case models.StrapKindIMU:
		var msg models.Vec3Message
		if err := decode(kind, payload, &msg); err != nil {
			return err
		}
		c.sessions.GetOrCreate(deviceID).OnImuSample(msg.X, msg.Y, msg.Z)
	case models.StrapKindGyro:
		var msg models.Vec3Message
		if err := decode(kind, payload, &msg); err != nil {
			return err
		}
		c.sessions.GetOrCreate(deviceID).OnGyroSample(msg.X, msg.Y, msg.Z)
	case models.StrapKindTemperature:
		var msg models.ScalarMessage
		if err := decode(kind, payload, &msg); err != nil {
			return err
		}
		c.sessions.GetOrCreate(deviceID).OnTemperature(msg.Value)
		c.updateStatus(deviceID, nil, &msg.Value)
	case models.StrapKindBattery:
		var msg models.ScalarMessage
		if err := decode(kind, payload, &msg); err != nil {
			return err
		}
		level := int(math.Round(msg.Value))
		c.sessions.GetOrCreate(deviceID).OnBattery(level)
		c.updateStatus(deviceID, &level, nil)
	case models.StrapKindStatus:
		var msg models.StatusMessage
		if err := decode(kind, payload, &msg); err != nil {
			return err
		}
		c.handleStatus(deviceID, msg)
	case models.StrapKindAlert:
		// 本服务自己下发的告警，忽略
	default:
		c.logger.Debug("Ignoring unknown strap message kind",
			zap.String("device_id", deviceID),
			zap.String("kind", kind),
		)
	}
	return nil
}

func (c *MQTTConsumer) handleECG(deviceID string, payload []byte) error {
	var msg models.ECGMessage
	if err := decode(models.StrapKindECG, payload, &msg); err != nil {
		return err
	}
	if len(msg.Samples) == 0 {
		return nil
	}
	start := msg.Timestamp
	if start == 0 {
		start = c.clock.Now().UnixMilli()
	}
	c.sessions.GetOrCreate(deviceID).OnEcgBatch(msg.Samples, start, msg.SampleRate)
	return nil
}

func (c *MQTTConsumer) handleStatus(deviceID string, msg models.StatusMessage) {
	if msg.Connected {
		c.sessions.GetOrCreate(deviceID)
		c.logger.Info("Strap connected", zap.String("device_id", deviceID))
		return
	}

	c.sessions.Remove(deviceID)
	if c.status != nil {
		c.status.DispatchDisconnect(deviceID)
	}
	c.logger.Info("Strap disconnected", zap.String("device_id", deviceID))
}

func (c *MQTTConsumer) updateStatus(deviceID string, battery *int, temperature *float64) {
	if c.status == nil {
		return
	}
	c.status.DispatchDeviceStatus(deviceID, battery, temperature, c.clock.Now().UnixMilli())
}

func decode(kind string, payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s message: %w", kind, err)
	}
	return nil
}

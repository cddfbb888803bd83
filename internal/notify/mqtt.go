package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"wisefido-cardiac/internal/models"
)

// MQTTPublisher 可发布消息的 MQTT 客户端（common/mqtt.Client）
type MQTTPublisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTNotifier 将报警回推到绑带所在网关：strap/{device_id}/alert
type MQTTNotifier struct {
	client MQTTPublisher
	qos    byte
	logger *zap.Logger
}

// NewMQTTNotifier 创建 MQTT 推送
func NewMQTTNotifier(client MQTTPublisher, qos byte, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		client: client,
		qos:    qos,
		logger: logger,
	}
}

// Topic 设备报警主题
func (n *MQTTNotifier) Topic(deviceID string) string {
	return "strap/" + deviceID + "/" + models.StrapKindAlert
}

// Notify 实现 Notifier
func (n *MQTTNotifier) Notify(_ context.Context, event *models.AlarmEvent) error {
	payload, err := Encode(event)
	if err != nil {
		return err
	}
	topic := n.Topic(event.DeviceID)
	if err := n.client.Publish(topic, n.qos, false, payload); err != nil {
		return fmt.Errorf("failed to publish alert to MQTT topic %s: %w", topic, err)
	}
	n.logger.Debug("Alert published to MQTT",
		zap.String("topic", topic),
		zap.String("event_id", event.EventID),
	)
	return nil
}

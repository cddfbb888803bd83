package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"wisefido-cardiac/internal/common/config"
	"wisefido-cardiac/internal/models"
)

// DefaultSubjectPrefix 报警主题前缀，完整主题为 cardiac.alerts.{device_id}
const DefaultSubjectPrefix = "cardiac.alerts."

// Connect 连接 NATS（无限重连）
func Connect(cfg *config.NATSConfig) (*nats.Conn, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	reconnectWait := cfg.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 500 * time.Millisecond
	}
	return nats.Connect(
		cfg.URL,
		nats.Name(cfg.Name),
		nats.Timeout(timeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(-1),
	)
}

// NATSPublisher 可发布消息的 NATS 连接（*nats.Conn）
type NATSPublisher interface {
	Publish(subject string, data []byte) error
}

var _ NATSPublisher = (*nats.Conn)(nil)

// NATSNotifier 将报警发布到 cardiac.alerts.{device_id}
type NATSNotifier struct {
	conn          NATSPublisher
	subjectPrefix string
	logger        *zap.Logger
}

// NewNATSNotifier 创建 NATS 推送
func NewNATSNotifier(conn NATSPublisher, subjectPrefix string, logger *zap.Logger) *NATSNotifier {
	if subjectPrefix == "" {
		subjectPrefix = DefaultSubjectPrefix
	}
	return &NATSNotifier{
		conn:          conn,
		subjectPrefix: subjectPrefix,
		logger:        logger,
	}
}

// Subject 设备报警主题
func (n *NATSNotifier) Subject(deviceID string) string {
	return n.subjectPrefix + deviceID
}

// Notify 实现 Notifier
func (n *NATSNotifier) Notify(_ context.Context, event *models.AlarmEvent) error {
	payload, err := Encode(event)
	if err != nil {
		return err
	}
	subject := n.Subject(event.DeviceID)
	if err := n.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish alert to NATS subject %s: %w", subject, err)
	}
	n.logger.Debug("Alert published to NATS",
		zap.String("subject", subject),
		zap.String("event_id", event.EventID),
	)
	return nil
}

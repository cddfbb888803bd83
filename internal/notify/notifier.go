package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"wisefido-cardiac/internal/models"
)

// NewAlertMessage 由报警事件构建下发消息
// 心率、活动状态和原因取自 trigger_data 快照
func NewAlertMessage(event *models.AlarmEvent) models.AlertMessage {
	msg := models.AlertMessage{
		EventID:    event.EventID,
		DeviceID:   event.DeviceID,
		EventType:  event.EventType,
		AlarmLevel: event.AlarmLevel,
		Timestamp:  event.TriggeredAt.UnixMilli(),
	}

	var trigger models.TriggerData
	if err := json.Unmarshal([]byte(event.TriggerData), &trigger); err != nil {
		msg.Message = event.EventType
		return msg
	}
	if trigger.HeartRate != nil {
		msg.HeartRate = *trigger.HeartRate
	}
	if trigger.ActivityState != nil {
		msg.Activity = *trigger.ActivityState
	}
	switch {
	case trigger.Reason != nil:
		msg.Message = *trigger.Reason
	case len(trigger.Conditions) > 0:
		msg.Message = strings.Join(trigger.Conditions, ", ")
	default:
		msg.Message = event.EventType
	}
	return msg
}

// Encode 序列化下发消息
func Encode(event *models.AlarmEvent) ([]byte, error) {
	payload, err := json.Marshal(NewAlertMessage(event))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal alert message: %w", err)
	}
	return payload, nil
}

// Notifier 报警推送
type Notifier interface {
	Notify(ctx context.Context, event *models.AlarmEvent) error
}

// MultiNotifier 依次推送到所有通道，单个通道失败不影响其他通道
type MultiNotifier []Notifier

// Notify 实现 Notifier
func (m MultiNotifier) Notify(ctx context.Context, event *models.AlarmEvent) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

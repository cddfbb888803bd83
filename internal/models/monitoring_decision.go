package models

import "fmt"

// MonitoringDecision 一次心率评估的决策（每 100 个 ECG 样本一次）
type MonitoringDecision struct {
	HeartRate     int           `json:"heart_rate"`
	ActivityState ActivityState `json:"activity_state"`
	SMAValue      float64       `json:"sma_value"`
	ShouldAlert   bool          `json:"should_alert"`
	AlertReason   *string       `json:"alert_reason,omitempty"`
	InCooldown    bool          `json:"in_cooldown"`
	Timestamp     int64         `json:"timestamp"`
}

// Reason 返回原因文本（可能为空）
func (d MonitoringDecision) Reason() string {
	if d.AlertReason == nil {
		return ""
	}
	return *d.AlertReason
}

// DecisionStatusText 持续通知栏显示的状态文本
func DecisionStatusText(d MonitoringDecision, elevatedThreshold int) string {
	switch {
	case d.ShouldAlert:
		return fmt.Sprintf("%d BPM - Alert Triggered", d.HeartRate)
	case d.HeartRate >= elevatedThreshold:
		phase := "Active"
		if d.InCooldown {
			phase = "Recovery"
		}
		return fmt.Sprintf("%d BPM - %s (%s)", d.HeartRate, d.ActivityState, phase)
	default:
		return fmt.Sprintf("%d BPM - Normal", d.HeartRate)
	}
}

// DecisionRecord 带设备 ID 的决策（写入 Redis Stream）
type DecisionRecord struct {
	DeviceID string `json:"device_id"`
	MonitoringDecision
	StatusText string `json:"status_text"`
}

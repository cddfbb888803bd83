package models

import (
	"time"
)

// 报警事件类型
const (
	EventTypeTachycardia = "Tachycardia"
	EventTypeArrhythmia  = "Arrhythmia"
	EventTypeAsystole    = "Asystole"
	EventTypeLeadsOff    = "LeadsOff"
)

// 报警级别
const (
	AlarmLevelEmergency     = "EMERGENCY"
	AlarmLevelAlert         = "ALERT"
	AlarmLevelWarning       = "WARNING"
	AlarmLevelInformational = "INFORMATIONAL"
)

// AlarmLevelRank 报警级别的严重程度，数值越大越严重；未知级别为 0
func AlarmLevelRank(level string) int {
	switch level {
	case AlarmLevelEmergency:
		return 4
	case AlarmLevelAlert:
		return 3
	case AlarmLevelWarning:
		return 2
	case AlarmLevelInformational:
		return 1
	}
	return 0
}

// 分类
const (
	CategoryClinical = "clinical"
	CategoryDevice   = "device"
)

// AlarmEvent 报警事件（对应 alarm_events 表）
type AlarmEvent struct {
	EventID       string     `json:"event_id" db:"event_id"`
	TenantID      string     `json:"tenant_id" db:"tenant_id"`
	DeviceID      string     `json:"device_id" db:"device_id"`
	EventType     string     `json:"event_type" db:"event_type"`
	Category      string     `json:"category" db:"category"`         // clinical, device
	AlarmLevel    string     `json:"alarm_level" db:"alarm_level"`   // EMERGENCY, ALERT, WARNING, INFORMATIONAL
	AlarmStatus   string     `json:"alarm_status" db:"alarm_status"` // active, acknowledged
	TriggeredAt   time.Time  `json:"triggered_at" db:"triggered_at"`
	HandTime      *time.Time `json:"hand_time,omitempty" db:"hand_time"`
	TriggerData   string     `json:"trigger_data" db:"trigger_data"`     // JSONB
	NotifiedUsers string     `json:"notified_users" db:"notified_users"` // JSONB
	Metadata      string     `json:"metadata" db:"metadata"`             // JSONB
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// TriggerData 触发数据快照（JSONB 结构）
type TriggerData struct {
	EventType     string   `json:"event_type"`
	Source        string   `json:"source"` // "ContextMonitor" 或 "RhythmClassifier"
	HeartRate     *int     `json:"heart_rate,omitempty"`
	ActivityState *string  `json:"activity_state,omitempty"`
	SMAValue      *float64 `json:"sma_value,omitempty"`
	InCooldown    *bool    `json:"in_cooldown,omitempty"`
	Conditions    []string `json:"conditions,omitempty"`
	IsCritical    *bool    `json:"is_critical,omitempty"`
	Reason        *string  `json:"reason,omitempty"`
}

// RealtimeData 设备实时数据（缓存到 Redis，供看板读取）
type RealtimeData struct {
	DeviceID      string          `json:"device_id"`
	HeartRate     *int            `json:"heart_rate"`
	ActivityState *ActivityState  `json:"activity_state,omitempty"`
	SMAValue      *float64        `json:"sma_value,omitempty"`
	InCooldown    bool            `json:"in_cooldown"`
	StatusText    string          `json:"status_text,omitempty"`
	LastAnalysis  *AnalysisRecord `json:"last_analysis,omitempty"`
	Battery       *int            `json:"battery,omitempty"`
	Temperature   *float64        `json:"temperature,omitempty"`
	Timestamp     int64           `json:"timestamp"` // Unix 毫秒
}

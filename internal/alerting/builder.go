package alerting

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wisefido-cardiac/internal/models"
	"wisefido-cardiac/internal/monitoring"
	"wisefido-cardiac/internal/rhythm"
)

// 触发来源
const (
	SourceContextMonitor   = "ContextMonitor"
	SourceRhythmClassifier = "RhythmClassifier"
	SourceSignalQuality    = "SignalQuality"
)

// AlarmEventBuilder 报警事件构建器
type AlarmEventBuilder struct {
	tenantID string
}

// NewAlarmEventBuilder 创建报警事件构建器
func NewAlarmEventBuilder(tenantID string) *AlarmEventBuilder {
	return &AlarmEventBuilder{tenantID: tenantID}
}

// BuildAlarmEvent 构建报警事件
func (b *AlarmEventBuilder) BuildAlarmEvent(
	deviceID string,
	eventType string,
	category string,
	alarmLevel string,
	triggerData *models.TriggerData,
	metadata map[string]interface{},
	triggeredAt time.Time,
) (*models.AlarmEvent, error) {
	triggerDataJSON, err := json.Marshal(triggerData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trigger data: %w", err)
	}

	metadataJSON := "{}"
	if metadata != nil {
		metadataBytes, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadataJSON = string(metadataBytes)
	}

	now := time.Now()
	return &models.AlarmEvent{
		EventID:       uuid.New().String(),
		TenantID:      b.tenantID,
		DeviceID:      deviceID,
		EventType:     eventType,
		Category:      category,
		AlarmLevel:    alarmLevel,
		AlarmStatus:   "active",
		TriggeredAt:   triggeredAt,
		TriggerData:   string(triggerDataJSON),
		NotifiedUsers: "[]",
		Metadata:      metadataJSON,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// BuildFromDecision 心率决策需要告警时构建心动过速事件，否则返回 nil
func (b *AlarmEventBuilder) BuildFromDecision(deviceID string, decision models.MonitoringDecision) (*models.AlarmEvent, error) {
	if !decision.ShouldAlert {
		return nil, nil
	}

	hr := decision.HeartRate
	state := decision.ActivityState.String()
	sma := decision.SMAValue
	inCooldown := decision.InCooldown
	trigger := &models.TriggerData{
		EventType:     models.EventTypeTachycardia,
		Source:        SourceContextMonitor,
		HeartRate:     &hr,
		ActivityState: &state,
		SMAValue:      &sma,
		InCooldown:    &inCooldown,
		Reason:        decision.AlertReason,
	}

	return b.BuildAlarmEvent(
		deviceID,
		models.EventTypeTachycardia,
		models.CategoryClinical,
		models.AlarmLevelAlert,
		trigger,
		nil,
		time.UnixMilli(decision.Timestamp),
	)
}

// ClassifyAnalysis 节律结果对应的事件类型、分类和级别
// Normal、Unavailable 以及只含正常窦律标签的 Abnormal 不产生事件
func ClassifyAnalysis(result models.AnalysisResult) (eventType, category, level string, ok bool) {
	switch r := result.(type) {
	case models.Abnormal:
		if !r.IsCritical && onlySinusRhythm(r.Conditions) {
			return "", "", "", false
		}
		for _, c := range r.Conditions {
			if c == rhythm.ConditionPossibleAsystole {
				return models.EventTypeAsystole, models.CategoryClinical, models.AlarmLevelEmergency, true
			}
		}
		if r.IsCritical {
			return models.EventTypeArrhythmia, models.CategoryClinical, models.AlarmLevelEmergency, true
		}
		return models.EventTypeArrhythmia, models.CategoryClinical, models.AlarmLevelWarning, true
	case models.Skipped:
		if r.Reason == monitoring.ReasonLeadsOff {
			return models.EventTypeLeadsOff, models.CategoryDevice, models.AlarmLevelInformational, true
		}
	}
	return "", "", "", false
}

func onlySinusRhythm(conditions []string) bool {
	for _, c := range conditions {
		if c != rhythm.LabelNormalSinusRhythm {
			return false
		}
	}
	return len(conditions) > 0
}

// BuildFromAnalysis 根据节律结果构建事件；不需要事件时返回 nil
// heartRate 为该设备最近一次可用心率（可为 nil）
func (b *AlarmEventBuilder) BuildFromAnalysis(deviceID string, result models.AnalysisResult, heartRate *int, at time.Time) (*models.AlarmEvent, error) {
	eventType, category, level, ok := ClassifyAnalysis(result)
	if !ok {
		return nil, nil
	}

	trigger := &models.TriggerData{
		EventType: eventType,
		Source:    SourceRhythmClassifier,
		HeartRate: heartRate,
	}
	switch r := result.(type) {
	case models.Abnormal:
		critical := r.IsCritical
		trigger.Conditions = r.Conditions
		trigger.IsCritical = &critical
	case models.Skipped:
		reason := r.Reason
		trigger.Source = SourceSignalQuality
		trigger.Reason = &reason
	}

	return b.BuildAlarmEvent(deviceID, eventType, category, level, trigger, nil, at)
}

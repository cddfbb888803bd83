package alerting

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisefido-cardiac/internal/models"
	"wisefido-cardiac/internal/monitoring"
	"wisefido-cardiac/internal/rhythm"
)

func TestBuildFromDecision(t *testing.T) {
	b := NewAlarmEventBuilder("tenant-1")

	event, err := b.BuildFromDecision("strap-1", models.MonitoringDecision{HeartRate: 90})
	require.NoError(t, err)
	assert.Nil(t, event)

	reason := "CRITICAL ALERT: Tachycardia at rest detected (HR: 130 BPM)"
	decision := models.MonitoringDecision{
		HeartRate:     130,
		ActivityState: models.Sedentary,
		SMAValue:      0.1,
		ShouldAlert:   true,
		AlertReason:   &reason,
		Timestamp:     1700000000000,
	}
	event, err = b.BuildFromDecision("strap-1", decision)
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "tenant-1", event.TenantID)
	assert.Equal(t, "strap-1", event.DeviceID)
	assert.Equal(t, models.EventTypeTachycardia, event.EventType)
	assert.Equal(t, models.CategoryClinical, event.Category)
	assert.Equal(t, models.AlarmLevelAlert, event.AlarmLevel)
	assert.Equal(t, "active", event.AlarmStatus)
	assert.Equal(t, int64(1700000000000), event.TriggeredAt.UnixMilli())
	assert.Equal(t, "[]", event.NotifiedUsers)
	assert.Equal(t, "{}", event.Metadata)

	var trigger models.TriggerData
	require.NoError(t, json.Unmarshal([]byte(event.TriggerData), &trigger))
	assert.Equal(t, SourceContextMonitor, trigger.Source)
	require.NotNil(t, trigger.HeartRate)
	assert.Equal(t, 130, *trigger.HeartRate)
	require.NotNil(t, trigger.ActivityState)
	assert.Equal(t, "SEDENTARY", *trigger.ActivityState)
	require.NotNil(t, trigger.Reason)
	assert.Equal(t, reason, *trigger.Reason)
}

func TestClassifyAnalysis(t *testing.T) {
	tests := []struct {
		name      string
		result    models.AnalysisResult
		eventType string
		level     string
		ok        bool
	}{
		{"normal", models.Normal{}, "", "", false},
		{"unavailable", models.Unavailable{Reason: "down"}, "", "", false},
		{"intense skip", models.Skipped{Reason: monitoring.ReasonIntenseActivity}, "", "", false},
		{"leads off", models.Skipped{Reason: monitoring.ReasonLeadsOff}, models.EventTypeLeadsOff, models.AlarmLevelInformational, true},
		{
			"asystole",
			models.Abnormal{Conditions: []string{rhythm.ConditionPossibleAsystole, rhythm.ConditionCardiacArrest}, IsCritical: true},
			models.EventTypeAsystole, models.AlarmLevelEmergency, true,
		},
		{
			"critical arrhythmia",
			models.Abnormal{Conditions: []string{rhythm.LabelAtrialFibrillation}, IsCritical: true},
			models.EventTypeArrhythmia, models.AlarmLevelEmergency, true,
		},
		{"sinus rhythm only", models.Abnormal{Conditions: []string{rhythm.LabelNormalSinusRhythm}}, "", "", false},
		{
			"sinus rhythm with premature beats",
			models.Abnormal{Conditions: []string{rhythm.LabelNormalSinusRhythm, rhythm.LabelPVC}},
			models.EventTypeArrhythmia, models.AlarmLevelWarning, true,
		},
		{
			"non critical arrhythmia",
			models.Abnormal{Conditions: []string{rhythm.LabelPVC}},
			models.EventTypeArrhythmia, models.AlarmLevelWarning, true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eventType, _, level, ok := ClassifyAnalysis(tt.result)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.eventType, eventType)
			assert.Equal(t, tt.level, level)
		})
	}
}

func TestBuildFromAnalysis(t *testing.T) {
	b := NewAlarmEventBuilder("tenant-1")
	at := time.UnixMilli(1700000000000)

	event, err := b.BuildFromAnalysis("strap-1", models.Normal{}, nil, at)
	require.NoError(t, err)
	assert.Nil(t, event)

	hr := 48
	event, err = b.BuildFromAnalysis("strap-1", models.Abnormal{
		Conditions: []string{rhythm.LabelMyocardialInfarction},
		IsCritical: true,
	}, &hr, at)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, models.EventTypeArrhythmia, event.EventType)
	assert.True(t, event.TriggeredAt.Equal(at))

	var trigger models.TriggerData
	require.NoError(t, json.Unmarshal([]byte(event.TriggerData), &trigger))
	assert.Equal(t, SourceRhythmClassifier, trigger.Source)
	assert.Equal(t, []string{rhythm.LabelMyocardialInfarction}, trigger.Conditions)
	require.NotNil(t, trigger.IsCritical)
	assert.True(t, *trigger.IsCritical)
	require.NotNil(t, trigger.HeartRate)
	assert.Equal(t, 48, *trigger.HeartRate)

	event, err = b.BuildFromAnalysis("strap-1", models.Skipped{Reason: monitoring.ReasonLeadsOff}, nil, at)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, models.CategoryDevice, event.Category)
	require.NoError(t, json.Unmarshal([]byte(event.TriggerData), &trigger))
	assert.Equal(t, SourceSignalQuality, trigger.Source)
}

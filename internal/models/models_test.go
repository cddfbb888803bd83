package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityState_Ordering(t *testing.T) {
	assert.True(t, IntenseActivity.AtLeast(ModerateActivity))
	assert.True(t, ModerateActivity.IsExercise())
	assert.False(t, LightActivity.IsExercise())
	assert.Equal(t, "INTENSE_ACTIVITY", IntenseActivity.String())
}

func TestActivityState_JSONUsesNames(t *testing.T) {
	d := MonitoringDecision{HeartRate: 130, ActivityState: ModerateActivity}
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"activity_state":"MODERATE_ACTIVITY"`)

	var decoded MonitoringDecision
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, ModerateActivity, decoded.ActivityState)
}

func TestNewAnalysisRecord(t *testing.T) {
	r := NewAnalysisRecord("strap-1", Abnormal{Conditions: []string{"PVC"}}, 10)
	assert.Equal(t, ResultKindAbnormal, r.Kind)
	assert.Equal(t, []string{"PVC"}, r.Conditions)
	assert.False(t, r.IsCritical)

	r = NewAnalysisRecord("strap-1", Skipped{Reason: "Leads Off / Signal Lost"}, 10)
	assert.Equal(t, ResultKindSkipped, r.Kind)
	assert.Equal(t, "Leads Off / Signal Lost", r.Reason)

	r = NewAnalysisRecord("strap-1", Normal{}, 10)
	assert.Equal(t, ResultKindNormal, r.Kind)
	assert.Empty(t, r.Reason)
}

func TestDecisionStatusText(t *testing.T) {
	assert.Equal(t, "130 BPM - Alert Triggered",
		DecisionStatusText(MonitoringDecision{HeartRate: 130, ShouldAlert: true}, 100))
	assert.Equal(t, "110 BPM - SEDENTARY (Recovery)",
		DecisionStatusText(MonitoringDecision{HeartRate: 110, InCooldown: true}, 100))
	assert.Equal(t, "110 BPM - LIGHT_ACTIVITY (Active)",
		DecisionStatusText(MonitoringDecision{HeartRate: 110, ActivityState: LightActivity}, 100))
	assert.Equal(t, "72 BPM - Normal",
		DecisionStatusText(MonitoringDecision{HeartRate: 72}, 100))
}

func TestAlarmLevelRank(t *testing.T) {
	assert.Greater(t, AlarmLevelRank(AlarmLevelEmergency), AlarmLevelRank(AlarmLevelAlert))
	assert.Greater(t, AlarmLevelRank(AlarmLevelAlert), AlarmLevelRank(AlarmLevelWarning))
	assert.Greater(t, AlarmLevelRank(AlarmLevelWarning), AlarmLevelRank(AlarmLevelInformational))
	assert.Zero(t, AlarmLevelRank("UNKNOWN"))
}

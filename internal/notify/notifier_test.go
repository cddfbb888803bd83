package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-cardiac/internal/models"
)

type publishedMessage struct {
	target  string
	qos     byte
	payload []byte
}

type fakeNATS struct {
	mu   sync.Mutex
	msgs []publishedMessage
	err  error
}

func (f *fakeNATS) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, publishedMessage{target: subject, payload: data})
	return nil
}

type fakeMQTT struct {
	mu   sync.Mutex
	msgs []publishedMessage
	err  error
}

func (f *fakeMQTT) Publish(topic string, qos byte, _ bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, publishedMessage{target: topic, qos: qos, payload: payload})
	return nil
}

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Notify(context.Context, *models.AlarmEvent) error {
	c.calls++
	return c.err
}

func tachycardiaEvent(t *testing.T) *models.AlarmEvent {
	t.Helper()
	hr := 130
	activity := "SEDENTARY"
	reason := "Tachycardia at rest (HR: 130 BPM)"
	trigger, err := json.Marshal(models.TriggerData{
		EventType:     models.EventTypeTachycardia,
		Source:        "ContextMonitor",
		HeartRate:     &hr,
		ActivityState: &activity,
		Reason:        &reason,
	})
	require.NoError(t, err)
	return &models.AlarmEvent{
		EventID:     "evt-1",
		DeviceID:    "strap-01",
		EventType:   models.EventTypeTachycardia,
		AlarmLevel:  models.AlarmLevelAlert,
		Category:    models.CategoryClinical,
		TriggeredAt: time.UnixMilli(1_700_000_000_000),
		TriggerData: string(trigger),
	}
}

func TestNewAlertMessage(t *testing.T) {
	msg := NewAlertMessage(tachycardiaEvent(t))

	assert.Equal(t, "evt-1", msg.EventID)
	assert.Equal(t, "strap-01", msg.DeviceID)
	assert.Equal(t, 130, msg.HeartRate)
	assert.Equal(t, "SEDENTARY", msg.Activity)
	assert.Equal(t, "Tachycardia at rest (HR: 130 BPM)", msg.Message)
	assert.Equal(t, int64(1_700_000_000_000), msg.Timestamp)
}

func TestNewAlertMessage_Conditions(t *testing.T) {
	trigger, err := json.Marshal(models.TriggerData{
		EventType:  models.EventTypeArrhythmia,
		Conditions: []string{"Atrial Fibrillation", "Myocardial Infarction"},
	})
	require.NoError(t, err)

	msg := NewAlertMessage(&models.AlarmEvent{
		EventType:   models.EventTypeArrhythmia,
		TriggerData: string(trigger),
	})
	assert.Equal(t, "Atrial Fibrillation, Myocardial Infarction", msg.Message)
	assert.Zero(t, msg.HeartRate)
}

func TestNewAlertMessage_InvalidTriggerData(t *testing.T) {
	msg := NewAlertMessage(&models.AlarmEvent{EventType: models.EventTypeLeadsOff, TriggerData: "not json"})
	assert.Equal(t, models.EventTypeLeadsOff, msg.Message)
}

func TestNATSNotifier_Notify(t *testing.T) {
	conn := &fakeNATS{}
	n := NewNATSNotifier(conn, "", zap.NewNop())

	require.NoError(t, n.Notify(context.Background(), tachycardiaEvent(t)))
	require.Len(t, conn.msgs, 1)
	assert.Equal(t, "cardiac.alerts.strap-01", conn.msgs[0].target)

	var msg models.AlertMessage
	require.NoError(t, json.Unmarshal(conn.msgs[0].payload, &msg))
	assert.Equal(t, "evt-1", msg.EventID)
	assert.Equal(t, models.AlarmLevelAlert, msg.AlarmLevel)
}

func TestNATSNotifier_PublishError(t *testing.T) {
	conn := &fakeNATS{err: errors.New("nats: connection closed")}
	n := NewNATSNotifier(conn, "alerts.", zap.NewNop())

	err := n.Notify(context.Background(), tachycardiaEvent(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alerts.strap-01")
}

func TestMQTTNotifier_Notify(t *testing.T) {
	client := &fakeMQTT{}
	n := NewMQTTNotifier(client, 1, zap.NewNop())

	require.NoError(t, n.Notify(context.Background(), tachycardiaEvent(t)))
	require.Len(t, client.msgs, 1)
	assert.Equal(t, "strap/strap-01/alert", client.msgs[0].target)
	assert.Equal(t, byte(1), client.msgs[0].qos)
}

func TestMultiNotifier_ContinuesAfterFailure(t *testing.T) {
	failing := &countingNotifier{err: errors.New("boom")}
	ok := &countingNotifier{}
	multi := MultiNotifier{failing, nil, ok}

	err := multi.Notify(context.Background(), tachycardiaEvent(t))
	require.Error(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
}

func TestMultiNotifier_Empty(t *testing.T) {
	assert.NoError(t, MultiNotifier(nil).Notify(context.Background(), tachycardiaEvent(t)))
}

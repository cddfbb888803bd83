package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownTimer_Lifecycle(t *testing.T) {
	c := NewCooldownTimer(5 * time.Minute)
	now := time.UnixMilli(1700000000000)

	assert.False(t, c.Refresh(now))
	assert.Zero(t, c.SinceExercise(now))

	c.MarkExercise(now)
	assert.False(t, c.InCooldown())

	assert.True(t, c.Refresh(now.Add(time.Minute)))
	assert.Equal(t, time.Minute, c.SinceExercise(now.Add(time.Minute)))

	assert.False(t, c.Refresh(now.Add(5*time.Minute)))
	assert.False(t, c.InCooldown())
}

func TestCooldownTimer_ExerciseRestartsCooldown(t *testing.T) {
	c := NewCooldownTimer(5 * time.Minute)
	start := time.UnixMilli(1700000000000)

	c.MarkExercise(start)
	c.Refresh(start.Add(4 * time.Minute))
	c.MarkExercise(start.Add(4 * time.Minute))

	assert.True(t, c.Refresh(start.Add(8*time.Minute)))
}

func TestCooldownTimer_RestoreAndReset(t *testing.T) {
	c := NewCooldownTimer(5 * time.Minute)
	now := time.UnixMilli(1700000000000)

	c.Restore(now.Add(-2 * time.Minute))
	assert.False(t, c.InCooldown())
	assert.True(t, c.Refresh(now))
	assert.True(t, c.LastExercise().Equal(now.Add(-2*time.Minute)))

	c.Reset()
	assert.True(t, c.LastExercise().IsZero())
	assert.False(t, c.Refresh(now))
}

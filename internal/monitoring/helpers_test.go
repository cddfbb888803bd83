package monitoring

import (
	"math"
	"sync"
	"time"

	"wisefido-cardiac/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1700000000000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// framesFromECG 以 10ms 间隔（100Hz）生成帧
func framesFromECG(values []float64, start int64) []models.SensorFrame {
	frames := make([]models.SensorFrame, len(values))
	for i, v := range values {
		frames[i] = models.SensorFrame{Timestamp: start + int64(i)*10, ECG: v}
	}
	return frames
}

// spikeTrain 在 0 基线上每 period 个样本放一个幅值为 1 的尖峰，首个位于 offset
func spikeTrain(n, period, offset int) []float64 {
	values := make([]float64, n)
	for i := offset; i < n; i += period {
		values[i] = 1.0
	}
	return values
}

func sineWave(n int, amplitude float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = amplitude * math.Sin(float64(i)*2*math.Pi/80)
	}
	return values
}

// accelFor 产生运动强度为 intensity 的加速度样本
func accelFor(intensity float64) (float64, float64, float64) {
	return 0, 0, StandardGravity + intensity
}

package monitoring

import (
	"sync"

	"wisefido-cardiac/internal/models"
)

// SlidingWindowBuffer 分析窗口缓冲区
// 生产者（样本接入）和消费者（分析 worker）共享，所有访问都经过内部锁
type SlidingWindowBuffer struct {
	mu     sync.Mutex
	frames []models.SensorFrame
	maxLen int
}

// NewSlidingWindowBuffer 创建缓冲区；maxLen > 0 时超出部分从最旧的帧开始丢弃
func NewSlidingWindowBuffer(maxLen int) *SlidingWindowBuffer {
	initial := maxLen
	if initial <= 0 {
		initial = 1024
	}
	return &SlidingWindowBuffer{
		frames: make([]models.SensorFrame, 0, initial),
		maxLen: maxLen,
	}
}

// Append 追加一帧，返回追加后的长度
func (b *SlidingWindowBuffer) Append(frame models.SensorFrame) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, frame)
	if b.maxLen > 0 && len(b.frames) > b.maxLen {
		b.frames = b.frames[len(b.frames)-b.maxLen:]
	}
	return len(b.frames)
}

// Snapshot 复制最近 n 帧（不足 n 帧时复制全部）
func (b *SlidingWindowBuffer) Snapshot(n int) []models.SensorFrame {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > len(b.frames) || n <= 0 {
		n = len(b.frames)
	}
	out := make([]models.SensorFrame, n)
	copy(out, b.frames[len(b.frames)-n:])
	return out
}

// Slide 丢弃最旧的 step 帧；长度不足 step 时不做任何操作并返回 false
func (b *SlidingWindowBuffer) Slide(step int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if step <= 0 || len(b.frames) < step {
		return false
	}
	b.frames = b.frames[step:]
	return true
}

// Len 当前帧数
func (b *SlidingWindowBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}

// Reset 清空缓冲区
func (b *SlidingWindowBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = b.frames[:0:0]
}

package monitoring

import "time"

// Clock 时间源
type Clock interface {
	Now() time.Time
}

// SystemClock 系统时钟
type SystemClock struct{}

// Now 返回当前时间
func (SystemClock) Now() time.Time { return time.Now() }

package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeartRateExtractor_InsufficientData(t *testing.T) {
	e := NewHeartRateExtractor(DefaultHeartRateConfig())

	_, ok := e.ExtractHeartRate(framesFromECG(spikeTrain(499, 60, 30), 0))
	assert.False(t, ok)

	_, ok = e.LastHeartRate()
	assert.False(t, ok)
}

func TestHeartRateExtractor_RegularRhythm(t *testing.T) {
	tests := []struct {
		name   string
		period int
		want   int
	}{
		{"100 bpm", 60, 100},
		{"75 bpm", 80, 75},
		{"60 bpm", 100, 60},
		{"150 bpm", 40, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewHeartRateExtractor(DefaultHeartRateConfig())
			frames := framesFromECG(spikeTrain(1000, tt.period, 30), 1700000000000)

			bpm, ok := e.ExtractHeartRate(frames)
			require.True(t, ok)
			assert.Equal(t, tt.want, bpm)

			// 同一批数据再处理一次，峰值不会重复计入
			bpm, ok = e.ExtractHeartRate(frames)
			require.True(t, ok)
			assert.Equal(t, tt.want, bpm)

			last, ok := e.LastHeartRate()
			require.True(t, ok)
			assert.Equal(t, tt.want, last)
		})
	}
}

func TestHeartRateExtractor_MinPeakDistance(t *testing.T) {
	e := NewHeartRateExtractor(DefaultHeartRateConfig())

	// 尖峰间隔 200ms，小于 300ms 不应期，只有每隔一个被接受（400ms → 150 BPM）
	bpm, ok := e.ExtractHeartRate(framesFromECG(spikeTrain(1000, 20, 30), 0))
	require.True(t, ok)
	assert.Equal(t, 150, bpm)
}

func TestHeartRateExtractor_OutOfRange(t *testing.T) {
	e := NewHeartRateExtractor(DefaultHeartRateConfig())

	// 3 秒一个尖峰 = 20 BPM，低于 30
	_, ok := e.ExtractHeartRate(framesFromECG(spikeTrain(1000, 300, 30), 0))
	assert.False(t, ok)
}

func TestHeartRateExtractor_NoPeaks(t *testing.T) {
	e := NewHeartRateExtractor(DefaultHeartRateConfig())

	_, ok := e.ExtractHeartRate(framesFromECG(make([]float64, 1000), 0))
	assert.False(t, ok)
}

func TestHeartRateExtractor_PrunesOldPeaks(t *testing.T) {
	e := NewHeartRateExtractor(DefaultHeartRateConfig())

	_, ok := e.ExtractHeartRate(framesFromECG(spikeTrain(1000, 100, 30), 0))
	require.True(t, ok)

	// 20 秒后的数据：之前的峰全部超出保留窗口，心率只由新峰决定
	bpm, ok := e.ExtractHeartRate(framesFromECG(spikeTrain(1000, 50, 30), 20000))
	require.True(t, ok)
	assert.Equal(t, 120, bpm)
}

func TestHeartRateExtractor_Reset(t *testing.T) {
	e := NewHeartRateExtractor(DefaultHeartRateConfig())
	frames := framesFromECG(spikeTrain(1000, 60, 30), 0)

	_, ok := e.ExtractHeartRate(frames)
	require.True(t, ok)

	e.Reset()
	_, ok = e.LastHeartRate()
	assert.False(t, ok)

	// 重置后同一批数据可以重新检出
	bpm, ok := e.ExtractHeartRate(frames)
	require.True(t, ok)
	assert.Equal(t, 100, bpm)
}

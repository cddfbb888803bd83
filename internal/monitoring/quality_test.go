package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalQualityGate_IsLeadsOff(t *testing.T) {
	gate := NewSignalQualityGate(0)
	assert.Equal(t, DefaultExtremeThreshold, gate.ExtremeThreshold)

	tests := []struct {
		name   string
		values []float64
		want   bool
	}{
		{"empty", nil, true},
		{"flatline", []float64{0.5, 0.5, 0.5, 0.5}, true},
		{"zero flatline", make([]float64, 100), true},
		{"positive saturation", []float64{0.1, 0.2, 11, 0.1}, true},
		{"negative saturation", []float64{0.1, -10.5, 0.2}, true},
		{"at threshold", []float64{0.1, 10.0, -10.0}, false},
		{"low amplitude noise", []float64{0.001, 0.002, 0.001, 0.003}, false},
		{"normal ecg", sineWave(1000, 1.2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gate.IsLeadsOff(framesFromECG(tt.values, 0)))
		})
	}
}

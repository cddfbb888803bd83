package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingFloat(t *testing.T) {
	r := NewRingFloat(3)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0.0, r.Mean())

	r.Push(1)
	r.Push(2)
	assert.Equal(t, []float64{1, 2}, r.Slice())
	assert.InDelta(t, 1.5, r.Mean(), 1e-9)

	r.Push(3)
	r.Push(4)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []float64{2, 3, 4}, r.Slice())
	assert.InDelta(t, 3.0, r.Mean(), 1e-9)

	r.Reset()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Slice())
}

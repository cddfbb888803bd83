package rhythm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholdDecoder_Decode(t *testing.T) {
	d := DefaultThresholdDecoder()
	require.Equal(t, 11, d.Size())

	probs := make([]float32, 11)
	labels, err := d.Decode(probs)
	require.NoError(t, err)
	assert.Empty(t, labels)

	probs[0] = 0.45 // NSR，等于阈值
	probs[1] = 0.49 // AFib，低于 0.50
	probs[5] = 0.61 // SBrad
	probs[6] = 0.9  // MI
	labels, err = d.Decode(probs)
	require.NoError(t, err)
	assert.Equal(t, []string{LabelNormalSinusRhythm, LabelSinusBradycardia, LabelMyocardialInfarction}, labels)
}

func TestThresholdDecoder_SizeMismatch(t *testing.T) {
	_, err := DefaultThresholdDecoder().Decode([]float32{0.9})
	assert.Error(t, err)
}

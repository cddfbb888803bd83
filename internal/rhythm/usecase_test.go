package rhythm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"wisefido-cardiac/internal/models"
)

type stubClassifier struct {
	labels []string
	err    error
	calls  int
}

func (c *stubClassifier) Classify(context.Context, []models.SensorFrame) ([]string, error) {
	c.calls++
	return c.labels, c.err
}

func window(n int, amplitude float64) []models.SensorFrame {
	frames := make([]models.SensorFrame, n)
	for i := range frames {
		v := amplitude
		if i%2 == 1 {
			v = -amplitude
		}
		frames[i] = models.SensorFrame{Timestamp: int64(i * 10), ECG: v}
	}
	return frames
}

func TestAnalyze_AsystoleBypassesClassifier(t *testing.T) {
	classifier := &stubClassifier{labels: []string{LabelNormal}}
	u := NewAnalyzeHeartRhythmUseCase(classifier, nil, nil, zap.NewNop())

	result := u.Analyze(context.Background(), window(1000, 0.1))

	assert.Equal(t, models.Abnormal{
		Conditions: []string{ConditionPossibleAsystole, ConditionCardiacArrest},
		IsCritical: true,
	}, result)
	assert.Equal(t, 0, classifier.calls)
}

func TestAnalyze_ClassifierOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		err    error
		want   models.AnalysisResult
	}{
		{
			name:   "no labels",
			labels: nil,
			want:   models.Normal{},
		},
		{
			name:   "literal normal",
			labels: []string{LabelNormal},
			want:   models.Normal{},
		},
		{
			name:   "literal normal among other labels",
			labels: []string{LabelPVC, LabelNormal},
			want:   models.Normal{},
		},
		{
			name:   "normal sinus rhythm is reported as a label",
			labels: []string{LabelNormalSinusRhythm},
			want:   models.Abnormal{Conditions: []string{LabelNormalSinusRhythm}},
		},
		{
			name:   "non critical",
			labels: []string{LabelPVC, LabelSinusTachycardia},
			want:   models.Abnormal{Conditions: []string{LabelPVC, LabelSinusTachycardia}},
		},
		{
			name:   "atrial fibrillation is critical",
			labels: []string{LabelNormalSinusRhythm, LabelAtrialFibrillation},
			want:   models.Abnormal{Conditions: []string{LabelNormalSinusRhythm, LabelAtrialFibrillation}, IsCritical: true},
		},
		{
			name:   "myocardial infarction is critical",
			labels: []string{LabelSTDepression, LabelMyocardialInfarction},
			want:   models.Abnormal{Conditions: []string{LabelSTDepression, LabelMyocardialInfarction}, IsCritical: true},
		},
		{
			name: "classifier failure",
			err:  ErrModelUnavailable,
			want: models.Unavailable{Reason: ErrModelUnavailable.Error()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := &stubClassifier{labels: tt.labels, err: tt.err}
			u := NewAnalyzeHeartRhythmUseCase(classifier, nil, nil, zap.NewNop())

			result := u.Analyze(context.Background(), window(1000, 1.0))
			assert.Equal(t, tt.want, result)
			assert.Equal(t, 1, classifier.calls)
		})
	}
}

func TestAnalyze_CustomCriticalLabels(t *testing.T) {
	classifier := &stubClassifier{labels: []string{LabelPVC}}
	u := NewAnalyzeHeartRhythmUseCase(classifier, nil, []string{LabelPVC}, zap.NewNop())

	result := u.Analyze(context.Background(), window(1000, 1.0))
	abnormal, ok := result.(models.Abnormal)
	assert.True(t, ok)
	assert.True(t, abnormal.IsCritical)
}

func TestAnalyze_UnavailableIsNeverNormal(t *testing.T) {
	classifier := &stubClassifier{err: errors.New("connection refused")}
	u := NewAnalyzeHeartRhythmUseCase(classifier, nil, nil, zap.NewNop())

	result := u.Analyze(context.Background(), window(1000, 1.0))
	assert.Equal(t, models.ResultKindUnavailable, result.Kind())
}

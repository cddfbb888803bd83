package rhythm

import "fmt"

// LabelThreshold 标签及其判定阈值
type LabelThreshold struct {
	Label     string
	Threshold float32
}

// ThresholdDecoder 将模型输出的概率向量解码为标签列表
type ThresholdDecoder struct {
	labels []LabelThreshold
}

// NewThresholdDecoder 按模型输出顺序创建解码器
func NewThresholdDecoder(labels []LabelThreshold) *ThresholdDecoder {
	return &ThresholdDecoder{labels: labels}
}

// DefaultThresholdDecoder 11 分类模型的默认阈值
func DefaultThresholdDecoder() *ThresholdDecoder {
	return NewThresholdDecoder([]LabelThreshold{
		{LabelNormalSinusRhythm, 0.45},
		{LabelAtrialFibrillation, 0.50},
		{LabelSinusTachycardia, 0.55},
		{LabelPVC, 0.45},
		{LabelPAC, 0.45},
		{LabelSinusBradycardia, 0.60},
		{LabelMyocardialInfarction, 0.45},
		{LabelSTDepression, 0.45},
		{LabelFirstDegreeAVBlock, 0.55},
		{LabelTWaveAbnormality, 0.45},
		{LabelLeftAxisDeviation, 0.45},
	})
}

// Size 输出维度
func (d *ThresholdDecoder) Size() int {
	return len(d.labels)
}

// Decode 返回概率不低于阈值的标签（保持模型输出顺序）
func (d *ThresholdDecoder) Decode(probabilities []float32) ([]string, error) {
	if len(probabilities) != len(d.labels) {
		return nil, fmt.Errorf("unexpected model output size: got %d, want %d", len(probabilities), len(d.labels))
	}

	detected := make([]string, 0, 2)
	for i, p := range probabilities {
		if p >= d.labels[i].Threshold {
			detected = append(detected, d.labels[i].Label)
		}
	}
	return detected, nil
}

package rhythm

import (
	"context"
	"errors"
	"fmt"

	"wisefido-cardiac/internal/models"
)

var (
	// ErrModelUnavailable 模型未加载或推理服务不可达
	ErrModelUnavailable = errors.New("rhythm model unavailable")
	// ErrWindowTooShort 窗口帧数少于模型输入长度
	ErrWindowTooShort = errors.New("window shorter than model input")
)

// DefaultModelInputSize 模型输入长度（100Hz 下 10 秒）
const DefaultModelInputSize = 1000

// Classifier 外部节律分类能力
// 返回检出的标签列表；失败时返回 error，由调用方决定如何呈现
type Classifier interface {
	Classify(ctx context.Context, window []models.SensorFrame) ([]string, error)
}

// Model 推理后端：输入 ECG 序列，输出每个标签的概率
type Model interface {
	Predict(ctx context.Context, input []float32) ([]float32, error)
}

// ModelClassifier 取窗口最后 InputSize 个 ECG 值送入模型，按阈值解码
type ModelClassifier struct {
	model     Model
	decoder   *ThresholdDecoder
	inputSize int
}

// NewModelClassifier 创建分类器
func NewModelClassifier(model Model, decoder *ThresholdDecoder, inputSize int) *ModelClassifier {
	if decoder == nil {
		decoder = DefaultThresholdDecoder()
	}
	if inputSize <= 0 {
		inputSize = DefaultModelInputSize
	}
	return &ModelClassifier{
		model:     model,
		decoder:   decoder,
		inputSize: inputSize,
	}
}

// Classify 实现 Classifier
func (c *ModelClassifier) Classify(ctx context.Context, window []models.SensorFrame) ([]string, error) {
	if len(window) < c.inputSize {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrWindowTooShort, len(window), c.inputSize)
	}

	start := len(window) - c.inputSize
	input := make([]float32, c.inputSize)
	for i := range input {
		input[i] = float32(window[start+i].ECG)
	}

	probabilities, err := c.model.Predict(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to run inference: %w", err)
	}
	return c.decoder.Decode(probabilities)
}

// UnavailableModel 未配置推理服务时使用，每次调用都返回 ErrModelUnavailable
type UnavailableModel struct{}

// Predict 实现 Model
func (UnavailableModel) Predict(context.Context, []float32) ([]float32, error) {
	return nil, ErrModelUnavailable
}

package rhythm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// RemoteModelConfig 推理服务配置
type RemoteModelConfig struct {
	BaseURL    string
	Model      string // 模型名称，为空时由服务端选择默认模型
	Timeout    time.Duration
	RetryCount int
}

type predictRequest struct {
	Model string    `json:"model,omitempty"`
	Input []float32 `json:"input"`
}

type predictResponse struct {
	Probabilities []float32 `json:"probabilities"`
}

type predictError struct {
	Error string `json:"error"`
}

// RemoteModel 通过 HTTP 调用推理服务
//
//	POST /v1/predict {"model": "...", "input": [...]} → {"probabilities": [...]}
type RemoteModel struct {
	httpClient *resty.Client
	model      string
	logger     *zap.Logger
}

// NewRemoteModel 创建推理服务客户端
func NewRemoteModel(cfg RemoteModelConfig, logger *zap.Logger) *RemoteModel {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &RemoteModel{
		httpClient: client,
		model:      cfg.Model,
		logger:     logger,
	}
}

// Predict 实现 Model
func (m *RemoteModel) Predict(ctx context.Context, input []float32) ([]float32, error) {
	var result predictResponse
	var apiErr predictError
	resp, err := m.httpClient.R().
		SetContext(ctx).
		SetBody(predictRequest{Model: m.model, Input: input}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/v1/predict")

	if err != nil {
		m.logger.Warn("Inference request failed",
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	if resp.IsError() {
		m.logger.Warn("Inference service returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("error", apiErr.Error),
		)
		return nil, fmt.Errorf("%w: status %d: %s", ErrModelUnavailable, resp.StatusCode(), apiErr.Error)
	}

	if len(result.Probabilities) == 0 {
		return nil, fmt.Errorf("%w: empty probabilities", ErrModelUnavailable)
	}

	m.logger.Debug("Inference completed",
		zap.Int("input_size", len(input)),
		zap.Duration("latency", resp.Time()),
	)
	return result.Probabilities, nil
}

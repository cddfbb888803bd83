package rhythm

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"wisefido-cardiac/internal/models"
	"wisefido-cardiac/internal/monitoring"
)

// AnalyzeHeartRhythmUseCase 对一个完整窗口给出节律结论
//
//  1. 疑似停搏直接返回危急异常，不调用模型
//  2. 调用分类器；失败返回 Unavailable
//  3. 无标签或含 "Normal" 标签 → Normal
//  4. 其余为 Abnormal，携带全部标签；命中危急集合时标记为危急
type AnalyzeHeartRhythmUseCase struct {
	classifier Classifier
	asystole   *monitoring.AsystoleDetector
	critical   map[string]struct{}
	logger     *zap.Logger
}

// NewAnalyzeHeartRhythmUseCase 创建用例；criticalLabels 为空时使用 DefaultCriticalLabels
func NewAnalyzeHeartRhythmUseCase(
	classifier Classifier,
	asystole *monitoring.AsystoleDetector,
	criticalLabels []string,
	logger *zap.Logger,
) *AnalyzeHeartRhythmUseCase {
	if asystole == nil {
		asystole = monitoring.NewAsystoleDetector()
	}
	if len(criticalLabels) == 0 {
		criticalLabels = DefaultCriticalLabels
	}
	critical := make(map[string]struct{}, len(criticalLabels))
	for _, l := range criticalLabels {
		critical[l] = struct{}{}
	}
	return &AnalyzeHeartRhythmUseCase{
		classifier: classifier,
		asystole:   asystole,
		critical:   critical,
		logger:     logger,
	}
}

// Analyze 实现 monitoring.Analyzer
func (u *AnalyzeHeartRhythmUseCase) Analyze(ctx context.Context, window []models.SensorFrame) models.AnalysisResult {
	if u.asystole.IsPotentialAsystole(window) {
		return models.Abnormal{
			Conditions: []string{ConditionPossibleAsystole, ConditionCardiacArrest},
			IsCritical: true,
		}
	}

	labels, err := u.classifier.Classify(ctx, window)
	if err != nil {
		u.logger.Warn("Rhythm classification failed",
			zap.Error(err),
			zap.Bool("model_unavailable", errors.Is(err, ErrModelUnavailable)),
		)
		return models.Unavailable{Reason: err.Error()}
	}

	return u.interpret(labels)
}

func (u *AnalyzeHeartRhythmUseCase) interpret(labels []string) models.AnalysisResult {
	if len(labels) == 0 {
		return models.Normal{}
	}
	critical := false
	for _, l := range labels {
		if l == LabelNormal {
			return models.Normal{}
		}
		if _, ok := u.critical[l]; ok {
			critical = true
		}
	}
	conditions := make([]string, len(labels))
	copy(conditions, labels)
	return models.Abnormal{Conditions: conditions, IsCritical: critical}
}

package models

// AnalysisResult 一次窗口分析的结果
// 封闭的和类型：只有本包内的 Normal / Abnormal / Skipped / Unavailable 实现该接口，
// 调用方通过 type switch 处理全部分支
type AnalysisResult interface {
	Kind() string
	isAnalysisResult()
}

const (
	ResultKindNormal      = "normal"
	ResultKindAbnormal    = "abnormal"
	ResultKindSkipped     = "skipped"
	ResultKindUnavailable = "unavailable"
)

// Normal 节律正常
type Normal struct{}

// Abnormal 检出异常节律
type Abnormal struct {
	Conditions []string `json:"conditions"`
	IsCritical bool     `json:"is_critical"`
}

// Skipped 分析被门控跳过（剧烈运动、导联脱落）
type Skipped struct {
	Reason string `json:"reason"`
}

// Unavailable 分类模型不可用或推理失败
type Unavailable struct {
	Reason string `json:"reason"`
}

func (Normal) Kind() string      { return ResultKindNormal }
func (Abnormal) Kind() string    { return ResultKindAbnormal }
func (Skipped) Kind() string     { return ResultKindSkipped }
func (Unavailable) Kind() string { return ResultKindUnavailable }

func (Normal) isAnalysisResult()      {}
func (Abnormal) isAnalysisResult()    {}
func (Skipped) isAnalysisResult()     {}
func (Unavailable) isAnalysisResult() {}

// AnalysisRecord AnalysisResult 的扁平化形式（写入 Redis Stream / 报表）
type AnalysisRecord struct {
	DeviceID   string   `json:"device_id"`
	Kind       string   `json:"kind"`
	Conditions []string `json:"conditions,omitempty"`
	IsCritical bool     `json:"is_critical"`
	Reason     string   `json:"reason,omitempty"`
	Timestamp  int64    `json:"timestamp"`
}

// NewAnalysisRecord 将结果展开为记录
func NewAnalysisRecord(deviceID string, result AnalysisResult, timestamp int64) AnalysisRecord {
	record := AnalysisRecord{
		DeviceID:  deviceID,
		Kind:      result.Kind(),
		Timestamp: timestamp,
	}
	switch r := result.(type) {
	case Normal:
	case Abnormal:
		record.Conditions = r.Conditions
		record.IsCritical = r.IsCritical
	case Skipped:
		record.Reason = r.Reason
	case Unavailable:
		record.Reason = r.Reason
	}
	return record
}

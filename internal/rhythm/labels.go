package rhythm

// 节律标签（与模型输出顺序一致）
const (
	LabelNormalSinusRhythm    = "Normal Sinus Rhythm"
	LabelAtrialFibrillation   = "Atrial Fibrillation"
	LabelSinusTachycardia     = "Sinus Tachycardia"
	LabelPVC                  = "PVC"
	LabelPAC                  = "PAC"
	LabelSinusBradycardia     = "Sinus Bradycardia"
	LabelMyocardialInfarction = "Myocardial Infarction"
	LabelSTDepression         = "ST Depression"
	LabelFirstDegreeAVBlock   = "First Degree AV Block"
	LabelTWaveAbnormality     = "T-Wave Abnormality"
	LabelLeftAxisDeviation    = "Left Axis Deviation"

	// LabelNormal 分类器可能直接返回的正常标签
	LabelNormal = "Normal"
)

// 停搏快速通道的结论
const (
	ConditionPossibleAsystole = "POSSIBLE ASYSTOLE"
	ConditionCardiacArrest    = "Clinical Cardiac Arrest Alert"
)

// DefaultCriticalLabels 需要立即打断用户的结论
var DefaultCriticalLabels = []string{
	LabelMyocardialInfarction,
	LabelAtrialFibrillation,
}

package simulator

import "math"

// DefaultGain R 波幅值约 2.5mV
const DefaultGain = 2.5

// ECGSim 合成 ECG 波形（非临床），基线漂移加 P-QRS-T 高斯波
type ECGSim struct {
	fs    float64
	phase float64
	hrBPM float64
	noise float64
	gain  float64
	t     float64
}

// NewECGSim 创建波形发生器；fs 为采样率（Hz），noise 约 0 ~ 0.05
func NewECGSim(fs, hrBPM, noise float64) *ECGSim {
	return &ECGSim{fs: fs, hrBPM: hrBPM, noise: noise, gain: DefaultGain}
}

// SetHeartRate 调整心率，从下一个样本开始生效，相位连续
func (s *ECGSim) SetHeartRate(hrBPM float64) {
	s.hrBPM = hrBPM
}

// HeartRate 当前心率
func (s *ECGSim) HeartRate() float64 {
	return s.hrBPM
}

// Next 返回下一个样本（mV）并推进时间
func (s *ECGSim) Next() float64 {
	s.phase += s.hrBPM / 60.0 / s.fs
	if s.phase >= 1.0 {
		s.phase -= math.Floor(s.phase)
	}
	s.t += 1 / s.fs

	x := s.phase
	// 呼吸引起的基线漂移（0.25Hz）
	baseline := 0.03 * math.Sin(2*math.Pi*0.25*s.t)

	p := 0.06 * gauss(x, 0.18, 0.03)
	q := -0.12 * gauss(x, 0.30, 0.01)
	r := 1.00 * gauss(x, 0.32, 0.008)
	sw := -0.25 * gauss(x, 0.35, 0.012)
	tw := 0.25 * gauss(x, 0.60, 0.06)

	n := s.noise * (2*fract(math.Sin(12345.678*s.t)*9876.543) - 1)

	return s.gain*(baseline+p+q+r+sw+tw) + n
}

// Batch 连续生成 n 个样本
func (s *ECGSim) Batch(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Next()
	}
	return out
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}

func fract(x float64) float64 { return x - math.Floor(x) }

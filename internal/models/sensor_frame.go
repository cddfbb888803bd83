package models

// SensorFrame 一帧传感器数据（每个 ECG 样本一帧，100Hz）
// IMU/陀螺仪/温度/电量为"最后已知值"快照，不单独打时间戳
type SensorFrame struct {
	Timestamp   int64   `json:"timestamp"` // 毫秒
	ECG         float64 `json:"ecg"`       // mV
	AccelX      float64 `json:"accel_x"`   // m/s²
	AccelY      float64 `json:"accel_y"`
	AccelZ      float64 `json:"accel_z"`
	GyroX       float64 `json:"gyro_x"` // rad/s
	GyroY       float64 `json:"gyro_y"`
	GyroZ       float64 `json:"gyro_z"`
	Temperature float64 `json:"temperature"` // °C
	Battery     int     `json:"battery"`     // 0..100
}

// ECGValues 提取窗口内的 ECG 值
func ECGValues(frames []SensorFrame) []float64 {
	values := make([]float64, len(frames))
	for i, f := range frames {
		values[i] = f.ECG
	}
	return values
}

package monitoring

import (
	"sync"

	"wisefido-cardiac/internal/models"
)

// SensorState 保存各通道最新值，在每个 ECG 样本到达时合成一帧
// IMU / 陀螺仪 / 温度 / 电量的更新频率低于 ECG，帧中携带的是最近一次的值
type SensorState struct {
	mu    sync.Mutex
	clock Clock

	accelX, accelY, accelZ float64
	gyroX, gyroY, gyroZ    float64
	temperature            float64
	battery                int
}

// NewSensorState 创建传感器状态（所有值初始为 0）
func NewSensorState(clock Clock) *SensorState {
	if clock == nil {
		clock = SystemClock{}
	}
	return &SensorState{clock: clock}
}

// UpdateAccel 更新加速度计读数（m/s²）
func (s *SensorState) UpdateAccel(x, y, z float64) {
	s.mu.Lock()
	s.accelX, s.accelY, s.accelZ = x, y, z
	s.mu.Unlock()
}

// UpdateGyro 更新陀螺仪读数
func (s *SensorState) UpdateGyro(x, y, z float64) {
	s.mu.Lock()
	s.gyroX, s.gyroY, s.gyroZ = x, y, z
	s.mu.Unlock()
}

// UpdateTemperature 更新皮温
func (s *SensorState) UpdateTemperature(t float64) {
	s.mu.Lock()
	s.temperature = t
	s.mu.Unlock()
}

// UpdateBattery 更新电量百分比
func (s *SensorState) UpdateBattery(level int) {
	s.mu.Lock()
	s.battery = level
	s.mu.Unlock()
}

// CreateFrame 以当前时钟时间为时间戳生成一帧
func (s *SensorState) CreateFrame(ecg float64) models.SensorFrame {
	return s.CreateFrameAt(ecg, s.clock.Now().UnixMilli())
}

// CreateFrameAt 以给定时间戳（毫秒）生成一帧，用于网关批量上报的样本
func (s *SensorState) CreateFrameAt(ecg float64, timestamp int64) models.SensorFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SensorFrame{
		Timestamp:   timestamp,
		ECG:         ecg,
		AccelX:      s.accelX,
		AccelY:      s.accelY,
		AccelZ:      s.accelZ,
		GyroX:       s.gyroX,
		GyroY:       s.gyroY,
		GyroZ:       s.gyroZ,
		Temperature: s.temperature,
		Battery:     s.battery,
	}
}

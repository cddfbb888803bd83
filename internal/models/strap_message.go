package models

// MQTT 主题格式: strap/{device_id}/{kind}
const (
	StrapKindECG         = "ecg"
	StrapKindIMU         = "imu"
	StrapKindGyro        = "gyro"
	StrapKindTemperature = "temp"
	StrapKindBattery     = "battery"
	StrapKindStatus      = "status"
	StrapKindAlert       = "alert"
)

// ECGMessage 网关转发的 ECG 批量样本
// Timestamp 为第一个样本的毫秒时间戳，0 表示由服务端打时间戳
type ECGMessage struct {
	Timestamp  int64     `json:"timestamp"`
	SampleRate int       `json:"sample_rate"`
	Samples    []float64 `json:"samples"`
}

// Vec3Message 加速度计 / 陀螺仪读数
type Vec3Message struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ScalarMessage 温度 / 电量
type ScalarMessage struct {
	Value float64 `json:"value"`
}

// StatusMessage 绑带连接状态
type StatusMessage struct {
	Connected bool `json:"connected"`
}

// AlertMessage 下发给网关/手机端的告警
type AlertMessage struct {
	EventID    string `json:"event_id"`
	DeviceID   string `json:"device_id"`
	EventType  string `json:"event_type"`
	AlarmLevel string `json:"alarm_level"`
	HeartRate  int    `json:"heart_rate"`
	Message    string `json:"message"`
	Activity   string `json:"activity"`
	Timestamp  int64  `json:"timestamp"`
}

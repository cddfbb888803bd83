package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wisefido-cardiac/internal/models"
)

// Publisher MQTT 发布端（common/mqtt.Client）
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// StrapConfig 模拟绑带参数
type StrapConfig struct {
	DeviceID       string
	ECGRate        int           // ECG 采样率（Hz）
	IMURate        int           // 加速度计采样率（Hz）
	BatchInterval  time.Duration // 每条 ECG 消息覆盖的时长
	StatusInterval time.Duration // 电量/皮温上报间隔
	Noise          float64
	QoS            byte
	Speed          float64 // 时间倍率，>1 时快于真实时间
}

// DefaultStrapConfig 默认参数：100Hz ECG、50Hz IMU、每 250ms 一批
func DefaultStrapConfig(deviceID string) StrapConfig {
	return StrapConfig{
		DeviceID:       deviceID,
		ECGRate:        100,
		IMURate:        50,
		BatchInterval:  250 * time.Millisecond,
		StatusInterval: 10 * time.Second,
		Noise:          0.01,
		QoS:            0,
		Speed:          1,
	}
}

// Strap 按剧本向 strap/{device_id}/{kind} 发布合成数据
type Strap struct {
	config  StrapConfig
	profile Profile
	pub     Publisher
	ecg     *ECGSim
	imu     *IMUSim
	logger  *zap.Logger

	lastStatus time.Duration
	battery    float64
}

// NewStrap 创建模拟绑带
func NewStrap(cfg StrapConfig, profile Profile, pub Publisher, logger *zap.Logger) *Strap {
	if cfg.Speed <= 0 {
		cfg.Speed = 1
	}
	_, bpm := profile.At(0)
	return &Strap{
		config:     cfg,
		profile:    profile,
		pub:        pub,
		ecg:        NewECGSim(float64(cfg.ECGRate), bpm, cfg.Noise),
		imu:        NewIMUSim(),
		logger:     logger,
		lastStatus: -cfg.StatusInterval,
		battery:    100,
	}
}

// Topic strap/{device_id}/{kind}
func (s *Strap) Topic(kind string) string {
	return fmt.Sprintf("strap/%s/%s", s.config.DeviceID, kind)
}

// Tick 发布剧本 elapsed 时刻起一个批次的数据；timestampMs 为批次第一个 ECG 样本的时间
func (s *Strap) Tick(elapsed time.Duration, timestampMs int64) error {
	phase, bpm := s.profile.At(elapsed)
	s.ecg.SetHeartRate(bpm)

	ecgCount := int(s.config.BatchInterval * time.Duration(s.config.ECGRate) / time.Second)
	if err := s.publishJSON(models.StrapKindECG, models.ECGMessage{
		Timestamp:  timestampMs,
		SampleRate: s.config.ECGRate,
		Samples:    s.ecg.Batch(ecgCount),
	}); err != nil {
		return err
	}

	imuCount := int(s.config.BatchInterval * time.Duration(s.config.IMURate) / time.Second)
	for i := 0; i < imuCount; i++ {
		ax, ay, az := s.imu.Next(phase.Intensity)
		if err := s.publishJSON(models.StrapKindIMU, models.Vec3Message{X: ax, Y: ay, Z: az}); err != nil {
			return err
		}
	}

	if elapsed-s.lastStatus >= s.config.StatusInterval {
		s.lastStatus = elapsed
		s.battery -= 0.1
		if s.battery < 0 {
			s.battery = 0
		}
		temp := 36.5
		if phase.Intensity >= 2 {
			temp = 37.2
		}
		if err := s.publishJSON(models.StrapKindBattery, models.ScalarMessage{Value: s.battery}); err != nil {
			return err
		}
		if err := s.publishJSON(models.StrapKindTemperature, models.ScalarMessage{Value: temp}); err != nil {
			return err
		}
	}
	return nil
}

// Run 按真实时间（乘以 Speed）播放剧本，结束或 ctx 取消时上报断开
func (s *Strap) Run(ctx context.Context) error {
	if err := s.publishJSON(models.StrapKindStatus, models.StatusMessage{Connected: true}); err != nil {
		return err
	}
	defer func() {
		if err := s.publishJSON(models.StrapKindStatus, models.StatusMessage{Connected: false}); err != nil {
			s.logger.Warn("Failed to publish disconnect", zap.Error(err))
		}
	}()

	interval := time.Duration(float64(s.config.BatchInterval) / s.config.Speed)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	total := s.profile.Total()
	var elapsed time.Duration
	currentPhase := ""

	for elapsed < total {
		phase, bpm := s.profile.At(elapsed)
		if phase.Name != currentPhase {
			currentPhase = phase.Name
			s.logger.Info("Simulator phase",
				zap.String("device_id", s.config.DeviceID),
				zap.String("phase", phase.Name),
				zap.Float64("heart_rate", bpm),
				zap.Float64("intensity", phase.Intensity),
			)
		}

		if err := s.Tick(elapsed, start.Add(elapsed).UnixMilli()); err != nil {
			return err
		}
		elapsed += s.config.BatchInterval

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

func (s *Strap) publishJSON(kind string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", kind, err)
	}
	if err := s.pub.Publish(s.Topic(kind), s.config.QoS, false, payload); err != nil {
		return fmt.Errorf("failed to publish %s message: %w", kind, err)
	}
	return nil
}

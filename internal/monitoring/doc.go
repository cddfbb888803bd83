// Package monitoring 实现绑带数据的信号处理与决策流水线
//
// 主要组件：
//   - SensorState：将最新的 IMU/陀螺仪/温度/电量与每个 ECG 样本合成为一帧
//   - ActivityClassifier / ActivityTracker：由加速度计计算平滑运动强度（SMA）并分级
//   - SignalQualityGate：导联脱落（数字平线、饱和）检测
//   - AsystoleDetector：基于方差的停搏检测（低幅但非数字平线）
//   - HeartRateExtractor：自适应阈值 R 峰检测，输出 BPM
//   - ContextAwareMonitor：心率 × 活动状态 × 冷却计时的告警决策矩阵
//   - AiMonitor：滑动窗口 + 门控 + 异步节律分析调度
//
// 所有时间相关逻辑通过 Clock 注入，便于测试。
package monitoring

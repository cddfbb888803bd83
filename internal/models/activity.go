package models

// ActivityState 活动状态，按运动强度递增排序
type ActivityState int

const (
	Sedentary        ActivityState = iota // 静坐、站立、睡眠
	LightActivity                         // 慢走
	ModerateActivity                      // 快走、爬楼
	IntenseActivity                       // 跑步、跳跃
)

func (s ActivityState) String() string {
	switch s {
	case Sedentary:
		return "SEDENTARY"
	case LightActivity:
		return "LIGHT_ACTIVITY"
	case ModerateActivity:
		return "MODERATE_ACTIVITY"
	case IntenseActivity:
		return "INTENSE_ACTIVITY"
	default:
		return "UNKNOWN"
	}
}

// AtLeast 当前状态强度不低于 other
func (s ActivityState) AtLeast(other ActivityState) bool {
	return s >= other
}

// IsExercise Moderate 或 Intense 视为运动（触发冷却计时）
func (s ActivityState) IsExercise() bool {
	return s.AtLeast(ModerateActivity)
}

// MarshalText 序列化为名称，便于 JSON / Redis 中阅读
func (s ActivityState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 从名称解析
func (s *ActivityState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "SEDENTARY":
		*s = Sedentary
	case "LIGHT_ACTIVITY":
		*s = LightActivity
	case "MODERATE_ACTIVITY":
		*s = ModerateActivity
	case "INTENSE_ACTIVITY":
		*s = IntenseActivity
	default:
		*s = Sedentary
	}
	return nil
}

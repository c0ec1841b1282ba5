package vacation

import (
	"fmt"

	"vacation-approval/pkg/duration"
)

// 规则默认值
const (
	DefaultNameMaxLength = 15
	DefaultMinDays       = 1
	DefaultMaxDays       = 30
	DefaultWindowYears   = 1
	DefaultDateFormat    = "01/02/2006"
)

// RulesConfig 业务规则参数
//   - MinDays/MaxDays: 休假时长下限/上限（天）
//   - MaxRangeDays: 逐日展开的跨度上限，超过时按原始跨度计数
//   - WindowYears: 开始/结束日期允许的窗口 [今天, 今天+N 年]
//   - DateFormat: 消息中的日期格式（Go layout）
type RulesConfig struct {
	NameMaxLength int    `mapstructure:"name_max_length" json:"name_max_length"`
	MinDays       int    `mapstructure:"min_days" json:"min_days"`
	MaxDays       int    `mapstructure:"max_days" json:"max_days"`
	MaxRangeDays  int    `mapstructure:"max_range_days" json:"max_range_days"`
	WindowYears   int    `mapstructure:"window_years" json:"window_years"`
	DateFormat    string `mapstructure:"date_format" json:"date_format"`
}

// DefaultRulesConfig 默认规则参数
func DefaultRulesConfig() RulesConfig {
	return RulesConfig{
		NameMaxLength: DefaultNameMaxLength,
		MinDays:       DefaultMinDays,
		MaxDays:       DefaultMaxDays,
		MaxRangeDays:  duration.DefaultMaxDaysDiff,
		WindowYears:   DefaultWindowYears,
		DateFormat:    DefaultDateFormat,
	}
}

// Validate 检查参数是否自洽
func (c RulesConfig) Validate() error {
	if c.NameMaxLength <= 0 {
		return fmt.Errorf("%w: name_max_length must be positive, got %d", ErrInvalidConfig, c.NameMaxLength)
	}
	if c.MinDays < 0 {
		return fmt.Errorf("%w: min_days must not be negative, got %d", ErrInvalidConfig, c.MinDays)
	}
	if c.MaxDays < c.MinDays {
		return fmt.Errorf("%w: max_days (%d) is less than min_days (%d)", ErrInvalidConfig, c.MaxDays, c.MinDays)
	}
	if c.MaxRangeDays <= 0 {
		return fmt.Errorf("%w: max_range_days must be positive, got %d", ErrInvalidConfig, c.MaxRangeDays)
	}
	if c.WindowYears <= 0 {
		return fmt.Errorf("%w: window_years must be positive, got %d", ErrInvalidConfig, c.WindowYears)
	}
	return nil
}

func (c RulesConfig) dateFormat() string {
	if c.DateFormat == "" {
		return DefaultDateFormat
	}
	return c.DateFormat
}

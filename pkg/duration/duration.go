package duration

import (
	"sort"
	"time"
)

// DefaultMaxDaysDiff 完整展开日期区间的最大跨度（天）
// 超过该跨度时不再逐日枚举，避免超大区间带来的性能问题
const DefaultMaxDaysDiff = 35

const secondsPerDay = 24 * 60 * 60

// Input 休假时长输入
//   - From/To: 起止日期（含），零值表示未填写
//   - Days: 派生字段，仅作展示，不参与计算
//   - ExcludedDays: 申请人希望从天数中排除的日期（如既有节假日）
type Input struct {
	From         time.Time   `json:"from"`
	To           time.Time   `json:"to"`
	Days         *int        `json:"days,omitempty"`
	ExcludedDays []time.Time `json:"excluded_days,omitempty"`
}

// Calculator 日期区间计算器
// 创建后只读，可在多个 goroutine 间共享
type Calculator struct {
	maxDaysDiff int
	nonWorking  [2]time.Weekday
}

// Option 计算器选项
type Option func(*Calculator)

// WithMaxDaysDiff 设置逐日展开的最大跨度
func WithMaxDaysDiff(days int) Option {
	return func(c *Calculator) {
		if days >= 0 {
			c.maxDaysDiff = days
		}
	}
}

// WithNonWorkingDays 设置两个非工作日（默认周六、周日）
func WithNonWorkingDays(first, second time.Weekday) Option {
	return func(c *Calculator) {
		c.nonWorking = [2]time.Weekday{first, second}
	}
}

// NewCalculator 创建日期区间计算器
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		maxDaysDiff: DefaultMaxDaysDiff,
		nonWorking:  [2]time.Weekday{time.Saturday, time.Sunday},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCalculator = NewCalculator()

// Default 返回使用默认配置的计算器
func Default() *Calculator {
	return defaultCalculator
}

// MaxDaysDiff 返回逐日展开的最大跨度
func (c *Calculator) MaxDaysDiff() int {
	return c.maxDaysDiff
}

// IsNonWorkingDay 判断日期是否落在非工作日
func (c *Calculator) IsNonWorkingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd == c.nonWorking[0] || wd == c.nonWorking[1]
}

// View 基于当前输入创建派生视图
func (c *Calculator) View(in Input) View {
	return View{in: in, calc: c}
}

// View 休假时长的派生视图
// 所有方法都是输入的纯函数，每次调用重新计算，不做缓存
type View struct {
	in   Input
	calc *Calculator
}

// Input 返回视图对应的原始输入
func (v View) Input() Input {
	return v.in
}

func (v View) location() *time.Location {
	if v.in.From.IsZero() {
		return time.UTC
	}
	return v.in.From.Location()
}

// FromDatePart 去掉时分秒的开始日期
func (v View) FromDatePart() time.Time {
	return DatePart(v.in.From)
}

// ToDatePart 去掉时分秒的结束日期（统一到开始日期的时区）
func (v View) ToDatePart() time.Time {
	return DatePartIn(v.in.To, v.location())
}

// DaysDiff 结束日期与开始日期相差的天数，开始晚于结束时为负数
// 直接由日期计算，不枚举区间，超大区间也能快速得出
func (v View) DaysDiff() int {
	return DaysBetween(v.in.From, v.in.To)
}

// IsOverLimitRange 跨度是否超过逐日展开上限
func (v View) IsOverLimitRange() bool {
	return v.DaysDiff() > v.calc.maxDaysDiff
}

// RangeDays 区间内的每一天（含首尾，升序）
// 超过上限或开始晚于结束时返回空集合
func (v View) RangeDays() []time.Time {
	days := make([]time.Time, 0)
	if v.IsOverLimitRange() {
		return days
	}

	from, to := v.FromDatePart(), v.ToDatePart()
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// ExcludedWeekdays 区间内落在非工作日的日期
func (v View) ExcludedWeekdays() []time.Time {
	weekends := make([]time.Time, 0)
	for _, d := range v.RangeDays() {
		if v.calc.IsNonWorkingDay(d) {
			weekends = append(weekends, d)
		}
	}
	return weekends
}

// ExcludedDaysDatePart 调用方给出的排除日期（按天归一化，未去重）
func (v View) ExcludedDaysDatePart() []time.Time {
	loc := v.location()
	days := make([]time.Time, 0, len(v.in.ExcludedDays))
	for _, d := range v.in.ExcludedDays {
		days = append(days, DatePartIn(d, loc))
	}
	return days
}

// ExcludedDays 所有被排除的日期：非工作日与区间内的调用方排除日期的并集（去重，升序）
func (v View) ExcludedDays() []time.Time {
	weekends := v.ExcludedWeekdays()
	if len(v.in.ExcludedDays) == 0 {
		return weekends
	}

	inRange := dayIndex(v.RangeDays())
	seen := dayIndex(weekends)
	excluded := weekends
	for _, d := range v.ExcludedDaysDatePart() {
		k := keyOf(d)
		if _, ok := inRange[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		excluded = append(excluded, d)
	}

	sort.Slice(excluded, func(i, j int) bool { return excluded[i].Before(excluded[j]) })
	return excluded
}

// ExcludedDaysOutOfRange 调用方给出的、不在区间内的排除日期（去重，保持输入顺序）
func (v View) ExcludedDaysOutOfRange() []time.Time {
	inRange := dayIndex(v.RangeDays())
	seen := make(map[dayKey]struct{})
	out := make([]time.Time, 0)
	for _, d := range v.ExcludedDaysDatePart() {
		k := keyOf(d)
		if _, ok := inRange[k]; ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, d)
	}
	return out
}

// VacationDays 实际消耗的休假日：区间日期减去排除日期，保持升序
func (v View) VacationDays() []time.Time {
	excluded := dayIndex(v.ExcludedDays())
	days := make([]time.Time, 0)
	for _, d := range v.RangeDays() {
		if _, ok := excluded[keyOf(d)]; !ok {
			days = append(days, d)
		}
	}
	return days
}

// VacationDaysCount 休假天数
// 超过上限时返回原始日历跨度，保证时长上限规则依然能触发
func (v View) VacationDaysCount() int {
	if v.IsOverLimitRange() {
		return v.DaysDiff()
	}
	return len(v.VacationDays())
}

// DatePart 去掉时分秒，保留原时区
func DatePart(t time.Time) time.Time {
	return DatePartIn(t, t.Location())
}

// DatePartIn 取 t 自身的日历日期，在 loc 时区构造当天零点
func DatePartIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DaysBetween 按日历日期计算 b 与 a 相差的天数，忽略时分秒与时区偏移
func DaysBetween(a, b time.Time) int {
	return int((civilUnix(b) - civilUnix(a)) / secondsPerDay)
}

// SameDay 两个时间是否落在同一个日历日
func SameDay(a, b time.Time) bool {
	return keyOf(a) == keyOf(b)
}

func civilUnix(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{year: y, month: m, day: d}
}

func dayIndex(days []time.Time) map[dayKey]struct{} {
	idx := make(map[dayKey]struct{}, len(days))
	for _, d := range days {
		idx[keyOf(d)] = struct{}{}
	}
	return idx
}

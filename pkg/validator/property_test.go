package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequired(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{name: "nil", value: nil, want: false},
		{name: "空字符串", value: "", want: false},
		{name: "有值", value: "John", want: true},
		{name: "零值时间", value: time.Time{}, want: false},
		{name: "时间", value: time.Now(), want: true},
		{name: "nil 字符串指针", value: (*string)(nil), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Required{}.IsAcceptable(tt.value))
		})
	}
}

func TestMaxLength(t *testing.T) {
	rule := MaxLength{MaxLength: 15}

	assert.True(t, rule.IsAcceptable(""))
	assert.True(t, rule.IsAcceptable(nil))
	assert.True(t, rule.IsAcceptable("John랑"))
	assert.True(t, rule.IsAcceptable("123456789012345"))
	assert.False(t, rule.IsAcceptable("1234567890123456"))
	assert.False(t, rule.IsAcceptable("Smith toooooooooooooooooooooooooo long"))

	o := evaluate(rule, "too looooooooooooong first name")
	assert.True(t, o.HasError)
	assert.Equal(t, "Please enter no more than 15 characters.", o.ErrorMessage)
	assert.Equal(t, TagMaxLength, o.TranslateArgs.TranslateId)
	assert.Equal(t, 15, o.TranslateArgs.MessageArgs["MaxLength"])
}

func TestEmail(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{value: "jsmith@gmail.com", want: true},
		{value: "jsmith.com", want: false},
		{value: "", want: true},
		{value: 42, want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Email{}.IsAcceptable(tt.value), "value=%v", tt.value)
	}
}

func TestCompareOperator(t *testing.T) {
	tests := []struct {
		op   CompareOperator
		diff int
		want bool
	}{
		{LessThan, -1, true},
		{LessThan, 0, false},
		{LessThanEqual, 0, true},
		{LessThanEqual, 1, false},
		{Equal, 0, true},
		{Equal, -1, false},
		{NotEqual, 1, true},
		{NotEqual, 0, false},
		{GreaterThanEqual, 0, true},
		{GreaterThanEqual, -1, false},
		{GreaterThan, 1, true},
		{GreaterThan, 0, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.op.accepts(tt.diff), "%s diff=%d", tt.op, tt.diff)
	}
}

func TestFromToDate(t *testing.T) {
	now := time.Date(2026, time.October, 16, 15, 30, 0, 0, time.UTC)
	rule := FromToDate{
		From: DateBound{Operator: GreaterThanEqual, IgnoreTime: true},
		To: DateBound{Operator: LessThanEqual, IgnoreTime: true, Date: func(n time.Time) time.Time {
			return n.AddDate(1, 0, 0)
		}},
		Now: func() time.Time { return now },
	}

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{name: "今天早些时候", value: now.Add(-10 * time.Hour), want: true},
		{name: "昨天", value: now.AddDate(0, 0, -1), want: false},
		{name: "一年后", value: now.AddDate(1, 0, 0).Add(5 * time.Hour), want: true},
		{name: "一年零一天", value: now.AddDate(1, 0, 1), want: false},
		{name: "非日期", value: "2026-10-16", want: false},
		{name: "零值", value: time.Time{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule.IsAcceptable(tt.value))
		})
	}

	// 不忽略时间时，同一天更早的时刻不满足 >= now
	strict := rule
	strict.From.IgnoreTime = false
	assert.False(t, strict.IsAcceptable(now.Add(-time.Minute)))
	assert.True(t, strict.IsAcceptable(now))
}

func TestFromToDate_Message(t *testing.T) {
	now := time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC)
	rule := FromToDate{
		From: DateBound{Operator: GreaterThanEqual, IgnoreTime: true},
		To:   DateBound{Operator: LessThanEqual, IgnoreTime: true, Date: func(n time.Time) time.Time { return n.AddDate(0, 0, 10) }},
		Now:  func() time.Time { return now },
	}

	o := evaluate(rule, now.AddDate(0, 0, -3))
	assert.True(t, o.HasError)
	assert.Equal(t, "Date '10/13/2026' must be between '10/16/2026' and '10/26/2026'.", o.ErrorMessage)
	assert.NotNil(t, o.TranslateArgs.CustomMessage)

	// 展示层可以用自己的模板复用同一组参数
	msg := o.TranslateArgs.Render(MessageConfig{Msg: "{AttemptedValue} < {From}", Format: "2006-01-02"})
	assert.Equal(t, "2026-10-13 < 2026-10-16", msg)
}

func TestIsWeekday(t *testing.T) {
	friday := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	saturday := friday.AddDate(0, 0, 1)

	assert.True(t, IsWeekday{}.IsAcceptable(friday))
	assert.False(t, IsWeekday{}.IsAcceptable(saturday))
	assert.False(t, IsWeekday{}.IsAcceptable(saturday.AddDate(0, 0, 1)))
	assert.False(t, IsWeekday{}.IsAcceptable(nil))

	o := evaluate(IsWeekday{}, saturday)
	assert.Equal(t, "Date '10/17/2026' is not a weekday.", o.ErrorMessage)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "Maximal vacation duration is 30 days.",
		Format("Maximal vacation duration is {MaxDays} days.", map[string]any{"MaxDays": 30}))
	assert.Equal(t, "no args", Format("no args", nil))
}

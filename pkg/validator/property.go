package validator

import (
	"fmt"
	"strings"
	"time"

	"vacation-approval/pkg/duration"
)

// 规则标签，同时作为本地化的 TranslateId
const (
	TagRequired    = "required"
	TagMaxLength   = "maxlength"
	TagEmail       = "email"
	TagDateCompare = "dateCompareExt"
	TagIsWeekday   = "isWeekday"
)

// DefaultMessages 英文默认消息模板，展示层可按 TranslateId 替换为本地化模板
var DefaultMessages = map[string]MessageConfig{
	TagRequired:    {Msg: "This field is required."},
	TagMaxLength:   {Msg: "Please enter no more than {MaxLength} characters."},
	TagEmail:       {Msg: "Please enter a valid email address."},
	TagDateCompare: {Msg: "Date '{AttemptedValue}' must be between '{From}' and '{To}'.", Format: "01/02/2006"},
	TagIsWeekday:   {Msg: "Date '{AttemptedValue}' is not a weekday.", Format: "01/02/2006"},
}

// PropertyValidator 字段级规则
// 实现必须是无状态的值对象：同一个实例会被挂到多个字段上复用，
// 只能依赖评估时传入的值
type PropertyValidator interface {
	// TagName 规则标签
	TagName() string
	// IsAcceptable 值是否通过
	IsAcceptable(value any) bool
	// TranslateArgs 失败时的本地化参数
	TranslateArgs(value any) *TranslateArgs
}

// evaluate 评估单条属性规则
func evaluate(pv PropertyValidator, value any) Outcome {
	if pv.IsAcceptable(value) {
		return Pass()
	}
	args := pv.TranslateArgs(value)
	return Fail(args.Render(DefaultMessages[pv.TagName()]), args)
}

// ============================================================================
// 结构规则
// ============================================================================

// Required 必填：nil、空字符串、零值时间均不通过
type Required struct{}

func (Required) TagName() string { return TagRequired }

func (Required) IsAcceptable(value any) bool {
	if _, ok := value.(time.Time); ok {
		return !isEmpty(value)
	}
	if isEmpty(value) {
		return false
	}
	return check(value, "required")
}

func (Required) TranslateArgs(value any) *TranslateArgs {
	return &TranslateArgs{TranslateId: TagRequired, MessageArgs: map[string]any{"AttemptedValue": value}}
}

// MaxLength 最大长度（按字符计），空值交给 Required 处理
type MaxLength struct {
	MaxLength int
}

func (m MaxLength) TagName() string { return TagMaxLength }

func (m MaxLength) IsAcceptable(value any) bool {
	if isEmpty(value) {
		return true
	}
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprint(value)
	}
	return check(s, fmt.Sprintf("max=%d", m.MaxLength))
}

func (m MaxLength) TranslateArgs(value any) *TranslateArgs {
	return &TranslateArgs{
		TranslateId: TagMaxLength,
		MessageArgs: map[string]any{"MaxLength": m.MaxLength, "AttemptedValue": value},
	}
}

// Email 邮箱格式，空值交给 Required 处理
type Email struct{}

func (Email) TagName() string { return TagEmail }

func (Email) IsAcceptable(value any) bool {
	if isEmpty(value) {
		return true
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	return check(s, "email")
}

func (Email) TranslateArgs(value any) *TranslateArgs {
	return &TranslateArgs{TranslateId: TagEmail, MessageArgs: map[string]any{"AttemptedValue": value}}
}

// ============================================================================
// 时间规则
// ============================================================================

// CompareOperator 比较运算符，语义为 "值 运算符 边界"
type CompareOperator int

const (
	LessThan CompareOperator = iota
	LessThanEqual
	Equal
	NotEqual
	GreaterThanEqual
	GreaterThan
)

func (op CompareOperator) String() string {
	switch op {
	case LessThan:
		return "<"
	case LessThanEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case GreaterThanEqual:
		return ">="
	case GreaterThan:
		return ">"
	}
	return fmt.Sprintf("CompareOperator(%d)", int(op))
}

// accepts 根据比较结果（负数、零、正数）判断是否满足运算符
func (op CompareOperator) accepts(diff int) bool {
	switch {
	case diff < 0:
		return op == LessThan || op == LessThanEqual || op == NotEqual
	case diff > 0:
		return op == GreaterThan || op == GreaterThanEqual || op == NotEqual
	default:
		return op == LessThanEqual || op == Equal || op == GreaterThanEqual
	}
}

// DateBound 一侧边界
//   - Date: 由评估时刻计算边界日期，nil 时使用评估时刻本身
//   - IgnoreTime: 两侧都截断到天再比较
type DateBound struct {
	Operator   CompareOperator
	Date       func(now time.Time) time.Time
	IgnoreTime bool
}

func (b DateBound) resolve(now time.Time) time.Time {
	if b.Date == nil {
		return now
	}
	return b.Date(now)
}

func (b DateBound) accepts(bound, value time.Time) bool {
	var diff int
	if b.IgnoreTime {
		diff = duration.DaysBetween(bound, value)
	} else {
		diff = value.Compare(bound)
	}
	return b.Operator.accepts(diff)
}

// FromToDate 日期必须同时满足两侧边界
// 边界在每次评估时由 Now 重新计算，规则对象本身不保存时间状态
type FromToDate struct {
	From DateBound
	To   DateBound
	// Now 时钟，nil 时使用 time.Now
	Now func() time.Time
	// Format 消息中的日期格式，空时使用默认模板的格式
	Format string
}

func (v FromToDate) now() time.Time {
	if v.Now == nil {
		return time.Now()
	}
	return v.Now()
}

func (v FromToDate) TagName() string { return TagDateCompare }

func (v FromToDate) IsAcceptable(value any) bool {
	then, ok := asDate(value)
	if !ok {
		return false
	}
	now := v.now()
	return v.From.accepts(v.From.resolve(now), then) && v.To.accepts(v.To.resolve(now), then)
}

func (v FromToDate) TranslateArgs(value any) *TranslateArgs {
	now := v.now()
	then, _ := asDate(value)
	return &TranslateArgs{
		TranslateId: TagDateCompare,
		MessageArgs: map[string]any{
			"From":           v.From.resolve(now),
			"To":             v.To.resolve(now),
			"AttemptedValue": then,
		},
		CustomMessage: DateMessage(v.Format),
	}
}

// DateMessage 返回按日期格式渲染 From/To/AttemptedValue 的消息函数
// format 为空时使用模板自带的 Format
func DateMessage(format string) CustomMessageFunc {
	return func(config MessageConfig, args map[string]any) string {
		layout := format
		if layout == "" {
			layout = config.Format
		}
		if layout != "" {
			for _, key := range []string{"From", "To", "AttemptedValue"} {
				if t, ok := args[key].(time.Time); ok {
					args["Formated"+key] = t.Format(layout)
				}
			}
		}
		msg := config.Msg
		for _, key := range []string{"From", "To", "AttemptedValue"} {
			if _, ok := args["Formated"+key]; ok {
				msg = strings.Replace(msg, "{"+key+"}", "{Formated"+key+"}", 1)
			}
		}
		return Format(msg, args)
	}
}

// IsWeekday 日期不能落在非工作日，判断委托给底层验证器的 weekday 标签
type IsWeekday struct {
	Format string
}

func (IsWeekday) TagName() string { return TagIsWeekday }

func (IsWeekday) IsAcceptable(value any) bool {
	t, ok := asDate(value)
	if !ok {
		return false
	}
	return check(t, tagWeekday)
}

func (w IsWeekday) TranslateArgs(value any) *TranslateArgs {
	t, _ := asDate(value)
	return &TranslateArgs{
		TranslateId:   TagIsWeekday,
		MessageArgs:   map[string]any{"AttemptedValue": t},
		CustomMessage: DateMessage(w.Format),
	}
}

package vacation

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"vacation-approval/pkg/duration"
	"vacation-approval/pkg/validator"
)

// 规则树中的节点名
const (
	MainName         = "Data"
	EmployeeName     = "Employee"
	Deputy1Name      = "Deputy1"
	Deputy2Name      = "Deputy2"
	DurationName     = "Duration"
	FirstNameField   = "FirstName"
	LastNameField    = "LastName"
	EmailField       = "Email"
	FromField        = "From"
	ToField          = "To"
	VacationDuration = "VacationDuration"
	DeputyConflict   = "DeputyConflict"
)

// VacationDuration 的失败原因，同时作为 TranslateId
const (
	ReasonBeforeDate   = "BeforeDate"
	ReasonMinDuration  = "MinDuration"
	ReasonMaxDuration  = "MaxDuration"
	ReasonExcludedDays = "ExcludedDays"
)

// Messages 业务规则的默认英文消息
var Messages = map[string]validator.MessageConfig{
	ReasonBeforeDate:   {Msg: "Date from '{From}' must be before date to '{To}'.", Format: DefaultDateFormat},
	ReasonMinDuration:  {Msg: "Minimal vacation duration is {MinDays} days."},
	ReasonMaxDuration:  {Msg: "Maximal vacation duration is {MaxDays} days."},
	ReasonExcludedDays: {Msg: "Excluded days are not in range. '{ExcludedDates}'."},
	DeputyConflict:     {Msg: "Deputies conflict. Select another deputy."},
}

func fail(args *validator.Error, ta *validator.TranslateArgs, format string) {
	config := Messages[ta.TranslateId]
	if format != "" {
		config.Format = format
	}
	args.Fail(ta.Render(config), ta)
}

// newPersonValidator 申请人/代理人规则，三个位置共用同一份定义
func newPersonValidator(cfg RulesConfig) *validator.AbstractValidator[Person] {
	v := validator.NewAbstractValidator[Person]()
	required := validator.Required{}
	maxLength := validator.MaxLength{MaxLength: cfg.NameMaxLength}

	firstName := func(p *Person) any { return p.FirstName }
	lastName := func(p *Person) any { return p.LastName }
	email := func(p *Person) any { return p.Email }

	v.RuleFor(FirstNameField, firstName, required, maxLength)
	v.RuleFor(LastNameField, lastName, required, maxLength)
	v.RuleFor(EmailField, email, required, validator.Email{})
	return v
}

// newDurationValidator 休假时长规则
func newDurationValidator(cfg RulesConfig, calc *duration.Calculator, clock func() time.Time) *validator.AbstractValidator[Duration] {
	v := validator.NewAbstractValidator[Duration]()
	format := cfg.dateFormat()

	window := validator.FromToDate{
		From: validator.DateBound{Operator: validator.GreaterThanEqual, IgnoreTime: true},
		To: validator.DateBound{
			Operator:   validator.LessThanEqual,
			IgnoreTime: true,
			Date:       func(now time.Time) time.Time { return now.AddDate(cfg.WindowYears, 0, 0) },
		},
		Now:    clock,
		Format: format,
	}
	weekday := validator.IsWeekday{Format: format}

	from := func(d *Duration) any { return d.From }
	to := func(d *Duration) any { return d.To }

	v.RuleFor(FromField, from, validator.Required{}, window, weekday)
	v.RuleFor(ToField, to, validator.Required{}, window, weekday)

	shared := &validator.SharedValidation[Duration]{
		Name:          VacationDuration,
		ValidationFce: vacationDurationFce(cfg, calc),
	}
	v.ValidationFor(FromField, from, shared)
	v.ValidationFor(ToField, to, shared)
	return v
}

// vacationDurationFce 起止日期的跨字段规则
// 依次检查：开始不晚于结束、最短时长、最长时长、排除日期都在区间内，只报告第一个失败原因
func vacationDurationFce(cfg RulesConfig, calc *duration.Calculator) func(*Duration, *validator.Error) {
	format := cfg.dateFormat()
	return func(data *Duration, args *validator.Error) {
		args.Reset()

		// 日期不全时交给 Required
		if !hasDates(data) {
			return
		}

		view := calc.View(*data)
		span := view.DaysDiff()

		if span < 0 {
			fail(args, &validator.TranslateArgs{
				TranslateId:   ReasonBeforeDate,
				MessageArgs:   map[string]any{"From": data.From, "To": data.To},
				CustomMessage: validator.DateMessage(format),
			}, format)
			return
		}

		if span < cfg.MinDays {
			fail(args, &validator.TranslateArgs{
				TranslateId: ReasonMinDuration,
				MessageArgs: map[string]any{"MinDays": cfg.MinDays},
			}, "")
			return
		}

		if span > cfg.MaxDays || view.IsOverLimitRange() || view.VacationDaysCount() > cfg.MaxDays {
			fail(args, &validator.TranslateArgs{
				TranslateId: ReasonMaxDuration,
				MessageArgs: map[string]any{"MaxDays": cfg.MaxDays},
			}, "")
			return
		}

		if outside := view.ExcludedDaysOutOfRange(); len(outside) > 0 {
			dates := make([]string, len(outside))
			for i, d := range outside {
				dates[i] = d.Format(format)
			}
			fail(args, &validator.TranslateArgs{
				TranslateId: ReasonExcludedDays,
				MessageArgs: map[string]any{"ExcludedDates": strings.Join(dates, ", ")},
			}, "")
		}
	}
}

// newDeputyConflict 根节点上的异步代理人冲突规则
func newDeputyConflict(port DeputyConflictPort, logger *zap.Logger) *validator.AsyncValidation[Record] {
	return &validator.AsyncValidation[Record]{
		Name: DeputyConflict,
		AsyncValidationFce: func(ctx context.Context, data *Record) (validator.Outcome, error) {
			ok, err := port.IsAcceptable(ctx, data)
			if err != nil {
				logger.Warn("deputy conflict check failed", zap.Error(err))
				return validator.Outcome{}, err
			}
			if ok {
				return validator.Pass(), nil
			}
			ta := &validator.TranslateArgs{TranslateId: DeputyConflict}
			return validator.Fail(ta.Render(Messages[DeputyConflict]), ta), nil
		},
	}
}

// newMainValidator 整个休假申请的规则定义
func newMainValidator(cfg RulesConfig, calc *duration.Calculator, clock func() time.Time, port DeputyConflictPort, logger *zap.Logger) *validator.AbstractValidator[Record] {
	v := validator.NewAbstractValidator[Record]()

	person := newPersonValidator(cfg)
	validator.ValidatorFor(v, EmployeeName, func(r *Record) *Person { return r.Employee }, person)
	validator.ValidatorFor(v, Deputy1Name, func(r *Record) *Person { return r.Deputy1 }, person)
	validator.ValidatorFor(v, Deputy2Name, func(r *Record) *Person { return r.Deputy2 }, person)

	validator.ValidatorFor(v, DurationName, func(r *Record) *Duration { return r.Duration }, newDurationValidator(cfg, calc, clock))

	v.AsyncValidationFor(newDeputyConflict(port, logger))
	return v
}

// employeeEmailApplies 申请人邮箱只在已填写且 Checked 时验证
func employeeEmailApplies(r *Record) bool {
	return r != nil && r.Employee != nil && r.Employee.Checked && r.Employee.Email != ""
}

// deputy2Applies 第二代理人只在存在且 Checked 时验证
func deputy2Applies(r *Record) bool {
	return r != nil && r.Deputy2 != nil && r.Deputy2.Checked
}

package vacation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"vacation-approval/pkg/async"
	"vacation-approval/pkg/duration"
	"vacation-approval/pkg/validator"
)

// Option BusinessRules 配置项
type Option func(*BusinessRules)

// WithConfig 设置规则参数
func WithConfig(cfg RulesConfig) Option {
	return func(b *BusinessRules) {
		b.cfg = cfg
	}
}

// WithClock 设置时钟，日期窗口规则在每次验证时读取
func WithClock(clock func() time.Time) Option {
	return func(b *BusinessRules) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(b *BusinessRules) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// BusinessRules 休假申请的全部业务规则
//
// 规则树在构造时创建一次，之后的每次 Validate 都复用它：
//   - 同步规则立即执行，返回完整的结果树
//   - 代理人冲突检查异步执行，完成后原地更新结果树中的 DeputyConflict 节点
//
// 每次验证使用申请数据的快照，验证期间调用方修改 Data() 不影响本次结果
type BusinessRules struct {
	mu   sync.RWMutex
	data *Record

	port   DeputyConflictPort
	cfg    RulesConfig
	clock  func() time.Time
	logger *zap.Logger
	calc   *duration.Calculator

	main *validator.Rule
}

// NewBusinessRules 为一份休假申请创建业务规则
func NewBusinessRules(data *Record, port DeputyConflictPort, opts ...Option) (*BusinessRules, error) {
	if data == nil {
		return nil, ErrNilRecord
	}
	if port == nil {
		return nil, ErrNilPort
	}

	b := &BusinessRules{
		data:   data,
		port:   port,
		cfg:    DefaultRulesConfig(),
		clock:  time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	b.calc = duration.NewCalculator(duration.WithMaxDaysDiff(b.cfg.MaxRangeDays))
	b.main = newMainValidator(b.cfg, b.calc, b.clock, port, b.logger).CreateRule(MainName)

	b.EmployeeRule().Field(EmailField).SetApplicable(validator.When(employeeEmailApplies))
	b.Deputy2Rule().SetApplicable(validator.When(deputy2Applies))

	return b, nil
}

// Data 当前的休假申请
func (b *BusinessRules) Data() *Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data
}

// SetData 替换休假申请，规则树保持不变
func (b *BusinessRules) SetData(data *Record) error {
	if data == nil {
		return ErrNilRecord
	}
	b.mu.Lock()
	b.data = data
	b.mu.Unlock()
	return nil
}

func (b *BusinessRules) snapshot() *Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data.Clone()
}

// Validate 执行全部业务规则
// 同步规则的结果立即返回；代理人冲突检查在后台执行，
// 需要等待时使用 PendingDeputyConflict
func (b *BusinessRules) Validate(ctx context.Context) *validator.Result {
	data := b.snapshot()
	res := b.main.ValidateAll(data)
	b.DeputyConflictRule().ValidateAsync(ctx, data)
	return res
}

// ValidateDeputyConflict 单独执行代理人冲突检查
func (b *BusinessRules) ValidateDeputyConflict(ctx context.Context) *async.Future[validator.Outcome] {
	return b.DeputyConflictRule().ValidateAsync(ctx, b.snapshot())
}

// PendingDeputyConflict 最近一次发起的代理人冲突检查，从未发起时为 nil
func (b *BusinessRules) PendingDeputyConflict() *async.Future[validator.Outcome] {
	return b.DeputyConflictRule().Pending()
}

// Errors 最近一次验证的结果树
func (b *BusinessRules) Errors() *validator.Result {
	return b.main.ValidationResult()
}

// DurationView 当前申请的时长视图，未填写时长时 ok 为 false
func (b *BusinessRules) DurationView() (view duration.View, ok bool) {
	data := b.snapshot()
	if data.Duration == nil {
		return duration.View{}, false
	}
	return b.calc.View(*data.Duration), true
}

// Config 规则参数
func (b *BusinessRules) Config() RulesConfig {
	return b.cfg
}

// MainRule 根规则
func (b *BusinessRules) MainRule() *validator.Rule {
	return b.main
}

// EmployeeRule 申请人规则
func (b *BusinessRules) EmployeeRule() *validator.Rule {
	return b.main.Child(EmployeeName)
}

// Deputy1Rule 第一代理人规则
func (b *BusinessRules) Deputy1Rule() *validator.Rule {
	return b.main.Child(Deputy1Name)
}

// Deputy2Rule 第二代理人规则
func (b *BusinessRules) Deputy2Rule() *validator.Rule {
	return b.main.Child(Deputy2Name)
}

// DurationRule 休假时长规则
func (b *BusinessRules) DurationRule() *validator.Rule {
	return b.main.Child(DurationName)
}

// DeputyConflictRule 代理人冲突异步规则
func (b *BusinessRules) DeputyConflictRule() *validator.AsyncRule {
	return b.main.Async(DeputyConflict)
}

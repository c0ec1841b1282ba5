package validator

import (
	"context"
	"sync"

	"vacation-approval/pkg/async"
)

// maxNestedDepth 最大嵌套深度，防止循环组合导致栈溢出
const maxNestedDepth = 32

// Applicability 判断规则在当前根数据下是否生效
// 每次验证时用最新的根数据重新求值，不捕获具体的数据实例
type Applicability func(root any) bool

// When 将强类型的判断函数适配为 Applicability
// root 不是 *R 时 fn 收到 nil
func When[R any](fn func(root *R) bool) Applicability {
	return func(root any) bool {
		r, _ := root.(*R)
		return fn(r)
	}
}

// ============================================================================
// 规则定义（与数据实例无关，可复用）
// ============================================================================

// SharedValidation 命名的共享（跨字段）规则
// 同一个评估函数挂在多个兄弟字段上，失败结果在这些字段上同时可见。
// ValidationFce 收到父节点数据（可能为 nil），必须先重置 args 再评估，且不能 panic
type SharedValidation[T any] struct {
	Name          string
	ValidationFce func(data *T, args *Error)
}

// AsyncValidation 命名的异步规则
// AsyncValidationFce 返回确定的通过/失败结果；返回 error 表示外部能力本身出错
type AsyncValidation[T any] struct {
	Name               string
	AsyncValidationFce func(ctx context.Context, data *T) (Outcome, error)
}

type fieldDef[T any] struct {
	name        string
	get         func(*T) any
	validators  []PropertyValidator
	validations []string
}

type childDef struct {
	name   string
	create func(depth int) *Rule
}

// AbstractValidator 类型 T 的规则定义
// 定义只描述规则，CreateRule 绑定后才能执行验证
type AbstractValidator[T any] struct {
	fields   []*fieldDef[T]
	children []childDef
	shared   []*SharedValidation[T]
	asyncs   []*AsyncValidation[T]
}

// NewAbstractValidator 创建规则定义
func NewAbstractValidator[T any]() *AbstractValidator[T] {
	return &AbstractValidator[T]{}
}

func (v *AbstractValidator[T]) field(name string, get func(*T) any) *fieldDef[T] {
	for _, f := range v.fields {
		if f.name == name {
			return f
		}
	}
	f := &fieldDef[T]{name: name, get: get}
	v.fields = append(v.fields, f)
	return f
}

// RuleFor 为字段追加属性规则
// 同一字段多次调用时沿用第一次的取值函数
func (v *AbstractValidator[T]) RuleFor(name string, get func(*T) any, validators ...PropertyValidator) *AbstractValidator[T] {
	f := v.field(name, get)
	f.validators = append(f.validators, validators...)
	return v
}

// ValidationFor 将共享规则挂到字段上
// 同名共享规则在节点上只评估一次
func (v *AbstractValidator[T]) ValidationFor(name string, get func(*T) any, sv *SharedValidation[T]) *AbstractValidator[T] {
	f := v.field(name, get)
	f.validations = append(f.validations, sv.Name)
	for _, s := range v.shared {
		if s.Name == sv.Name {
			return v
		}
	}
	v.shared = append(v.shared, sv)
	return v
}

// AsyncValidationFor 注册节点级异步规则
func (v *AbstractValidator[T]) AsyncValidationFor(av *AsyncValidation[T]) *AbstractValidator[T] {
	v.asyncs = append(v.asyncs, av)
	return v
}

// ValidatorFor 将子定义挂到父定义的 name 字段上
// 同一个子定义可以挂到多个字段，绑定时各自生成独立的规则实例
func ValidatorFor[T, C any](parent *AbstractValidator[T], name string, get func(*T) *C, child *AbstractValidator[C]) {
	parent.children = append(parent.children, childDef{
		name: name,
		create: func(depth int) *Rule {
			r := child.createRule(name, depth)
			r.get = func(data any) any {
				t, _ := data.(*T)
				if t == nil {
					return (*C)(nil)
				}
				return get(t)
			}
			return r
		},
	})
}

// CreateRule 绑定为可执行的规则树
func (v *AbstractValidator[T]) CreateRule(name string) *Rule {
	return v.createRule(name, 0)
}

func (v *AbstractValidator[T]) createRule(name string, depth int) *Rule {
	r := &Rule{
		Name:            name,
		Rules:           make(map[string]*PropertyRule, len(v.fields)),
		Children:        make(map[string]*Rule, len(v.children)),
		Validators:      make(map[string]*SharedRule, len(v.shared)),
		AsyncValidators: make(map[string]*AsyncRule, len(v.asyncs)),
	}

	for _, f := range v.fields {
		get := f.get
		r.Rules[f.name] = &PropertyRule{
			Name:        f.name,
			Validators:  append([]PropertyValidator(nil), f.validators...),
			validations: append([]string(nil), f.validations...),
			get: func(data any) any {
				t, _ := data.(*T)
				if t == nil {
					return nil
				}
				return get(t)
			},
		}
		r.fieldOrder = append(r.fieldOrder, f.name)
	}

	for _, s := range v.shared {
		fce := s.ValidationFce
		r.Validators[s.Name] = &SharedRule{
			Name: s.Name,
			fce: func(data any, args *Error) {
				t, _ := data.(*T)
				fce(t, args)
			},
		}
		r.sharedOrder = append(r.sharedOrder, s.Name)
	}

	for _, a := range v.asyncs {
		fce := a.AsyncValidationFce
		r.AsyncValidators[a.Name] = &AsyncRule{
			Name:  a.Name,
			state: NewError(a.Name),
			fce: func(ctx context.Context, data any) (Outcome, error) {
				t, _ := data.(*T)
				return fce(ctx, t)
			},
		}
	}

	if depth < maxNestedDepth {
		for _, c := range v.children {
			r.Children[c.name] = c.create(depth + 1)
			r.childOrder = append(r.childOrder, c.name)
		}
	}

	return r
}

// ============================================================================
// 绑定后的规则树
// ============================================================================

// PropertyRule 绑定到某个字段的规则
type PropertyRule struct {
	Name       string
	Validators []PropertyValidator

	validations []string
	get         func(data any) any
	applicable  Applicability
}

// SetApplicable 设置字段规则的生效条件，nil 表示总是生效
func (p *PropertyRule) SetApplicable(fn Applicability) {
	p.applicable = fn
}

// IsApplicable 在给定根数据下是否生效
func (p *PropertyRule) IsApplicable(root any) bool {
	return p.applicable == nil || p.applicable(root)
}

// Validate 对单个值执行属性规则（不含共享规则）
func (p *PropertyRule) Validate(value any) *FieldResult {
	fr := newFieldResult(p.Name)
	for _, pv := range p.Validators {
		e := NewError(pv.TagName())
		e.Set(evaluate(pv, value))
		fr.add(e)
	}
	return fr
}

func (p *PropertyRule) skipped() *FieldResult {
	fr := newFieldResult(p.Name)
	for _, pv := range p.Validators {
		fr.add(NewError(pv.TagName()))
	}
	return fr
}

// SharedRule 绑定后的共享规则
type SharedRule struct {
	Name string
	fce  func(data any, args *Error)
}

// Validate 用父节点数据评估，返回新的结果
func (s *SharedRule) Validate(data any) *Error {
	e := NewError(s.Name)
	s.fce(data, e)
	return e
}

// AsyncRule 绑定后的异步规则
// 结果节点在多次验证之间共享，后完成的调用覆盖先完成的结果
type AsyncRule struct {
	Name string

	state   *Error
	fce     func(ctx context.Context, data any) (Outcome, error)
	mu      sync.Mutex
	pending *async.Future[Outcome]
}

// State 异步规则的结果节点
func (a *AsyncRule) State() *Error {
	return a.state
}

// ValidateAsync 发起一次异步评估
// 成功时整体覆盖结果节点；出错时节点保持等待状态，错误通过 Future 返回给调用方。
// data 会在其他 goroutine 中读取，调用方不应在完成前修改它
func (a *AsyncRule) ValidateAsync(ctx context.Context, data any) *async.Future[Outcome] {
	a.state.begin()
	f := async.Go(ctx, func(ctx context.Context) (Outcome, error) {
		o, err := a.fce(ctx, data)
		if err != nil {
			return Outcome{}, err
		}
		a.state.Set(o)
		return o, nil
	})

	a.mu.Lock()
	a.pending = f
	a.mu.Unlock()
	return f
}

// Pending 最近一次发起的异步评估，从未发起时为 nil
func (a *AsyncRule) Pending() *async.Future[Outcome] {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

// Rule 绑定后的规则树节点
type Rule struct {
	Name            string
	Rules           map[string]*PropertyRule
	Children        map[string]*Rule
	Validators      map[string]*SharedRule
	AsyncValidators map[string]*AsyncRule

	fieldOrder  []string
	childOrder  []string
	sharedOrder []string

	get        func(data any) any
	applicable Applicability

	mu   sync.RWMutex
	last *Result
}

// SetApplicable 设置整棵子树的生效条件，nil 表示总是生效
func (r *Rule) SetApplicable(fn Applicability) {
	r.applicable = fn
}

// IsApplicable 在给定根数据下是否生效
func (r *Rule) IsApplicable(root any) bool {
	return r.applicable == nil || r.applicable(root)
}

// ValidateAll 以 data 作为根数据同步验证整棵树
// 所有节点都会被访问，一个字段失败不影响其他字段
func (r *Rule) ValidateAll(data any) *Result {
	res := r.validate(data, data)
	r.mu.Lock()
	r.last = res
	r.mu.Unlock()
	return res
}

// ValidationResult 最近一次 ValidateAll 的结果，未验证过时返回全部通过的空树
func (r *Rule) ValidationResult() *Result {
	r.mu.RLock()
	last := r.last
	r.mu.RUnlock()
	if last == nil {
		return r.skipped()
	}
	return last
}

func (r *Rule) validate(data, root any) *Result {
	res := newResult(r.Name)

	for _, name := range r.fieldOrder {
		pr := r.Rules[name]
		if !pr.IsApplicable(root) {
			res.Fields[name] = pr.skipped()
			continue
		}
		res.Fields[name] = pr.Validate(pr.get(data))
	}

	for _, name := range r.sharedOrder {
		res.Validations[name] = r.Validators[name].Validate(data)
	}
	r.attachShared(res)

	for name, a := range r.AsyncValidators {
		res.Validations[name] = a.state
	}

	for _, name := range r.childOrder {
		c := r.Children[name]
		if !c.IsApplicable(root) {
			res.Children[name] = c.skipped()
			continue
		}
		res.Children[name] = c.validate(c.get(data), root)
	}

	return res
}

// skipped 不生效时的结果：所有规则都是通过状态
func (r *Rule) skipped() *Result {
	res := newResult(r.Name)
	for _, name := range r.fieldOrder {
		res.Fields[name] = r.Rules[name].skipped()
	}
	for _, name := range r.sharedOrder {
		res.Validations[name] = NewError(name)
	}
	r.attachShared(res)
	for name := range r.AsyncValidators {
		res.Validations[name] = NewError(name)
	}
	for _, name := range r.childOrder {
		res.Children[name] = r.Children[name].skipped()
	}
	return res
}

func (r *Rule) attachShared(res *Result) {
	for _, name := range r.fieldOrder {
		for _, sv := range r.Rules[name].validations {
			if e, ok := res.Validations[sv]; ok {
				res.Fields[name].Validations[sv] = e
			}
		}
	}
}

// Child 按名称获取子规则
func (r *Rule) Child(name string) *Rule {
	return r.Children[name]
}

// Field 按名称获取字段规则
func (r *Rule) Field(name string) *PropertyRule {
	return r.Rules[name]
}

// Async 按名称获取异步规则
func (r *Rule) Async(name string) *AsyncRule {
	return r.AsyncValidators[name]
}

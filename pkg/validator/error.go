package validator

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// MessageConfig 错误消息模板
//   - Msg: 消息模板，占位符形如 {MaxLength}
//   - Format: 日期格式（Go layout），设置后自定义消息会追加格式化后的日期参数
type MessageConfig struct {
	Msg    string `json:"msg"`
	Format string `json:"format,omitempty"`
}

// CustomMessageFunc 自定义消息渲染函数
type CustomMessageFunc func(config MessageConfig, args map[string]any) string

// TranslateArgs 提供给展示层做本地化的稳定参数
// 国际化时通过 TranslateId 查找模板，再用 MessageArgs 填充
type TranslateArgs struct {
	TranslateId   string            `json:"translate_id"`
	MessageArgs   map[string]any    `json:"message_args,omitempty"`
	CustomMessage CustomMessageFunc `json:"-"`
}

// Render 使用给定模板渲染消息
func (a *TranslateArgs) Render(config MessageConfig) string {
	if a == nil {
		return config.Msg
	}
	if a.CustomMessage != nil {
		return a.CustomMessage(config, cloneArgs(a.MessageArgs))
	}
	return Format(config.Msg, a.MessageArgs)
}

// Format 将 {Key} 占位符替换为参数值
func Format(msg string, args map[string]any) string {
	if len(args) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

func cloneArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out
}

// Outcome 单条规则的评估结果快照
type Outcome struct {
	HasError      bool           `json:"has_error"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	TranslateArgs *TranslateArgs `json:"translate_args,omitempty"`
}

// Pass 通过的结果
func Pass() Outcome {
	return Outcome{}
}

// Fail 失败的结果
func Fail(message string, args *TranslateArgs) Outcome {
	return Outcome{HasError: true, ErrorMessage: message, TranslateArgs: args}
}

// Error 一条命名规则的状态
// 异步规则会在其他 goroutine 中写入，所有读写都经过锁，
// 每次写入整体覆盖（最后一次写入生效，不累积）
type Error struct {
	mu      sync.RWMutex
	name    string
	outcome Outcome
	pending bool
}

// NewError 创建通过状态的规则结果
func NewError(name string) *Error {
	return &Error{name: name}
}

// Name 规则名
func (e *Error) Name() string {
	return e.name
}

// HasError 是否失败
func (e *Error) HasError() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.outcome.HasError
}

// ErrorMessage 默认（英文）错误消息
func (e *Error) ErrorMessage() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.outcome.ErrorMessage
}

// TranslateArgs 本地化参数，通过时为 nil
func (e *Error) TranslateArgs() *TranslateArgs {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.outcome.TranslateArgs
}

// IsPending 异步规则是否仍在等待结果
func (e *Error) IsPending() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pending
}

// Snapshot 返回当前状态的副本
func (e *Error) Snapshot() Outcome {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.outcome
}

// Reset 清空为通过状态
func (e *Error) Reset() {
	e.Set(Pass())
}

// Fail 标记失败
func (e *Error) Fail(message string, args *TranslateArgs) {
	e.Set(Fail(message, args))
}

// Set 整体覆盖状态
func (e *Error) Set(o Outcome) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.outcome = o
	e.pending = false
}

// begin 重置为通过并标记等待中
func (e *Error) begin() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.outcome = Outcome{}
	e.pending = true
}

// MarshalJSON 实现 json.Marshaler
func (e *Error) MarshalJSON() ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return json.Marshal(struct {
		Outcome
		Pending bool `json:"pending,omitempty"`
	}{Outcome: e.outcome, Pending: e.pending})
}

// FieldResult 单个字段的验证结果
//   - Errors: 属性规则结果，key 为规则标签（required, email ...）
//   - Validations: 挂在该字段上的共享规则，与节点上的同名结果是同一个对象
type FieldResult struct {
	Name        string
	Errors      map[string]*Error
	Validations map[string]*Error

	order []string
}

func newFieldResult(name string) *FieldResult {
	return &FieldResult{
		Name:        name,
		Errors:      make(map[string]*Error),
		Validations: make(map[string]*Error),
	}
}

func (f *FieldResult) add(e *Error) {
	f.Errors[e.Name()] = e
	f.order = append(f.order, e.Name())
}

// HasErrors 字段上是否存在失败的规则（含共享规则）
func (f *FieldResult) HasErrors() bool {
	for _, e := range f.Errors {
		if e.HasError() {
			return true
		}
	}
	for _, e := range f.Validations {
		if e.HasError() {
			return true
		}
	}
	return false
}

// Error 按规则名查找，先查属性规则再查共享规则
func (f *FieldResult) Error(name string) *Error {
	if e, ok := f.Errors[name]; ok {
		return e
	}
	return f.Validations[name]
}

// ErrorMessage 第一条失败规则的消息
func (f *FieldResult) ErrorMessage() string {
	for _, name := range f.order {
		if e := f.Errors[name]; e.HasError() {
			return e.ErrorMessage()
		}
	}
	for _, e := range f.Validations {
		if e.HasError() {
			return e.ErrorMessage()
		}
	}
	return ""
}

// MarshalJSON 实现 json.Marshaler
func (f *FieldResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		HasErrors    bool              `json:"has_errors"`
		ErrorMessage string            `json:"error_message,omitempty"`
		Errors       map[string]*Error `json:"errors,omitempty"`
	}{
		HasErrors:    f.HasErrors(),
		ErrorMessage: f.ErrorMessage(),
		Errors:       f.Errors,
	})
}

// Result 与数据结构同形的验证结果树
type Result struct {
	Name        string
	Fields      map[string]*FieldResult
	Children    map[string]*Result
	Validations map[string]*Error
}

func newResult(name string) *Result {
	return &Result{
		Name:        name,
		Fields:      make(map[string]*FieldResult),
		Children:    make(map[string]*Result),
		Validations: make(map[string]*Error),
	}
}

// Field 字段结果，不存在时为 nil
func (r *Result) Field(name string) *FieldResult {
	return r.Fields[name]
}

// Child 子节点结果，不存在时为 nil
func (r *Result) Child(name string) *Result {
	return r.Children[name]
}

// Validation 节点级共享/异步规则结果，不存在时为 nil
func (r *Result) Validation(name string) *Error {
	return r.Validations[name]
}

// HasErrors 节点及其所有子孙中是否存在失败
func (r *Result) HasErrors() bool {
	for _, f := range r.Fields {
		if f.HasErrors() {
			return true
		}
	}
	for _, e := range r.Validations {
		if e.HasError() {
			return true
		}
	}
	for _, c := range r.Children {
		if c.HasErrors() {
			return true
		}
	}
	return false
}

// ErrorCount 失败规则数量，共享规则只计一次
func (r *Result) ErrorCount() int {
	n := 0
	for _, f := range r.Fields {
		for _, e := range f.Errors {
			if e.HasError() {
				n++
			}
		}
	}
	for _, e := range r.Validations {
		if e.HasError() {
			n++
		}
	}
	for _, c := range r.Children {
		n += c.ErrorCount()
	}
	return n
}

// Messages 所有失败消息，key 为点分路径（如 Duration.From.required）
func (r *Result) Messages() map[string]string {
	out := make(map[string]string)
	r.collect("", out)
	return out
}

func (r *Result) collect(prefix string, out map[string]string) {
	for fname, f := range r.Fields {
		for tag, e := range f.Errors {
			if e.HasError() {
				out[prefix+fname+"."+tag] = e.ErrorMessage()
			}
		}
	}
	for name, e := range r.Validations {
		if e.HasError() {
			out[prefix+name] = e.ErrorMessage()
		}
	}
	for cname, c := range r.Children {
		c.collect(prefix+cname+".", out)
	}
}

// MarshalJSON 实现 json.Marshaler
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name        string                  `json:"name"`
		HasErrors   bool                    `json:"has_errors"`
		Fields      map[string]*FieldResult `json:"fields,omitempty"`
		Validations map[string]*Error       `json:"validations,omitempty"`
		Children    map[string]*Result      `json:"children,omitempty"`
	}{
		Name:        r.Name,
		HasErrors:   r.HasErrors(),
		Fields:      r.Fields,
		Validations: r.Validations,
		Children:    r.Children,
	})
}

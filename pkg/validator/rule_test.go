package validator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testContact struct {
	Active bool
	Name   string
	Email  string
}

type testRange struct {
	Low  int
	High int
}

type testTeam struct {
	Lead    *testContact
	Backup  *testContact
	Range   *testRange
	Comment string
}

func newContactValidator() *AbstractValidator[testContact] {
	v := NewAbstractValidator[testContact]()
	name := func(c *testContact) any { return c.Name }
	email := func(c *testContact) any { return c.Email }
	v.RuleFor("Name", name, Required{}, MaxLength{MaxLength: 5})
	v.RuleFor("Email", email, Required{})
	v.RuleFor("Email", email, Email{})
	return v
}

func newRangeValidator(calls *int32) *AbstractValidator[testRange] {
	v := NewAbstractValidator[testRange]()
	order := &SharedValidation[testRange]{
		Name: "Order",
		ValidationFce: func(data *testRange, args *Error) {
			atomic.AddInt32(calls, 1)
			args.Reset()
			if data == nil {
				return
			}
			if data.Low > data.High {
				args.Fail("Low must not exceed High.", &TranslateArgs{TranslateId: "Order"})
			}
		},
	}
	v.ValidationFor("Low", func(r *testRange) any { return r.Low }, order)
	v.ValidationFor("High", func(r *testRange) any { return r.High }, order)
	return v
}

func newTeamRule(calls *int32) *Rule {
	contact := newContactValidator()
	v := NewAbstractValidator[testTeam]()
	ValidatorFor(v, "Lead", func(t *testTeam) *testContact { return t.Lead }, contact)
	ValidatorFor(v, "Backup", func(t *testTeam) *testContact { return t.Backup }, contact)
	ValidatorFor(v, "Range", func(t *testTeam) *testRange { return t.Range }, newRangeValidator(calls))
	v.RuleFor("Comment", func(t *testTeam) any { return t.Comment }, MaxLength{MaxLength: 10})
	return v.CreateRule("Team")
}

func TestRule_ValidateAll(t *testing.T) {
	var calls int32
	rule := newTeamRule(&calls)

	team := &testTeam{
		Lead:  &testContact{Name: "Ann", Email: "ann@example.com"},
		Range: &testRange{Low: 1, High: 2},
	}
	res := rule.ValidateAll(team)

	assert.False(t, res.Child("Lead").HasErrors())
	// 缺失的子结构仍会被验证，字段为空时 Required 失败
	assert.True(t, res.Child("Backup").Field("Name").HasErrors())
	assert.True(t, res.Child("Backup").Field("Email").Error(TagRequired).HasError())
	assert.False(t, res.Child("Range").HasErrors())
	assert.True(t, res.HasErrors())
	assert.Equal(t, int32(1), calls, "同名共享规则每个节点只评估一次")
}

func TestRule_SiblingFailuresDoNotShortCircuit(t *testing.T) {
	var calls int32
	rule := newTeamRule(&calls)

	res := rule.ValidateAll(&testTeam{
		Lead:    &testContact{Name: "Too long name", Email: "bad"},
		Backup:  &testContact{Name: "Bob", Email: "bob@example.com"},
		Range:   &testRange{Low: 5, High: 1},
		Comment: "a comment that is far too long",
	})

	lead := res.Child("Lead")
	assert.True(t, lead.Field("Name").Error(TagMaxLength).HasError())
	assert.False(t, lead.Field("Name").Error(TagRequired).HasError())
	assert.True(t, lead.Field("Email").Error(TagEmail).HasError())
	assert.False(t, res.Child("Backup").HasErrors())
	assert.True(t, res.Field("Comment").HasErrors())
	assert.Equal(t, "Please enter no more than 10 characters.", res.Field("Comment").ErrorMessage())
	assert.Equal(t, 4, res.ErrorCount())
}

func TestRule_SharedValidationVisibleFromEveryField(t *testing.T) {
	var calls int32
	rule := newTeamRule(&calls)

	res := rule.ValidateAll(&testTeam{Range: &testRange{Low: 3, High: 1}})
	rng := res.Child("Range")

	shared := rng.Validation("Order")
	require.NotNil(t, shared)
	assert.True(t, shared.HasError())
	assert.Same(t, shared, rng.Field("Low").Error("Order"))
	assert.Same(t, shared, rng.Field("High").Error("Order"))
	assert.True(t, rng.Field("Low").HasErrors())

	// 重新验证时失败状态不会残留
	res = rule.ValidateAll(&testTeam{Range: &testRange{Low: 1, High: 3}})
	assert.False(t, res.Child("Range").Validation("Order").HasError())
	assert.Equal(t, "", res.Child("Range").Validation("Order").ErrorMessage())
}

func TestRule_Applicability(t *testing.T) {
	var calls int32
	rule := newTeamRule(&calls)

	rule.Child("Backup").SetApplicable(When(func(t *testTeam) bool {
		return t != nil && t.Backup != nil && t.Backup.Active
	}))
	rule.Child("Lead").Field("Email").SetApplicable(When(func(t *testTeam) bool {
		return t != nil && t.Lead != nil && t.Lead.Active && t.Lead.Email != ""
	}))

	team := &testTeam{Lead: &testContact{Name: "Ann"}}
	res := rule.ValidateAll(team)
	assert.False(t, res.Child("Backup").HasErrors(), "缺失的 Backup 整棵子树跳过")
	assert.False(t, res.Child("Lead").Field("Email").HasErrors())

	// 条件在每次验证时按当前数据重新求值
	team.Backup = &testContact{Active: true}
	team.Lead.Active = true
	team.Lead.Email = "not-an-email"
	res = rule.ValidateAll(team)
	assert.True(t, res.Child("Backup").Field("Name").HasErrors())
	assert.True(t, res.Child("Lead").Field("Email").Error(TagEmail).HasError())

	// 替换整个根数据后依然使用新数据
	res = rule.ValidateAll(&testTeam{Lead: &testContact{Name: "Eve"}})
	assert.False(t, res.Child("Backup").HasErrors())
	assert.False(t, res.Child("Lead").Field("Email").HasErrors())
}

func TestRule_SharedRuleObjectsDoNotLeakBetweenSlots(t *testing.T) {
	var calls int32
	rule := newTeamRule(&calls)

	res := rule.ValidateAll(&testTeam{
		Lead:   &testContact{Name: "", Email: ""},
		Backup: &testContact{Name: "Bob", Email: "bob@example.com"},
	})
	assert.True(t, res.Child("Lead").HasErrors())
	assert.False(t, res.Child("Backup").HasErrors())
	assert.NotSame(t, rule.Child("Lead"), rule.Child("Backup"))
}

func TestRule_Idempotent(t *testing.T) {
	var calls int32
	rule := newTeamRule(&calls)
	team := &testTeam{Lead: &testContact{Name: "Too long name"}, Range: &testRange{Low: 2, High: 1}}

	first := rule.ValidateAll(team)
	second := rule.ValidateAll(team)

	assert.NotSame(t, first, second)
	assert.Equal(t, first.Messages(), second.Messages())
	assert.Equal(t, first.HasErrors(), second.HasErrors())
	assert.Same(t, second, rule.ValidationResult())
}

func TestRule_ValidationResultBeforeValidate(t *testing.T) {
	var calls int32
	rule := newTeamRule(&calls)

	res := rule.ValidationResult()
	assert.False(t, res.HasErrors())
	assert.NotNil(t, res.Child("Lead").Field("Name"))
	assert.Equal(t, int32(0), calls)
}

func TestAsyncRule(t *testing.T) {
	release := make(chan bool, 2)
	v := NewAbstractValidator[testTeam]()
	v.AsyncValidationFor(&AsyncValidation[testTeam]{
		Name: "Remote",
		AsyncValidationFce: func(ctx context.Context, data *testTeam) (Outcome, error) {
			if ok := <-release; !ok {
				return Fail("remote says no", &TranslateArgs{TranslateId: "Remote"}), nil
			}
			return Pass(), nil
		},
	})
	rule := v.CreateRule("Team")
	remote := rule.Async("Remote")
	require.Nil(t, remote.Pending())

	res := rule.ValidateAll(&testTeam{})
	f := remote.ValidateAsync(context.Background(), &testTeam{})
	assert.Same(t, f, remote.Pending())
	assert.True(t, res.Validation("Remote").IsPending())
	assert.False(t, res.HasErrors())

	release <- false
	o, err := f.Await()
	require.NoError(t, err)
	assert.True(t, o.HasError)
	// 已返回的结果树被原地更新
	assert.True(t, res.Validation("Remote").HasError())
	assert.False(t, res.Validation("Remote").IsPending())
	assert.Equal(t, "remote says no", res.Validation("Remote").ErrorMessage())

	// 再次评估整体覆盖，不累积
	f = remote.ValidateAsync(context.Background(), &testTeam{})
	release <- true
	_, err = f.Await()
	require.NoError(t, err)
	assert.False(t, res.Validation("Remote").HasError())
	assert.Nil(t, res.Validation("Remote").TranslateArgs())
}

func TestAsyncRule_ErrorIsSurfaced(t *testing.T) {
	unavailable := errors.New("service unavailable")
	v := NewAbstractValidator[testTeam]()
	v.AsyncValidationFor(&AsyncValidation[testTeam]{
		Name: "Remote",
		AsyncValidationFce: func(ctx context.Context, data *testTeam) (Outcome, error) {
			return Outcome{}, unavailable
		},
	})
	rule := v.CreateRule("Team")

	f := rule.Async("Remote").ValidateAsync(context.Background(), &testTeam{})
	_, err := f.AwaitWithTimeout(time.Second)
	assert.ErrorIs(t, err, unavailable)

	state := rule.Async("Remote").State()
	assert.False(t, state.HasError())
	assert.True(t, state.IsPending(), "出错时不当作通过或失败")
}

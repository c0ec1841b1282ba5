package validator

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"vacation-approval/pkg/duration"
)

// 自定义标签
const (
	// tagWeekday 日期必须是工作日
	tagWeekday = "weekday"
)

var (
	// defaultEngine 底层 go-playground/validator 实例，全局单例
	defaultEngine *validator.Validate
	// engineOnce 确保只初始化一次（线程安全）
	engineOnce sync.Once
)

// Engine 获取底层验证器实例（单例模式）
// 内置规则（required, email, max 等）直接委托给 go-playground/validator，
// 自定义规则在首次使用时注册
func Engine() *validator.Validate {
	engineOnce.Do(func() {
		defaultEngine = newEngine()
	})
	return defaultEngine
}

func newEngine() *validator.Validate {
	v := validator.New()

	// 使用 json tag 作为字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// weekday: time.Time 不能落在非工作日
	_ = v.RegisterValidation(tagWeekday, func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok || t.IsZero() {
			return false
		}
		return !duration.Default().IsNonWorkingDay(t)
	})

	return v
}

// check 使用标签语法验证单个值
func check(value any, tag string) bool {
	return Engine().Var(value, tag) == nil
}

// isEmpty 判断值是否为空（nil、空字符串、零值时间）
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case *string:
		return v == nil || *v == ""
	case time.Time:
		return v.IsZero()
	case *time.Time:
		return v == nil || v.IsZero()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// asDate 将值转换为日期
func asDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, !v.IsZero()
	}
	return time.Time{}, false
}

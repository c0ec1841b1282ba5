package vacation

import (
	"strings"
	"time"

	"vacation-approval/pkg/duration"
)

// Record 休假申请
// 可选字段可以整体缺失（nil），缺失与存在但无效是两种不同的状态
type Record struct {
	Employee *Person   `json:"employee,omitempty"`
	Deputy1  *Person   `json:"deputy1,omitempty"`
	Deputy2  *Person   `json:"deputy2,omitempty"`
	Duration *Duration `json:"duration,omitempty"`
	Comment  string    `json:"comment,omitempty"`
}

// Person 申请人或代理人
// Checked 表示该代理人位置是否启用，未启用时其子规则变为可选
type Person struct {
	Checked   bool   `json:"checked,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}

// Duration 休假时长
type Duration = duration.Input

// FullName "名 姓"，任一为空时返回空字符串
func (p *Person) FullName() string {
	if p == nil {
		return ""
	}
	first, last := strings.TrimSpace(p.FirstName), strings.TrimSpace(p.LastName)
	if first == "" || last == "" {
		return ""
	}
	return first + " " + last
}

// Clone 深拷贝，供一次验证独占使用
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{
		Employee: r.Employee.clone(),
		Deputy1:  r.Deputy1.clone(),
		Deputy2:  r.Deputy2.clone(),
		Comment:  r.Comment,
	}
	if r.Duration != nil {
		d := *r.Duration
		if r.Duration.Days != nil {
			days := *r.Duration.Days
			d.Days = &days
		}
		if r.Duration.ExcludedDays != nil {
			d.ExcludedDays = append([]time.Time(nil), r.Duration.ExcludedDays...)
		}
		out.Duration = &d
	}
	return out
}

func (p *Person) clone() *Person {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// hasDates 起止日期是否都已填写
func hasDates(d *Duration) bool {
	return d != nil && !d.From.IsZero() && !d.To.IsZero()
}

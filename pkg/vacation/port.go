package vacation

import "context"

// DeputyConflictPort 代理人冲突检查
// 数据不足以判断时（代理人姓名或日期缺失）必须返回 true；
// 只有 Deputy1 全名精确匹配且已承诺的日期与申请区间重叠时返回 false。
// error 仅表示检查本身无法完成，不代表通过或失败
type DeputyConflictPort interface {
	IsAcceptable(ctx context.Context, record *Record) (bool, error)
}

// PortFunc 将函数适配为 DeputyConflictPort
type PortFunc func(ctx context.Context, record *Record) (bool, error)

// IsAcceptable 实现 DeputyConflictPort
func (f PortFunc) IsAcceptable(ctx context.Context, record *Record) (bool, error) {
	return f(ctx, record)
}

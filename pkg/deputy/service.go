package deputy

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vacation-approval/pkg/vacation"
)

// Service 基于承诺日期存储的代理人冲突检查
type Service struct {
	store  CommitmentStore
	logger *zap.Logger
}

var _ vacation.DeputyConflictPort = (*Service)(nil)

// NewService 创建冲突检查服务
func NewService(store CommitmentStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// IsAcceptable 第一代理人在申请区间内是否没有已承诺的日期
// 代理人姓名或起止日期缺失时没有可检查的内容，返回 true
func (s *Service) IsAcceptable(ctx context.Context, r *vacation.Record) (bool, error) {
	if r == nil || r.Duration == nil || r.Duration.From.IsZero() || r.Duration.To.IsZero() {
		return true, nil
	}
	name := r.Deputy1.FullName()
	if name == "" {
		return true, nil
	}

	days, err := s.store.CommittedDays(ctx, name)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	from, to := CivilDay(r.Duration.From), CivilDay(r.Duration.To)
	for _, d := range days {
		if d := CivilDay(d); !d.Before(from) && !d.After(to) {
			s.logger.Debug("deputy conflict",
				zap.String("deputy", name),
				zap.Time("day", d),
			)
			return false, nil
		}
	}
	return true, nil
}

// Seed 写入演示数据：John Smith 今天和明天、Paul Neuman 明天和后天
func Seed(ctx context.Context, store CommitmentStore, now time.Time) error {
	seeds := map[string][]time.Time{
		"John Smith":  {now, now.AddDate(0, 0, 1)},
		"Paul Neuman": {now.AddDate(0, 0, 1), now.AddDate(0, 0, 2)},
	}
	for name, days := range seeds {
		if err := store.Commit(ctx, name, days...); err != nil {
			return fmt.Errorf("seed %s: %w", name, err)
		}
	}
	return nil
}

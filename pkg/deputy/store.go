package deputy

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	// ErrStoreUnavailable 承诺日期存储无法访问
	ErrStoreUnavailable = errors.New("deputy: commitment store unavailable")
	// ErrEmptyName 全名为空
	ErrEmptyName = errors.New("deputy: full name is empty")
	// ErrUnknownDriver 不支持的数据库驱动
	ErrUnknownDriver = errors.New("deputy: unknown database driver")
)

// CommitmentStore 代理人已承诺的日期
// 日期统一按天存储（UTC 零点的日历日期），与时区无关
type CommitmentStore interface {
	// CommittedDays 按全名查询已承诺的日期，升序
	CommittedDays(ctx context.Context, fullName string) ([]time.Time, error)
	// Commit 记录承诺日期，重复日期忽略
	Commit(ctx context.Context, fullName string, days ...time.Time) error
}

// CivilDay 取 t 在其自身时区中的日历日期，以 UTC 零点表示
func CivilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func normalizeName(fullName string) string {
	return strings.Join(strings.Fields(fullName), " ")
}

// MemoryStore 内存实现，用于测试和未配置数据库时
type MemoryStore struct {
	mu   sync.RWMutex
	days map[string]map[time.Time]struct{}
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{days: make(map[string]map[time.Time]struct{})}
}

// CommittedDays 实现 CommitmentStore
func (s *MemoryStore) CommittedDays(ctx context.Context, fullName string) ([]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.days[normalizeName(fullName)]
	out := make([]time.Time, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// Commit 实现 CommitmentStore
func (s *MemoryStore) Commit(ctx context.Context, fullName string, days ...time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := normalizeName(fullName)
	if name == "" {
		return ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.days[name]
	if !ok {
		set = make(map[time.Time]struct{}, len(days))
		s.days[name] = set
	}
	for _, d := range days {
		set[CivilDay(d)] = struct{}{}
	}
	return nil
}

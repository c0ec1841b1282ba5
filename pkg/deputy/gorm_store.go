package deputy

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Commitment 代理人在某一天的承诺
type Commitment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FullName  string    `gorm:"size:64;not null;uniqueIndex:idx_deputy_day" json:"full_name"`
	Day       time.Time `gorm:"not null;uniqueIndex:idx_deputy_day" json:"day"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 表名
func (Commitment) TableName() string {
	return "deputy_commitments"
}

// OpenDB 按驱动名打开数据库：sqlite、mysql、postgres
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	return db, nil
}

// GormStore 基于 gorm 的承诺日期存储
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建存储并自动迁移表结构
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Commitment{}); err != nil {
		return nil, fmt.Errorf("migrate deputy commitments: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CommittedDays 实现 CommitmentStore
func (s *GormStore) CommittedDays(ctx context.Context, fullName string) ([]time.Time, error) {
	var rows []Commitment
	err := s.db.WithContext(ctx).
		Where("full_name = ?", normalizeName(fullName)).
		Order("day").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	days := make([]time.Time, len(rows))
	for i, row := range rows {
		days[i] = CivilDay(row.Day.UTC())
	}
	return days, nil
}

// Commit 实现 CommitmentStore
func (s *GormStore) Commit(ctx context.Context, fullName string, days ...time.Time) error {
	name := normalizeName(fullName)
	if name == "" {
		return ErrEmptyName
	}
	if len(days) == 0 {
		return nil
	}

	rows := make([]Commitment, len(days))
	for i, d := range days {
		rows[i] = Commitment{FullName: name, Day: CivilDay(d)}
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

package idgen

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// Epoch 起始时间戳 (2024-01-01 00:00:00 UTC)
	Epoch int64 = 1704067200000

	// 位数分配
	WorkerIDBits     = 5
	DatacenterIDBits = 5
	SequenceBits     = 12

	// 最大值计算(切记不是个数)
	MaxWorkerID     = -1 ^ (-1 << WorkerIDBits)     // 31
	MaxDatacenterID = -1 ^ (-1 << DatacenterIDBits) // 31
	MaxSequence     = -1 ^ (-1 << SequenceBits)     // 4095

	// 位移量
	WorkerIDShift     = SequenceBits
	DatacenterIDShift = SequenceBits + WorkerIDBits
	TimestampShift    = SequenceBits + WorkerIDBits + DatacenterIDBits

	// 等待下一毫秒时的休眠时间
	sleepDuration = 100 * time.Microsecond

	// 时钟回拨最大容忍时间（毫秒）
	maxClockBackwardTolerance = 5
)

var (
	// ErrInvalidWorkerID 工作机器ID超出有效范围
	ErrInvalidWorkerID = errors.New("invalid worker id: must be between 0 and 31")

	// ErrInvalidDatacenterID 数据中心ID超出有效范围
	ErrInvalidDatacenterID = errors.New("invalid datacenter id: must be between 0 and 31")

	// ErrClockMovedBackwards 检测到时钟回拨
	ErrClockMovedBackwards = errors.New("clock moved backwards: refusing to generate id")

	// ErrInvalidID 无效的ID
	ErrInvalidID = errors.New("invalid id")
)

// Config 生成器配置
type Config struct {
	DatacenterID int64 `mapstructure:"datacenter_id" json:"datacenter_id"`
	WorkerID     int64 `mapstructure:"worker_id" json:"worker_id"`
}

// Validate 验证配置的有效性
func (c Config) Validate() error {
	if c.DatacenterID < 0 || c.DatacenterID > MaxDatacenterID {
		return fmt.Errorf("%w: got %d, valid range [0, %d]",
			ErrInvalidDatacenterID, c.DatacenterID, MaxDatacenterID)
	}
	if c.WorkerID < 0 || c.WorkerID > MaxWorkerID {
		return fmt.Errorf("%w: got %d, valid range [0, %d]",
			ErrInvalidWorkerID, c.WorkerID, MaxWorkerID)
	}
	return nil
}

// Generator Snowflake ID 生成器
// ID结构：时间戳(41位) | 数据中心ID(5位) | 工作机器ID(5位) | 序列号(12位)
type Generator struct {
	mu sync.Mutex

	lastTimestamp int64
	sequence      int64

	// 数据中心ID和工作机器ID部分在生命周期内不变，预先计算
	precomputedPart int64

	now func() time.Time
}

// New 创建生成器
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{
		lastTimestamp:   -1,
		sequence:        -1,
		precomputedPart: (cfg.DatacenterID << DatacenterIDShift) | (cfg.WorkerID << WorkerIDShift),
		now:             time.Now,
	}, nil
}

// NextID 生成下一个唯一ID（线程安全）
func (g *Generator) NextID() (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	timestamp := g.now().UnixMilli()

	// 小幅回拨时等待时钟追上，超过容忍范围直接报错
	if timestamp < g.lastTimestamp {
		offset := g.lastTimestamp - timestamp
		if offset > maxClockBackwardTolerance {
			return 0, fmt.Errorf("%w: detected backward drift of %d ms", ErrClockMovedBackwards, offset)
		}
		timestamp = g.waitNextMillis(g.lastTimestamp - 1)
	}

	if timestamp == g.lastTimestamp {
		if g.sequence >= MaxSequence {
			timestamp = g.waitNextMillis(g.lastTimestamp)
			g.sequence = -1
			g.lastTimestamp = timestamp
		}
		g.sequence++
	} else {
		g.sequence = 0
		g.lastTimestamp = timestamp
	}

	return ID(((timestamp - Epoch) << TimestampShift) | g.precomputedPart | g.sequence), nil
}

// waitNextMillis 等待直到获取到比lastTimestamp更大的时间戳
func (g *Generator) waitNextMillis(lastTimestamp int64) int64 {
	timestamp := g.now().UnixMilli()
	for timestamp <= lastTimestamp {
		time.Sleep(sleepDuration)
		timestamp = g.now().UnixMilli()
	}
	return timestamp
}

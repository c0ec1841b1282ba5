package idgen

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// maxParseIDStringLength 解析ID字符串的最大长度，int64 最多 19 位数字
const maxParseIDStringLength = 20

// ID Snowflake ID
type ID int64

// ParseID 从十进制字符串解析ID
func ParseID(s string) (ID, error) {
	if len(s) == 0 || len(s) > maxParseIDStringLength {
		return 0, fmt.Errorf("%w: length %d", ErrInvalidID, len(s))
	}
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("%w: must be positive, got %d", ErrInvalidID, val)
	}
	return ID(val), nil
}

// Int64 转换为int64类型
func (id ID) Int64() int64 {
	return int64(id)
}

// String 转换为十进制字符串
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Time 生成时间
func (id ID) Time() time.Time {
	return time.UnixMilli((int64(id) >> TimestampShift) + Epoch)
}

// DatacenterID 数据中心ID
func (id ID) DatacenterID() int64 {
	return (int64(id) >> DatacenterIDShift) & MaxDatacenterID
}

// WorkerID 工作机器ID
func (id ID) WorkerID() int64 {
	return (int64(id) >> WorkerIDShift) & MaxWorkerID
}

// Sequence 序列号
func (id ID) Sequence() int64 {
	return int64(id) & MaxSequence
}

// MarshalJSON 序列化为字符串，避免JavaScript精度丢失
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON 支持从字符串或数字反序列化
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidID, data)
		}
		*id = ID(n)
		return nil
	}
	parsed, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

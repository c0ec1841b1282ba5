package vacation

import "errors"

var (
	// ErrNilRecord 未提供休假申请
	ErrNilRecord = errors.New("vacation: record is nil")
	// ErrNilPort 未提供代理人冲突检查
	ErrNilPort = errors.New("vacation: deputy conflict port is nil")
	// ErrInvalidConfig 规则参数不合法
	ErrInvalidConfig = errors.New("vacation: invalid rules config")
)

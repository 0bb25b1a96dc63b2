package util

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// 错误分四类：NotFound / Conflict / InvalidInput / Transient。
// 控制器据此映射 HTTP 状态码；Transient 在事务助手里有界重试，不暴露给调用方。
var (
	// NotFound
	ErrUserNotFound    = errors.New("用户不存在")
	ErrSessionNotFound = errors.New("reading session not found or already ended")

	// Conflict
	ErrEmailRegistered = errors.New("该邮箱已被注册")
	ErrSessionConflict = errors.New("an active session already exists for this book on this device")
	ErrAlreadyLiked    = errors.New("already liked this user for this week")

	// InvalidInput
	ErrInvalidDimension = errors.New("invalid stats dimension")
	ErrInvalidBookType  = errors.New("invalid book type")
	ErrInvalidWeek      = errors.New("invalid week start, expected a Monday in YYYY-MM-DD")
)

// IsTransient 判断是否为可重试的存储层竞争错误（死锁 1213 / 锁等待超时 1205）
func IsTransient(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1213 || myErr.Number == 1205
	}
	return false
}

// IsDuplicateKey 唯一键冲突（1062），用于会话 CAS 与点赞去重
func IsDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}

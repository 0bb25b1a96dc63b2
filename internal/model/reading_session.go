package model

import (
	"time"
)

type BookType string

const (
	BookTypeEbook    BookType = "ebook"
	BookTypeMagazine BookType = "magazine"
)

func (t BookType) Valid() bool {
	return t == BookTypeEbook || t == BookTypeMagazine
}

type SessionState string

const (
	SessionActive SessionState = "active"
	SessionEnded  SessionState = "ended"
)

// ReadingSession 一次设备绑定的阅读区间。
// 同一用户同一 (bookId, bookType, deviceId) 至多一个 active 会话；
// 不同设备可以并行各持有一个。结束后不可变，仅保留审计用途。
// swagger:model ReadingSession
type ReadingSession struct {
	UUIDBase
	UserID   uint     `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	BookID   string   `gorm:"size:64;not null;index:idx_session_book" json:"bookId"`
	BookType BookType `gorm:"type:enum('ebook','magazine');not null;index:idx_session_book" json:"bookType"`
	DeviceID string   `gorm:"size:64;not null" json:"deviceId"`

	// 位置标记由阅读器子系统定义，这里不解释其格式
	StartPosition string `gorm:"size:255" json:"startPosition"`
	LastPosition  string `gorm:"size:255" json:"lastPosition"`
	PagesRead     int    `gorm:"default:0" json:"pagesRead"`

	StartedAt       time.Time    `gorm:"not null" json:"startedAt"`
	LastHeartbeatAt time.Time    `gorm:"not null;index" json:"lastHeartbeatAt"`
	EndedAt         *time.Time   `json:"endedAt,omitempty"`
	State           SessionState `gorm:"type:enum('active','ended');default:'active';index" json:"state"`

	// AccumulatedSeconds 只增不减，由服务端按心跳间隔计算，客户端上报的时长仅作参考
	AccumulatedSeconds int64 `gorm:"default:0" json:"accumulatedSeconds"`
}

func (ReadingSession) TableName() string {
	return "reading_sessions"
}

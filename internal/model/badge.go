package model

import "time"

type BadgeMetric string

const (
	MetricStreakDays    BadgeMetric = "streak_days"
	MetricTotalDuration BadgeMetric = "total_duration" // 秒
	MetricBooksFinished BadgeMetric = "books_finished"
)

// Badge 徽章目录项。同一 category 内 level 连续、threshold 严格递增，
// 启动时校验，保证拿到 N 级必然先拿到 N-1 级。
type Badge struct {
	ID        uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	Category  BadgeMetric `gorm:"size:32;not null;uniqueIndex:idx_badge_cat_level" json:"category"`
	Level     int         `gorm:"not null;uniqueIndex:idx_badge_cat_level" json:"level"`
	Threshold int64       `gorm:"not null" json:"threshold"`
	Name      string      `gorm:"size:100;not null" json:"name"`
	Icon      string      `gorm:"size:255" json:"icon"`

	CreatedAt time.Time `json:"createdAt"`
}

func (Badge) TableName() string {
	return "badges"
}

// UserBadge 已获得事实，只插入不删除，(user_id, badge_id) 唯一
type UserBadge struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_user_badge" json:"userId"`
	BadgeID  uint      `gorm:"not null;uniqueIndex:idx_user_badge" json:"badgeId"`
	EarnedAt time.Time `gorm:"not null" json:"earnedAt"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}

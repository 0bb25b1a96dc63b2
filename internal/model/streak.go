package model

import "time"

// StreakState 连续阅读天数，由日聚合增量推导并缓存。
// 可随时从 daily_aggregates 的达标日历史重建。
type StreakState struct {
	UserID             uint   `gorm:"primaryKey" json:"userId"`
	CurrentStreakDays  int    `gorm:"not null;default:0" json:"currentStreakDays"`
	LongestStreakDays  int    `gorm:"not null;default:0" json:"longestStreakDays"`
	LastQualifyingDate string `gorm:"type:varchar(10)" json:"lastQualifyingDate"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (StreakState) TableName() string {
	return "streak_states"
}

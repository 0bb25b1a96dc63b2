package model

import "time"

// LeaderboardSnapshot 结算后的不可变周榜条目，(week_start, user_id) 唯一。
// previous_rank 为空表示该用户上一周不在榜（"本周新上榜"）。
type LeaderboardSnapshot struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	WeekStart string `gorm:"type:varchar(10);not null;uniqueIndex:idx_snapshot_week_user;index" json:"weekStart"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_snapshot_week_user" json:"userId"`

	DurationSeconds int64 `gorm:"not null" json:"durationSeconds"`
	Rank            int   `gorm:"not null" json:"rank"`
	PreviousRank    *int  `json:"previousRank,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func (LeaderboardSnapshot) TableName() string {
	return "leaderboard_snapshots"
}

// LeaderboardSettlement 结算幂等标记，一周只结算一次
type LeaderboardSettlement struct {
	WeekStart string    `gorm:"type:varchar(10);primaryKey" json:"weekStart"`
	SettledAt time.Time `gorm:"not null" json:"settledAt"`
}

func (LeaderboardSettlement) TableName() string {
	return "leaderboard_settlements"
}

// LeaderboardLike 周榜点赞，每对 (actor, target) 每周至多一次。
// 与时长分开存放，结算后仍可点赞，但永不影响名次。
type LeaderboardLike struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	WeekStart    string `gorm:"type:varchar(10);not null;uniqueIndex:idx_like_week_pair" json:"weekStart"`
	UserID       uint   `gorm:"not null;uniqueIndex:idx_like_week_pair" json:"userId"`
	TargetUserID uint   `gorm:"not null;uniqueIndex:idx_like_week_pair;index" json:"targetUserId"`

	CreatedAt time.Time `json:"createdAt"`
}

func (LeaderboardLike) TableName() string {
	return "leaderboard_likes"
}

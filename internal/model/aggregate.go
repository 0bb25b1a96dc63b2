package model

import "time"

// DailyAggregate 按 (用户, 本地自然日) 的阅读时长累计。
// total_seconds 单调递增，只通过 AggregateService.ApplyDelta 的原子自增写入。
type DailyAggregate struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	UserID   uint   `gorm:"not null;uniqueIndex:idx_daily_user_date" json:"userId"`
	StatDate string `gorm:"type:varchar(10);not null;uniqueIndex:idx_daily_user_date" json:"statDate"`

	TotalSeconds  int64 `gorm:"not null;default:0" json:"totalSeconds"`
	FinishedCount int   `gorm:"not null;default:0" json:"finishedCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (DailyAggregate) TableName() string {
	return "daily_aggregates"
}

// DailyBookAggregate 某天内某本书的时长，distinct 行数即当天触达的书目数
type DailyBookAggregate struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	UserID   uint   `gorm:"not null;uniqueIndex:idx_daily_book" json:"userId"`
	StatDate string `gorm:"type:varchar(10);not null;uniqueIndex:idx_daily_book" json:"statDate"`
	BookID   string `gorm:"size:64;not null;uniqueIndex:idx_daily_book" json:"bookId"`

	Seconds int64 `gorm:"not null;default:0" json:"seconds"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (DailyBookAggregate) TableName() string {
	return "daily_book_aggregates"
}

// BookAggregate 按 (用户, 书) 的累计时长与读完标记
type BookAggregate struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	UserID   uint     `gorm:"not null;uniqueIndex:idx_book_user" json:"userId"`
	BookID   string   `gorm:"size:64;not null;uniqueIndex:idx_book_user" json:"bookId"`
	BookType BookType `gorm:"type:enum('ebook','magazine');not null" json:"bookType"`

	TotalSeconds int64      `gorm:"not null;default:0" json:"totalSeconds"`
	Finished     bool       `gorm:"not null;default:false" json:"finished"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
	LastReadAt   time.Time  `json:"lastReadAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (BookAggregate) TableName() string {
	return "book_aggregates"
}

// WeeklyDuration 排行榜的当周实时累计。周界按固定参考时区的
// ISO 周一 00:00 划分，增量按其 occurredAt 归桶，与到达顺序无关。
type WeeklyDuration struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	UserID    uint   `gorm:"not null;uniqueIndex:idx_weekly_user_week" json:"userId"`
	WeekStart string `gorm:"type:varchar(10);not null;uniqueIndex:idx_weekly_user_week;index" json:"weekStart"`

	Seconds int64 `gorm:"not null;default:0" json:"seconds"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (WeeklyDuration) TableName() string {
	return "weekly_durations"
}

package repository

import (
	"readhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type LeaderboardRepository struct {
	DB *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) *LeaderboardRepository {
	return &LeaderboardRepository{DB: db}
}

// WeeklyRow 实时周榜行：时长 + 并列裁决所需的用户注册时间
type WeeklyRow struct {
	UserID        uint      `json:"userId"`
	Name          string    `json:"name"`
	Avatar        string    `json:"avatar"`
	Seconds       int64     `json:"seconds"`
	UserCreatedAt time.Time `json:"-"`
}

// LiveRows 当前（未结算）窗口的行。排序只取必要字段，名次由服务层裁决，
// 绝不依赖读取到达顺序。
func (r *LeaderboardRepository) LiveRows(db *gorm.DB, weekStart string, limit int) ([]WeeklyRow, error) {
	query := db.Model(&model.WeeklyDuration{}).
		Select("weekly_durations.user_id, users.name, users.avatar, weekly_durations.seconds, users.created_at AS user_created_at").
		Joins("JOIN users ON users.id = weekly_durations.user_id").
		Where("weekly_durations.week_start = ?", weekStart)
	if limit > 0 {
		query = query.Limit(limit).Order("weekly_durations.seconds DESC, users.created_at ASC, users.id ASC")
	}

	var rows []WeeklyRow
	err := query.Scan(&rows).Error
	return rows, err
}

func (r *LeaderboardRepository) SnapshotRows(weekStart string, limit int) ([]model.LeaderboardSnapshot, error) {
	query := r.DB.Where("week_start = ?", weekStart).Order("rank ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []model.LeaderboardSnapshot
	err := query.Find(&rows).Error
	return rows, err
}

func (r *LeaderboardRepository) SnapshotForUser(weekStart string, userID uint) (*model.LeaderboardSnapshot, error) {
	var snap model.LeaderboardSnapshot
	err := r.DB.Where("week_start = ? AND user_id = ?", weekStart, userID).First(&snap).Error
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *LeaderboardRepository) IsSettled(db *gorm.DB, weekStart string) (bool, error) {
	var count int64
	err := db.Model(&model.LeaderboardSettlement{}).
		Where("week_start = ?", weekStart).
		Count(&count).Error
	return count > 0, err
}

// UnsettledWeeksBefore 已关窗但尚未结算的周（有数据的）
func (r *LeaderboardRepository) UnsettledWeeksBefore(currentWeekStart string) ([]string, error) {
	var weeks []string
	err := r.DB.Model(&model.WeeklyDuration{}).
		Distinct("week_start").
		Where("week_start < ?", currentWeekStart).
		Where("week_start NOT IN (?)", r.DB.Model(&model.LeaderboardSettlement{}).Select("week_start")).
		Order("week_start ASC").
		Pluck("week_start", &weeks).Error
	return weeks, err
}

func (r *LeaderboardRepository) CreateSnapshots(tx *gorm.DB, snapshots []model.LeaderboardSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	return tx.Create(&snapshots).Error
}

func (r *LeaderboardRepository) CreateSettlement(tx *gorm.DB, weekStart string, at time.Time) error {
	return tx.Create(&model.LeaderboardSettlement{WeekStart: weekStart, SettledAt: at}).Error
}

func (r *LeaderboardRepository) CreateLike(like *model.LeaderboardLike) error {
	return r.DB.Create(like).Error
}

// LikeCounts 某周每个上榜用户收到的赞
func (r *LeaderboardRepository) LikeCounts(weekStart string) (map[uint]int64, error) {
	type row struct {
		TargetUserID uint
		Cnt          int64
	}
	var rows []row
	err := r.DB.Model(&model.LeaderboardLike{}).
		Where("week_start = ?", weekStart).
		Select("target_user_id, COUNT(*) AS cnt").
		Group("target_user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.TargetUserID] = r.Cnt
	}
	return out, nil
}

// LikedTargets 某周 acting 用户已赞过谁，渲染点赞态用
func (r *LeaderboardRepository) LikedTargets(weekStart string, userID uint) (map[uint]bool, error) {
	var ids []uint
	err := r.DB.Model(&model.LeaderboardLike{}).
		Where("week_start = ? AND user_id = ?", weekStart, userID).
		Pluck("target_user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

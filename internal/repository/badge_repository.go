package repository

import (
	"readhub_backend/internal/model"

	"gorm.io/gorm"
)

type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

// LoadCatalog 全量徽章目录，category 升序、level 升序
func (r *BadgeRepository) LoadCatalog() ([]model.Badge, error) {
	var badges []model.Badge
	err := r.DB.Order("category ASC, level ASC").Find(&badges).Error
	return badges, err
}

// EarnedIDs 用户已获得的徽章 id 集合
func (r *BadgeRepository) EarnedIDs(tx *gorm.DB, userID uint) (map[uint]bool, error) {
	var ids []uint
	err := tx.Model(&model.UserBadge{}).
		Where("user_id = ?", userID).
		Pluck("badge_id", &ids).Error
	if err != nil {
		return nil, err
	}
	earned := make(map[uint]bool, len(ids))
	for _, id := range ids {
		earned[id] = true
	}
	return earned, nil
}

func (r *BadgeRepository) CreateUserBadge(tx *gorm.DB, ub *model.UserBadge) error {
	return tx.Create(ub).Error
}

// EarnedBadge 联表视图，查询已获成就列表用
type EarnedBadge struct {
	model.Badge
	EarnedAt string `json:"earnedAt"`
}

// ListEarned 按获得时间倒序；year 非零时只取当年，limit 非零时截断
func (r *BadgeRepository) ListEarned(userID uint, limit, year int) ([]EarnedBadge, error) {
	query := r.DB.Model(&model.UserBadge{}).
		Select("badges.*, user_badges.earned_at AS earned_at").
		Joins("JOIN badges ON badges.id = user_badges.badge_id").
		Where("user_badges.user_id = ?", userID).
		Order("user_badges.earned_at DESC")

	if year > 0 {
		query = query.Where("YEAR(user_badges.earned_at) = ?", year)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []EarnedBadge
	err := query.Scan(&rows).Error
	return rows, err
}

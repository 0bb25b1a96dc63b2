package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"readhub_backend/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StreakRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewStreakRepository(db *gorm.DB, rdb *redis.Client) *StreakRepository {
	return &StreakRepository{DB: db, Redis: rdb}
}

func streakCacheKey(userID uint) string {
	return fmt.Sprintf("streak:%d", userID)
}

// GetForUpdate 锁定读取，不存在则返回零值状态（不落库，写时才建行）
func (r *StreakRepository) GetForUpdate(tx *gorm.DB, userID uint) (*model.StreakState, error) {
	var state model.StreakState
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&state).Error
	if err == gorm.ErrRecordNotFound {
		return &model.StreakState{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Save upsert 状态并失效缓存
func (r *StreakRepository) Save(tx *gorm.DB, state *model.StreakState) error {
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"current_streak_days":  state.CurrentStreakDays,
			"longest_streak_days":  state.LongestStreakDays,
			"last_qualifying_date": state.LastQualifyingDate,
			"updated_at":           time.Now(),
		}),
	}).Create(state).Error
	if err != nil {
		return err
	}
	// 缓存失效；删除失败不影响事务，读侧会回源重建
	r.Redis.Del(context.Background(), streakCacheKey(state.UserID))
	return nil
}

// Get 读路径，Redis 缓存优先，miss 回源 MySQL 并回填
func (r *StreakRepository) Get(userID uint) (*model.StreakState, error) {
	ctx := context.Background()

	if raw, err := r.Redis.Get(ctx, streakCacheKey(userID)).Result(); err == nil {
		var cached model.StreakState
		if json.Unmarshal([]byte(raw), &cached) == nil {
			return &cached, nil
		}
	}

	var state model.StreakState
	err := r.DB.Where("user_id = ?", userID).First(&state).Error
	if err == gorm.ErrRecordNotFound {
		state = model.StreakState{UserID: userID}
	} else if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(&state); err == nil {
		r.Redis.Set(ctx, streakCacheKey(userID), data, 10*time.Minute)
	}
	return &state, nil
}

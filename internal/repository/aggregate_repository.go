package repository

import (
	"readhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AggregateRepository struct {
	DB *gorm.DB
}

func NewAggregateRepository(db *gorm.DB) *AggregateRepository {
	return &AggregateRepository{DB: db}
}

// AddDailySeconds 原子自增当日总时长（不存在则建行），返回自增后的总值。
// 自增可交换，不同设备的并发增量以任意顺序应用结果一致。
func (r *AggregateRepository) AddDailySeconds(tx *gorm.DB, userID uint, date string, seconds int64) (int64, error) {
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "stat_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_seconds": gorm.Expr("total_seconds + ?", seconds),
			"updated_at":    time.Now(),
		}),
	}).Create(&model.DailyAggregate{
		UserID:       userID,
		StatDate:     date,
		TotalSeconds: seconds,
	}).Error
	if err != nil {
		return 0, err
	}

	var agg model.DailyAggregate
	if err := tx.Where("user_id = ? AND stat_date = ?", userID, date).First(&agg).Error; err != nil {
		return 0, err
	}
	return agg.TotalSeconds, nil
}

func (r *AggregateRepository) AddDailyBookSeconds(tx *gorm.DB, userID uint, date, bookID string, seconds int64) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "stat_date"}, {Name: "book_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"seconds":    gorm.Expr("seconds + ?", seconds),
			"updated_at": time.Now(),
		}),
	}).Create(&model.DailyBookAggregate{
		UserID:   userID,
		StatDate: date,
		BookID:   bookID,
		Seconds:  seconds,
	}).Error
}

func (r *AggregateRepository) AddBookSeconds(tx *gorm.DB, userID uint, bookID string, bookType model.BookType, seconds int64, readAt time.Time) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_seconds": gorm.Expr("total_seconds + ?", seconds),
			"last_read_at":  readAt,
			"updated_at":    time.Now(),
		}),
	}).Create(&model.BookAggregate{
		UserID:       userID,
		BookID:       bookID,
		BookType:     bookType,
		TotalSeconds: seconds,
		LastReadAt:   readAt,
	}).Error
}

func (r *AggregateRepository) AddWeeklySeconds(tx *gorm.DB, userID uint, weekStart string, seconds int64) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "week_start"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"seconds":    gorm.Expr("seconds + ?", seconds),
			"updated_at": time.Now(),
		}),
	}).Create(&model.WeeklyDuration{
		UserID:    userID,
		WeekStart: weekStart,
		Seconds:   seconds,
	}).Error
}

// MarkBookFinished 首次读完置位，返回是否真的发生了状态变化
func (r *AggregateRepository) MarkBookFinished(tx *gorm.DB, userID uint, bookID string, at time.Time) (bool, error) {
	res := tx.Model(&model.BookAggregate{}).
		Where("user_id = ? AND book_id = ? AND finished = ?", userID, bookID, false).
		Updates(map[string]interface{}{"finished": true, "finished_at": at})
	return res.RowsAffected > 0, res.Error
}

func (r *AggregateRepository) IncrementDailyFinished(tx *gorm.DB, userID uint, date string) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "stat_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"finished_count": gorm.Expr("finished_count + 1"),
			"updated_at":     time.Now(),
		}),
	}).Create(&model.DailyAggregate{
		UserID:        userID,
		StatDate:      date,
		FinishedCount: 1,
	}).Error
}

func (r *AggregateRepository) DailySeconds(db *gorm.DB, userID uint, date string) (int64, error) {
	var agg model.DailyAggregate
	err := db.Where("user_id = ? AND stat_date = ?", userID, date).First(&agg).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return agg.TotalSeconds, nil
}

func (r *AggregateRepository) BookSeconds(db *gorm.DB, userID uint, bookID string) (int64, error) {
	var agg model.BookAggregate
	err := db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&agg).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return agg.TotalSeconds, nil
}

// TotalSeconds 全量阅读时长（日聚合求和）
func (r *AggregateRepository) TotalSeconds(db *gorm.DB, userID uint) (int64, error) {
	var total int64
	err := db.Model(&model.DailyAggregate{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(total_seconds), 0)").
		Scan(&total).Error
	return total, err
}

func (r *AggregateRepository) BooksFinishedCount(db *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := db.Model(&model.BookAggregate{}).
		Where("user_id = ? AND finished = ?", userID, true).
		Count(&count).Error
	return count, err
}

// DailyRange 窗口内的日聚合行，stat_date 升序，缺的日子没有行
func (r *AggregateRepository) DailyRange(userID uint, from, to string) ([]model.DailyAggregate, error) {
	var rows []model.DailyAggregate
	err := r.DB.Where("user_id = ? AND stat_date >= ? AND stat_date <= ?", userID, from, to).
		Order("stat_date ASC").
		Find(&rows).Error
	return rows, err
}

// BooksTouchedByDate 窗口内每天触达的书目数
func (r *AggregateRepository) BooksTouchedByDate(userID uint, from, to string) (map[string]int, error) {
	type row struct {
		StatDate string
		Cnt      int
	}
	var rows []row
	err := r.DB.Model(&model.DailyBookAggregate{}).
		Where("user_id = ? AND stat_date >= ? AND stat_date <= ?", userID, from, to).
		Select("stat_date, COUNT(*) AS cnt").
		Group("stat_date").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.StatDate] = r.Cnt
	}
	return out, nil
}

// QualifyingDates 达标日全量历史（升序），回填后重算连续天数用
func (r *AggregateRepository) QualifyingDates(tx *gorm.DB, userID uint, minSeconds int64) ([]string, error) {
	var dates []string
	err := tx.Model(&model.DailyAggregate{}).
		Where("user_id = ? AND total_seconds >= ?", userID, minSeconds).
		Order("stat_date ASC").
		Pluck("stat_date", &dates).Error
	return dates, err
}

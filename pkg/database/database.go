package database

import (
	"fmt"
	"log"
	"readhub_backend/internal/config"
	"readhub_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.ReadingSession{},
		&model.DailyAggregate{},
		&model.DailyBookAggregate{},
		&model.BookAggregate{},
		&model.WeeklyDuration{},
		&model.StreakState{},
		&model.Badge{},
		&model.UserBadge{},
		&model.LeaderboardSnapshot{},
		&model.LeaderboardSettlement{},
		&model.LeaderboardLike{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认徽章目录（为空时写入）。阈值必须在 category 内严格递增，
	// BadgeService 启动时会再次校验。
	var count int64
	db.Model(&model.Badge{}).Count(&count)
	if count == 0 {
		defaultBadges := []model.Badge{
			{Category: model.MetricStreakDays, Level: 1, Threshold: 3, Name: "坚持阅读·3天", Icon: "streak_3"},
			{Category: model.MetricStreakDays, Level: 2, Threshold: 7, Name: "坚持阅读·7天", Icon: "streak_7"},
			{Category: model.MetricStreakDays, Level: 3, Threshold: 30, Name: "坚持阅读·30天", Icon: "streak_30"},
			{Category: model.MetricStreakDays, Level: 4, Threshold: 100, Name: "坚持阅读·100天", Icon: "streak_100"},
			{Category: model.MetricStreakDays, Level: 5, Threshold: 365, Name: "坚持阅读·365天", Icon: "streak_365"},

			{Category: model.MetricTotalDuration, Level: 1, Threshold: 10 * 3600, Name: "阅读时长·10小时", Icon: "duration_10h"},
			{Category: model.MetricTotalDuration, Level: 2, Threshold: 50 * 3600, Name: "阅读时长·50小时", Icon: "duration_50h"},
			{Category: model.MetricTotalDuration, Level: 3, Threshold: 100 * 3600, Name: "阅读时长·100小时", Icon: "duration_100h"},
			{Category: model.MetricTotalDuration, Level: 4, Threshold: 500 * 3600, Name: "阅读时长·500小时", Icon: "duration_500h"},
			{Category: model.MetricTotalDuration, Level: 5, Threshold: 1000 * 3600, Name: "阅读时长·1000小时", Icon: "duration_1000h"},

			{Category: model.MetricBooksFinished, Level: 1, Threshold: 1, Name: "读完·1本", Icon: "finished_1"},
			{Category: model.MetricBooksFinished, Level: 2, Threshold: 10, Name: "读完·10本", Icon: "finished_10"},
			{Category: model.MetricBooksFinished, Level: 3, Threshold: 50, Name: "读完·50本", Icon: "finished_50"},
			{Category: model.MetricBooksFinished, Level: 4, Threshold: 100, Name: "读完·100本", Icon: "finished_100"},
		}
		for _, b := range defaultBadges {
			db.Create(&b)
		}
	}

	return db, nil
}

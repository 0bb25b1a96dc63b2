package service

import (
	"readhub_backend/internal/model"
	"readhub_backend/internal/repository"
	"time"

	"gorm.io/gorm"
)

// AggregateService 把会话增量折叠成按天/按书/按周的累计。
// 这是 daily_aggregates 的唯一写入口；下游读方把它当只增计数器。
// 幂等由上游心跳去重保证，这里默认收到的增量已经去过重。
type AggregateService struct {
	AggRepo   *repository.AggregateRepository
	StreakSvc *StreakService
	params    *EngineParams
}

func NewAggregateService(aggRepo *repository.AggregateRepository, streakSvc *StreakService, params *EngineParams) *AggregateService {
	return &AggregateService{
		AggRepo:   aggRepo,
		StreakSvc: streakSvc,
		params:    params,
	}
}

// ApplyDelta 把 [from, to] 区间内记入的 credited 秒写进各聚合表。
// 跨午夜按墙钟重叠比例分摊到相邻两天；周桶按参考时区的周界归属。
// 某天总量首次跨过达标阈值时，同事务内推进连续天数。
func (s *AggregateService) ApplyDelta(tx *gorm.DB, user *model.User, bookID string, bookType model.BookType, from, to time.Time, credited int64) error {
	if credited <= 0 {
		return nil
	}

	loc := user.Location()
	minSec := int64(s.params.Get().StreakMinSeconds)

	for _, part := range splitByDay(from, to, credited, loc) {
		newTotal, err := s.AggRepo.AddDailySeconds(tx, user.ID, part.Key, part.Seconds)
		if err != nil {
			return err
		}
		if err := s.AggRepo.AddDailyBookSeconds(tx, user.ID, part.Key, bookID, part.Seconds); err != nil {
			return err
		}
		// 首次跨过阈值的那次增量触发连续天数推进
		if newTotal >= minSec && newTotal-part.Seconds < minSec {
			if err := s.StreakSvc.OnDayQualified(tx, user.ID, part.Key); err != nil {
				return err
			}
		}
	}

	if err := s.AggRepo.AddBookSeconds(tx, user.ID, bookID, bookType, credited, to); err != nil {
		return err
	}

	refLoc := s.params.RefLocation()
	for _, part := range splitByWeek(from, to, credited, refLoc) {
		if err := s.AggRepo.AddWeeklySeconds(tx, user.ID, part.Key, part.Seconds); err != nil {
			return err
		}
	}

	return nil
}

// RecordBookFinished 读完标记：每本书只计一次，记入当天的 finished_count
func (s *AggregateService) RecordBookFinished(tx *gorm.DB, user *model.User, bookID string, at time.Time) error {
	changed, err := s.AggRepo.MarkBookFinished(tx, user.ID, bookID, at)
	if err != nil || !changed {
		return err
	}
	return s.AggRepo.IncrementDailyFinished(tx, user.ID, dayKey(at, user.Location()))
}

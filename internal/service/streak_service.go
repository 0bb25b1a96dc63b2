package service

import (
	"readhub_backend/internal/model"
	"readhub_backend/internal/repository"
	"readhub_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StreakService 维护连续阅读天数。常规路径是增量推进；
// 只有迟到的回填（离线阅读补同步）才会触发全量历史重算，
// 因为补上的一天可能回头把此前记录的断档接起来。
type StreakService struct {
	StreakRepo *repository.StreakRepository
	AggRepo    *repository.AggregateRepository
	params     *EngineParams
}

func NewStreakService(streakRepo *repository.StreakRepository, aggRepo *repository.AggregateRepository, params *EngineParams) *StreakService {
	return &StreakService{
		StreakRepo: streakRepo,
		AggRepo:    aggRepo,
		params:     params,
	}
}

// OnDayQualified 某天的日聚合首次跨过达标阈值时调用（与写入同事务）
func (s *StreakService) OnDayQualified(tx *gorm.DB, userID uint, date string) error {
	state, err := s.StreakRepo.GetForUpdate(tx, userID)
	if err != nil {
		return err
	}

	if state.LastQualifyingDate != "" && date < state.LastQualifyingDate {
		// 回填：从全量达标日历史重算，而不是就地打补丁
		minSec := int64(s.params.Get().StreakMinSeconds)
		dates, err := s.AggRepo.QualifyingDates(tx, userID, minSec)
		if err != nil {
			return err
		}
		current, longest, last := recomputeStreak(dates)
		if longest < state.LongestStreakDays {
			longest = state.LongestStreakDays
		}
		state.CurrentStreakDays = current
		state.LongestStreakDays = longest
		state.LastQualifyingDate = last
		logger.Log.Info("streak recomputed after backfill",
			zap.Uint("userId", userID),
			zap.String("backfilledDate", date),
			zap.Int("currentStreak", current))
	} else {
		advanceStreak(state, date)
	}

	return s.StreakRepo.Save(tx, state)
}

func (s *StreakService) GetState(userID uint) (*model.StreakState, error) {
	return s.StreakRepo.Get(userID)
}

// advanceStreak 增量转移：
// 紧接昨天达标 +1；同一天重复到达不动；隔了一天以上则从 1 重新起算。
func advanceStreak(state *model.StreakState, date string) {
	switch {
	case state.LastQualifyingDate == "":
		state.CurrentStreakDays = 1
	case date == state.LastQualifyingDate:
		return
	case date == addDaysKey(state.LastQualifyingDate, 1):
		state.CurrentStreakDays++
	default:
		state.CurrentStreakDays = 1
	}
	if state.CurrentStreakDays > state.LongestStreakDays {
		state.LongestStreakDays = state.CurrentStreakDays
	}
	state.LastQualifyingDate = date
}

// recomputeStreak 按升序达标日折叠出 (当前连续, 历史最长, 最后达标日)
func recomputeStreak(dates []string) (current, longest int, last string) {
	run := 0
	for i, d := range dates {
		if i > 0 && d == addDaysKey(dates[i-1], 1) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		last = d
	}
	current = run
	return current, longest, last
}

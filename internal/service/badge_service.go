package service

import (
	"fmt"
	"readhub_backend/internal/model"
	"readhub_backend/internal/repository"
	"readhub_backend/internal/util"
	"readhub_backend/pkg/logger"
	"readhub_backend/pkg/monitoring"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BadgeService 阈值成就引擎。目录启动时一次性加载并校验，
// 评估按 category 内 level 升序短路：阈值严格递增，低级未达标高级必然未达标。
type BadgeService struct {
	BadgeRepo  *repository.BadgeRepository
	AggRepo    *repository.AggregateRepository
	StreakRepo *repository.StreakRepository
	DB         *gorm.DB

	catalog map[model.BadgeMetric][]model.Badge
}

func NewBadgeService(badgeRepo *repository.BadgeRepository, aggRepo *repository.AggregateRepository, streakRepo *repository.StreakRepository, db *gorm.DB) (*BadgeService, error) {
	badges, err := badgeRepo.LoadCatalog()
	if err != nil {
		return nil, err
	}
	catalog, err := buildCatalog(badges)
	if err != nil {
		return nil, err
	}

	return &BadgeService{
		BadgeRepo:  badgeRepo,
		AggRepo:    aggRepo,
		StreakRepo: streakRepo,
		DB:         db,
		catalog:    catalog,
	}, nil
}

// buildCatalog 按 category 分组、level 升序，并校验阈值严格递增
func buildCatalog(badges []model.Badge) (map[model.BadgeMetric][]model.Badge, error) {
	catalog := make(map[model.BadgeMetric][]model.Badge)
	for _, b := range badges {
		catalog[b.Category] = append(catalog[b.Category], b)
	}
	for category, levels := range catalog {
		sort.Slice(levels, func(i, j int) bool { return levels[i].Level < levels[j].Level })
		for i := 1; i < len(levels); i++ {
			if levels[i].Threshold <= levels[i-1].Threshold {
				return nil, fmt.Errorf("badge catalog: category %s thresholds not strictly increasing at level %d", category, levels[i].Level)
			}
		}
		catalog[category] = levels
	}
	return catalog, nil
}

// metricValues 当前指标快照，评估与进度查询用同一套取数
type metricValues struct {
	TotalSeconds  int64
	CurrentStreak int64
	LongestStreak int64
	BooksFinished int64
}

func (m metricValues) value(metric model.BadgeMetric) int64 {
	switch metric {
	case model.MetricStreakDays:
		return m.LongestStreak
	case model.MetricTotalDuration:
		return m.TotalSeconds
	case model.MetricBooksFinished:
		return m.BooksFinished
	}
	return 0
}

func (s *BadgeService) snapshot(db *gorm.DB, userID uint) (metricValues, error) {
	var m metricValues

	total, err := s.AggRepo.TotalSeconds(db, userID)
	if err != nil {
		return m, err
	}
	finished, err := s.AggRepo.BooksFinishedCount(db, userID)
	if err != nil {
		return m, err
	}

	var streak model.StreakState
	err = db.Where("user_id = ?", userID).First(&streak).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return m, err
	}

	m.TotalSeconds = total
	m.BooksFinished = finished
	m.CurrentStreak = int64(streak.CurrentStreakDays)
	m.LongestStreak = int64(streak.LongestStreakDays)
	return m, nil
}

// Evaluate 扫描目录，落下所有新跨过阈值的徽章并返回。幂等：
// 指标没变化时再次调用返回空。并发评估靠 (user_id, badge_id) 唯一键兜底。
func (s *BadgeService) Evaluate(tx *gorm.DB, userID uint, now time.Time) ([]model.Badge, error) {
	metrics, err := s.snapshot(tx, userID)
	if err != nil {
		return nil, err
	}
	earned, err := s.BadgeRepo.EarnedIDs(tx, userID)
	if err != nil {
		return nil, err
	}

	var newly []model.Badge
	for _, levels := range s.catalog {
		for _, badge := range eligibleLevels(levels, earned, metrics.value(levels[0].Category)) {
			err := s.BadgeRepo.CreateUserBadge(tx, &model.UserBadge{
				UserID:   userID,
				BadgeID:  badge.ID,
				EarnedAt: now,
			})
			if err != nil {
				if util.IsDuplicateKey(err) {
					// 并发评估已落过，不算新获得
					continue
				}
				return nil, err
			}
			monitoring.BadgesAwarded.Inc()
			logger.Log.Info("badge earned",
				zap.Uint("userId", userID),
				zap.String("badge", badge.Name))
			newly = append(newly, badge)
		}
	}
	return newly, nil
}

// eligibleLevels level 升序走到第一个未达标阈值即停：
// 由此可得拿到 N 级则 1..N-1 级必然已拿（阈值严格递增保证）
func eligibleLevels(levels []model.Badge, earned map[uint]bool, value int64) []model.Badge {
	var out []model.Badge
	for _, b := range levels {
		if value < b.Threshold {
			break
		}
		if earned[b.ID] {
			continue
		}
		out = append(out, b)
	}
	return out
}

// BadgeProgress 未获得徽章的当前进度，只读不评估
type BadgeProgress struct {
	BadgeID  uint              `json:"badgeId"`
	Category model.BadgeMetric `json:"category"`
	Level    int               `json:"level"`
	Name     string            `json:"name"`
	Icon     string            `json:"icon"`
	Current  int64             `json:"current"`
	Target   int64             `json:"target"`
}

// Progress 每个 category 的下一个未获等级及其 (current, target)
func (s *BadgeService) Progress(userID uint) ([]BadgeProgress, error) {
	metrics, err := s.snapshot(s.DB, userID)
	if err != nil {
		return nil, err
	}
	earned, err := s.BadgeRepo.EarnedIDs(s.DB, userID)
	if err != nil {
		return nil, err
	}

	var out []BadgeProgress
	for _, levels := range s.catalog {
		for _, b := range levels {
			if earned[b.ID] {
				continue
			}
			out = append(out, BadgeProgress{
				BadgeID:  b.ID,
				Category: b.Category,
				Level:    b.Level,
				Name:     b.Name,
				Icon:     b.Icon,
				Current:  metrics.value(b.Category),
				Target:   b.Threshold,
			})
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// ListEarned 已获徽章，按获得时间倒序
func (s *BadgeService) ListEarned(userID uint, limit, year int) ([]repository.EarnedBadge, error) {
	return s.BadgeRepo.ListEarned(userID, limit, year)
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"readhub_backend/internal/model"
	"readhub_backend/internal/repository"
	"readhub_backend/internal/util"
	"readhub_backend/pkg/logger"
	"readhub_backend/pkg/monitoring"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LeaderboardService 周榜：实时窗口按读排名，关窗时落不可变快照。
// 排序规则全局一致：周时长降序，平手按注册更早者在前，再按用户 id，
// 因此同一窗口的重复读取返回完全相同的次序。
type LeaderboardService struct {
	LbRepo   *repository.LeaderboardRepository
	UserRepo *repository.UserRepository
	DB       *gorm.DB
	Redis    *redis.Client
	params   *EngineParams
}

func NewLeaderboardService(lbRepo *repository.LeaderboardRepository, userRepo *repository.UserRepository, db *gorm.DB, rdb *redis.Client, params *EngineParams) *LeaderboardService {
	return &LeaderboardService{
		LbRepo:   lbRepo,
		UserRepo: userRepo,
		DB:       db,
		Redis:    rdb,
		params:   params,
	}
}

// LeaderboardEntry 榜单条目。PreviousRank 为 nil 即"本周新上榜"。
type LeaderboardEntry struct {
	Rank            int    `json:"rank"`
	UserID          uint   `json:"userId"`
	Name            string `json:"name"`
	Avatar          string `json:"avatar,omitempty"`
	DurationSeconds int64  `json:"durationSeconds"`
	PreviousRank    *int   `json:"previousRank,omitempty"`
	LikeCount       int64  `json:"likeCount"`
	LikedByMe       bool   `json:"likedByMe"`
}

type MyRanking struct {
	Rank            int   `json:"rank"` // 0 表示未上榜
	DurationSeconds int64 `json:"durationSeconds"`
	PreviousRank    *int  `json:"previousRank,omitempty"`
	RankDelta       *int  `json:"rankDelta,omitempty"`
}

type LeaderboardView struct {
	WeekStart string             `json:"weekStart"`
	Settled   bool               `json:"settled"`
	Entries   []LeaderboardEntry `json:"entries"`
	MyRanking MyRanking          `json:"myRanking"`
}

// CurrentWeekStart 参考时区里本周一的日期键
func (s *LeaderboardService) CurrentWeekStart() string {
	return weekStartKey(time.Now(), s.params.RefLocation())
}

// ResolveWeek 空参取当前周；显式参数必须是 YYYY-MM-DD 的周一
func (s *LeaderboardService) ResolveWeek(param string) (string, error) {
	if param == "" {
		return s.CurrentWeekStart(), nil
	}
	t, err := parseDateKey(param)
	if err != nil || t.Weekday() != time.Monday {
		return "", util.ErrInvalidWeek
	}
	return param, nil
}

func (s *LeaderboardService) GetLeaderboard(userID uint, weekParam string) (*LeaderboardView, error) {
	week, err := s.ResolveWeek(weekParam)
	if err != nil {
		return nil, err
	}

	cfg := s.params.Get()
	settled, err := s.LbRepo.IsSettled(s.DB, week)
	if err != nil {
		return nil, err
	}

	var ranked []rankedRow
	if settled {
		snaps, err := s.LbRepo.SnapshotRows(week, 0)
		if err != nil {
			return nil, err
		}
		ranked = fromSnapshots(snaps)
		if err := s.fillUserBrief(ranked); err != nil {
			return nil, err
		}
	} else {
		ranked, err = s.liveRanked(week, cfg.LeaderboardCacheTTL())
		if err != nil {
			return nil, err
		}
	}

	// 快照行自带 previous_rank，只有实时窗口才需要查上周名次表
	var prevRanks map[uint]int
	if !settled {
		prevRanks, err = s.previousRanks(week)
		if err != nil {
			return nil, err
		}
	}
	likeCounts, err := s.LbRepo.LikeCounts(week)
	if err != nil {
		return nil, err
	}
	liked, err := s.LbRepo.LikedTargets(week, userID)
	if err != nil {
		return nil, err
	}

	view := &LeaderboardView{WeekStart: week, Settled: settled, Entries: []LeaderboardEntry{}}
	for _, row := range ranked {
		prev := previousRankFor(settled, row, prevRanks)

		if row.UserID == userID {
			view.MyRanking = MyRanking{
				Rank:            row.Rank,
				DurationSeconds: row.Seconds,
				PreviousRank:    prev,
			}
			if prev != nil {
				delta := *prev - row.Rank
				view.MyRanking.RankDelta = &delta
			}
		}

		if len(view.Entries) < cfg.LeaderboardSize {
			view.Entries = append(view.Entries, LeaderboardEntry{
				Rank:            row.Rank,
				UserID:          row.UserID,
				Name:            row.Name,
				Avatar:          row.Avatar,
				DurationSeconds: row.Seconds,
				PreviousRank:    prev,
				LikeCount:       likeCounts[row.UserID],
				LikedByMe:       liked[row.UserID],
			})
		}
	}
	return view, nil
}

// LikeEntry 每对 (acting, target) 每周至多一赞，靠唯一键判重。
// 点赞与时长分开存储，结算后的榜也能点，但名次永不受影响。
func (s *LeaderboardService) LikeEntry(actingUserID, targetUserID uint, weekParam string) error {
	week, err := s.ResolveWeek(weekParam)
	if err != nil {
		return err
	}
	if _, err := s.UserRepo.FindByID(targetUserID); err != nil {
		return util.ErrUserNotFound
	}

	err = s.LbRepo.CreateLike(&model.LeaderboardLike{
		WeekStart:    week,
		UserID:       actingUserID,
		TargetUserID: targetUserID,
	})
	if err != nil {
		if util.IsDuplicateKey(err) {
			return util.ErrAlreadyLiked
		}
		return err
	}
	return nil
}

// SettleDueWindows 定时边界检查：所有已关窗未结算的周逐个落快照并开新窗。
// 与在途写并发安全：增量按 occurredAt 归桶，关窗后旧周桶不再有新写入。
func (s *LeaderboardService) SettleDueWindows() error {
	currentWeek := s.CurrentWeekStart()
	weeks, err := s.LbRepo.UnsettledWeeksBefore(currentWeek)
	if err != nil {
		return err
	}

	for _, week := range weeks {
		week := week
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			settled, err := s.LbRepo.IsSettled(tx, week)
			if err != nil || settled {
				return err
			}

			rows, err := s.LbRepo.LiveRows(tx, week, 0)
			if err != nil {
				return err
			}
			ranked := rankRows(rows)

			prevRanks, err := s.previousRanks(week)
			if err != nil {
				return err
			}

			snapshots := make([]model.LeaderboardSnapshot, 0, len(ranked))
			for _, row := range ranked {
				snap := model.LeaderboardSnapshot{
					WeekStart:       week,
					UserID:          row.UserID,
					DurationSeconds: row.Seconds,
					Rank:            row.Rank,
				}
				if p, ok := prevRanks[row.UserID]; ok {
					prevCopy := p
					snap.PreviousRank = &prevCopy
				}
				snapshots = append(snapshots, snap)
			}

			if err := s.LbRepo.CreateSnapshots(tx, snapshots); err != nil {
				return err
			}
			return s.LbRepo.CreateSettlement(tx, week, time.Now())
		})
		if err != nil {
			logger.Log.Error("leaderboard settlement failed",
				zap.String("weekStart", week), zap.Error(err))
			continue
		}
		monitoring.LeaderboardSettlements.Inc()
		logger.Log.Info("leaderboard window settled", zap.String("weekStart", week))
	}
	return nil
}

// rankedRow 裁决后的一行，快照与实时两条读路径共用
type rankedRow struct {
	Rank         int       `json:"rank"`
	UserID       uint      `json:"userId"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar"`
	Seconds      int64     `json:"seconds"`
	PreviousRank *int      `json:"previousRank,omitempty"`
	CreatedAt    time.Time `json:"-"`
}

// rankRows 时长降序；平手按注册时间升序，再按用户 id 升序。
// 全序且确定，同一数据的重复排序结果恒等。
func rankRows(rows []repository.WeeklyRow) []rankedRow {
	sorted := make([]repository.WeeklyRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Seconds != b.Seconds {
			return a.Seconds > b.Seconds
		}
		if !a.UserCreatedAt.Equal(b.UserCreatedAt) {
			return a.UserCreatedAt.Before(b.UserCreatedAt)
		}
		return a.UserID < b.UserID
	})

	out := make([]rankedRow, len(sorted))
	for i, row := range sorted {
		out[i] = rankedRow{
			Rank:    i + 1,
			UserID:  row.UserID,
			Name:    row.Name,
			Avatar:  row.Avatar,
			Seconds: row.Seconds,
		}
	}
	return out
}

// previousRankFor 已结算窗口信快照里冻结的 previous_rank；
// 实时窗口查上周结算名次表
func previousRankFor(settled bool, row rankedRow, prevRanks map[uint]int) *int {
	if settled {
		return row.PreviousRank
	}
	if p, ok := prevRanks[row.UserID]; ok {
		prevCopy := p
		return &prevCopy
	}
	return nil
}

func fromSnapshots(snaps []model.LeaderboardSnapshot) []rankedRow {
	out := make([]rankedRow, len(snaps))
	for i, s := range snaps {
		out[i] = rankedRow{
			Rank:         s.Rank,
			UserID:       s.UserID,
			Seconds:      s.DurationSeconds,
			PreviousRank: s.PreviousRank,
		}
	}
	return out
}

// fillUserBrief 快照只存名次与时长，展示字段读时补
func (s *LeaderboardService) fillUserBrief(rows []rankedRow) error {
	ids := make([]uint, len(rows))
	for i, r := range rows {
		ids[i] = r.UserID
	}
	users, err := s.UserRepo.FindBrief(ids)
	if err != nil {
		return err
	}
	for i := range rows {
		if u, ok := users[rows[i].UserID]; ok {
			rows[i].Name = u.Name
			rows[i].Avatar = u.Avatar
		}
	}
	return nil
}

// liveRanked 当前窗口的完整排名，短 TTL 缓存在 Redis，减轻热点读
func (s *LeaderboardService) liveRanked(week string, ttl time.Duration) ([]rankedRow, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("leaderboard:%s", week)

	if raw, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
		var cached []rankedRow
		if json.Unmarshal([]byte(raw), &cached) == nil {
			return cached, nil
		}
	}

	rows, err := s.LbRepo.LiveRows(s.DB, week, 0)
	if err != nil {
		return nil, err
	}
	ranked := rankRows(rows)

	if data, err := json.Marshal(ranked); err == nil {
		s.Redis.Set(ctx, cacheKey, data, ttl)
	}
	return ranked, nil
}

// previousRanks 上一个已结算窗口的名次表；上周未结算或无数据时为空
func (s *LeaderboardService) previousRanks(week string) (map[uint]int, error) {
	prevWeek := addDaysKey(week, -7)
	snaps, err := s.LbRepo.SnapshotRows(prevWeek, 0)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int, len(snaps))
	for _, s := range snaps {
		out[s.UserID] = s.Rank
	}
	return out, nil
}

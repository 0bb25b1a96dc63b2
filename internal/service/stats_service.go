package service

import (
	"readhub_backend/internal/model"
	"readhub_backend/internal/repository"
	"readhub_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

// StatsService 读侧组合层：各维度都是对日聚合行加缓存的
// 连续天数/徽章的确定性折叠，不触发任何写入。
type StatsService struct {
	AggRepo   *repository.AggregateRepository
	StreakSvc *StreakService
	BadgeRepo *repository.BadgeRepository
	UserRepo  *repository.UserRepository
	DB        *gorm.DB
	params    *EngineParams
}

func NewStatsService(aggRepo *repository.AggregateRepository, streakSvc *StreakService, badgeRepo *repository.BadgeRepository, userRepo *repository.UserRepository, db *gorm.DB, params *EngineParams) *StatsService {
	return &StatsService{
		AggRepo:   aggRepo,
		StreakSvc: streakSvc,
		BadgeRepo: badgeRepo,
		UserRepo:  userRepo,
		DB:        db,
		params:    params,
	}
}

type Dimension string

const (
	DimWeek     Dimension = "week"
	DimMonth    Dimension = "month"
	DimYear     Dimension = "year"
	DimTotal    Dimension = "total"
	DimCalendar Dimension = "calendar"
)

// ParseDimension 未知维度是输入错误，不猜默认值
func ParseDimension(s string) (Dimension, error) {
	switch Dimension(s) {
	case DimWeek, DimMonth, DimYear, DimTotal, DimCalendar:
		return Dimension(s), nil
	}
	return "", util.ErrInvalidDimension
}

type StatsQuery struct {
	Dimension Dimension
	Date      string // week 锚点，空则今天
	Year      int    // month/year/calendar
	Month     int    // month/calendar
}

type DayStat struct {
	Date          string `json:"date"`
	Seconds       int64  `json:"seconds"`
	BooksTouched  int    `json:"booksTouched"`
	FinishedCount int    `json:"finishedCount"`
	Qualifying    bool   `json:"qualifying"`
}

type WindowStats struct {
	Dimension    Dimension `json:"dimension"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	TotalSeconds int64     `json:"totalSeconds"`
	Days         []DayStat `json:"days"`
}

type MonthTotal struct {
	Month   int   `json:"month"`
	Seconds int64 `json:"seconds"`
}

type YearStats struct {
	Dimension    Dimension    `json:"dimension"`
	Year         int          `json:"year"`
	TotalSeconds int64        `json:"totalSeconds"`
	Months       []MonthTotal `json:"months"`
}

type TotalStats struct {
	Dimension         Dimension `json:"dimension"`
	TotalSeconds      int64     `json:"totalSeconds"`
	BooksFinished     int64     `json:"booksFinished"`
	CurrentStreakDays int       `json:"currentStreakDays"`
	LongestStreakDays int       `json:"longestStreakDays"`
	BadgesEarned      int       `json:"badgesEarned"`
}

func (s *StatsService) GetStats(userID uint, q StatsQuery) (interface{}, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}
	loc := user.Location()
	now := time.Now().In(loc)

	switch q.Dimension {
	case DimWeek:
		from, err := weekWindowStart(q.Date, now, loc)
		if err != nil {
			return nil, err
		}
		to := addDaysKey(from, 6)
		return s.window(userID, DimWeek, from, to)

	case DimMonth, DimCalendar:
		year, month := q.Year, q.Month
		if year == 0 {
			year = now.Year()
		}
		if month < 1 || month > 12 {
			month = int(now.Month())
		}
		first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
		from := first.Format(model.DateLayout)
		to := first.AddDate(0, 1, -1).Format(model.DateLayout)
		return s.window(userID, q.Dimension, from, to)

	case DimYear:
		year := q.Year
		if year == 0 {
			year = now.Year()
		}
		return s.year(userID, year)

	case DimTotal:
		return s.total(userID)
	}
	return nil, util.ErrInvalidDimension
}

// weekWindowStart 周维度的窗口起点。显式锚点必须按用户时区解释：
// UTC 解析出的零点在西侧时区是前一天，会把整窗前移一周。
func weekWindowStart(dateParam string, now time.Time, loc *time.Location) (string, error) {
	anchor := now
	if dateParam != "" {
		t, err := time.ParseInLocation(model.DateLayout, dateParam, loc)
		if err != nil {
			return "", util.ErrInvalidDimension
		}
		anchor = t
	}
	return startOfWeek(anchor, loc).Format(model.DateLayout), nil
}

func (s *StatsService) window(userID uint, dim Dimension, from, to string) (*WindowStats, error) {
	rows, err := s.AggRepo.DailyRange(userID, from, to)
	if err != nil {
		return nil, err
	}
	touched, err := s.AggRepo.BooksTouchedByDate(userID, from, to)
	if err != nil {
		return nil, err
	}
	minSec := int64(s.params.Get().StreakMinSeconds)
	return foldWindow(dim, from, to, rows, touched, minSec), nil
}

// foldWindow 连续日期窗口的逐日折叠，缺数据的日子补零行
func foldWindow(dim Dimension, from, to string, rows []model.DailyAggregate, touched map[string]int, minSec int64) *WindowStats {
	byDate := make(map[string]model.DailyAggregate, len(rows))
	for _, r := range rows {
		byDate[r.StatDate] = r
	}

	out := &WindowStats{Dimension: dim, From: from, To: to}
	for d := from; d <= to; d = addDaysKey(d, 1) {
		row := byDate[d]
		out.Days = append(out.Days, DayStat{
			Date:          d,
			Seconds:       row.TotalSeconds,
			BooksTouched:  touched[d],
			FinishedCount: row.FinishedCount,
			Qualifying:    row.TotalSeconds >= minSec,
		})
		out.TotalSeconds += row.TotalSeconds
	}
	return out
}

func (s *StatsService) year(userID uint, year int) (*YearStats, error) {
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format(model.DateLayout)
	to := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC).Format(model.DateLayout)
	rows, err := s.AggRepo.DailyRange(userID, from, to)
	if err != nil {
		return nil, err
	}
	return foldYear(year, rows), nil
}

// foldYear 按月折叠全年日聚合，12 个月全量补零
func foldYear(year int, rows []model.DailyAggregate) *YearStats {
	out := &YearStats{Dimension: DimYear, Year: year}
	for m := 1; m <= 12; m++ {
		out.Months = append(out.Months, MonthTotal{Month: m})
	}
	for _, r := range rows {
		t, err := parseDateKey(r.StatDate)
		if err != nil {
			continue
		}
		out.Months[int(t.Month())-1].Seconds += r.TotalSeconds
		out.TotalSeconds += r.TotalSeconds
	}
	return out
}

func (s *StatsService) total(userID uint) (*TotalStats, error) {
	totalSec, err := s.AggRepo.TotalSeconds(s.DB, userID)
	if err != nil {
		return nil, err
	}
	finished, err := s.AggRepo.BooksFinishedCount(s.DB, userID)
	if err != nil {
		return nil, err
	}
	streak, err := s.StreakSvc.GetState(userID)
	if err != nil {
		return nil, err
	}
	earned, err := s.BadgeRepo.ListEarned(userID, 0, 0)
	if err != nil {
		return nil, err
	}

	return &TotalStats{
		Dimension:         DimTotal,
		TotalSeconds:      totalSec,
		BooksFinished:     finished,
		CurrentStreakDays: streak.CurrentStreakDays,
		LongestStreakDays: streak.LongestStreakDays,
		BadgesEarned:      len(earned),
	}, nil
}

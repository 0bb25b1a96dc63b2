package service

import (
	"readhub_backend/internal/model"
	"readhub_backend/internal/repository"
	"readhub_backend/internal/util"
	"readhub_backend/pkg/logger"
	"readhub_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionService 会话生命周期（开始/心跳/结束）的唯一入口。
// 时长一律由服务端按心跳间隔计算并钳位，客户端上报的时长不采信。
type SessionService struct {
	SessionRepo *repository.SessionRepository
	AggRepo     *repository.AggregateRepository
	AggSvc      *AggregateService
	BadgeSvc    *BadgeService
	UserRepo    *repository.UserRepository
	DB          *gorm.DB
	params      *EngineParams
}

func NewSessionService(
	sessionRepo *repository.SessionRepository,
	aggRepo *repository.AggregateRepository,
	aggSvc *AggregateService,
	badgeSvc *BadgeService,
	userRepo *repository.UserRepository,
	db *gorm.DB,
	params *EngineParams,
) *SessionService {
	return &SessionService{
		SessionRepo: sessionRepo,
		AggRepo:     aggRepo,
		AggSvc:      aggSvc,
		BadgeSvc:    badgeSvc,
		UserRepo:    userRepo,
		DB:          db,
		params:      params,
	}
}

type StartSessionRequest struct {
	BookID   string         `json:"bookId" binding:"required"`
	BookType model.BookType `json:"bookType" binding:"required"`
	DeviceID string         `json:"deviceId" binding:"required"`
	Position string         `json:"position"`
}

type HeartbeatRequest struct {
	Position  string `json:"position"`
	PagesRead int    `json:"pagesRead"`
	// SentAt 客户端该次心跳的发出时间，仅用于识别超时重发；
	// 不晚于会话已记录心跳时间的视为重复，静默返回当前状态
	SentAt *time.Time `json:"sentAt"`
}

type HeartbeatResult struct {
	SessionID       string `json:"sessionId"`
	SessionSeconds  int64  `json:"sessionSeconds"`
	TodaySeconds    int64  `json:"todaySeconds"`
	BookSeconds     int64  `json:"bookSeconds"`
	CreditedSeconds int64  `json:"creditedSeconds"`
}

type EndSessionRequest struct {
	Position string `json:"position"`
	// Finished 客户端在读完最后一页时置位，每本书只计一次
	Finished bool `json:"finished"`
}

type EndSessionResult struct {
	SessionID    string        `json:"sessionId"`
	TotalSeconds int64         `json:"totalSeconds"`
	Milestones   []model.Badge `json:"milestones"`
}

// StartSession check-and-create 必须原子：锁定读同键 active 会话，
// 有则冲突，无则创建，避免重试竞态下建出重复会话
func (s *SessionService) StartSession(userID uint, req StartSessionRequest) (*model.ReadingSession, error) {
	if !req.BookType.Valid() {
		return nil, util.ErrInvalidBookType
	}

	now := time.Now()
	session := &model.ReadingSession{
		UserID:          userID,
		BookID:          req.BookID,
		BookType:        req.BookType,
		DeviceID:        req.DeviceID,
		StartPosition:   req.Position,
		LastPosition:    req.Position,
		StartedAt:       now,
		LastHeartbeatAt: now,
		State:           model.SessionActive,
	}

	err := repository.WithUserTx(s.DB, func(tx *gorm.DB) error {
		_, err := s.SessionRepo.FindActiveForUpdate(tx, userID, req.BookID, req.BookType, req.DeviceID)
		if err == nil {
			return util.ErrSessionConflict
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		return s.SessionRepo.Create(tx, session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Heartbeat 推进会话时长并把增量转给聚合器，整条链路一个事务。
// 重复/过期心跳不报错：客户端分不清"重发多余"和"重发失败"，也不该需要分。
func (s *SessionService) Heartbeat(userID uint, sessionID string, req HeartbeatRequest) (*HeartbeatResult, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}

	var result HeartbeatResult
	err = repository.WithUserTx(s.DB, func(tx *gorm.DB) error {
		session, err := s.loadOwnedActive(tx, userID, sessionID)
		if err != nil {
			return err
		}

		now := time.Now()

		// 重发识别：携带的时间戳没有超过已记录值 → 无变更返回当前状态
		if req.SentAt != nil && !req.SentAt.After(session.LastHeartbeatAt) {
			monitoring.HeartbeatsStale.Inc()
			return s.fillDurations(tx, user, session, 0, &result)
		}

		from := session.LastHeartbeatAt
		credited := int64(clampDelta(from, now, s.params.Get().MaxHeartbeatGap()).Seconds())

		session.LastHeartbeatAt = now
		if req.Position != "" {
			session.LastPosition = req.Position
		}
		if req.PagesRead > 0 {
			session.PagesRead += req.PagesRead
		}
		session.AccumulatedSeconds += credited
		if err := s.SessionRepo.Save(tx, session); err != nil {
			return err
		}

		if err := s.AggSvc.ApplyDelta(tx, user, session.BookID, session.BookType, from, now, credited); err != nil {
			return err
		}
		monitoring.HeartbeatsApplied.Inc()
		return s.fillDurations(tx, user, session, credited, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// EndSession 最后一笔增量 + 置为 ended，然后同事务内同步评估徽章，
// 新跨过的里程碑直接随响应返回，客户端不用轮询
func (s *SessionService) EndSession(userID uint, sessionID string, req EndSessionRequest) (*EndSessionResult, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}

	var result EndSessionResult
	err = repository.WithUserTx(s.DB, func(tx *gorm.DB) error {
		session, err := s.loadOwnedActive(tx, userID, sessionID)
		if err != nil {
			return err
		}

		now := time.Now()
		from := session.LastHeartbeatAt
		credited := int64(clampDelta(from, now, s.params.Get().MaxHeartbeatGap()).Seconds())

		session.LastHeartbeatAt = now
		if req.Position != "" {
			session.LastPosition = req.Position
		}
		session.AccumulatedSeconds += credited
		session.State = model.SessionEnded
		session.EndedAt = &now
		if err := s.SessionRepo.Save(tx, session); err != nil {
			return err
		}

		if err := s.AggSvc.ApplyDelta(tx, user, session.BookID, session.BookType, from, now, credited); err != nil {
			return err
		}

		if req.Finished {
			if err := s.AggSvc.RecordBookFinished(tx, user, session.BookID, now); err != nil {
				return err
			}
		}

		milestones, err := s.BadgeSvc.Evaluate(tx, userID, now)
		if err != nil {
			return err
		}

		result = EndSessionResult{
			SessionID:    session.ID,
			TotalSeconds: session.AccumulatedSeconds,
			Milestones:   milestones,
		}
		if result.Milestones == nil {
			result.Milestones = []model.Badge{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetActiveSession 跨设备最近心跳的 active 会话；没有时返回 nil
func (s *SessionService) GetActiveSession(userID uint) (*model.ReadingSession, error) {
	session, err := s.SessionRepo.FindLatestActiveByUser(userID)
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ReconcileAbandoned 回收清扫：超过空闲上限没有心跳的会话自动结束，
// 只补记钳位上限内的时长，空闲的大段不计入
func (s *SessionService) ReconcileAbandoned() error {
	cfg := s.params.Get()
	cutoff := time.Now().Add(-cfg.MaxIdle())

	sessions, err := s.SessionRepo.FindAbandoned(cutoff, 200)
	if err != nil {
		return err
	}

	for _, stale := range sessions {
		sessionID := stale.ID
		userID := stale.UserID

		user, err := s.UserRepo.FindByID(userID)
		if err != nil {
			logger.Log.Warn("reconcile: user lookup failed", zap.Uint("userId", userID), zap.Error(err))
			continue
		}

		err = repository.WithUserTx(s.DB, func(tx *gorm.DB) error {
			session, err := s.SessionRepo.FindForUpdate(tx, sessionID)
			if err != nil {
				return err
			}
			// 清扫与迟到的心跳/结束可能竞争，拿到锁后重新判断
			if session.State != model.SessionActive || session.LastHeartbeatAt.After(cutoff) {
				return nil
			}

			from := session.LastHeartbeatAt
			credited := int64(cfg.MaxHeartbeatGap().Seconds())
			endAt := from.Add(cfg.MaxHeartbeatGap())

			session.AccumulatedSeconds += credited
			session.State = model.SessionEnded
			session.EndedAt = &endAt
			if err := s.SessionRepo.Save(tx, session); err != nil {
				return err
			}

			if err := s.AggSvc.ApplyDelta(tx, user, session.BookID, session.BookType, from, endAt, credited); err != nil {
				return err
			}

			// 清扫也可能推过阈值，同样评估一次；里程碑没有接收方，只落库
			if _, err := s.BadgeSvc.Evaluate(tx, userID, endAt); err != nil {
				return err
			}

			monitoring.SessionsReconciled.Inc()
			logger.Log.Info("abandoned session auto-ended",
				zap.String("sessionId", sessionID),
				zap.Uint("userId", userID))
			return nil
		})
		if err != nil {
			logger.Log.Error("reconcile failed for session",
				zap.String("sessionId", sessionID), zap.Error(err))
		}
	}
	return nil
}

func (s *SessionService) loadOwnedActive(tx *gorm.DB, userID uint, sessionID string) (*model.ReadingSession, error) {
	session, err := s.SessionRepo.FindForUpdate(tx, sessionID)
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != userID || session.State != model.SessionActive {
		return nil, util.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionService) fillDurations(tx *gorm.DB, user *model.User, session *model.ReadingSession, credited int64, result *HeartbeatResult) error {
	today, err := s.AggRepo.DailySeconds(tx, user.ID, dayKey(time.Now(), user.Location()))
	if err != nil {
		return err
	}
	book, err := s.AggRepo.BookSeconds(tx, user.ID, session.BookID)
	if err != nil {
		return err
	}
	*result = HeartbeatResult{
		SessionID:       session.ID,
		SessionSeconds:  session.AccumulatedSeconds,
		TodaySeconds:    today,
		BookSeconds:     book,
		CreditedSeconds: credited,
	}
	return nil
}

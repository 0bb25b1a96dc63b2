package repository

import (
	"readhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(tx *gorm.DB, session *model.ReadingSession) error {
	return tx.Create(session).Error
}

// FindActiveForUpdate 锁定读取同 (用户, 书, 类型, 设备) 的 active 会话，
// StartSession 的 check-and-create 靠它避免重试竞态下的重复创建
func (r *SessionRepository) FindActiveForUpdate(tx *gorm.DB, userID uint, bookID string, bookType model.BookType, deviceID string) (*model.ReadingSession, error) {
	var session model.ReadingSession
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND book_id = ? AND book_type = ? AND device_id = ? AND state = ?",
			userID, bookID, bookType, deviceID, model.SessionActive).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindForUpdate 按 id 锁定读取，心跳与结束走这里串行化同一会话的变更
func (r *SessionRepository) FindForUpdate(tx *gorm.DB, sessionID string) (*model.ReadingSession, error) {
	var session model.ReadingSession
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", sessionID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Save(tx *gorm.DB, session *model.ReadingSession) error {
	return tx.Save(session).Error
}

// FindLatestActiveByUser 跨设备取最近一次心跳的 active 会话，用于"继续阅读"
func (r *SessionRepository) FindLatestActiveByUser(userID uint) (*model.ReadingSession, error) {
	var session model.ReadingSession
	err := r.DB.Where("user_id = ? AND state = ?", userID, model.SessionActive).
		Order("last_heartbeat_at DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindAbandoned 拉取一批超时未心跳的 active 会话交给回收清扫
func (r *SessionRepository) FindAbandoned(cutoff time.Time, limit int) ([]model.ReadingSession, error) {
	var sessions []model.ReadingSession
	err := r.DB.Where("state = ? AND last_heartbeat_at < ?", model.SessionActive, cutoff).
		Order("last_heartbeat_at ASC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

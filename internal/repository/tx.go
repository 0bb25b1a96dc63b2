package repository

import (
	"math/rand"
	"readhub_backend/internal/util"
	"readhub_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const txMaxAttempts = 3

// WithUserTx 单用户逻辑更新的事务助手。一次心跳或一次 EndSession 的全部
// 写入（会话、日聚合、连续天数、徽章）都在同一事务里提交。
// 存储层竞争（死锁/锁等待）做有界退避重试，其余错误直接上抛。
func WithUserTx(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		err = db.Transaction(fn)
		if err == nil || !util.IsTransient(err) {
			return err
		}
		backoff := time.Duration(attempt*50+rand.Intn(50)) * time.Millisecond
		logger.Log.Warn("transient storage contention, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		time.Sleep(backoff)
	}
	return err
}

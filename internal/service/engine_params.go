package service

import (
	"readhub_backend/internal/config"
	"readhub_backend/pkg/logger"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EngineParams 引擎可调参数的共享持有者。配置热加载时整体替换，
// 各服务读取时拿快照，不会读到半更新的状态。
type EngineParams struct {
	mu     sync.RWMutex
	cfg    config.EngineConfig
	refLoc *time.Location
}

func NewEngineParams(cfg config.EngineConfig) *EngineParams {
	p := &EngineParams{}
	p.Update(cfg)
	return p
}

func (p *EngineParams) Get() config.EngineConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// RefLocation 排行榜周界使用的固定参考时区
func (p *EngineParams) RefLocation() *time.Location {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.refLoc
}

func (p *EngineParams) Update(cfg config.EngineConfig) {
	loc, err := time.LoadLocation(cfg.LeaderboardTimezone)
	if err != nil {
		logger.Log.Error("invalid leaderboard timezone, keeping previous",
			zap.String("timezone", cfg.LeaderboardTimezone), zap.Error(err))
		loc = nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
	if loc != nil {
		p.refLoc = loc
	}
	if p.refLoc == nil {
		p.refLoc = time.UTC
	}
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyEngineDefaults(t *testing.T) {
	t.Run("EmptyGetsAllDefaults", func(t *testing.T) {
		var e EngineConfig
		applyEngineDefaults(&e)

		assert.Equal(t, 120, e.MaxHeartbeatGapSeconds)
		assert.Equal(t, 1800, e.MaxIdleSeconds)
		assert.Equal(t, 300, e.StreakMinSeconds)
		assert.Equal(t, "UTC", e.LeaderboardTimezone)
		assert.Equal(t, 100, e.LeaderboardSize)
	})

	t.Run("ExplicitValuesKept", func(t *testing.T) {
		e := EngineConfig{
			MaxHeartbeatGapSeconds: 60,
			StreakMinSeconds:       600,
			LeaderboardTimezone:    "Asia/Shanghai",
			LeaderboardSize:        50,
		}
		applyEngineDefaults(&e)

		assert.Equal(t, 60, e.MaxHeartbeatGapSeconds)
		assert.Equal(t, 600, e.StreakMinSeconds)
		assert.Equal(t, "Asia/Shanghai", e.LeaderboardTimezone)
		assert.Equal(t, 50, e.LeaderboardSize)
		// 未设置的仍补默认
		assert.Equal(t, 1800, e.MaxIdleSeconds)
	})

	t.Run("NegativeTreatedAsUnset", func(t *testing.T) {
		e := EngineConfig{MaxHeartbeatGapSeconds: -1}
		applyEngineDefaults(&e)
		assert.Equal(t, 120, e.MaxHeartbeatGapSeconds)
	})
}

func TestEngineConfigDurations(t *testing.T) {
	e := EngineConfig{
		MaxHeartbeatGapSeconds:     120,
		MaxIdleSeconds:             1800,
		LeaderboardCacheTTLSeconds: 30,
	}
	assert.Equal(t, 2*time.Minute, e.MaxHeartbeatGap())
	assert.Equal(t, 30*time.Minute, e.MaxIdle())
	assert.Equal(t, 30*time.Second, e.LeaderboardCacheTTL())
}

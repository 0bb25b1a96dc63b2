package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampDelta(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	maxGap := 120 * time.Second

	tests := []struct {
		name string
		last time.Time
		now  time.Time
		want time.Duration
	}{
		{"NormalInterval", base, base.Add(30 * time.Second), 30 * time.Second},
		{"ExactlyMax", base, base.Add(120 * time.Second), 120 * time.Second},
		{"OverMaxClamped", base, base.Add(10 * time.Minute), 120 * time.Second},
		{"ClockWentBackwards", base, base.Add(-5 * time.Second), 0},
		{"ZeroInterval", base, base, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampDelta(tt.last, tt.now, maxGap))
		})
	}
}

func TestSplitByDay_SameDay(t *testing.T) {
	from := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	to := from.Add(90 * time.Second)

	parts := splitByDay(from, to, 90, time.UTC)
	require.Len(t, parts, 1)
	assert.Equal(t, "2025-06-01", parts[0].Key)
	assert.Equal(t, int64(90), parts[0].Seconds)
}

func TestSplitByDay_AcrossMidnight(t *testing.T) {
	// 23:59:00 → 00:01:00，前一天占 60/120，后一天占 60/120
	from := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)
	to := time.Date(2025, 6, 2, 0, 1, 0, 0, time.UTC)

	parts := splitByDay(from, to, 120, time.UTC)
	require.Len(t, parts, 2)
	assert.Equal(t, "2025-06-01", parts[0].Key)
	assert.Equal(t, int64(60), parts[0].Seconds)
	assert.Equal(t, "2025-06-02", parts[1].Key)
	assert.Equal(t, int64(60), parts[1].Seconds)
}

func TestSplitByDay_ClampedCreditProportional(t *testing.T) {
	// 区间 10 分钟但只记入 120 秒（被钳位），比例仍按墙钟：
	// 前段 1 分钟 / 后段 9 分钟 → 12 秒 / 108 秒
	from := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)
	to := time.Date(2025, 6, 2, 0, 9, 0, 0, time.UTC)

	parts := splitByDay(from, to, 120, time.UTC)
	require.Len(t, parts, 2)
	assert.Equal(t, int64(12), parts[0].Seconds)
	assert.Equal(t, int64(108), parts[1].Seconds)
}

func TestSplitByDay_SumAlwaysEqualsCredited(t *testing.T) {
	// 余数归末段后份额之和必须恰等于记入值
	from := time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC)
	to := time.Date(2025, 6, 2, 0, 0, 2, 0, time.UTC)

	for credited := int64(1); credited <= 10; credited++ {
		parts := splitByDay(from, to, credited, time.UTC)
		var sum int64
		for _, p := range parts {
			sum += p.Seconds
		}
		assert.Equal(t, credited, sum, "credited=%d", credited)
	}
}

func TestSplitByDay_ZeroCredit(t *testing.T) {
	from := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	assert.Nil(t, splitByDay(from, from.Add(time.Minute), 0, time.UTC))
}

func TestSplitByDay_TimezoneMidnight(t *testing.T) {
	// UTC 16:00 在东八区是次日 00:00，归属按用户时区判定
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	from := time.Date(2025, 6, 1, 15, 59, 0, 0, time.UTC)
	to := time.Date(2025, 6, 1, 16, 1, 0, 0, time.UTC)

	parts := splitByDay(from, to, 120, loc)
	require.Len(t, parts, 2)
	assert.Equal(t, "2025-06-01", parts[0].Key)
	assert.Equal(t, "2025-06-02", parts[1].Key)
}

func TestStartOfWeek_ISOMonday(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"Monday", time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC), "2025-06-02"},
		{"Wednesday", time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC), "2025-06-02"},
		{"Sunday", time.Date(2025, 6, 8, 23, 59, 59, 0, time.UTC), "2025-06-02"},
		{"NextMondayMidnight", time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), "2025-06-09"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, weekStartKey(tt.in, time.UTC))
		})
	}
}

func TestSplitByWeek_AcrossBoundary(t *testing.T) {
	// 周日 23:59 → 周一 00:01，两周各得一半
	from := time.Date(2025, 6, 8, 23, 59, 0, 0, time.UTC)
	to := time.Date(2025, 6, 9, 0, 1, 0, 0, time.UTC)

	parts := splitByWeek(from, to, 120, time.UTC)
	require.Len(t, parts, 2)
	assert.Equal(t, "2025-06-02", parts[0].Key)
	assert.Equal(t, int64(60), parts[0].Seconds)
	assert.Equal(t, "2025-06-09", parts[1].Key)
	assert.Equal(t, int64(60), parts[1].Seconds)
}

func TestSplitByWeek_EndExactlyAtBoundary(t *testing.T) {
	// 恰好在周一 00:00 结束的增量全部归旧周
	from := time.Date(2025, 6, 8, 23, 58, 0, 0, time.UTC)
	to := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	parts := splitByWeek(from, to, 120, time.UTC)
	require.Len(t, parts, 1)
	assert.Equal(t, "2025-06-02", parts[0].Key)
	assert.Equal(t, int64(120), parts[0].Seconds)
}

func TestAddDaysKey(t *testing.T) {
	assert.Equal(t, "2025-06-02", addDaysKey("2025-06-01", 1))
	assert.Equal(t, "2025-05-31", addDaysKey("2025-06-01", -1))
	assert.Equal(t, "2026-01-01", addDaysKey("2025-12-31", 1))
	assert.Equal(t, "bad-key", addDaysKey("bad-key", 1))
}

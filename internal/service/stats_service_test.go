package service

import (
	"readhub_backend/internal/model"
	"readhub_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDimension(t *testing.T) {
	for _, valid := range []string{"week", "month", "year", "total", "calendar"} {
		t.Run(valid, func(t *testing.T) {
			dim, err := ParseDimension(valid)
			assert.NoError(t, err)
			assert.Equal(t, Dimension(valid), dim)
		})
	}

	for _, invalid := range []string{"", "day", "WEEK", "weekly"} {
		t.Run("invalid_"+invalid, func(t *testing.T) {
			_, err := ParseDimension(invalid)
			assert.ErrorIs(t, err, util.ErrInvalidDimension)
		})
	}
}

func TestWeekWindowStart(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2025, 6, 4, 12, 0, 0, 0, ny)

	t.Run("MondayAnchorWestOfUTC", func(t *testing.T) {
		// 锚点按用户时区解释：UTC 解析会让纽约用户的周一
		// 零点落到本地周日，整窗错到上一周
		from, err := weekWindowStart("2025-06-02", now, ny)
		require.NoError(t, err)
		assert.Equal(t, "2025-06-02", from)
	})

	t.Run("SundayAnchorSameWeek", func(t *testing.T) {
		from, err := weekWindowStart("2025-06-08", now, ny)
		require.NoError(t, err)
		assert.Equal(t, "2025-06-02", from)
	})

	t.Run("EmptyAnchorUsesNow", func(t *testing.T) {
		from, err := weekWindowStart("", now, ny)
		require.NoError(t, err)
		assert.Equal(t, "2025-06-02", from)
	})

	t.Run("EastOfUTCUnchanged", func(t *testing.T) {
		sh, err := time.LoadLocation("Asia/Shanghai")
		require.NoError(t, err)
		from, err := weekWindowStart("2025-06-02", now, sh)
		require.NoError(t, err)
		assert.Equal(t, "2025-06-02", from)
	})

	t.Run("BadAnchorRejected", func(t *testing.T) {
		_, err := weekWindowStart("06/02/2025", now, ny)
		assert.ErrorIs(t, err, util.ErrInvalidDimension)
	})
}

func TestFoldWindow(t *testing.T) {
	rows := []model.DailyAggregate{
		{StatDate: "2025-06-02", TotalSeconds: 600, FinishedCount: 1},
		{StatDate: "2025-06-04", TotalSeconds: 120},
	}
	touched := map[string]int{"2025-06-02": 2, "2025-06-04": 1}

	out := foldWindow(DimWeek, "2025-06-02", "2025-06-08", rows, touched, 300)

	require.Len(t, out.Days, 7)
	assert.Equal(t, "2025-06-02", out.From)
	assert.Equal(t, "2025-06-08", out.To)
	assert.Equal(t, int64(720), out.TotalSeconds)

	// 有数据的天
	assert.Equal(t, int64(600), out.Days[0].Seconds)
	assert.Equal(t, 2, out.Days[0].BooksTouched)
	assert.Equal(t, 1, out.Days[0].FinishedCount)
	assert.True(t, out.Days[0].Qualifying)

	// 未达标的天
	assert.Equal(t, int64(120), out.Days[2].Seconds)
	assert.False(t, out.Days[2].Qualifying)

	// 缺数据的天补零行，日期连续
	assert.Equal(t, "2025-06-03", out.Days[1].Date)
	assert.Equal(t, int64(0), out.Days[1].Seconds)
	assert.False(t, out.Days[1].Qualifying)
	for i, d := range out.Days {
		assert.Equal(t, addDaysKey("2025-06-02", i), d.Date)
	}
}

func TestFoldWindow_EmptyRows(t *testing.T) {
	out := foldWindow(DimMonth, "2025-06-01", "2025-06-30", nil, nil, 300)
	require.Len(t, out.Days, 30)
	assert.Equal(t, int64(0), out.TotalSeconds)
	for _, d := range out.Days {
		assert.Equal(t, int64(0), d.Seconds)
		assert.False(t, d.Qualifying)
	}
}

func TestFoldYear(t *testing.T) {
	rows := []model.DailyAggregate{
		{StatDate: "2025-01-15", TotalSeconds: 100},
		{StatDate: "2025-01-20", TotalSeconds: 200},
		{StatDate: "2025-06-02", TotalSeconds: 300},
		{StatDate: "2025-12-31", TotalSeconds: 50},
	}

	out := foldYear(2025, rows)

	require.Len(t, out.Months, 12)
	assert.Equal(t, 2025, out.Year)
	assert.Equal(t, int64(650), out.TotalSeconds)
	assert.Equal(t, int64(300), out.Months[0].Seconds)
	assert.Equal(t, int64(300), out.Months[5].Seconds)
	assert.Equal(t, int64(50), out.Months[11].Seconds)
	assert.Equal(t, int64(0), out.Months[2].Seconds)
	for i, m := range out.Months {
		assert.Equal(t, i+1, m.Month)
	}
}

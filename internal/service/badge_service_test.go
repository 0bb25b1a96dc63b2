package service

import (
	"readhub_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func badge(id uint, category model.BadgeMetric, level int, threshold int64) model.Badge {
	b := model.Badge{Category: category, Level: level, Threshold: threshold}
	b.ID = id
	return b
}

func TestBuildCatalog(t *testing.T) {
	t.Run("GroupsAndSortsByLevel", func(t *testing.T) {
		catalog, err := buildCatalog([]model.Badge{
			badge(2, model.MetricStreakDays, 2, 7),
			badge(1, model.MetricStreakDays, 1, 3),
			badge(3, model.MetricBooksFinished, 1, 1),
		})
		require.NoError(t, err)
		require.Len(t, catalog[model.MetricStreakDays], 2)
		assert.Equal(t, 1, catalog[model.MetricStreakDays][0].Level)
		assert.Equal(t, 2, catalog[model.MetricStreakDays][1].Level)
		assert.Len(t, catalog[model.MetricBooksFinished], 1)
	})

	t.Run("RejectsNonIncreasingThresholds", func(t *testing.T) {
		_, err := buildCatalog([]model.Badge{
			badge(1, model.MetricStreakDays, 1, 7),
			badge(2, model.MetricStreakDays, 2, 7),
		})
		assert.Error(t, err)
	})

	t.Run("RejectsDecreasingThresholds", func(t *testing.T) {
		_, err := buildCatalog([]model.Badge{
			badge(1, model.MetricTotalDuration, 1, 100),
			badge(2, model.MetricTotalDuration, 2, 50),
		})
		assert.Error(t, err)
	})
}

func TestEligibleLevels(t *testing.T) {
	levels := []model.Badge{
		badge(1, model.MetricStreakDays, 1, 3),
		badge(2, model.MetricStreakDays, 2, 7),
		badge(3, model.MetricStreakDays, 3, 30),
	}

	tests := []struct {
		name    string
		earned  map[uint]bool
		value   int64
		wantIDs []uint
	}{
		{"BelowFirstThreshold", nil, 2, nil},
		{"ExactlyFirstThreshold", nil, 3, []uint{1}},
		{"CrossesTwoAtOnce", nil, 10, []uint{1, 2}},
		{"SkipsAlreadyEarned", map[uint]bool{1: true}, 10, []uint{2}},
		{"AllEarnedNothingNew", map[uint]bool{1: true, 2: true, 3: true}, 100, nil},
		{"ShortCircuitsAtUnmetLevel", map[uint]bool{1: true}, 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eligibleLevels(levels, tt.earned, tt.value)
			var ids []uint
			for _, b := range got {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestMetricValues(t *testing.T) {
	m := metricValues{
		TotalSeconds:  3600,
		CurrentStreak: 2,
		LongestStreak: 9,
		BooksFinished: 4,
	}
	// 连续天数类徽章按历史最长判定，断签不收回已获徽章
	assert.Equal(t, int64(9), m.value(model.MetricStreakDays))
	assert.Equal(t, int64(3600), m.value(model.MetricTotalDuration))
	assert.Equal(t, int64(4), m.value(model.MetricBooksFinished))
	assert.Equal(t, int64(0), m.value(model.BadgeMetric("unknown")))
}

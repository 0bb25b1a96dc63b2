package service

import (
	"readhub_backend/internal/model"
	"readhub_backend/internal/repository"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankRows(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("OrdersBySecondsDesc", func(t *testing.T) {
		ranked := rankRows([]repository.WeeklyRow{
			{UserID: 1, Seconds: 100, UserCreatedAt: early},
			{UserID: 2, Seconds: 300, UserCreatedAt: early},
			{UserID: 3, Seconds: 200, UserCreatedAt: early},
		})
		require.Len(t, ranked, 3)
		assert.Equal(t, uint(2), ranked[0].UserID)
		assert.Equal(t, uint(3), ranked[1].UserID)
		assert.Equal(t, uint(1), ranked[2].UserID)
		for i, r := range ranked {
			assert.Equal(t, i+1, r.Rank)
		}
	})

	t.Run("TieBreakByEarlierRegistration", func(t *testing.T) {
		ranked := rankRows([]repository.WeeklyRow{
			{UserID: 1, Seconds: 100, UserCreatedAt: late},
			{UserID: 2, Seconds: 100, UserCreatedAt: early},
		})
		assert.Equal(t, uint(2), ranked[0].UserID)
		assert.Equal(t, uint(1), ranked[1].UserID)
	})

	t.Run("FinalTieBreakByUserID", func(t *testing.T) {
		ranked := rankRows([]repository.WeeklyRow{
			{UserID: 9, Seconds: 100, UserCreatedAt: early},
			{UserID: 4, Seconds: 100, UserCreatedAt: early},
		})
		assert.Equal(t, uint(4), ranked[0].UserID)
		assert.Equal(t, uint(9), ranked[1].UserID)
	})

	t.Run("DeterministicAcrossRepeats", func(t *testing.T) {
		rows := []repository.WeeklyRow{
			{UserID: 5, Seconds: 100, UserCreatedAt: early},
			{UserID: 3, Seconds: 100, UserCreatedAt: early},
			{UserID: 8, Seconds: 250, UserCreatedAt: late},
			{UserID: 1, Seconds: 100, UserCreatedAt: late},
		}
		first := rankRows(rows)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, rankRows(rows))
		}
	})

	t.Run("InputNotMutated", func(t *testing.T) {
		rows := []repository.WeeklyRow{
			{UserID: 1, Seconds: 100, UserCreatedAt: early},
			{UserID: 2, Seconds: 300, UserCreatedAt: early},
		}
		rankRows(rows)
		assert.Equal(t, uint(1), rows[0].UserID)
	})
}

func TestPreviousRankFor(t *testing.T) {
	frozen := 2
	prevRanks := map[uint]int{7: 5}

	t.Run("SettledUsesFrozenSnapshotValue", func(t *testing.T) {
		// 已结算窗口不回查名次表，快照里存的值就是事实
		got := previousRankFor(true, rankedRow{UserID: 7, PreviousRank: &frozen}, nil)
		require.NotNil(t, got)
		assert.Equal(t, 2, *got)
	})

	t.Run("SettledNilStaysNil", func(t *testing.T) {
		assert.Nil(t, previousRankFor(true, rankedRow{UserID: 7}, prevRanks))
	})

	t.Run("LiveLooksUpPriorWeek", func(t *testing.T) {
		got := previousRankFor(false, rankedRow{UserID: 7}, prevRanks)
		require.NotNil(t, got)
		assert.Equal(t, 5, *got)
	})

	t.Run("LiveNewEntrantNil", func(t *testing.T) {
		assert.Nil(t, previousRankFor(false, rankedRow{UserID: 8}, prevRanks))
	})
}

func TestFromSnapshots(t *testing.T) {
	prev := 3
	rows := fromSnapshots([]model.LeaderboardSnapshot{
		{WeekStart: "2025-06-02", UserID: 7, DurationSeconds: 900, Rank: 1, PreviousRank: &prev},
		{WeekStart: "2025-06-02", UserID: 8, DurationSeconds: 600, Rank: 2},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, uint(7), rows[0].UserID)
	assert.Equal(t, int64(900), rows[0].Seconds)
	require.NotNil(t, rows[0].PreviousRank)
	assert.Equal(t, 3, *rows[0].PreviousRank)
	assert.Nil(t, rows[1].PreviousRank)
}

package service

import (
	"readhub_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvanceStreak(t *testing.T) {
	tests := []struct {
		name        string
		state       model.StreakState
		date        string
		wantCurrent int
		wantLongest int
		wantLast    string
	}{
		{
			name:        "FirstEverQualifyingDay",
			state:       model.StreakState{},
			date:        "2025-06-01",
			wantCurrent: 1, wantLongest: 1, wantLast: "2025-06-01",
		},
		{
			name:        "ConsecutiveDay",
			state:       model.StreakState{CurrentStreakDays: 3, LongestStreakDays: 5, LastQualifyingDate: "2025-06-01"},
			date:        "2025-06-02",
			wantCurrent: 4, wantLongest: 5, wantLast: "2025-06-02",
		},
		{
			name:        "SameDayIdempotent",
			state:       model.StreakState{CurrentStreakDays: 3, LongestStreakDays: 5, LastQualifyingDate: "2025-06-01"},
			date:        "2025-06-01",
			wantCurrent: 3, wantLongest: 5, wantLast: "2025-06-01",
		},
		{
			name:        "GapResetsToOne",
			state:       model.StreakState{CurrentStreakDays: 7, LongestStreakDays: 7, LastQualifyingDate: "2025-06-01"},
			date:        "2025-06-05",
			wantCurrent: 1, wantLongest: 7, wantLast: "2025-06-05",
		},
		{
			name:        "NewLongestRecord",
			state:       model.StreakState{CurrentStreakDays: 5, LongestStreakDays: 5, LastQualifyingDate: "2025-06-01"},
			date:        "2025-06-02",
			wantCurrent: 6, wantLongest: 6, wantLast: "2025-06-02",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := tt.state
			advanceStreak(&state, tt.date)
			assert.Equal(t, tt.wantCurrent, state.CurrentStreakDays)
			assert.Equal(t, tt.wantLongest, state.LongestStreakDays)
			assert.Equal(t, tt.wantLast, state.LastQualifyingDate)
		})
	}
}

func TestRecomputeStreak(t *testing.T) {
	tests := []struct {
		name        string
		dates       []string
		wantCurrent int
		wantLongest int
		wantLast    string
	}{
		{"Empty", nil, 0, 0, ""},
		{"SingleDay", []string{"2025-06-01"}, 1, 1, "2025-06-01"},
		{
			"UnbrokenRun",
			[]string{"2025-06-01", "2025-06-02", "2025-06-03"},
			3, 3, "2025-06-03",
		},
		{
			"GapSplitsRuns",
			[]string{"2025-06-01", "2025-06-02", "2025-06-05"},
			1, 2, "2025-06-05",
		},
		{
			"LongestInMiddle",
			[]string{"2025-06-01", "2025-06-02", "2025-06-03", "2025-06-07", "2025-06-08"},
			2, 3, "2025-06-08",
		},
		{
			"AcrossMonthBoundary",
			[]string{"2025-05-31", "2025-06-01"},
			2, 2, "2025-06-01",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, longest, last := recomputeStreak(tt.dates)
			assert.Equal(t, tt.wantCurrent, current)
			assert.Equal(t, tt.wantLongest, longest)
			assert.Equal(t, tt.wantLast, last)
		})
	}
}

// 回填把断档接起来：6/1、6/3 已达标时补上 6/2，三天连成一串
func TestRecomputeStreak_BackfillBridgesGap(t *testing.T) {
	before, _, _ := recomputeStreak([]string{"2025-06-01", "2025-06-03"})
	assert.Equal(t, 1, before)

	current, longest, last := recomputeStreak([]string{"2025-06-01", "2025-06-02", "2025-06-03"})
	assert.Equal(t, 3, current)
	assert.Equal(t, 3, longest)
	assert.Equal(t, "2025-06-03", last)
}

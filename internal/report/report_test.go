package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"myfocus/internal/model"
)

func TestComputeTodayStats(t *testing.T) {
	day := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	at := func(hour int) time.Time {
		return time.Date(2026, 8, 30, hour, 0, 0, 0, time.UTC)
	}

	results := []model.MonitoringResult{
		{Timestamp: at(9), FocusState: model.StateFocused, Confidence: 0.90},
		{Timestamp: at(10), FocusState: model.StateFocused, Confidence: 0.70},
		{Timestamp: at(11), FocusState: model.StateDistracted, Confidence: 0.75},
		{Timestamp: at(12), FocusState: model.StateSeverelyDistracted, Confidence: 0.85},
		{Timestamp: at(13), FocusState: model.StateUnknown, Confidence: 0.5},
		// yesterday, must be ignored
		{Timestamp: at(9).AddDate(0, 0, -1), FocusState: model.StateFocused, Confidence: 0.90},
	}

	stats := ComputeTodayStats(results, day, 3)
	assert.Equal(t, 5, stats.TotalChecks)
	assert.Equal(t, 360, stats.TotalFocusSeconds)
	assert.Equal(t, 360, stats.TotalDistractSeconds)
	assert.Equal(t, 50, stats.FocusScore)
	assert.Equal(t, 2, stats.InterruptionCount)
}

func TestComputeTodayStatsEmpty(t *testing.T) {
	stats := ComputeTodayStats(nil, time.Now(), 3)
	assert.Zero(t, stats.FocusScore)
	assert.Zero(t, stats.TotalChecks)
}

func TestComputeTodayStatsOnlyUnknown(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	results := []model.MonitoringResult{
		{Timestamp: day.Add(time.Hour), FocusState: model.StateUnknown, Confidence: 0.5},
	}
	stats := ComputeTodayStats(results, day, 3)
	assert.Equal(t, 1, stats.TotalChecks)
	assert.Zero(t, stats.FocusScore)
	assert.Zero(t, stats.TotalFocusSeconds)
}

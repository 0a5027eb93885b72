// Package report rolls monitoring history up into daily statistics.
package report

import (
	"time"

	"myfocus/internal/model"
)

// TodayStats summarizes one day of monitoring. Each result is assumed
// to represent one monitoring interval of wall time; Unknown samples
// are excluded from the totals.
type TodayStats struct {
	TotalFocusSeconds    int `json:"total_focus_time"`
	TotalDistractSeconds int `json:"total_distract_time"`
	FocusScore           int `json:"focus_score"` // 0-100
	InterruptionCount    int `json:"interruption_count"`
	TotalChecks          int `json:"total_checks"`
}

// sameDay compares calendar days in UTC.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// ComputeTodayStats aggregates the results that fall on day, crediting
// each sample with intervalMinutes of time.
func ComputeTodayStats(results []model.MonitoringResult, day time.Time, intervalMinutes int) TodayStats {
	intervalSeconds := intervalMinutes * 60

	var stats TodayStats
	var focus, distract, severe int
	for _, r := range results {
		if !sameDay(r.Timestamp, day) {
			continue
		}
		stats.TotalChecks++
		switch r.FocusState {
		case model.StateFocused:
			focus += intervalSeconds
		case model.StateDistracted:
			distract += intervalSeconds
			stats.InterruptionCount++
		case model.StateSeverelyDistracted:
			severe += intervalSeconds
			stats.InterruptionCount++
		}
		// Unknown carries no time
	}

	stats.TotalFocusSeconds = focus
	stats.TotalDistractSeconds = distract + severe
	if total := focus + distract + severe; total > 0 {
		stats.FocusScore = focus * 100 / total
	}
	return stats
}

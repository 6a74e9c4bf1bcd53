// Package progress derives learning statistics: streaks, study history, badges,
// the pet companion and notebook analysis.
package progress

import (
	"math"

	"github.com/example/lexigo/pkg/models"
)

// CheckIn marks today as a study day and returns the updated stats.
// Studying twice on one day keeps the streak, a missed day restarts it.
func CheckIn(stats models.AppStats, today models.Date) models.AppStats {
	switch {
	case stats.LastStudyDate.Equal(today):
		return stats
	case !stats.LastStudyDate.IsZero() && stats.LastStudyDate.AddDays(1).Equal(today):
		stats.Streak++
	default:
		stats.Streak = 1
	}
	stats.LastStudyDate = today
	return stats
}

// Accuracy returns the share of known answers in percent; an empty session scores 100
func Accuracy(known, count int) int {
	if count <= 0 {
		return 100
	}
	return int(math.Round(100 * float64(known) / float64(count)))
}

// RecordSession adds a finished session to the history of today.
// Sessions on the same day are merged and their accuracy weighted by word count.
func RecordSession(stats models.AppStats, today models.Date, count, known int) models.AppStats {
	if count <= 0 {
		return stats
	}

	history := make([]models.HistoryEntry, len(stats.History), len(stats.History)+1)
	copy(history, stats.History)

	for i := range history {
		if !history[i].Date.Equal(today) {
			continue
		}
		prevKnown := float64(history[i].Accuracy) * float64(history[i].Count) / 100
		total := history[i].Count + count
		history[i].Accuracy = int(math.Round(100 * (prevKnown + float64(known)) / float64(total)))
		history[i].Count = total
		stats.History = history
		return stats
	}

	stats.History = append(history, models.HistoryEntry{
		Date:     today,
		Count:    count,
		Accuracy: Accuracy(known, count),
	})
	return stats
}

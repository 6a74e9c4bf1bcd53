package models

// DefaultDailyGoal is the lesson size used until the user changes it
const DefaultDailyGoal = 10

// HistoryEntry summarizes one day of study
type HistoryEntry struct {
	Date     Date `json:"date"`
	Count    int  `json:"count"`
	Accuracy int  `json:"accuracy"` // percent of words answered "known"
}

// AppStats tracks aggregate learning progress
type AppStats struct {
	Streak             int            `json:"streak"`
	LastStudyDate      Date           `json:"lastStudyDate"`
	TotalWords         int            `json:"totalWords"`
	ArenaHighScore     int            `json:"arenaHighScore"`
	UnlockedBadges     []string       `json:"unlockedBadges"`
	History            []HistoryEntry `json:"history"`
	DailyGoal          int            `json:"dailyGoal"`
	TotalLikesReceived int            `json:"totalLikesReceived"`
}

// DefaultStats returns the statistics of a new user
func DefaultStats() AppStats {
	return AppStats{
		UnlockedBadges: []string{},
		History:        []HistoryEntry{},
		DailyGoal:      DefaultDailyGoal,
	}
}

// HasBadge reports whether the badge is already unlocked
func (s AppStats) HasBadge(id string) bool {
	for _, b := range s.UnlockedBadges {
		if b == id {
			return true
		}
	}
	return false
}

package progress

import "github.com/example/lexigo/pkg/models"

// Badge is an achievement unlocked by reaching a threshold
type Badge struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`

	earned func(models.AppStats) bool
}

// Badges lists every achievement in display order
var Badges = []Badge{
	{ID: "first-lesson", Label: "First Lesson", Icon: "🌱", earned: func(s models.AppStats) bool { return len(s.History) > 0 || s.TotalWords > 0 }},
	{ID: "words-100", Label: "100 Words", Icon: "📘", earned: func(s models.AppStats) bool { return s.TotalWords >= 100 }},
	{ID: "words-500", Label: "500 Words", Icon: "📚", earned: func(s models.AppStats) bool { return s.TotalWords >= 500 }},
	{ID: "streak-7", Label: "7 Day Streak", Icon: "🔥", earned: func(s models.AppStats) bool { return s.Streak >= 7 }},
	{ID: "streak-30", Label: "30 Day Streak", Icon: "🏆", earned: func(s models.AppStats) bool { return s.Streak >= 30 }},
	{ID: "arena-1000", Label: "Arena Champion", Icon: "⚔️", earned: func(s models.AppStats) bool { return s.ArenaHighScore >= 1000 }},
}

// LookupBadge finds a badge by id
func LookupBadge(id string) (Badge, bool) {
	for _, b := range Badges {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// Unlock adds every newly earned badge to the stats and returns their ids
func Unlock(stats *models.AppStats) []string {
	var unlocked []string
	for _, b := range Badges {
		if stats.HasBadge(b.ID) || !b.earned(*stats) {
			continue
		}
		stats.UnlockedBadges = append(stats.UnlockedBadges, b.ID)
		unlocked = append(unlocked, b.ID)
	}
	return unlocked
}

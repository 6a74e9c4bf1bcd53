package spaced_repetition

import (
	"github.com/example/lexigo/pkg/models"
)

// DefaultIntervals are the days until the next review, indexed by tier
var DefaultIntervals = []int{0, 1, 2, 4, 7, 15, 30}

// Scheduler implements the tiered spaced repetition rule.
// It holds configuration only and is safe for concurrent use.
type Scheduler struct {
	// Days until next review per tier; the last index is the highest tier
	Intervals []int
	// Tier from which a word counts as mastered
	MasteryLevel int
	// Days until a failed word comes back
	RetryInterval int
}

// New creates a scheduler with the default interval table
func New() *Scheduler {
	return &Scheduler{
		Intervals:     DefaultIntervals,
		MasteryLevel:  5,
		RetryInterval: 1,
	}
}

// MaxLevel returns the highest tier
func (s *Scheduler) MaxLevel() int {
	return len(s.Intervals) - 1
}

// ClampLevel brings a tier into the table's bounds
func (s *Scheduler) ClampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if top := s.MaxLevel(); level > top {
		return top
	}
	return level
}

// IntervalFor returns the review interval in days of a tier
func (s *Scheduler) IntervalFor(level int) int {
	return s.Intervals[s.ClampLevel(level)]
}

// IsMastered reports whether a tier counts as mastered
func (s *Scheduler) IsMastered(level int) bool {
	return level >= s.MasteryLevel
}

// RecordJudgment applies a pass/fail judgment made on today and returns the new record.
// A zero record is treated as a fresh word at tier 0. Out-of-range input is clamped.
func (s *Scheduler) RecordJudgment(record models.WordRecord, passed bool, today models.Date) models.WordRecord {
	updated := record
	if updated.ErrorCount < 0 {
		updated.ErrorCount = 0
	}

	if passed {
		level := s.ClampLevel(s.ClampLevel(record.SRSLevel) + 1)
		updated.SRSLevel = level
		updated.NextReviewDate = today.AddDays(s.Intervals[level])
	} else {
		// failure resets all progress, not a single step
		updated.SRSLevel = 0
		updated.NextReviewDate = today.AddDays(s.RetryInterval)
		updated.ErrorCount++
	}

	updated.Mastered = s.IsMastered(updated.SRSLevel)
	updated.LastLearned = today
	return updated
}

// IsDue reports whether a record should be reviewed on today
func (s *Scheduler) IsDue(record models.WordRecord, today models.Date) bool {
	return !record.Mastered && !record.NextReviewDate.After(today)
}

// SelectDue returns up to limit unmastered records whose review date has arrived, in notebook order
func (s *Scheduler) SelectDue(notebook []models.WordRecord, today models.Date, limit int) []models.WordRecord {
	due := make([]models.WordRecord, 0)
	if limit <= 0 {
		return due
	}

	for _, record := range notebook {
		if !s.IsDue(record, today) {
			continue
		}
		due = append(due, record)
		if len(due) == limit {
			break
		}
	}

	return due
}

// CountDue returns how many records are due on today
func (s *Scheduler) CountDue(notebook []models.WordRecord, today models.Date) int {
	count := 0
	for _, record := range notebook {
		if s.IsDue(record, today) {
			count++
		}
	}
	return count
}

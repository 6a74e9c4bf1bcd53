package progress

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/example/lexigo/internal/spaced_repetition"
	"github.com/example/lexigo/pkg/models"
)

// ErrUnknownFilter is returned by ParseFilter for names other than all, learning and mastered
var ErrUnknownFilter = errors.New("unknown notebook filter")

// NotebookReport summarizes the notebook
type NotebookReport struct {
	Total        int   `json:"total"`
	Mastered     int   `json:"mastered"`
	Learning     int   `json:"learning"`
	Accuracy     int   `json:"accuracy"`
	Distribution []int `json:"distribution"` // words per tier
	DueToday     int   `json:"dueToday"`
}

func isMastered(srs *spaced_repetition.Scheduler, r models.WordRecord) bool {
	return r.Mastered || srs.IsMastered(r.SRSLevel)
}

// Analyze computes the notebook report as of today
func Analyze(srs *spaced_repetition.Scheduler, notebook []models.WordRecord, today models.Date) NotebookReport {
	report := NotebookReport{
		Total:        len(notebook),
		Distribution: make([]int, srs.MaxLevel()+1),
		DueToday:     srs.CountDue(notebook, today),
	}

	failures := 0
	for _, r := range notebook {
		if isMastered(srs, r) {
			report.Mastered++
		}
		report.Distribution[srs.ClampLevel(r.SRSLevel)]++
		if r.ErrorCount > 0 {
			failures += r.ErrorCount
		}
	}
	report.Learning = report.Total - report.Mastered

	report.Accuracy = 100
	if report.Total > 0 {
		report.Accuracy = int(math.Round(100 * float64(report.Total) / float64(report.Total+failures)))
	}
	return report
}

// FilterMode selects notebook entries by learning state
type FilterMode string

const (
	FilterAll      FilterMode = "all"
	FilterLearning FilterMode = "learning"
	FilterMastered FilterMode = "mastered"
)

// ParseFilter validates a filter name; empty means all
func ParseFilter(s string) (FilterMode, error) {
	switch mode := FilterMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return FilterAll, nil
	case FilterAll, FilterLearning, FilterMastered:
		return mode, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFilter, s)
	}
}

// Filter returns the entries matching query and mode, most recently learned first.
// The query matches the word case-insensitively or the translation as a substring.
func Filter(srs *spaced_repetition.Scheduler, notebook []models.WordRecord, query string, mode FilterMode) []models.WordRecord {
	query = strings.TrimSpace(query)
	lowered := strings.ToLower(query)

	out := make([]models.WordRecord, 0, len(notebook))
	for _, r := range notebook {
		if query != "" && !strings.Contains(strings.ToLower(r.Word.Word), lowered) && !strings.Contains(r.Translation, query) {
			continue
		}
		switch mode {
		case FilterMastered:
			if !isMastered(srs, r) {
				continue
			}
		case FilterLearning:
			if isMastered(srs, r) {
				continue
			}
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastLearned.After(out[j].LastLearned)
	})
	return out
}

// Package lesson composes daily lessons and runs study sessions over them.
package lesson

import (
	"math"

	"github.com/example/lexigo/pkg/models"
)

const (
	// ReviewQueueLimit caps how many due words are offered to a lesson
	ReviewQueueLimit = 5
	// ReviewRatio is the largest share of a lesson given to review words
	ReviewRatio = 0.4
)

// Config configures lesson composition
type Config struct {
	ReviewLimit      int     `koanf:"review_limit"`
	ReviewRatio      float64 `koanf:"review_ratio"`
	FetchImages      bool    `koanf:"fetch_images"`
	ImageConcurrency int     `koanf:"image_concurrency"`
}

// DefaultConfig returns the standard 40/60 blend without image fetching
func DefaultConfig() Config {
	return Config{
		ReviewLimit:      ReviewQueueLimit,
		ReviewRatio:      ReviewRatio,
		ImageConcurrency: 4,
	}
}

// Blend splits a lesson of count words into review and new words
// using the default ratio
func Blend(count, dueCount int) (review, fresh int) {
	return BlendRatio(count, dueCount, ReviewRatio)
}

// BlendRatio splits a lesson of count words, giving at most floor(count*ratio)
// slots to the dueCount available review words
func BlendRatio(count, dueCount int, ratio float64) (review, fresh int) {
	if count < 0 {
		count = 0
	}
	if dueCount < 0 {
		dueCount = 0
	}
	review = int(math.Floor(float64(count) * ratio))
	if dueCount < review {
		review = dueCount
	}
	return review, count - review
}

// Merge turns generated words into notebook records for today.
// Words already in the notebook keep their review state and take the new content;
// unknown words become fresh records. Review words the generator left out are
// appended from their stored records. Every returned record is marked learned today.
func Merge(generated []models.Word, notebook, review []models.WordRecord, today models.Date) []models.WordRecord {
	existing := make(map[string]models.WordRecord, len(notebook)+len(review))
	for _, r := range notebook {
		existing[r.Key()] = r
	}
	for _, r := range review {
		if _, ok := existing[r.Key()]; !ok {
			existing[r.Key()] = r
		}
	}

	seen := make(map[string]bool, len(generated)+len(review))
	words := make([]models.WordRecord, 0, len(generated)+len(review))

	for _, w := range generated {
		key := models.NormalizeWord(w.Word)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		record, ok := existing[key]
		if !ok {
			record = models.NewWordRecord(w, today)
		} else {
			imageURL := record.ImageURL
			record.Word = w
			if record.ImageURL == "" {
				record.ImageURL = imageURL
			}
		}
		record.LastLearned = today
		words = append(words, record)
	}

	for _, r := range review {
		if seen[r.Key()] {
			continue
		}
		seen[r.Key()] = true
		r.LastLearned = today
		words = append(words, r)
	}

	return words
}

// countReview returns how many records of words belong to review
func countReview(words, review []models.WordRecord) int {
	keys := make(map[string]bool, len(review))
	for _, r := range review {
		keys[r.Key()] = true
	}
	n := 0
	for _, w := range words {
		if keys[w.Key()] {
			n++
		}
	}
	return n
}

package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/example/lexigo/pkg/models"
)

// StatsRepository handles the aggregate statistics document
type StatsRepository struct {
	store BlobStore
	mu    sync.Mutex
}

// NewStatsRepository creates a new repository instance
func NewStatsRepository(store BlobStore) *StatsRepository {
	return &StatsRepository{store: store}
}

// Get returns the stored statistics, or defaults for a new user
func (r *StatsRepository) Get(ctx context.Context) (models.AppStats, error) {
	data, found, err := r.store.Load(ctx, StatsKey)
	if err != nil {
		return models.AppStats{}, err
	}
	return decodeStats(data, found)
}

// Save replaces the stored statistics
func (r *StatsRepository) Save(ctx context.Context, stats models.AppStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	return r.store.Save(ctx, StatsKey, data)
}

// Update applies fn to the current statistics atomically and returns the result
func (r *StatsRepository) Update(ctx context.Context, fn func(*models.AppStats)) (models.AppStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result models.AppStats
	err := r.store.Update(ctx, StatsKey, func(current []byte, found bool) ([]byte, error) {
		stats, err := decodeStats(current, found)
		if err != nil {
			return nil, err
		}
		fn(&stats)
		result = stats
		return json.Marshal(stats)
	})
	if err != nil {
		return models.AppStats{}, err
	}
	return result, nil
}

func decodeStats(data []byte, found bool) (models.AppStats, error) {
	stats := models.DefaultStats()
	if !found {
		return stats, nil
	}
	if err := json.Unmarshal(data, &stats); err != nil {
		return models.AppStats{}, fmt.Errorf("%w: stats: %v", ErrCorruptBlob, err)
	}
	if stats.DailyGoal <= 0 {
		stats.DailyGoal = models.DefaultDailyGoal
	}
	if stats.UnlockedBadges == nil {
		stats.UnlockedBadges = []string{}
	}
	if stats.History == nil {
		stats.History = []models.HistoryEntry{}
	}
	return stats, nil
}

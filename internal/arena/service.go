package arena

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/internal/metrics"
	"github.com/example/lexigo/internal/progress"
	"github.com/example/lexigo/pkg/models"
	"go.uber.org/zap"
)

// Outcome is an answer result together with the recorded high score once the game ended
type Outcome struct {
	Result
	HighScore int      `json:"highScore"`
	NewRecord bool     `json:"newRecord"`
	NewBadges []string `json:"newBadges,omitempty"`
}

// Service runs arena games over the notebook
type Service struct {
	stats    *database.StatsRepository
	notebook *database.NotebookRepository
	metrics  *metrics.Metrics
	logger   *zap.Logger

	// Now is the time source for deadlines
	Now           func() time.Time
	// QuestionCount is the number of questions per game
	QuestionCount int

	mu       sync.Mutex
	rnd      *rand.Rand
	games    map[string]*Game
	recorded map[string]bool
}

// NewService creates a new arena service
func NewService(repos *database.Repositories, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		stats:         repos.Stats,
		notebook:      repos.Notebook,
		metrics:       m,
		logger:        logger,
		Now:           time.Now,
		QuestionCount: DefaultQuestionCount,
		rnd:           rand.New(rand.NewSource(time.Now().UnixNano())),
		games:         make(map[string]*Game),
		recorded:      make(map[string]bool),
	}
}

// Start creates a game from the notebook words
func (s *Service) Start(ctx context.Context) (*Game, error) {
	words, err := s.notebook.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load notebook: %w", err)
	}
	return s.StartWith(ctx, words)
}

// StartWith creates a game from the given words. Ended games are recorded
// and dropped first, so abandoned games do not pile up.
func (s *Service) StartWith(ctx context.Context, words []models.WordRecord) (*Game, error) {
	s.prune(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := NewGame(words, s.rnd, s.QuestionCount, s.Now())
	if err != nil {
		return nil, err
	}
	s.games[game.ID] = game

	s.logger.Info("arena game started", zap.String("game", game.ID), zap.Int("questions", game.Len()))
	return game, nil
}

// prune records the score of every ended game and forgets it. A game whose
// score cannot be saved stays registered for the next attempt.
func (s *Service) prune(ctx context.Context) {
	now := s.Now()
	var ended []*Game
	s.mu.Lock()
	for _, game := range s.games {
		if status, _ := game.State(now); status != StatusPlaying {
			ended = append(ended, game)
		}
	}
	s.mu.Unlock()

	for _, game := range ended {
		if _, err := s.Finish(ctx, game); err != nil {
			s.logger.Warn("failed to record abandoned arena game", zap.String("game", game.ID), zap.Error(err))
			continue
		}
		s.mu.Lock()
		delete(s.games, game.ID)
		delete(s.recorded, game.ID)
		s.mu.Unlock()
	}
}

// Game returns a game by id
func (s *Service) Game(id string) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// Answer submits a choice to a game. When the answer ends the game the score
// is folded into the arena high score.
func (s *Service) Answer(ctx context.Context, id, choice string) (*Outcome, error) {
	game, err := s.Game(id)
	if err != nil {
		return nil, err
	}

	result, err := game.Answer(choice, s.Now())
	if err != nil {
		// the game may have timed out without an answer being recorded
		if _, recErr := s.Finish(ctx, game); recErr != nil {
			return nil, recErr
		}
		return nil, err
	}

	outcome := &Outcome{Result: result}
	if result.Status == StatusPlaying {
		return outcome, nil
	}

	final, err := s.Finish(ctx, game)
	if err != nil {
		return nil, err
	}
	outcome.HighScore = final.HighScore
	outcome.NewRecord = final.NewRecord
	outcome.NewBadges = final.NewBadges
	return outcome, nil
}

// Finish records the score of an ended game exactly once
func (s *Service) Finish(ctx context.Context, game *Game) (*Outcome, error) {
	status, score := game.State(s.Now())
	if status == StatusPlaying {
		return nil, fmt.Errorf("game %s is still running", game.ID)
	}

	s.mu.Lock()
	if s.recorded[game.ID] {
		s.mu.Unlock()
		stats, err := s.stats.Get(ctx)
		if err != nil {
			return nil, err
		}
		return &Outcome{Result: Result{Score: score, Status: status}, HighScore: stats.ArenaHighScore}, nil
	}
	// claimed while saving so concurrent calls record once, released on failure
	s.recorded[game.ID] = true
	s.mu.Unlock()

	outcome := &Outcome{Result: Result{Score: score, Status: status}}
	stats, err := s.stats.Update(ctx, func(stats *models.AppStats) {
		if score > stats.ArenaHighScore {
			stats.ArenaHighScore = score
			outcome.NewRecord = true
		}
		outcome.NewBadges = progress.Unlock(stats)
	})
	if err != nil {
		s.mu.Lock()
		delete(s.recorded, game.ID)
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to record arena score: %w", err)
	}
	outcome.HighScore = stats.ArenaHighScore
	s.metrics.RecordArenaGame(string(status))

	s.logger.Info("arena game ended",
		zap.String("game", game.ID),
		zap.String("status", string(status)),
		zap.Int("score", score),
		zap.Bool("new_record", outcome.NewRecord),
	)
	return outcome, nil
}

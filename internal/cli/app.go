package cli

import (
	"errors"
	"fmt"

	"github.com/example/lexigo/internal/ai"
	"github.com/example/lexigo/internal/api"
	"github.com/example/lexigo/internal/arena"
	"github.com/example/lexigo/internal/config"
	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/internal/lesson"
	"github.com/example/lexigo/internal/logging"
	"github.com/example/lexigo/internal/metrics"
	"github.com/example/lexigo/internal/spaced_repetition"
	"go.uber.org/zap"
)

// generator is everything the commands ask of the lesson generator
type generator interface {
	lesson.Generator
	lesson.ImageGenerator
	api.Coach
}

// app holds the components shared by the commands
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	repos     *database.Repositories
	clock     *spaced_repetition.SystemClock
	generator generator
	metrics   *metrics.Metrics

	closeStore func() error
}

// newApp loads the configuration at path and opens the store
func newApp(path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	clock, err := spaced_repetition.NewSystemClock(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	store, closeStore, err := database.Open(cfg.Storage)
	if err != nil {
		return nil, err
	}

	var gen generator
	gemini, err := ai.New(cfg.Gemini, logger.Named("gemini"))
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		logger.Warn("gemini api key not set, lesson generation is disabled")
		gen = ai.Disabled{}
	case err != nil:
		closeStore()
		return nil, err
	default:
		gen = gemini
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		repos:      database.NewRepositories(store),
		clock:      clock,
		generator:  gen,
		metrics:    metrics.NewMetrics(),
		closeStore: closeStore,
	}, nil
}

func (a *app) lessons() *lesson.Service {
	return lesson.NewService(a.cfg.Lesson, a.repos, a.generator, a.clock, a.logger.Named("lesson"),
		lesson.WithImages(a.generator),
		lesson.WithMetrics(a.metrics),
	)
}

func (a *app) arena() *arena.Service {
	return arena.NewService(a.repos, a.metrics, a.logger.Named("arena"))
}

// Close releases the store and flushes the logger
func (a *app) Close() error {
	err := a.closeStore()
	_ = a.logger.Sync()
	return err
}

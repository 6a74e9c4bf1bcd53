package lesson

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/lexigo/internal/ai"
	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/internal/metrics"
	"github.com/example/lexigo/internal/progress"
	"github.com/example/lexigo/internal/spaced_repetition"
	"github.com/example/lexigo/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrUnknownCategory is returned when a lesson is requested for a category that does not exist
	ErrUnknownCategory = errors.New("unknown category")
	// ErrGeneration wraps failures of the lesson generator
	ErrGeneration = errors.New("lesson generation failed")
	// ErrEmptyLesson is returned when neither the generator nor the review queue yield a word
	ErrEmptyLesson = errors.New("lesson has no words")
)

// Generator produces lesson content
type Generator interface {
	GenerateLesson(ctx context.Context, req models.LessonRequest) (*models.GeneratedLesson, error)
}

// ImageGenerator produces mnemonic pictures
type ImageGenerator interface {
	MnemonicImage(ctx context.Context, prompt string) (string, error)
}

// Summary describes a finished session
type Summary struct {
	Count           int               `json:"count"`
	Known           int               `json:"known"`
	Accuracy        int               `json:"accuracy"`
	Streak          int               `json:"streak"`
	TotalWords      int               `json:"totalWords"`
	NewBadges       []string          `json:"newBadges"`
	Evolved         bool              `json:"evolved"`
	Pet             progress.PetStage `json:"pet"`
	SummarySentence string            `json:"summarySentence"`
}

// Outcome is the result of one judgment
type Outcome struct {
	Record   models.WordRecord `json:"record"`
	Finished bool              `json:"finished"`
	Summary  *Summary          `json:"summary,omitempty"`
}

// Service starts lessons and records judgments
type Service struct {
	cfg       Config
	repos     *database.Repositories
	generator Generator
	images    ImageGenerator
	srs       *spaced_repetition.Scheduler
	clock     spaced_repetition.Clock
	sessions  *Sessions
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithImages enables mnemonic image enrichment through images
func WithImages(images ImageGenerator) Option {
	return func(s *Service) { s.images = images }
}

// WithMetrics records lesson metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithScheduler replaces the default review scheduler
func WithScheduler(srs *spaced_repetition.Scheduler) Option {
	return func(s *Service) { s.srs = srs }
}

// NewService creates a new lesson service
func NewService(cfg Config, repos *database.Repositories, generator Generator, clock spaced_repetition.Clock, logger *zap.Logger, opts ...Option) *Service {
	if cfg.ReviewLimit == 0 {
		cfg.ReviewLimit = ReviewQueueLimit
	}
	if cfg.ReviewRatio == 0 {
		cfg.ReviewRatio = ReviewRatio
	}
	if cfg.ImageConcurrency <= 0 {
		cfg.ImageConcurrency = 1
	}

	s := &Service{
		cfg:       cfg,
		repos:     repos,
		generator: generator,
		srs:       spaced_repetition.New(),
		clock:     clock,
		sessions:  NewSessions(24 * time.Hour),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sessions returns the registry of started sessions
func (s *Service) Sessions() *Sessions {
	return s.sessions
}

// Start composes today's lesson for category and opens a session over it
func (s *Service) Start(ctx context.Context, category string) (*Session, error) {
	if _, ok := models.LookupCategory(category); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if err := s.repos.Profiles.SetLastCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to remember category: %w", err)
	}

	notebook, err := s.repos.Notebook.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load notebook: %w", err)
	}
	stats, err := s.repos.Stats.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	today := s.clock.Today()
	due := s.srs.SelectDue(notebook, today, s.cfg.ReviewLimit)

	goal := stats.DailyGoal
	if goal <= 0 {
		goal = models.DefaultDailyGoal
	}
	reviewCount, newCount := BlendRatio(goal, len(due), s.cfg.ReviewRatio)
	review := due[:reviewCount]

	req := models.LessonRequest{
		Category: category,
		NewCount: newCount,
		Review:   make([]string, len(review)),
	}
	for i, r := range review {
		req.Review[i] = r.Word.Word
	}

	started := time.Now()
	generated, err := s.generator.GenerateLesson(ctx, req)
	s.metrics.RecordGeneratorCall("lesson", started, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	words := Merge(generated.Words, notebook, review, today)
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, ErrEmptyLesson)
	}
	if s.cfg.FetchImages && s.images != nil {
		s.enrichImages(ctx, words)
	}

	session := newSession(models.Lesson{
		Category:        category,
		Words:           words,
		SummarySentence: generated.SummarySentence,
		ReviewCount:     countReview(words, review),
	}, time.Now())
	s.sessions.Add(session)
	s.metrics.RecordLessonStarted(category, len(due))

	s.logger.Info("lesson started",
		zap.String("session", session.ID),
		zap.String("category", category),
		zap.Int("words", len(words)),
		zap.Int("review", reviewCount),
		zap.Int("due", len(due)),
	)
	return session, nil
}

// enrichImages fills missing image URLs concurrently. Failures fall back to a
// placeholder picture and never fail the lesson.
func (s *Service) enrichImages(ctx context.Context, words []models.WordRecord) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ImageConcurrency)

	for i := range words {
		if words[i].ImageURL != "" || words[i].ImagePrompt == "" {
			continue
		}
		i := i
		g.Go(func() error {
			prompt := words[i].ImagePrompt
			started := time.Now()
			url, err := s.images.MnemonicImage(gctx, prompt)
			s.metrics.RecordGeneratorCall("image", started, err)
			if err != nil {
				s.logger.Warn("mnemonic image failed, using placeholder",
					zap.String("word", words[i].Word.Word),
					zap.Error(err),
				)
				url = ai.FallbackImageURL(prompt)
			}
			words[i].ImageURL = url
			return nil
		})
	}
	_ = g.Wait()
}

// Respond records whether the current word of session was known and advances.
// The last judgment finalizes the session into the stats.
func (s *Service) Respond(ctx context.Context, session *Session, known bool) (*Outcome, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.cursor >= len(session.lesson.Words) {
		return nil, ErrSessionFinished
	}

	current := session.lesson.Words[session.cursor]
	today := s.clock.Today()

	record, err := s.repos.Notebook.Modify(ctx, current.Word.Word, func(stored models.WordRecord, found bool) models.WordRecord {
		base := current
		if found {
			// stored review state wins over the session snapshot
			base = stored
			base.Word = current.Word
		}
		return s.srs.RecordJudgment(base, known, today)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save judgment for %q: %w", current.Word.Word, err)
	}

	session.lesson.Words[session.cursor] = record
	session.cursor++
	if known {
		session.known++
	}
	s.metrics.RecordJudgment(known)

	outcome := &Outcome{Record: record}
	if session.cursor < len(session.lesson.Words) {
		return outcome, nil
	}

	summary, err := s.finalize(ctx, session, today)
	if err != nil {
		return nil, err
	}
	outcome.Finished = true
	outcome.Summary = summary
	return outcome, nil
}

// finalize folds a completed session into the stats. Callers hold session.mu.
func (s *Service) finalize(ctx context.Context, session *Session, today models.Date) (*Summary, error) {
	count := len(session.lesson.Words)
	summary := &Summary{
		Count:           count,
		Known:           session.known,
		Accuracy:        progress.Accuracy(session.known, count),
		SummarySentence: session.lesson.SummarySentence,
	}

	stats, err := s.repos.Stats.Update(ctx, func(stats *models.AppStats) {
		before := stats.TotalWords
		stats.TotalWords += count
		*stats = progress.CheckIn(*stats, today)
		*stats = progress.RecordSession(*stats, today, count, session.known)
		summary.NewBadges = progress.Unlock(stats)
		summary.Evolved = progress.Evolved(before, stats.TotalWords)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update stats: %w", err)
	}

	summary.Streak = stats.Streak
	summary.TotalWords = stats.TotalWords
	summary.Pet = progress.PetStageFor(stats.TotalWords)
	if summary.NewBadges == nil {
		summary.NewBadges = []string{}
	}
	s.metrics.RecordSessionFinished()

	s.logger.Info("session finished",
		zap.String("session", session.ID),
		zap.Int("words", count),
		zap.Int("known", session.known),
		zap.Int("streak", stats.Streak),
		zap.Bool("evolved", summary.Evolved),
		zap.Strings("badges", summary.NewBadges),
	)
	return summary, nil
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/internal/metrics"
	"github.com/example/lexigo/internal/spaced_repetition"
	"github.com/example/lexigo/pkg/models"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Default notification window
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Config configures review reminders
type Config struct {
	Enabled   bool          `koanf:"enabled"`
	StartHour int           `koanf:"start_hour"`
	EndHour   int           `koanf:"end_hour"`
	Interval  time.Duration `koanf:"interval"`
}

// Notifier delivers review reminders
type Notifier interface {
	SendReminders(ctx context.Context, count int) error
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	repos     *database.Repositories
	srs       *spaced_repetition.Scheduler
	clock     spaced_repetition.Clock
	location  *time.Location
	cfg       Config
	metrics   *metrics.Metrics
	logger    *zap.Logger

	// now is the wall clock used for the notification window
	now func() time.Time
}

// New creates a new scheduler instance working in location
func New(cfg Config, repos *database.Repositories, notifier Notifier, location *time.Location, m *metrics.Metrics, logger *zap.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if location == nil {
		location = time.Local
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(location),
		notifier:  notifier,
		repos:     repos,
		srs:       spaced_repetition.New(),
		clock:     &spaced_repetition.SystemClock{Location: location},
		location:  location,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Start begins running the reminder job without blocking
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.cfg.Interval).Do(s.checkAndSendReminders); err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("reminder scheduler started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("start_hour", s.cfg.StartHour),
		zap.Int("end_hour", s.cfg.EndHour),
	)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// InWindow reports whether t falls within the notification hours
func (s *Scheduler) InWindow(t time.Time) bool {
	hour := t.In(s.location).Hour()
	return hour >= s.cfg.StartHour && hour <= s.cfg.EndHour
}

// checkAndSendReminders is the scheduled job
func (s *Scheduler) checkAndSendReminders() {
	if now := s.now(); !s.InWindow(now) {
		s.logger.Debug("outside notification hours, skipping reminders",
			zap.Int("hour", now.In(s.location).Hour()),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("failed to send reminders", zap.Error(err))
	}
}

// RunOnce counts the due words and sends a reminder when there are any,
// regardless of the notification window. It returns the announced count.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	notebook, err := s.repos.Notebook.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load notebook: %w", err)
	}
	due := s.srs.CountDue(notebook, s.clock.Today())
	if due == 0 {
		s.logger.Debug("no words due")
		return 0, nil
	}

	stats, err := s.repos.Stats.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load stats: %w", err)
	}
	goal := stats.DailyGoal
	if goal <= 0 {
		goal = models.DefaultDailyGoal
	}

	// Don't announce more than a day's lesson
	count := due
	if count > goal {
		count = goal
	}

	if err := s.notifier.SendReminders(ctx, count); err != nil {
		return 0, fmt.Errorf("failed to notify: %w", err)
	}
	s.metrics.RecordReminder(due)
	s.logger.Info("reminder sent", zap.Int("due", due), zap.Int("announced", count))
	return count, nil
}

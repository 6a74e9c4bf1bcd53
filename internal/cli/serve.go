package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/lexigo/internal/api"
	"github.com/example/lexigo/internal/bot"
	"github.com/example/lexigo/internal/scheduler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, review reminders and the Telegram bot",
		Long: `Run the HTTP API together with the review reminder job and, when a
Telegram token and chat are configured, the Telegram bot.

Examples:
  lexigo serve
  LEXIGO_SERVER_ADDR=:9090 lexigo serve --config prod.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	notifier, botAPI, err := bot.NewNotifier(a.cfg.Telegram, a.logger.Named("telegram"))
	if err != nil {
		return err
	}

	handler := api.NewHandler(api.Deps{
		Repos:   a.repos,
		Lessons: a.lessons(),
		Arena:   a.arena(),
		Coach:   a.generator,
		Clock:   a.clock,
		Metrics: a.metrics,
		Logger:  a.logger.Named("http"),
	})
	server := api.NewServer(a.cfg.Server, handler, a.logger.Named("http"))

	if a.cfg.Reminders.Enabled {
		reminders := scheduler.New(a.cfg.Reminders, a.repos, notifier, a.clock.Location, a.metrics, a.logger.Named("scheduler"))
		if err := reminders.Start(); err != nil {
			return err
		}
		defer reminders.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})

	if botAPI != nil {
		commands := bot.New(botAPI, a.cfg.Telegram.ChatID, a.repos, a.clock, a.logger.Named("telegram"))
		g.Go(func() error {
			commands.Run(gctx)
			return nil
		})
	}

	a.logger.Info("lexigo started",
		zap.String("addr", a.cfg.Server.Addr),
		zap.String("storage", a.cfg.Storage.Driver),
		zap.Bool("reminders", a.cfg.Reminders.Enabled),
		zap.Bool("telegram", botAPI != nil),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("lexigo stopped")
	return nil
}

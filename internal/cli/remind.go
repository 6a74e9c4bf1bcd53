package cli

import (
	"fmt"

	"github.com/example/lexigo/internal/bot"
	"github.com/example/lexigo/internal/scheduler"
	"github.com/spf13/cobra"
)

func newRemindCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send a review reminder now",
		Long: `Count the words due today and send one reminder through Telegram, or to
the log when Telegram is not configured. The notification window is ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			notifier, _, err := bot.NewNotifier(a.cfg.Telegram, a.logger.Named("telegram"))
			if err != nil {
				return err
			}
			s := scheduler.New(a.cfg.Reminders, a.repos, notifier, a.clock.Location, a.metrics, a.logger.Named("scheduler"))
			count, err := s.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			if count == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing due, no reminder sent")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminder sent for %d words\n", count)
			return nil
		},
	}
}

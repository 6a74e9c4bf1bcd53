package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/lexigo/internal/arena"
	"github.com/example/lexigo/internal/progress"
	"github.com/spf13/cobra"
)

func newArenaCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "arena",
		Short: "Play the timed translation game",
		Long: `Pick the right translation of each notebook word within three seconds.
A wrong answer or running out of time ends the game.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			svc := a.arena()
			game, err := svc.Start(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			in := bufio.NewScanner(cmd.InOrStdin())
			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("⚔️ Arena: %d questions, %s each", game.Len(), arena.QuestionTimeLimit)))

			q, _, ok := game.Current(svc.Now())
			for ok {
				fmt.Fprintf(out, "\n%s %s\n", labelStyle.Render(q.Word), dimStyle.Render(q.Phonetic))
				for i, option := range q.Options {
					fmt.Fprintf(out, "  %d) %s\n", i+1, option)
				}
				fmt.Fprint(out, "> ")

				choice := ""
				if in.Scan() {
					if n, err := strconv.Atoi(strings.TrimSpace(in.Text())); err == nil && n >= 1 && n <= len(q.Options) {
						choice = q.Options[n-1]
					}
				}

				outcome, err := svc.Answer(ctx, game.ID, choice)
				if errors.Is(err, arena.ErrGameOver) {
					fmt.Fprintln(out, badStyle.Render("⏰ Time's up!"))
					final, err := svc.Finish(ctx, game)
					if err != nil {
						return err
					}
					printArenaResult(cmd, final)
					return nil
				}
				if err != nil {
					return err
				}

				if outcome.Correct {
					fmt.Fprintln(out, goodStyle.Render(fmt.Sprintf("✓ +%d", outcome.Points)))
				} else {
					fmt.Fprintln(out, badStyle.Render("✗ "+outcome.Answer))
				}
				if outcome.Status != arena.StatusPlaying {
					printArenaResult(cmd, outcome)
					return nil
				}
				q, ok = *outcome.Next, true
			}
			return nil
		},
	}
}

func printArenaResult(cmd *cobra.Command, o *arena.Outcome) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nScore: %d (record %d)\n", o.Score, o.HighScore)
	if o.NewRecord {
		fmt.Fprintln(out, goodStyle.Render("🏆 New record!"))
	}
	for _, id := range o.NewBadges {
		if b, found := progress.LookupBadge(id); found {
			fmt.Fprintf(out, "%s New badge: %s\n", b.Icon, b.Label)
		}
	}
}

package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/example/lexigo/internal/progress"
	"github.com/example/lexigo/internal/spaced_repetition"
	"github.com/example/lexigo/pkg/models"
	"github.com/spf13/cobra"
)

func newDueCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "List the words due for review today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			notebook, err := a.repos.Notebook.All(cmd.Context())
			if err != nil {
				return err
			}
			srs := spaced_repetition.New()
			due := srs.SelectDue(notebook, a.clock.Today(), len(notebook))

			out := cmd.OutOrStdout()
			if len(due) == 0 {
				fmt.Fprintln(out, "🎉 Nothing to review today!")
				return nil
			}
			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("📚 %d words due for review", len(due))))
			return printWords(out, due)
		},
	}
}

func newNotebookCmd(open opener) *cobra.Command {
	var search, filter string

	cmd := &cobra.Command{
		Use:   "notebook",
		Short: "Browse the words you have studied",
		Long: `Browse the notebook, most recently studied first.

Examples:
  lexigo notebook
  lexigo notebook --filter mastered
  lexigo notebook --search app`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := progress.ParseFilter(filter)
			if err != nil {
				return err
			}

			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			notebook, err := a.repos.Notebook.All(cmd.Context())
			if err != nil {
				return err
			}
			words := progress.Filter(spaced_repetition.New(), notebook, search, mode)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d of %d words", len(words), len(notebook))))
			if len(words) == 0 {
				return nil
			}
			return printWords(out, words)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "match the word or its translation")
	cmd.Flags().StringVar(&filter, "filter", "all", "all, learning or mastered")
	return cmd
}

func printWords(out io.Writer, words []models.WordRecord) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORD\tTRANSLATION\tLEVEL\tNEXT REVIEW\tERRORS")
	for _, r := range words {
		level := fmt.Sprintf("%d", r.SRSLevel)
		if r.Mastered {
			level += " ✓"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", r.Word.Word, truncate(r.Translation, 24), level, r.NextReviewDate, r.ErrorCount)
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func newStatsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show streak, pet, badges and notebook analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			stats, err := a.repos.Stats.Get(ctx)
			if err != nil {
				return err
			}
			notebook, err := a.repos.Notebook.All(ctx)
			if err != nil {
				return err
			}
			report := progress.Analyze(spaced_repetition.New(), notebook, a.clock.Today())
			pet := progress.PetStageFor(stats.TotalWords)

			var sb strings.Builder
			line := func(label, value string) {
				fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render(label), value)
			}
			sb.WriteString(titleStyle.Render("📊 Your progress") + "\n\n")
			line("🔥 Streak:", fmt.Sprintf("%d days", stats.Streak))
			line("📖 Words learned:", fmt.Sprintf("%d", stats.TotalWords))
			line("✅ Mastered:", fmt.Sprintf("%d / %d", report.Mastered, report.Total))
			line("⏰ Due today:", fmt.Sprintf("%d", report.DueToday))
			line("🎯 Accuracy:", fmt.Sprintf("%d%%", report.Accuracy))
			line("⚔️ Arena record:", fmt.Sprintf("%d", stats.ArenaHighScore))
			line(pet.Emoji+" Pet:", pet.Name)

			levels := make([]string, len(report.Distribution))
			for i, n := range report.Distribution {
				levels[i] = fmt.Sprintf("L%d:%d", i, n)
			}
			line("📈 Levels:", strings.Join(levels, " "))

			badges := make([]string, 0, len(progress.Badges))
			for _, b := range progress.Badges {
				if stats.HasBadge(b.ID) {
					badges = append(badges, b.Icon+" "+b.Label)
				}
			}
			if len(badges) > 0 {
				line("🏅 Badges:", strings.Join(badges, ", "))
			}

			fmt.Fprintln(cmd.OutOrStdout(), cardStyle.Render(strings.TrimRight(sb.String(), "\n")))
			return nil
		},
	}
}

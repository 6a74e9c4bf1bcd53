package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/example/lexigo/internal/lesson"
	"github.com/example/lexigo/internal/progress"
	"github.com/spf13/cobra"
)

func newStudyCmd(open opener) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "study",
		Short: "Study today's lesson in the terminal",
		Long: `Generate today's lesson and go through it word by word. Answer y when you
knew the word and n when you did not.

Examples:
  lexigo study
  lexigo study --category IELTS`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if category == "" {
				if category, err = a.repos.Profiles.LastCategory(ctx); err != nil {
					return err
				}
			}

			svc := a.lessons()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Preparing a %s lesson...\n", category)
			session, err := svc.Start(ctx, category)
			if err != nil {
				return err
			}

			l := session.Lesson()
			fmt.Fprintf(out, "%d words, %d for review\n\n", len(l.Words), l.ReviewCount)

			in := bufio.NewScanner(cmd.InOrStdin())
			for {
				word, ok := session.Current()
				if !ok {
					return nil
				}
				fmt.Fprintf(out, "[%d/%d] %s %s\n", session.Position()+1, len(l.Words), word.Word.Word, word.Phonetic)
				known, err := askKnown(in, out)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  %s\n", word.Translation)
				if word.Mnemonic != "" {
					fmt.Fprintf(out, "  💡 %s\n", word.Mnemonic)
				}
				if word.Example != "" {
					fmt.Fprintf(out, "  %s\n  %s\n", word.Example, word.ExampleTranslation)
				}
				fmt.Fprintln(out)

				outcome, err := svc.Respond(ctx, session, known)
				if err != nil {
					return err
				}
				if outcome.Finished {
					printSummary(out, outcome.Summary)
					return nil
				}
			}
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "study category (default: the last one used)")
	return cmd
}

// askKnown reads y or n until one is given
func askKnown(in *bufio.Scanner, out io.Writer) (bool, error) {
	for {
		fmt.Fprint(out, "  Know it? [y/n] ")
		if !in.Scan() {
			if err := in.Err(); err != nil {
				return false, err
			}
			return false, io.ErrUnexpectedEOF
		}
		switch strings.ToLower(strings.TrimSpace(in.Text())) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

func printSummary(out io.Writer, s *lesson.Summary) {
	fmt.Fprintf(out, "🎉 Lesson complete: %d/%d known (%d%%)\n", s.Known, s.Count, s.Accuracy)
	fmt.Fprintf(out, "🔥 Streak: %d days, 📖 %d words learned\n", s.Streak, s.TotalWords)
	for _, id := range s.NewBadges {
		if b, ok := progress.LookupBadge(id); ok {
			fmt.Fprintf(out, "%s New badge: %s\n", b.Icon, b.Label)
		}
	}
	if s.Evolved {
		fmt.Fprintf(out, "%s Your pet evolved into a %s!\n", s.Pet.Emoji, s.Pet.Name)
	}
	if s.SummarySentence != "" {
		fmt.Fprintf(out, "\n%s\n", s.SummarySentence)
	}
}

package cli

import (
	"fmt"

	"github.com/example/lexigo/internal/excel"
	"github.com/spf13/cobra"
)

func newImportCmd(open opener) *cobra.Command {
	var sheet string
	var startRow int

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Add words from an xlsx or csv file to the notebook",
		Long: `Add words from an xlsx or csv file to the notebook. Columns are word,
translation, phonetic, example, example translation and mnemonic. Words already
in the notebook keep their review progress.

Examples:
  lexigo import words.xlsx
  lexigo import words.csv --start-row 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := excel.DefaultImportConfig()
			cfg.FilePath = args[0]
			cfg.SheetName = sheet
			cfg.StartRow = startRow

			result, err := excel.ImportWords(cmd.Context(), a.repos.Notebook, cfg, a.clock.Today())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processed %d rows: %d added, %d already known\n", result.Processed, result.Created, result.Skipped)
			for _, e := range result.Errors {
				fmt.Fprintln(out, badStyle.Render(e))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet to read (default: the first one)")
	cmd.Flags().IntVar(&startRow, "start-row", 2, "first row holding a word")
	return cmd
}

func newExportCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Write the notebook to an xlsx file",
		Args:  cobra.ExactArgs(1),
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
			if err := excel.ExportWords(args[0], notebook); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d words to %s\n", len(notebook), args[0])
			return nil
		},
	}
}

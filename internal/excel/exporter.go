package excel

import (
	"fmt"

	"github.com/example/lexigo/pkg/models"
	"github.com/xuri/excelize/v2"
)

// ExportSheet is the sheet written by ExportWords
const ExportSheet = "Notebook"

var exportHeader = []interface{}{
	"Word", "Translation", "Phonetic", "Example", "Example Translation", "Mnemonic",
	"SRS Level", "Next Review", "Mastered", "Errors", "Last Learned",
}

// ExportWords writes the notebook to an xlsx file. The first six columns match
// DefaultImportConfig so an exported file can be imported again.
func ExportWords(path string, notebook []models.WordRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ExportSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	if err := f.SetSheetRow(ExportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range notebook {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.Word.Word, r.Translation, r.Phonetic, r.Example, r.ExampleTranslation, r.Mnemonic,
			r.SRSLevel, r.NextReviewDate.String(), r.Mastered, r.ErrorCount, r.LastLearned.String(),
		}
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(ExportSheet, "A", "F", 20); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

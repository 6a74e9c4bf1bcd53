package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/pkg/models"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath                 string // Path to the Excel or CSV file
	WordColumn               string // Column with the word
	TranslationColumn        string // Column with the translation
	PhoneticColumn           string // Column with the phonetic transcription
	ExampleColumn            string // Column with the example sentence
	ExampleTranslationColumn string // Column with the example translation
	MnemonicColumn           string // Column with the mnemonic
	SheetName                string // Name of the sheet to import, the first sheet when empty
	StartRow                 int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:               "A",
		TranslationColumn:        "B",
		PhoneticColumn:           "C",
		ExampleColumn:            "D",
		ExampleTranslationColumn: "E",
		MnemonicColumn:           "F",
		StartRow:                 2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	Processed int
	Created   int
	Skipped   int
	Errors    []string
}

// ImportWords reads words from an Excel or CSV file and adds the ones missing
// from the notebook as fresh records due today. Words already in the notebook
// keep their review state and are counted as skipped.
func ImportWords(ctx context.Context, notebook *database.NotebookRepository, config ImportConfig, today models.Date) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	// Check the file extension
	isCSV := strings.ToLower(filepath.Ext(config.FilePath)) == ".csv"
	if isCSV {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config)
	}
	if err != nil {
		return nil, err
	}

	// a CSV row wider than the first one has an unquoted comma shifting its columns
	width := 0
	if isCSV && len(rows) > 0 {
		width = len(rows[0])
	}

	result := &ImportResult{Errors: make([]string, 0)}
	seen := make(map[string]bool)
	var fresh []models.WordRecord

	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		if blankRow(row) {
			continue
		}
		result.Processed++

		if width > 0 && len(row) > width {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: expected %d fields, got %d", i+1, width, len(row)))
			continue
		}

		word, err := parseRow(row, config)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}

		key := models.NormalizeWord(word.Word)
		if seen[key] {
			result.Skipped++
			continue
		}
		seen[key] = true
		fresh = append(fresh, models.NewWordRecord(word, today))
	}

	if len(fresh) == 0 {
		return result, nil
	}
	added, err := notebook.AddMissing(ctx, fresh...)
	if err != nil {
		return nil, fmt.Errorf("failed to save words: %w", err)
	}
	result.Created = len(added)
	result.Skipped += len(fresh) - len(added)
	return result, nil
}

// readExcel returns the rows of the configured sheet
func readExcel(config ImportConfig) ([][]string, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSV returns every record of a CSV file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Short rows are allowed, wide rows are rejected by ImportWords
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseRow extracts the word content of a single row
func parseRow(row []string, config ImportConfig) (models.Word, error) {
	cell := func(column string) string {
		if column == "" {
			return ""
		}
		if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	word := models.Word{
		Word:               cleanWord(cell(config.WordColumn)),
		Translation:        cell(config.TranslationColumn),
		Phonetic:           cell(config.PhoneticColumn),
		Example:            cell(config.ExampleColumn),
		ExampleTranslation: cell(config.ExampleTranslationColumn),
		Mnemonic:           cell(config.MnemonicColumn),
	}
	if word.Word == "" {
		return models.Word{}, fmt.Errorf("word cannot be empty")
	}
	if word.Translation == "" {
		return models.Word{}, fmt.Errorf("translation cannot be empty")
	}
	return word, nil
}

// cleanWord drops the bracketed forms after a word, "go (went, gone)" becomes "go"
func cleanWord(word string) string {
	if i := strings.Index(word, "("); i > 0 {
		return strings.TrimSpace(word[:i])
	}
	return strings.TrimSpace(word)
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}

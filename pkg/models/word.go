package models

import "strings"

// Word holds the learning content of a vocabulary item as produced by the lesson generator
type Word struct {
	Word               string `json:"word"`
	Phonetic           string `json:"phonetic"`
	Translation        string `json:"translation"`
	Homophone          string `json:"homophone"`
	Mnemonic           string `json:"mnemonic"`
	Example            string `json:"example"`
	ExampleTranslation string `json:"exampleTranslation"`
	ImagePrompt        string `json:"imagePrompt"`
	ImageURL           string `json:"imageUrl,omitempty"`
}

// WordRecord is one notebook entry: the word content plus its review state.
// Mastered is only ever assigned by the review scheduler.
type WordRecord struct {
	Word
	SRSLevel       int  `json:"srsLevel"`
	NextReviewDate Date `json:"nextReviewDate"`
	Mastered       bool `json:"mastered"`
	ErrorCount     int  `json:"errorCount"`
	LastLearned    Date `json:"lastLearned"`
}

// NewWordRecord creates the record of a word seen for the first time
func NewWordRecord(w Word, today Date) WordRecord {
	return WordRecord{
		Word:           w,
		NextReviewDate: today,
		LastLearned:    today,
	}
}

// Key returns the notebook key of the record
func (r WordRecord) Key() string {
	return NormalizeWord(r.Word.Word)
}

// NormalizeWord returns the case-insensitive key of a word
func NormalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

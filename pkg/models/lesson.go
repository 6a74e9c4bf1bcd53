package models

// LessonRequest is what the lesson composer asks of the generator
type LessonRequest struct {
	Category string   `json:"category"`
	NewCount int      `json:"new_count"`
	Review   []string `json:"review"` // words due for review that the lesson must include
}

// GeneratedLesson is the raw generator output, before it is merged with the notebook
type GeneratedLesson struct {
	Words           []Word `json:"words"`
	SummarySentence string `json:"summarySentence"`
}

// Lesson is a day's set of words ready to be studied
type Lesson struct {
	Category        string       `json:"category"`
	Words           []WordRecord `json:"words"`
	SummarySentence string       `json:"summarySentence"`
	ReviewCount     int          `json:"reviewCount"`
}

// DailySentence is the inspirational quote shown on the home screen
type DailySentence struct {
	English string `json:"english"`
	Chinese string `json:"chinese"`
	Author  string `json:"author"`
}

// PronunciationResult is the generator's feedback on a recorded pronunciation
type PronunciationResult struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

package ai

import (
	"context"

	"github.com/example/lexigo/pkg/models"
)

// Disabled stands in for Gemini when no API key is configured. Every call
// fails with ErrNotConfigured except MnemonicImage, which serves the placeholder.
type Disabled struct{}

func (Disabled) GenerateLesson(context.Context, models.LessonRequest) (*models.GeneratedLesson, error) {
	return nil, ErrNotConfigured
}

func (Disabled) DailySentence(context.Context) (*models.DailySentence, error) {
	return nil, ErrNotConfigured
}

func (Disabled) MnemonicImage(_ context.Context, prompt string) (string, error) {
	return FallbackImageURL(prompt), nil
}

func (Disabled) EvaluatePronunciation(context.Context, string, []byte) (*models.PronunciationResult, error) {
	return nil, ErrNotConfigured
}

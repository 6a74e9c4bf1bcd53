package ai

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/example/lexigo/pkg/models"
	"go.uber.org/zap"
)

var wordSchema = &Schema{
	Type: "OBJECT",
	Properties: map[string]*Schema{
		"word":               {Type: "STRING"},
		"phonetic":           {Type: "STRING"},
		"translation":        {Type: "STRING"},
		"homophone":          {Type: "STRING"},
		"mnemonic":           {Type: "STRING"},
		"example":            {Type: "STRING"},
		"exampleTranslation": {Type: "STRING"},
		"imagePrompt":        {Type: "STRING"},
	},
	Required: []string{"word", "phonetic", "translation", "homophone", "mnemonic", "example", "exampleTranslation", "imagePrompt"},
}

var lessonSchema = &Schema{
	Type: "OBJECT",
	Properties: map[string]*Schema{
		"words":           {Type: "ARRAY", Items: wordSchema},
		"summarySentence": {Type: "STRING"},
	},
	Required: []string{"words", "summarySentence"},
}

var sentenceSchema = &Schema{
	Type: "OBJECT",
	Properties: map[string]*Schema{
		"english": {Type: "STRING"},
		"chinese": {Type: "STRING"},
		"author":  {Type: "STRING"},
	},
	Required: []string{"english", "chinese", "author"},
}

var pronunciationSchema = &Schema{
	Type: "OBJECT",
	Properties: map[string]*Schema{
		"score":    {Type: "NUMBER"},
		"feedback": {Type: "STRING"},
	},
	Required: []string{"score", "feedback"},
}

// lessonPrompt builds the prompt for a lesson request
func lessonPrompt(req models.LessonRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d high-frequency English words for category/level %s. ", req.NewCount, req.Category)
	sb.WriteString("Include phonetic, Chinese translation, a homophone hint, a mnemonic, an example sentence with its translation and an image prompt for each word. ")
	if len(req.Review) > 0 {
		fmt.Fprintf(&sb, "Also include these review words with the same details: %s. ", strings.Join(req.Review, ", "))
	}
	sb.WriteString("Create a summary sentence that uses as many of the words as possible.")
	return sb.String()
}

// GenerateLesson asks the model for new words of a category plus the review words
func (g *Gemini) GenerateLesson(ctx context.Context, req models.LessonRequest) (*models.GeneratedLesson, error) {
	var lesson models.GeneratedLesson
	if err := g.generateJSON(ctx, lessonPrompt(req), lessonSchema, &lesson); err != nil {
		return nil, fmt.Errorf("generating lesson for %s: %w", req.Category, err)
	}

	// words without a headword cannot be keyed into the notebook
	words := lesson.Words[:0]
	for _, w := range lesson.Words {
		if strings.TrimSpace(w.Word) == "" {
			continue
		}
		words = append(words, w)
	}
	lesson.Words = words

	if len(lesson.Words) == 0 && req.NewCount+len(req.Review) > 0 {
		return nil, fmt.Errorf("generating lesson for %s: %w: no words returned", req.Category, ErrMalformedResponse)
	}

	g.logger.Info("lesson generated",
		zap.String("category", req.Category),
		zap.Int("requested_new", req.NewCount),
		zap.Int("requested_review", len(req.Review)),
		zap.Int("returned", len(lesson.Words)),
	)
	return &lesson, nil
}

// DailySentence fetches an inspiring quote with its translation
func (g *Gemini) DailySentence(ctx context.Context) (*models.DailySentence, error) {
	var sentence models.DailySentence
	prompt := "Generate one beautiful, inspiring English quote with its Chinese translation and author. Format it for a vocabulary learning app."
	if err := g.generateJSON(ctx, prompt, sentenceSchema, &sentence); err != nil {
		return nil, fmt.Errorf("fetching daily sentence: %w", err)
	}
	if sentence.English == "" {
		return nil, fmt.Errorf("fetching daily sentence: %w: empty quote", ErrMalformedResponse)
	}
	return &sentence, nil
}

// FallbackImageURL returns the placeholder picture used when no image can be generated
func FallbackImageURL(prompt string) string {
	return "https://picsum.photos/seed/" + url.PathEscape(prompt) + "/400/400"
}

// MnemonicImage generates a cartoon picture for a mnemonic and returns it as a data URL.
// An answer without image data yields the placeholder URL.
func (g *Gemini) MnemonicImage(ctx context.Context, prompt string) (string, error) {
	response, err := g.generate(ctx, g.cfg.ImageModel, GenerateRequest{
		Contents: textPrompt("Cute cartoon style: " + prompt),
		GenerationConfig: &GenerationConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig:        &ImageConfig{AspectRatio: "1:1"},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generating mnemonic image: %w", err)
	}

	data := response.inline()
	if data == nil {
		return FallbackImageURL(prompt), nil
	}
	mime := data.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + data.Data, nil
}

// EvaluatePronunciation scores a WAV recording of the word
func (g *Gemini) EvaluatePronunciation(ctx context.Context, word string, wav []byte) (*models.PronunciationResult, error) {
	if len(wav) == 0 {
		return nil, fmt.Errorf("evaluating pronunciation: empty recording")
	}

	response, err := g.generate(ctx, g.cfg.AudioModel, GenerateRequest{
		Contents: []Content{{
			Role: "user",
			Parts: []Part{
				{Text: fmt.Sprintf("Evaluate %q pronunciation. Score it from 0 to 100 and give short feedback.", word)},
				{InlineData: &InlineData{MimeType: "audio/wav", Data: encodeAudio(wav)}},
			},
		}},
		GenerationConfig: jsonMode(pronunciationSchema),
	})
	if err != nil {
		return nil, fmt.Errorf("evaluating pronunciation: %w", err)
	}

	var result models.PronunciationResult
	if err := decodeText(response, &result); err != nil {
		return nil, fmt.Errorf("evaluating pronunciation: %w", err)
	}
	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 100 {
		result.Score = 100
	}
	return &result, nil
}

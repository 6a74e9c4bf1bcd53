// Package arena implements the timed multiple-choice translation game.
package arena

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/example/lexigo/pkg/models"
	"github.com/google/uuid"
)

const (
	// QuestionTimeLimit is the time allowed per question
	QuestionTimeLimit = 3 * time.Second
	// OptionCount is the number of choices offered when enough words exist
	OptionCount = 4
	// DefaultQuestionCount is the length of a game
	DefaultQuestionCount = 10
)

var (
	// ErrGameOver is returned when answering a game that has ended
	ErrGameOver = errors.New("arena game is over")
	// ErrNotEnoughWords is returned when fewer than two words can be asked
	ErrNotEnoughWords = errors.New("at least two words with translations are needed")
	// ErrGameNotFound is returned for an unknown game id
	ErrGameNotFound = errors.New("arena game not found")
)

// Status is the state of a game
type Status string

const (
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished" // every question answered
	StatusWrong    Status = "wrong"    // ended by a wrong choice
	StatusTimeout  Status = "timeout"  // ended by running out of time
)

// Question is one word to translate
type Question struct {
	Word         string   `json:"word"`
	Phonetic     string   `json:"phonetic"`
	Options      []string `json:"options"`
	correctIndex int
}

// Correct returns the right option
func (q Question) Correct() string {
	return q.Options[q.correctIndex]
}

// Result is the effect of one answer
type Result struct {
	Correct bool      `json:"correct"`
	Points  int       `json:"points"`
	Score   int       `json:"score"`
	Status  Status    `json:"status"`
	Answer  string    `json:"answer"` // the right option of the answered question
	Next    *Question `json:"next,omitempty"`
}

// Game is one arena run. It is safe for concurrent use.
type Game struct {
	ID string

	mu        sync.Mutex
	questions []Question
	current   int
	score     int
	status    Status
	deadline  time.Time
	timeLimit time.Duration
}

// NewGame builds up to limit questions from words that have a translation.
// The clock for the first question starts at start.
func NewGame(words []models.WordRecord, rnd *rand.Rand, limit int, start time.Time) (*Game, error) {
	pool := make([]models.WordRecord, 0, len(words))
	for _, w := range words {
		if strings.TrimSpace(w.Translation) != "" && w.Key() != "" {
			pool = append(pool, w)
		}
	}
	if len(pool) < 2 {
		return nil, ErrNotEnoughWords
	}

	rnd.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if limit <= 0 {
		limit = DefaultQuestionCount
	}

	asked := pool
	if len(asked) > limit {
		asked = asked[:limit]
	}

	questions := make([]Question, 0, len(asked))
	for _, w := range asked {
		questions = append(questions, newQuestion(w, pool, rnd))
	}

	return &Game{
		ID:        uuid.NewString(),
		questions: questions,
		status:    StatusPlaying,
		deadline:  start.Add(QuestionTimeLimit),
		timeLimit: QuestionTimeLimit,
	}, nil
}

// newQuestion offers the translation of word among up to OptionCount-1 distinct wrong ones
func newQuestion(word models.WordRecord, pool []models.WordRecord, rnd *rand.Rand) Question {
	others := make([]models.WordRecord, len(pool))
	copy(others, pool)
	rnd.Shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})

	correct := word.Translation
	seen := map[string]bool{correct: true}
	options := make([]string, 0, OptionCount)
	for _, w := range others {
		if len(options) == OptionCount-1 {
			break
		}
		if w.Key() == word.Key() || seen[w.Translation] {
			continue
		}
		seen[w.Translation] = true
		options = append(options, w.Translation)
	}

	options = append(options, correct)
	correctIndex := len(options) - 1
	rnd.Shuffle(len(options), func(i, j int) {
		if i == correctIndex {
			correctIndex = j
		} else if j == correctIndex {
			correctIndex = i
		}
		options[i], options[j] = options[j], options[i]
	})

	return Question{
		Word:         word.Word.Word,
		Phonetic:     word.Phonetic,
		Options:      options,
		correctIndex: correctIndex,
	}
}

// expire ends the game when the deadline has passed. Callers hold g.mu.
func (g *Game) expire(at time.Time) {
	if g.status == StatusPlaying && at.After(g.deadline) {
		g.status = StatusTimeout
	}
}

// Answer submits a choice for the current question at the given time
func (g *Game) Answer(choice string, at time.Time) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.expire(at)
	if g.status != StatusPlaying {
		return Result{}, ErrGameOver
	}

	q := g.questions[g.current]
	result := Result{Answer: q.Correct()}

	if choice != q.Correct() {
		g.status = StatusWrong
		result.Status = g.status
		result.Score = g.score
		return result, nil
	}

	remaining := g.deadline.Sub(at)
	if remaining < 0 {
		remaining = 0
	}
	result.Correct = true
	result.Points = int(math.Round(remaining.Seconds() * 100))
	g.score += result.Points
	g.current++

	if g.current == len(g.questions) {
		g.status = StatusFinished
	} else {
		g.deadline = at.Add(g.timeLimit)
		next := g.questions[g.current]
		result.Next = &next
	}

	result.Status = g.status
	result.Score = g.score
	return result, nil
}

// Current returns the question awaiting an answer and the time left for it
func (g *Game) Current(at time.Time) (Question, time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.expire(at)
	if g.status != StatusPlaying {
		return Question{}, 0, false
	}
	return g.questions[g.current], g.deadline.Sub(at), true
}

// State returns the status and score, ending the game if time ran out
func (g *Game) State(at time.Time) (Status, int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.expire(at)
	return g.status, g.score
}

// Len returns the number of questions
func (g *Game) Len() int {
	return len(g.questions)
}

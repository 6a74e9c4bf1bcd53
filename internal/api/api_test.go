package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/lexigo/internal/ai"
	"github.com/example/lexigo/internal/arena"
	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/internal/lesson"
	"github.com/example/lexigo/internal/spaced_repetition"
	"github.com/example/lexigo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var today = models.MustParseDate("2024-05-10")

type stubGenerator struct {
	words []string
	err   error
}

func (g *stubGenerator) GenerateLesson(_ context.Context, req models.LessonRequest) (*models.GeneratedLesson, error) {
	if g.err != nil {
		return nil, g.err
	}
	out := &models.GeneratedLesson{SummarySentence: "well done"}
	for _, w := range g.words {
		out.Words = append(out.Words, models.Word{Word: w, Translation: w + "-zh"})
	}
	return out, nil
}

type stubCoach struct {
	err error
}

func (c *stubCoach) DailySentence(context.Context) (*models.DailySentence, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &models.DailySentence{English: "Keep going.", Chinese: "坚持下去。", Author: "Anon"}, nil
}

func (c *stubCoach) EvaluatePronunciation(_ context.Context, word string, wav []byte) (*models.PronunciationResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &models.PronunciationResult{Score: 88, Feedback: "clear " + word}, nil
}

type testEnv struct {
	handler http.Handler
	repos   *database.Repositories
	gen     *stubGenerator
	coach   *stubCoach
	arena   *arena.Service
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	repos := database.NewRepositories(database.NewMemoryStore())
	clock := &spaced_repetition.FixedClock{Date: today}
	gen := &stubGenerator{words: []string{"apple", "river"}}
	coach := &stubCoach{}

	lessons := lesson.NewService(lesson.DefaultConfig(), repos, gen, clock, zap.NewNop())
	games := arena.NewService(repos, nil, zap.NewNop())

	handler := NewHandler(Deps{
		Repos:   repos,
		Lessons: lessons,
		Arena:   games,
		Coach:   coach,
		Clock:   clock,
		Logger:  zap.NewNop(),
	})
	return &testEnv{handler: handler, repos: repos, gen: gen, coach: coach, arena: games}
}

func (e *testEnv) do(t *testing.T, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorType(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	decode(t, rec, &body)
	return body.Error.Type
}

func TestHealthAndMetrics(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProfile(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodGet, "/api/v1/profile", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/profile", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/profile", `{"name":"Lin","avatar":"🐼"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var created models.UserProfile
	decode(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsLoggedIn)

	rec = env.do(t, http.MethodPut, "/api/v1/profile", `{"name":"Lin Wei"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var renamed models.UserProfile
	decode(t, rec, &renamed)
	assert.Equal(t, created.ID, renamed.ID)
	assert.Equal(t, "Lin Wei", renamed.Name)

	rec = env.do(t, http.MethodGet, "/api/v1/profile", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCategories(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodGet, "/api/v1/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body categoriesResponse
	decode(t, rec, &body)
	assert.Len(t, body.Categories, len(models.Categories))
	assert.Equal(t, models.DefaultCategory, body.Selected)
}

func TestLessonFlow(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodPost, "/api/v1/lessons", `{"category":"IELTS"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view lesson.View
	decode(t, rec, &view)
	require.Len(t, view.Lesson.Words, 2)
	require.NotNil(t, view.Current)
	assert.Equal(t, "apple", view.Current.Word.Word)

	rec = env.do(t, http.MethodPost, "/api/v1/lessons/"+view.ID+"/judgments", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/lessons/"+view.ID+"/judgments", `{"known":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var outcome lesson.Outcome
	decode(t, rec, &outcome)
	assert.False(t, outcome.Finished)
	assert.Equal(t, 1, outcome.Record.SRSLevel)

	rec = env.do(t, http.MethodPost, "/api/v1/lessons/"+view.ID+"/judgments", `{"known":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	outcome = lesson.Outcome{}
	decode(t, rec, &outcome)
	assert.True(t, outcome.Finished)
	require.NotNil(t, outcome.Summary)
	assert.Equal(t, 50, outcome.Summary.Accuracy)
	assert.Equal(t, 1, outcome.Record.ErrorCount)

	rec = env.do(t, http.MethodPost, "/api/v1/lessons/"+view.ID+"/judgments", `{"known":true}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/lessons/nope/judgments", `{"known":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/categories", "")
	var cats categoriesResponse
	decode(t, rec, &cats)
	assert.Equal(t, "IELTS", cats.Selected)

	rec = env.do(t, http.MethodGet, "/api/v1/notebook?filter=learning&q=app", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var nb notebookResponse
	decode(t, rec, &nb)
	assert.Equal(t, 2, nb.Total)
	require.Len(t, nb.Words, 1)
	assert.Equal(t, "apple", nb.Words[0].Word.Word)

	rec = env.do(t, http.MethodGet, "/api/v1/notebook/due", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var due dueResponse
	decode(t, rec, &due)
	assert.Equal(t, 0, due.Count)

	rec = env.do(t, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats statsResponse
	decode(t, rec, &stats)
	assert.Equal(t, 2, stats.Stats.TotalWords)
	assert.Equal(t, 2, stats.Notebook.Total)
	assert.Equal(t, 67, stats.Notebook.Accuracy)
	assert.Equal(t, "Egg", stats.Pet.Name)
	require.NotEmpty(t, stats.Badges)
	assert.True(t, stats.Badges[0].Unlocked)
}

func TestLessonErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantType string
	}{
		{"unknown category", `{"category":"Klingon"}`, nil, http.StatusBadRequest, "invalid_request_error"},
		{"malformed body", `{"category":`, nil, http.StatusBadRequest, "invalid_request_error"},
		{"quota", `{"category":"GRE"}`, &ai.APIError{StatusCode: 429, Status: "Too Many Requests"}, http.StatusTooManyRequests, "rate_limit_error"},
		{"timeout", `{"category":"GRE"}`, ai.ErrTimeout, http.StatusGatewayTimeout, "timeout_error"},
		{"not configured", `{"category":"GRE"}`, ai.ErrNotConfigured, http.StatusServiceUnavailable, "generator_unavailable"},
		{"upstream failure", `{"category":"GRE"}`, errors.New("boom"), http.StatusBadGateway, "generator_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setup(t)
			env.gen.err = tt.err

			rec := env.do(t, http.MethodPost, "/api/v1/lessons", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantType, errorType(t, rec))
		})
	}
}

func TestStartLessonEmptyBody(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodPost, "/api/v1/lessons", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view lesson.View
	decode(t, rec, &view)
	assert.Equal(t, models.DefaultCategory, view.Lesson.Category)

	rec = env.do(t, http.MethodPost, "/api/v1/lessons", `{"category":"GRE"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/lessons", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view = lesson.View{}
	decode(t, rec, &view)
	assert.Equal(t, "GRE", view.Lesson.Category)
}

func TestStartLessonWithoutWords(t *testing.T) {
	env := setup(t)
	env.gen.words = nil

	rec := env.do(t, http.MethodPost, "/api/v1/lessons", `{"category":"GRE"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
	assert.Equal(t, "generator_error", errorType(t, rec))
}

func TestNotebookUnknownFilter(t *testing.T) {
	env := setup(t)
	rec := env.do(t, http.MethodGet, "/api/v1/notebook?filter=forgotten", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArena(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodPost, "/api/v1/arena", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	ctx := context.Background()
	for _, w := range []string{"apple", "river", "cloud", "stone"} {
		require.NoError(t, env.repos.Notebook.Upsert(ctx, models.NewWordRecord(models.Word{Word: w, Translation: w + "-zh"}, today)))
	}

	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	env.arena.Now = func() time.Time { return now }

	rec = env.do(t, http.MethodPost, "/api/v1/arena", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view arenaView
	decode(t, rec, &view)
	assert.Equal(t, 4, view.Total)
	assert.Equal(t, int64(3000), view.TimeLimitMs)
	require.NotNil(t, view.Question)
	assert.Len(t, view.Question.Options, arena.OptionCount)

	rec = env.do(t, http.MethodPost, "/api/v1/arena/"+view.ID+"/answers", `{"choice":"definitely wrong"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var outcome arena.Outcome
	decode(t, rec, &outcome)
	assert.Equal(t, arena.StatusWrong, outcome.Status)
	assert.Equal(t, view.Question.Word+"-zh", outcome.Answer)

	rec = env.do(t, http.MethodPost, "/api/v1/arena/"+view.ID+"/answers", `{"choice":"x"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/arena/missing/answers", `{"choice":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDailySentence(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodGet, "/api/v1/daily-sentence", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sentence models.DailySentence
	decode(t, rec, &sentence)
	assert.Equal(t, "Keep going.", sentence.English)

	env.coach.err = ai.ErrMalformedResponse
	rec = env.do(t, http.MethodGet, "/api/v1/daily-sentence", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestPronunciation(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodPost, "/api/v1/pronunciation", `{"word":"apple","audio":"%%%"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/pronunciation", `{"word":"apple","audio":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	audio := base64.StdEncoding.EncodeToString([]byte("RIFF....WAVE"))
	rec = env.do(t, http.MethodPost, "/api/v1/pronunciation", `{"word":"apple","audio":"`+audio+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var result models.PronunciationResult
	decode(t, rec, &result)
	assert.Equal(t, 88.0, result.Score)
	assert.Equal(t, "clear apple", result.Feedback)
}

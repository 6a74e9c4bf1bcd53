package lesson

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/lexigo/internal/ai"
	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/internal/spaced_repetition"
	"github.com/example/lexigo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var day = models.MustParseDate

type fakeGenerator struct {
	mu       sync.Mutex
	requests []models.LessonRequest
	// words returned besides the requested review words
	fresh []string
	// review words to leave out of the answer
	omit map[string]bool
	err  error
}

func (f *fakeGenerator) GenerateLesson(_ context.Context, req models.LessonRequest) (*models.GeneratedLesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}

	out := &models.GeneratedLesson{SummarySentence: "summary"}
	for i := 0; i < req.NewCount && i < len(f.fresh); i++ {
		w := f.fresh[i]
		out.Words = append(out.Words, models.Word{Word: w, Translation: w + "-zh", ImagePrompt: "picture of " + w})
	}
	for _, w := range req.Review {
		if f.omit[w] {
			continue
		}
		out.Words = append(out.Words, models.Word{Word: strings.ToUpper(w), Translation: w + "-new"})
	}
	return out, nil
}

type fakeImages struct {
	fail map[string]bool
}

func (f *fakeImages) MnemonicImage(_ context.Context, prompt string) (string, error) {
	if f.fail[prompt] {
		return "", errors.New("image quota")
	}
	return "data:image/png;base64," + prompt, nil
}

func freshWords(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "new" + string(rune('a'+i))
	}
	return out
}

func newTestService(t *testing.T, gen Generator, today models.Date, opts ...Option) (*Service, *database.Repositories) {
	t.Helper()
	repos := database.NewRepositories(database.NewMemoryStore())
	svc := NewService(DefaultConfig(), repos, gen, &spaced_repetition.FixedClock{Date: today}, zap.NewNop(), opts...)
	return svc, repos
}

func TestBlend(t *testing.T) {
	cases := []struct {
		count, due, review, fresh int
	}{
		{10, 0, 0, 10},
		{10, 3, 3, 7},
		{10, 5, 4, 6},
		{10, 20, 4, 6},
		{5, 5, 2, 3},
		{1, 1, 0, 1},
		{0, 3, 0, 0},
	}
	for _, c := range cases {
		review, fresh := Blend(c.count, c.due)
		assert.Equal(t, c.review, review, "count=%d due=%d", c.count, c.due)
		assert.Equal(t, c.fresh, fresh, "count=%d due=%d", c.count, c.due)
	}
}

func TestMerge(t *testing.T) {
	today := day("2024-05-10")
	notebook := []models.WordRecord{
		{Word: models.Word{Word: "Apple", ImageURL: "old.png"}, SRSLevel: 3, ErrorCount: 2, NextReviewDate: day("2024-05-09")},
		{Word: models.Word{Word: "pear"}, SRSLevel: 1, NextReviewDate: day("2024-05-08")},
	}
	review := []models.WordRecord{notebook[0], notebook[1]}
	generated := []models.Word{
		{Word: "apple", Translation: "苹果"},
		{Word: "kiwi", Translation: "猕猴桃"},
		{Word: "KIWI", Translation: "dup"},
		{Word: " ", Translation: "blank"},
	}

	words := Merge(generated, notebook, review, today)
	require.Len(t, words, 3)

	assert.Equal(t, "apple", words[0].Word.Word)
	assert.Equal(t, "苹果", words[0].Translation)
	assert.Equal(t, 3, words[0].SRSLevel)
	assert.Equal(t, 2, words[0].ErrorCount)
	assert.Equal(t, "old.png", words[0].ImageURL)
	assert.Equal(t, day("2024-05-09"), words[0].NextReviewDate)

	assert.Equal(t, "kiwi", words[1].Word.Word)
	assert.Equal(t, 0, words[1].SRSLevel)
	assert.Equal(t, today, words[1].NextReviewDate)

	// omitted review word is appended from its record
	assert.Equal(t, "pear", words[2].Word.Word)
	assert.Equal(t, 1, words[2].SRSLevel)

	for _, w := range words {
		assert.Equal(t, today, w.LastLearned)
	}
	assert.Equal(t, 2, countReview(words, review))
}

func TestStartBlendsDueWords(t *testing.T) {
	ctx := context.Background()
	today := day("2024-05-10")
	gen := &fakeGenerator{fresh: freshWords(10), omit: map[string]bool{"due2": true}}
	svc, repos := newTestService(t, gen, today)

	for i, w := range []string{"due1", "due2", "due3", "due4", "due5", "due6", "due7"} {
		require.NoError(t, repos.Notebook.Upsert(ctx, models.WordRecord{
			Word:           models.Word{Word: w},
			SRSLevel:       1,
			NextReviewDate: today.AddDays(-i),
		}))
	}
	require.NoError(t, repos.Notebook.Upsert(ctx, models.WordRecord{Word: models.Word{Word: "later"}, NextReviewDate: today.AddDays(3)}))
	require.NoError(t, repos.Notebook.Upsert(ctx, models.WordRecord{Word: models.Word{Word: "done"}, SRSLevel: 6, Mastered: true}))

	session, err := svc.Start(ctx, "IELTS")
	require.NoError(t, err)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, "IELTS", req.Category)
	assert.Equal(t, 6, req.NewCount)
	assert.Equal(t, []string{"due1", "due2", "due3", "due4"}, req.Review)

	lesson := session.Lesson()
	assert.Len(t, lesson.Words, 10)
	assert.Equal(t, 4, lesson.ReviewCount)
	assert.Equal(t, "due2", lesson.Words[9].Word.Word)
	assert.Equal(t, 10, session.Remaining())

	category, err := repos.Profiles.LastCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, "IELTS", category)

	registered, err := svc.Sessions().Get(session.ID)
	require.NoError(t, err)
	assert.Same(t, session, registered)
}

func TestStartErrors(t *testing.T) {
	ctx := context.Background()

	svc, _ := newTestService(t, &fakeGenerator{}, day("2024-05-10"))
	_, err := svc.Start(ctx, "Klingon")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	svc, _ = newTestService(t, &fakeGenerator{err: ai.ErrQuota}, day("2024-05-10"))
	_, err = svc.Start(ctx, "CET-4")
	assert.ErrorIs(t, err, ai.ErrQuota)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Equal(t, 0, svc.Sessions().Len())

	// nothing generated and nothing due
	svc, _ = newTestService(t, &fakeGenerator{}, day("2024-05-10"))
	_, err = svc.Start(ctx, "CET-4")
	assert.ErrorIs(t, err, ErrEmptyLesson)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Equal(t, 0, svc.Sessions().Len())
}

func TestStartEnrichesImages(t *testing.T) {
	gen := &fakeGenerator{fresh: freshWords(3)}
	images := &fakeImages{fail: map[string]bool{"picture of newb": true}}

	repos := database.NewRepositories(database.NewMemoryStore())
	cfg := DefaultConfig()
	cfg.FetchImages = true
	require.NoError(t, repos.Stats.Save(context.Background(), models.AppStats{DailyGoal: 3}))
	svc := NewService(cfg, repos, gen, &spaced_repetition.FixedClock{Date: day("2024-05-10")}, zap.NewNop(), WithImages(images))

	session, err := svc.Start(context.Background(), "CET-4")
	require.NoError(t, err)

	words := session.Lesson().Words
	require.Len(t, words, 3)
	assert.Equal(t, "data:image/png;base64,picture of newa", words[0].ImageURL)
	assert.Equal(t, ai.FallbackImageURL("picture of newb"), words[1].ImageURL)
	assert.Equal(t, "data:image/png;base64,picture of newc", words[2].ImageURL)
}

func TestRespondRunsSessionToSummary(t *testing.T) {
	ctx := context.Background()
	today := day("2024-05-10")
	gen := &fakeGenerator{fresh: freshWords(10)}
	svc, repos := newTestService(t, gen, today)

	require.NoError(t, repos.Notebook.Upsert(ctx, models.WordRecord{Word: models.Word{Word: "old"}, SRSLevel: 2, NextReviewDate: today}))
	require.NoError(t, repos.Stats.Save(ctx, models.AppStats{
		Streak:        4,
		LastStudyDate: today.AddDays(-1),
		TotalWords:    45,
		DailyGoal:     4,
	}))

	session, err := svc.Start(ctx, "CET-4")
	require.NoError(t, err)
	require.Equal(t, 4, session.Remaining())
	assert.Equal(t, 1, session.Lesson().ReviewCount)

	answers := []bool{true, false, true, true}
	var outcome *Outcome
	for i, known := range answers {
		outcome, err = svc.Respond(ctx, session, known)
		require.NoError(t, err)
		assert.Equal(t, i == len(answers)-1, outcome.Finished)
	}

	// "old" was the review word, last in the lesson, judged known from tier 2
	assert.Equal(t, "OLD", outcome.Record.Word.Word)
	assert.Equal(t, 3, outcome.Record.SRSLevel)
	assert.Equal(t, today.AddDays(4), outcome.Record.NextReviewDate)

	summary := outcome.Summary
	require.NotNil(t, summary)
	assert.Equal(t, 4, summary.Count)
	assert.Equal(t, 3, summary.Known)
	assert.Equal(t, 75, summary.Accuracy)
	assert.Equal(t, 5, summary.Streak)
	assert.Equal(t, 49, summary.TotalWords)
	assert.False(t, summary.Evolved)
	assert.Equal(t, []string{"first-lesson"}, summary.NewBadges)
	assert.Equal(t, "Egg", summary.Pet.Name)

	notebook, err := repos.Notebook.All(ctx)
	require.NoError(t, err)
	assert.Len(t, notebook, 4)
	failed, err := repos.Notebook.Find(ctx, "newb")
	require.NoError(t, err)
	require.NotNil(t, failed)
	assert.Equal(t, 0, failed.SRSLevel)
	assert.Equal(t, 1, failed.ErrorCount)
	assert.Equal(t, today.AddDays(1), failed.NextReviewDate)

	stats, err := repos.Stats.Get(ctx)
	require.NoError(t, err)
	require.Len(t, stats.History, 1)
	assert.Equal(t, 75, stats.History[0].Accuracy)
	assert.Equal(t, today, stats.LastStudyDate)

	_, err = svc.Respond(ctx, session, true)
	assert.ErrorIs(t, err, ErrSessionFinished)
	assert.True(t, session.Finished())
}

func TestRespondFlagsEvolution(t *testing.T) {
	ctx := context.Background()
	today := day("2024-05-10")
	svc, repos := newTestService(t, &fakeGenerator{fresh: freshWords(2)}, today)
	require.NoError(t, repos.Stats.Save(ctx, models.AppStats{TotalWords: 49, DailyGoal: 2}))

	session, err := svc.Start(ctx, "CET-4")
	require.NoError(t, err)
	_, err = svc.Respond(ctx, session, true)
	require.NoError(t, err)
	outcome, err := svc.Respond(ctx, session, true)
	require.NoError(t, err)

	assert.True(t, outcome.Summary.Evolved)
	assert.Equal(t, "Hatchling", outcome.Summary.Pet.Name)
	assert.Equal(t, 1, outcome.Summary.Streak)
}

func TestSessionsRegistry(t *testing.T) {
	reg := NewSessions(time.Hour)
	t0 := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

	old := newSession(models.Lesson{}, t0)
	reg.Add(old)
	fresh := newSession(models.Lesson{Words: []models.WordRecord{{Word: models.Word{Word: "a"}}}}, t0.Add(2*time.Hour))
	reg.Add(fresh)

	_, err := reg.Get(old.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	got, err := reg.Get(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.View().Remaining)
	require.NotNil(t, got.View().Current)
	assert.Equal(t, "a", got.View().Current.Word.Word)
}

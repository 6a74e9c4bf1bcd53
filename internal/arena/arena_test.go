package arena

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func vocabulary(n int) []models.WordRecord {
	out := make([]models.WordRecord, n)
	for i := range out {
		out[i] = models.WordRecord{Word: models.Word{Word: fmt.Sprintf("word%d", i), Translation: fmt.Sprintf("词%d", i)}}
	}
	return out
}

func TestNewGameQuestions(t *testing.T) {
	words := append(vocabulary(6), models.WordRecord{Word: models.Word{Word: "blank"}})
	game, err := NewGame(words, rand.New(rand.NewSource(1)), 5, t0)
	require.NoError(t, err)
	require.Equal(t, 5, game.Len())

	for _, q := range game.questions {
		assert.Len(t, q.Options, OptionCount)
		assert.Contains(t, q.Options, q.Correct())
		assert.NotEqual(t, "blank", q.Word)

		distinct := map[string]bool{}
		for _, o := range q.Options {
			distinct[o] = true
		}
		assert.Len(t, distinct, OptionCount)
	}
}

func TestNewGameSmallPool(t *testing.T) {
	_, err := NewGame(vocabulary(1), rand.New(rand.NewSource(1)), 10, t0)
	assert.ErrorIs(t, err, ErrNotEnoughWords)

	game, err := NewGame(vocabulary(2), rand.New(rand.NewSource(1)), 10, t0)
	require.NoError(t, err)
	assert.Equal(t, 2, game.Len())
	assert.Len(t, game.questions[0].Options, 2)
}

func TestAnswerScoresRemainingTime(t *testing.T) {
	game, err := NewGame(vocabulary(3), rand.New(rand.NewSource(7)), 3, t0)
	require.NoError(t, err)

	q, left, ok := game.Current(t0.Add(time.Second))
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, left)

	res, err := game.Answer(q.Correct(), t0.Add(1200*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, 180, res.Points)
	assert.Equal(t, 180, res.Score)
	assert.Equal(t, StatusPlaying, res.Status)
	require.NotNil(t, res.Next)

	// deadline restarts from the previous answer
	res, err = game.Answer(res.Next.Correct(), t0.Add(1200*time.Millisecond).Add(500*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 250, res.Points)
	assert.Equal(t, 430, res.Score)

	res, err = game.Answer(res.Next.Correct(), t0.Add(1700*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 300, res.Points)
	assert.Equal(t, StatusFinished, res.Status)
	assert.Nil(t, res.Next)

	_, err = game.Answer("anything", t0.Add(2*time.Second))
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestWrongAnswerEndsGame(t *testing.T) {
	game, err := NewGame(vocabulary(4), rand.New(rand.NewSource(3)), 4, t0)
	require.NoError(t, err)

	q, _, _ := game.Current(t0)
	res, err := game.Answer("not-"+q.Correct(), t0.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, StatusWrong, res.Status)
	assert.Equal(t, q.Correct(), res.Answer)

	_, err = game.Answer(q.Correct(), t0.Add(time.Second))
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestTimeoutEndsGame(t *testing.T) {
	game, err := NewGame(vocabulary(4), rand.New(rand.NewSource(3)), 4, t0)
	require.NoError(t, err)

	q, _, _ := game.Current(t0)
	_, err = game.Answer(q.Correct(), t0.Add(QuestionTimeLimit+time.Millisecond))
	assert.ErrorIs(t, err, ErrGameOver)

	status, score := game.State(t0.Add(time.Hour))
	assert.Equal(t, StatusTimeout, status)
	assert.Equal(t, 0, score)

	_, _, ok := game.Current(t0.Add(time.Hour))
	assert.False(t, ok)
}

func TestServiceRecordsHighScore(t *testing.T) {
	ctx := context.Background()
	repos := database.NewRepositories(database.NewMemoryStore())
	require.NoError(t, repos.Notebook.UpsertMany(ctx, vocabulary(5)...))
	require.NoError(t, repos.Stats.Save(ctx, models.AppStats{ArenaHighScore: 200}))

	now := t0
	svc := NewService(repos, nil, zap.NewNop())
	svc.Now = func() time.Time { return now }
	svc.QuestionCount = 2

	game, err := svc.Start(ctx)
	require.NoError(t, err)

	q, _, _ := game.Current(now)
	now = now.Add(time.Second)
	out, err := svc.Answer(ctx, game.ID, q.Correct())
	require.NoError(t, err)
	assert.Equal(t, StatusPlaying, out.Status)
	assert.Equal(t, 0, out.HighScore)

	now = now.Add(500 * time.Millisecond)
	out, err = svc.Answer(ctx, game.ID, out.Next.Correct())
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, out.Status)
	assert.Equal(t, 450, out.Score)
	assert.Equal(t, 450, out.HighScore)
	assert.True(t, out.NewRecord)

	stats, err := repos.Stats.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 450, stats.ArenaHighScore)

	_, err = svc.Answer(ctx, game.ID, "late")
	assert.ErrorIs(t, err, ErrGameOver)

	_, err = svc.Answer(ctx, "missing", "x")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestServiceKeepsHigherRecord(t *testing.T) {
	ctx := context.Background()
	repos := database.NewRepositories(database.NewMemoryStore())
	require.NoError(t, repos.Stats.Save(ctx, models.AppStats{ArenaHighScore: 5000}))

	now := t0
	svc := NewService(repos, nil, zap.NewNop())
	svc.Now = func() time.Time { return now }

	game, err := svc.StartWith(ctx, vocabulary(3))
	require.NoError(t, err)

	now = now.Add(10 * time.Second)
	_, err = svc.Answer(ctx, game.ID, "whatever")
	assert.ErrorIs(t, err, ErrGameOver)

	out, err := svc.Finish(ctx, game)
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, out.Status)
	assert.Equal(t, 5000, out.HighScore)
	assert.False(t, out.NewRecord)
}

func TestStartDropsAbandonedGames(t *testing.T) {
	ctx := context.Background()
	repos := database.NewRepositories(database.NewMemoryStore())

	now := t0
	svc := NewService(repos, nil, zap.NewNop())
	svc.Now = func() time.Time { return now }

	first, err := svc.StartWith(ctx, vocabulary(3))
	require.NoError(t, err)
	q, _, _ := first.Current(now)
	now = now.Add(time.Second)
	out, err := svc.Answer(ctx, first.ID, q.Correct())
	require.NoError(t, err)
	require.Equal(t, StatusPlaying, out.Status)

	// nobody answers again
	for i := 0; i < 100; i++ {
		now = now.Add(time.Hour)
		_, err := svc.StartWith(ctx, vocabulary(3))
		require.NoError(t, err)
	}

	_, err = svc.Game(first.ID)
	assert.ErrorIs(t, err, ErrGameNotFound)
	assert.Len(t, svc.games, 1)
	assert.Empty(t, svc.recorded)

	stats, err := repos.Stats.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, stats.ArenaHighScore)
}

type flakyStore struct {
	database.BlobStore
	failUpdates bool
}

func (s *flakyStore) Update(ctx context.Context, key string, fn database.UpdateFunc) error {
	if s.failUpdates {
		return fmt.Errorf("disk full")
	}
	return s.BlobStore.Update(ctx, key, fn)
}

func TestFinishRetriesAfterFailedSave(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{BlobStore: database.NewMemoryStore()}
	repos := database.NewRepositories(store)

	now := t0
	svc := NewService(repos, nil, zap.NewNop())
	svc.Now = func() time.Time { return now }

	game, err := svc.StartWith(ctx, vocabulary(3))
	require.NoError(t, err)
	q, _, _ := game.Current(now)
	now = now.Add(time.Second)
	_, err = svc.Answer(ctx, game.ID, q.Correct())
	require.NoError(t, err)
	now = now.Add(time.Minute)

	store.failUpdates = true
	_, err = svc.Finish(ctx, game)
	require.Error(t, err)

	store.failUpdates = false
	out, err := svc.Finish(ctx, game)
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, out.Status)
	assert.Equal(t, 200, out.HighScore)
	assert.True(t, out.NewRecord)
}

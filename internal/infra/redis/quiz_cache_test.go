package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinquiz/internal/domain"
	"pinquiz/internal/infra/memory"
)

func TestQuizCacheStoresPublishedQuizInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	loader := &countingLoader{QuizLoader: memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"12345678": sampleQuiz(),
	})}
	cache := NewQuizCache(newClient(mr), loader, time.Minute)

	quiz, err := cache.GetQuiz(context.Background(), "12345678")
	require.NoError(t, err)
	assert.Equal(t, sampleQuiz(), quiz)
	assert.Equal(t, 1, loader.count())
	assert.True(t, mr.Exists("quiz:12345678:published"))

	ttl := mr.TTL("quiz:12345678:published")
	assert.GreaterOrEqual(t, ttl, time.Minute)
	assert.LessOrEqual(t, ttl, time.Minute+6*time.Second)

	quiz, err = cache.GetQuiz(context.Background(), "12345678")
	require.NoError(t, err)
	assert.Equal(t, sampleQuiz(), quiz, "round trip keeps the answer key")
	assert.Equal(t, 1, loader.count(), "second read is served from redis")
}

func TestQuizCacheReloadsAfterExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	loader := &countingLoader{QuizLoader: memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"12345678": sampleQuiz(),
	})}
	cache := NewQuizCache(newClient(mr), loader, time.Minute)

	_, err := cache.GetQuiz(context.Background(), "12345678")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = cache.GetQuiz(context.Background(), "12345678")
	require.NoError(t, err)
	assert.Equal(t, 2, loader.count())
}

func TestQuizCacheDoesNotCacheMisses(t *testing.T) {
	mr := miniredis.RunT(t)
	draft := sampleQuiz()
	draft.Published = false
	loader := &countingLoader{QuizLoader: memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"87654321": draft,
	})}
	cache := NewQuizCache(newClient(mr), loader, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := cache.GetQuiz(context.Background(), "87654321")
		assert.ErrorIs(t, err, domain.ErrNotFoundOrUnpublished)
	}
	assert.Equal(t, 2, loader.count())
	assert.False(t, mr.Exists("quiz:87654321:published"))
}

func TestQuizCacheFallsBackWhenRedisIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := newClient(mr)
	loader := &countingLoader{QuizLoader: memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"12345678": sampleQuiz(),
	})}
	cache := NewQuizCache(client, loader, time.Minute)
	mr.Close()

	quiz, err := cache.GetQuiz(context.Background(), "12345678")
	require.NoError(t, err)
	assert.Equal(t, "12345678", quiz.Pin)
}

type countingLoader struct {
	QuizLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, pin string) (domain.Quiz, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.QuizLoader.LoadQuiz(ctx, pin)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:        7,
		Name:      "Arithmetic",
		Pin:       "12345678",
		Published: true,
		OwnerID:   1,
		Questions: []domain.Question{
			{
				Number:   1,
				Question: "What is 2 + 2?",
				Choices: []domain.Choice{
					{Text: "3", Correct: false},
					{Text: "4", Correct: true},
				},
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"pinquiz/internal/domain"
)

func TestQuizCacheCaches(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.Quiz{
			"12345678": sampleQuiz(),
		}),
	}
	repo := NewQuizCache(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "12345678"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), "12345678"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizCacheDoesNotCacheMisses(t *testing.T) {
	draft := sampleQuiz()
	draft.Published = false
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader(map[string]domain.Quiz{"12345678": draft})}
	repo := NewQuizCache(loader, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := repo.GetQuiz(context.Background(), "12345678")
		if !errors.Is(err, domain.ErrNotFoundOrUnpublished) {
			t.Fatalf("expected unpublished error, got %v", err)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected every miss to reach the loader, got %d calls", loader.calls)
	}
}

func TestQuizCacheExpires(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader(map[string]domain.Quiz{"12345678": sampleQuiz()})}
	repo := NewQuizCache(loader, time.Minute)
	now := time.Now()
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuiz(context.Background(), "12345678")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), "12345678")
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, got %d calls", loader.calls)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, pin string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, pin)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:        1,
		Name:      "Arithmetic",
		Pin:       "12345678",
		Published: true,
		Questions: []domain.Question{
			{
				Number:   1,
				Question: "2+2=?",
				Choices: []domain.Choice{
					{Text: "4", Correct: true},
					{Text: "5", Correct: false},
				},
			},
		},
	}
}

func TestQuizCacheSweepsExpiredEntries(t *testing.T) {
	second := sampleQuiz()
	second.Pin = "87654321"
	loader := NewStaticQuizLoader(map[string]domain.Quiz{"12345678": sampleQuiz(), "87654321": second})
	repo := NewQuizCache(loader, time.Minute)
	now := time.Now()
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuiz(context.Background(), "12345678")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), "87654321")

	if _, ok := repo.entries["12345678"]; ok {
		t.Fatalf("expected expired entry to be swept")
	}
	if _, ok := repo.entries["87654321"]; !ok {
		t.Fatalf("expected fresh entry to be cached")
	}
}

func TestLifetimeSpreadsWithinTenPercent(t *testing.T) {
	for _, pin := range []string{"00000000", "12345678", "99999999"} {
		got := lifetime(time.Minute, pin)
		if got < time.Minute || got > time.Minute+6*time.Second {
			t.Fatalf("lifetime(%s) = %v, want within [1m, 1m6s]", pin, got)
		}
		if got != lifetime(time.Minute, pin) {
			t.Fatalf("lifetime(%s) is not stable", pin)
		}
	}
}

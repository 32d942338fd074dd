package memory

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pinquiz/internal/domain"
)

// QuizLoader fetches a published quiz, answer key included, from a backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, pin string) (domain.Quiz, error)
}

// QuizCache keeps published quizzes in process. A published quiz never changes, so an
// entry is only dropped once its deadline passes; expired entries are swept at most
// once per TTL when new quizzes are stored.
type QuizCache struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	loads  singleflight.Group

	mu        sync.RWMutex
	entries   map[string]cacheEntry
	nextSweep time.Time
}

type cacheEntry struct {
	quiz     domain.Quiz
	deadline time.Time
}

func NewQuizCache(loader QuizLoader, ttl time.Duration) *QuizCache {
	return &QuizCache{
		loader:  loader,
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, pin string) (domain.Quiz, error) {
	if quiz, ok := c.lookup(pin); ok {
		return quiz, nil
	}
	v, err, _ := c.loads.Do(pin, func() (interface{}, error) {
		if quiz, ok := c.lookup(pin); ok {
			return quiz, nil
		}
		quiz, err := c.loader.LoadQuiz(ctx, pin)
		if err != nil {
			return domain.Quiz{}, err
		}
		c.store(pin, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return v.(domain.Quiz), nil
}

func (c *QuizCache) lookup(pin string) (domain.Quiz, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[pin]
	if !ok || !c.clock().Before(entry.deadline) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

func (c *QuizCache) store(pin string, quiz domain.Quiz) {
	if c.ttl <= 0 {
		return
	}
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !now.Before(c.nextSweep) {
		for key, entry := range c.entries {
			if !now.Before(entry.deadline) {
				delete(c.entries, key)
			}
		}
		c.nextSweep = now.Add(c.ttl)
	}
	c.entries[pin] = cacheEntry{quiz: quiz, deadline: now.Add(lifetime(c.ttl, pin))}
}

// lifetime stretches ttl by up to 10%, derived from the pin so that quizzes loaded
// together do not all expire together.
func lifetime(ttl time.Duration, pin string) time.Duration {
	h := fnv.New32a()
	_, _ = h.Write([]byte(pin))
	spread := int64(ttl) / 10
	return ttl + time.Duration(spread*int64(h.Sum32()%1001)/1000)
}

// StaticQuizLoader serves a fixed set of quizzes; drafts in the set are reported as unpublished.
type StaticQuizLoader struct {
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[string]domain.Quiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, pin string) (domain.Quiz, error) {
	quiz, ok := l.quizzes[pin]
	if !ok || !quiz.Published {
		return domain.Quiz{}, domain.ErrNotFoundOrUnpublished
	}
	return quiz, nil
}

package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"pinquiz/internal/domain"
)

// QuizLoader fetches a published quiz, answer key included, from a backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, pin string) (domain.Quiz, error)
}

// QuizCache keeps published quizzes in Redis as one JSON value per pin and falls back
// to a loader on a miss. A published quiz never changes, so entries only expire.
//
//	SET quiz:{pin}:published {json} EX ttl
type QuizCache struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuizCache(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, pin string) (domain.Quiz, error) {
	if quiz, ok := c.cached(ctx, pin); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(pin, func() (interface{}, error) {
		// another caller may have filled it meanwhile
		if quiz, ok := c.cached(ctx, pin); ok {
			return quiz, nil
		}

		quiz, err := c.loader.LoadQuiz(ctx, pin)
		if err != nil {
			return domain.Quiz{}, err
		}
		if raw, err := json.Marshal(quiz); err == nil {
			_ = c.client.Set(ctx, quizKey(pin), raw, c.ttlWithJitter()).Err()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// cached treats any Redis failure as a miss so the loader stays authoritative.
func (c *QuizCache) cached(ctx context.Context, pin string) (domain.Quiz, bool) {
	raw, err := c.client.Get(ctx, quizKey(pin)).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil || !quiz.Published {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func quizKey(pin string) string {
	return "quiz:" + pin + ":published"
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

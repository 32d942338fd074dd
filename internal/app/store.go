package app

import (
	"context"
	"errors"

	"pinquiz/internal/domain"
)

// Tx is the storage surface available inside a transaction. Implementations map
// missing rows to domain.ErrNotFound and unique violations to domain.ErrConflict.
type Tx interface {
	PinExists(ctx context.Context, pin string) (bool, error)
	// CreateQuiz inserts a quiz row and sets its ID.
	CreateQuiz(ctx context.Context, quiz *domain.Quiz) error
	// FindQuizByPin returns the quiz row without questions. forUpdate locks the row
	// until the transaction ends.
	FindQuizByPin(ctx context.Context, pin string, forUpdate bool) (domain.Quiz, error)
	LoadQuestions(ctx context.Context, quizID int64) ([]domain.Question, error)
	// DeleteQuestions removes every question of the quiz along with their choices.
	DeleteQuestions(ctx context.Context, quizID int64) error
	// InsertQuestions stores questions and their choices, preserving slice order.
	InsertQuestions(ctx context.Context, quizID int64, questions []domain.Question) error
	UpdateQuizName(ctx context.Context, quizID int64, name string) error
	MarkPublished(ctx context.Context, quizID int64) error
	DeleteQuiz(ctx context.Context, quizID int64) error
	ListQuizzesByOwner(ctx context.Context, ownerID int64) ([]domain.QuizSummary, error)

	FindStatus(ctx context.Context, userID, quizID int64, forUpdate bool) (domain.Status, error)
	// InsertStatus sets the ID of a new status row.
	InsertStatus(ctx context.Context, status *domain.Status) error
	UpdateStatus(ctx context.Context, status domain.Status) error
	ListStatuses(ctx context.Context, quizID int64) ([]domain.LeaderboardEntry, error)

	// CreateUser sets the ID of a new user.
	CreateUser(ctx context.Context, user *domain.User) error
	FindUserByUsername(ctx context.Context, username string) (domain.User, error)
	FindUserByID(ctx context.Context, id int64) (domain.User, error)
	// AddUserPlay bumps quizzes_done by one and correct_answers by correct.
	AddUserPlay(ctx context.Context, userID int64, correct int) error
}

// Store runs units of work atomically. A non-nil error from fn rolls back.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// PublishedQuizRepository returns published quizzes with their answer keys.
// Published quizzes never change, so implementations may cache freely.
type PublishedQuizRepository interface {
	GetQuiz(ctx context.Context, pin string) (domain.Quiz, error)
}

// StoreQuizLoader loads published quizzes straight from the Store.
type StoreQuizLoader struct {
	store Store
}

func NewStoreQuizLoader(store Store) *StoreQuizLoader {
	return &StoreQuizLoader{store: store}
}

// LoadQuiz returns domain.ErrNotFoundOrUnpublished for absent or draft quizzes.
func (l *StoreQuizLoader) LoadQuiz(ctx context.Context, pin string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := l.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		q, err := tx.FindQuizByPin(ctx, pin, false)
		if err != nil {
			return err
		}
		if !q.Published {
			return domain.ErrNotFoundOrUnpublished
		}
		q.Questions, err = tx.LoadQuestions(ctx, q.ID)
		if err != nil {
			return err
		}
		quiz = q
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Quiz{}, domain.ErrNotFoundOrUnpublished
	}
	return quiz, err
}

// GetQuiz lets the loader serve as an uncached PublishedQuizRepository.
func (l *StoreQuizLoader) GetQuiz(ctx context.Context, pin string) (domain.Quiz, error) {
	return l.LoadQuiz(ctx, pin)
}

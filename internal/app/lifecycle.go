package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"pinquiz/internal/domain"
	"pinquiz/internal/platform/logger"
)

// createAttempts bounds how often quiz creation is retried after losing a pin race
// at insert time.
const createAttempts = 3

// QuizLifecycle governs the draft -> published state machine of quizzes.
type QuizLifecycle struct {
	store     Store
	pins      *PinAllocator
	published PublishedQuizRepository
	log       *logger.Logger
}

func NewQuizLifecycle(store Store, pins *PinAllocator, published PublishedQuizRepository, log *logger.Logger) *QuizLifecycle {
	return &QuizLifecycle{
		store:     store,
		pins:      pins,
		published: published,
		log:       log.With("component", "lifecycle"),
	}
}

// Create allocates a pin and stores an empty draft owned by ownerID.
func (l *QuizLifecycle) Create(ctx context.Context, ownerID int64) (domain.Quiz, error) {
	var quiz domain.Quiz
	var err error
	for attempt := 0; attempt < createAttempts; attempt++ {
		err = l.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
			pin, err := l.pins.Allocate(ctx, tx)
			if err != nil {
				return err
			}
			quiz = domain.Quiz{Name: domain.DefaultQuizName, Pin: pin, OwnerID: ownerID}
			return tx.CreateQuiz(ctx, &quiz)
		})
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
		l.log.Warn("pin collided at insert, retrying", "attempt", attempt+1)
	}
	if errors.Is(err, domain.ErrConflict) {
		return domain.Quiz{}, domain.ErrAllocationExhausted
	}
	if err != nil {
		return domain.Quiz{}, err
	}
	l.log.Info("quiz created", "pin", quiz.Pin, "owner", ownerID)
	return quiz, nil
}

// ReplaceQuestions discards every question of a draft and rebuilds them from
// questions, in order, and renames the quiz.
func (l *QuizLifecycle) ReplaceQuestions(ctx context.Context, pin string, ownerID int64, name string, questions []domain.Question) error {
	err := l.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		quiz, err := lockOwnedQuiz(ctx, tx, pin, ownerID)
		if err != nil {
			return err
		}
		if quiz.Published {
			return domain.ErrAlreadyPublished
		}
		if utf8.RuneCountInString(name) > domain.MaxNameLength {
			return fmt.Errorf("%w: name longer than %d characters", domain.ErrInvalidQuiz, domain.MaxNameLength)
		}
		if err := validateQuestions(questions); err != nil {
			return err
		}
		if err := tx.DeleteQuestions(ctx, quiz.ID); err != nil {
			return err
		}
		if err := tx.InsertQuestions(ctx, quiz.ID, questions); err != nil {
			return err
		}
		if strings.TrimSpace(name) == "" {
			name = domain.DefaultQuizName
		}
		return tx.UpdateQuizName(ctx, quiz.ID, name)
	})
	if err != nil {
		return err
	}
	l.log.Debug("questions replaced", "pin", pin, "count", len(questions))
	return nil
}

// Publish makes a quiz playable. Publishing twice is harmless.
func (l *QuizLifecycle) Publish(ctx context.Context, pin string, ownerID int64) error {
	err := l.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		quiz, err := lockOwnedQuiz(ctx, tx, pin, ownerID)
		if err != nil {
			return err
		}
		if quiz.Published {
			return nil
		}
		return tx.MarkPublished(ctx, quiz.ID)
	})
	if err != nil {
		return err
	}
	l.log.Info("quiz published", "pin", pin, "owner", ownerID)
	return nil
}

// Delete removes a draft together with its questions and choices.
func (l *QuizLifecycle) Delete(ctx context.Context, pin string, ownerID int64) error {
	err := l.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		quiz, err := lockOwnedQuiz(ctx, tx, pin, ownerID)
		if err != nil {
			return err
		}
		if quiz.Published {
			return domain.ErrAlreadyPublished
		}
		if err := tx.DeleteQuestions(ctx, quiz.ID); err != nil {
			return err
		}
		return tx.DeleteQuiz(ctx, quiz.ID)
	})
	if err != nil {
		return err
	}
	l.log.Info("quiz deleted", "pin", pin, "owner", ownerID)
	return nil
}

// GetForEdit returns a draft with its answer key, for its owner only.
func (l *QuizLifecycle) GetForEdit(ctx context.Context, pin string, ownerID int64) (domain.EditView, error) {
	var view domain.EditView
	err := l.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		quiz, err := tx.FindQuizByPin(ctx, pin, false)
		if err != nil {
			return err
		}
		if quiz.OwnerID != ownerID {
			return domain.ErrNotFound
		}
		if quiz.Published {
			return domain.ErrAlreadyPublished
		}
		questions, err := tx.LoadQuestions(ctx, quiz.ID)
		if err != nil {
			return err
		}
		if questions == nil {
			questions = []domain.Question{}
		}
		view = domain.EditView{Name: quiz.Name, Pin: quiz.Pin, Published: quiz.Published, Questions: questions}
		return nil
	})
	return view, err
}

// GetForPlay returns a published quiz without its answer key.
func (l *QuizLifecycle) GetForPlay(ctx context.Context, pin string) (domain.PlayView, error) {
	quiz, err := l.published.GetQuiz(ctx, pin)
	if err != nil {
		return domain.PlayView{}, err
	}
	return NewPlayView(quiz), nil
}

// Exists reports whether pin names a published quiz.
func (l *QuizLifecycle) Exists(ctx context.Context, pin string) (bool, error) {
	_, err := l.published.GetQuiz(ctx, pin)
	if errors.Is(err, domain.ErrNotFoundOrUnpublished) {
		return false, nil
	}
	return err == nil, err
}

// ListOwned returns summaries of every quiz owned by ownerID.
func (l *QuizLifecycle) ListOwned(ctx context.Context, ownerID int64) ([]domain.QuizSummary, error) {
	var out []domain.QuizSummary
	err := l.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListQuizzesByOwner(ctx, ownerID)
		return err
	})
	return out, err
}

// NewPlayView strips the answer key from a quiz.
func NewPlayView(quiz domain.Quiz) domain.PlayView {
	view := domain.PlayView{
		Name:      quiz.Name,
		Pin:       quiz.Pin,
		Published: quiz.Published,
		Questions: make([]domain.PlayQuestion, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		pq := domain.PlayQuestion{Number: q.Number, Question: q.Question, Choices: make([]domain.PlayChoice, 0, len(q.Choices))}
		for _, c := range q.Choices {
			pq.Choices = append(pq.Choices, domain.PlayChoice{Text: c.Text})
		}
		view.Questions = append(view.Questions, pq)
	}
	return view
}

// lockOwnedQuiz locks the quiz row so the published flag read here stays valid
// until the mutation commits. A foreign owner is indistinguishable from absence.
func lockOwnedQuiz(ctx context.Context, tx Tx, pin string, ownerID int64) (domain.Quiz, error) {
	quiz, err := tx.FindQuizByPin(ctx, pin, true)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.OwnerID != ownerID {
		return domain.Quiz{}, domain.ErrNotFound
	}
	return quiz, nil
}

func validateQuestions(questions []domain.Question) error {
	numbers := make(map[int]struct{}, len(questions))
	for _, q := range questions {
		if _, dup := numbers[q.Number]; dup {
			return fmt.Errorf("%w: duplicate question number %d", domain.ErrInvalidQuiz, q.Number)
		}
		numbers[q.Number] = struct{}{}

		texts := make(map[string]struct{}, len(q.Choices))
		for _, c := range q.Choices {
			if _, dup := texts[c.Text]; dup {
				return fmt.Errorf("%w: duplicate choice %q in question %d", domain.ErrInvalidQuiz, c.Text, q.Number)
			}
			texts[c.Text] = struct{}{}
		}
	}
	return nil
}

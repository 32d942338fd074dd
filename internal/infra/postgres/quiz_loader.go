package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pinquiz/internal/domain"
)

// QuizLoader reads published quizzes with their answer key straight from Postgres.
// It sits behind a cache and never sees drafts.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

const publishedQuizSQL = `
SELECT q.id, q.name, q.pin, q.user_id
FROM quiz q
WHERE q.pin = $1 AND q.published`

const quizContentSQL = `
SELECT cq.id, cq.number, cq.question, c.text, c.correct
FROM choice_question cq
LEFT JOIN choice c ON c.choice_question_id = cq.id
WHERE cq.quiz_id = $1
ORDER BY cq.position, cq.id, c.position, c.id`

func (l *QuizLoader) LoadQuiz(ctx context.Context, pin string) (domain.Quiz, error) {
	quiz := domain.Quiz{Published: true}
	err := l.pool.QueryRow(ctx, publishedQuizSQL, pin).Scan(&quiz.ID, &quiz.Name, &quiz.Pin, &quiz.OwnerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrNotFoundOrUnpublished
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := l.pool.Query(ctx, quizContentSQL, quiz.ID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz content: %w", err)
	}
	defer rows.Close()

	var lastID int64 = -1
	for rows.Next() {
		var (
			questionID int64
			number     int
			text       string
			choiceText *string
			correct    *bool
		)
		if err := rows.Scan(&questionID, &number, &text, &choiceText, &correct); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan quiz content: %w", err)
		}
		if questionID != lastID {
			quiz.Questions = append(quiz.Questions, domain.Question{Number: number, Question: text})
			lastID = questionID
		}
		if choiceText != nil {
			q := &quiz.Questions[len(quiz.Questions)-1]
			q.Choices = append(q.Choices, domain.Choice{Text: *choiceText, Correct: correct != nil && *correct})
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("read quiz content: %w", err)
	}
	return quiz, nil
}

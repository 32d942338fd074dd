package app

import (
	"context"
	"fmt"

	"pinquiz/internal/domain"
)

// GradingEngine scores submissions against the answer key of published quizzes.
type GradingEngine struct {
	quizzes PublishedQuizRepository
}

func NewGradingEngine(quizzes PublishedQuizRepository) *GradingEngine {
	return &GradingEngine{quizzes: quizzes}
}

// Grade loads the published quiz behind pin and scores the submission. It has no
// side effects; recording the play is up to the caller.
func (g *GradingEngine) Grade(ctx context.Context, pin string, submission domain.Submission) (domain.GradeResult, error) {
	quiz, err := g.quizzes.GetQuiz(ctx, pin)
	if err != nil {
		return domain.GradeResult{}, err
	}
	return ScoreSubmission(quiz, submission)
}

type questionKey struct {
	number int
	text   string
}

// ScoreSubmission counts fully correct questions. A question is matched by number and
// text; a choice by text. Each stored question is credited at most once, judged by its
// first occurrence in the submission. The grade divides by the stored question count
// and is 0 for a quiz without questions.
func ScoreSubmission(quiz domain.Quiz, submission domain.Submission) (domain.GradeResult, error) {
	index := make(map[questionKey]int, len(quiz.Questions))
	for i, q := range quiz.Questions {
		key := questionKey{number: q.Number, text: q.Question}
		if _, ok := index[key]; !ok {
			index[key] = i
		}
	}

	seen := make(map[int]struct{}, len(submission.Questions))
	correct := 0
	for _, sq := range submission.Questions {
		i, ok := index[questionKey{number: sq.Number, text: sq.Question}]
		if !ok {
			return domain.GradeResult{}, fmt.Errorf("%w: question %d %q", domain.ErrUnknownQuestionOrChoice, sq.Number, sq.Question)
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}

		ok, err := questionCorrect(quiz.Questions[i], sq)
		if err != nil {
			return domain.GradeResult{}, err
		}
		if ok {
			correct++
		}
	}

	total := len(quiz.Questions)
	return domain.GradeResult{
		QuizID:         quiz.ID,
		CorrectCount:   correct,
		TotalQuestions: total,
		Grade:          percentage(correct, total),
	}, nil
}

// questionCorrect holds when every submitted claim matches the stored flag. Choices the
// player left out are not judged; contradicting duplicate claims can never all match.
func questionCorrect(stored domain.Question, submitted domain.SubmittedQuestion) (bool, error) {
	flags := make(map[string]bool, len(stored.Choices))
	for _, c := range stored.Choices {
		flags[c.Text] = c.Correct
	}

	correct := true
	for _, c := range submitted.Choices {
		flag, ok := flags[c.Text]
		if !ok {
			return false, fmt.Errorf("%w: choice %q in question %d", domain.ErrUnknownQuestionOrChoice, c.Text, submitted.Number)
		}
		if flag != c.Correct {
			correct = false
		}
	}
	return correct, nil
}

func percentage(correct, total int) int {
	if total == 0 {
		return 0
	}
	return correct * 100 / total
}

package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinquiz/internal/app"
	"pinquiz/internal/domain"
)

func arithmeticQuiz() domain.Quiz {
	return domain.Quiz{
		ID:        7,
		Pin:       "12345678",
		Published: true,
		Questions: []domain.Question{
			{Number: 1, Question: "2+2=?", Choices: []domain.Choice{{Text: "4", Correct: true}, {Text: "5", Correct: false}}},
		},
	}
}

func answer(number int, question string, claims ...domain.SubmittedChoice) domain.SubmittedQuestion {
	return domain.SubmittedQuestion{Number: number, Question: question, Choices: claims}
}

func claim(text string, correct bool) domain.SubmittedChoice {
	return domain.SubmittedChoice{Text: text, Correct: correct}
}

func TestScoreSubmissionExample(t *testing.T) {
	quiz := arithmeticQuiz()

	res, err := app.ScoreSubmission(quiz, domain.Submission{Questions: []domain.SubmittedQuestion{
		answer(1, "2+2=?", claim("4", true), claim("5", false)),
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CorrectCount)
	assert.Equal(t, 100, res.Grade)
	assert.Equal(t, int64(7), res.QuizID)

	res, err = app.ScoreSubmission(quiz, domain.Submission{Questions: []domain.SubmittedQuestion{
		answer(1, "2+2=?", claim("4", true), claim("5", true)),
	}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.CorrectCount)
	assert.Equal(t, 0, res.Grade)
}

func TestScoreSubmissionIsDeterministic(t *testing.T) {
	quiz := arithmeticQuiz()
	sub := domain.Submission{Questions: []domain.SubmittedQuestion{answer(1, "2+2=?", claim("4", true))}}

	first, err := app.ScoreSubmission(quiz, sub)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := app.ScoreSubmission(quiz, sub)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestScoreSubmissionUnknownReferences(t *testing.T) {
	quiz := arithmeticQuiz()

	_, err := app.ScoreSubmission(quiz, domain.Submission{Questions: []domain.SubmittedQuestion{
		answer(2, "2+2=?", claim("4", true)),
	}})
	assert.ErrorIs(t, err, domain.ErrUnknownQuestionOrChoice, "number must match")

	_, err = app.ScoreSubmission(quiz, domain.Submission{Questions: []domain.SubmittedQuestion{
		answer(1, "2+3=?", claim("4", true)),
	}})
	assert.ErrorIs(t, err, domain.ErrUnknownQuestionOrChoice, "text must match")

	_, err = app.ScoreSubmission(quiz, domain.Submission{Questions: []domain.SubmittedQuestion{
		answer(1, "2+2=?", claim("four", true)),
	}})
	assert.ErrorIs(t, err, domain.ErrUnknownQuestionOrChoice, "choice must match")
}

func TestScoreSubmissionZeroQuestionsClampsToZero(t *testing.T) {
	res, err := app.ScoreSubmission(domain.Quiz{ID: 1, Published: true}, domain.Submission{})
	require.NoError(t, err)
	assert.Equal(t, domain.GradeResult{QuizID: 1}, res)
}

func TestScoreSubmissionDividesByStoredTotal(t *testing.T) {
	quiz := arithmeticQuiz()
	quiz.Questions = append(quiz.Questions,
		domain.Question{Number: 2, Question: "3+3=?", Choices: []domain.Choice{{Text: "6", Correct: true}, {Text: "7"}}},
		domain.Question{Number: 3, Question: "1+1=?", Choices: []domain.Choice{{Text: "2", Correct: true}}},
	)

	res, err := app.ScoreSubmission(quiz, domain.Submission{Questions: []domain.SubmittedQuestion{
		answer(1, "2+2=?", claim("4", true), claim("5", false)),
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CorrectCount)
	assert.Equal(t, 3, res.TotalQuestions)
	assert.Equal(t, 33, res.Grade)
}

func TestScoreSubmissionCreditsEachQuestionOnce(t *testing.T) {
	quiz := arithmeticQuiz()
	right := answer(1, "2+2=?", claim("4", true))

	res, err := app.ScoreSubmission(quiz, domain.Submission{Questions: []domain.SubmittedQuestion{right, right, right}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CorrectCount)
	assert.Equal(t, 100, res.Grade)

	wrongFirst := answer(1, "2+2=?", claim("5", true))
	res, err = app.ScoreSubmission(quiz, domain.Submission{Questions: []domain.SubmittedQuestion{wrongFirst, right}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.CorrectCount)
}

func TestScoreSubmissionJudgesOnlySubmittedClaims(t *testing.T) {
	res, err := app.ScoreSubmission(arithmeticQuiz(), domain.Submission{Questions: []domain.SubmittedQuestion{
		answer(1, "2+2=?", claim("5", false)),
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CorrectCount, "a partial but accurate claim set is credited")
	assert.Equal(t, 100, res.Grade)

	res, err = app.ScoreSubmission(arithmeticQuiz(), domain.Submission{Questions: []domain.SubmittedQuestion{
		answer(1, "2+2=?"),
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CorrectCount, "a question answered with no claims has nothing wrong")

	quiz := domain.Quiz{Published: true, Questions: []domain.Question{{
		Number: 1, Question: "primes", Choices: []domain.Choice{
			{Text: "2", Correct: true}, {Text: "3", Correct: true}, {Text: "4"},
		},
	}}}
	res, err = app.ScoreSubmission(quiz, domain.Submission{Questions: []domain.SubmittedQuestion{
		answer(1, "primes", claim("2", true)),
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CorrectCount)

	res, err = app.ScoreSubmission(quiz, domain.Submission{Questions: []domain.SubmittedQuestion{
		answer(1, "primes", claim("2", true), claim("4", true)),
	}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.CorrectCount, "one wrong claim fails the question")

	res, err = app.ScoreSubmission(quiz, domain.Submission{Questions: []domain.SubmittedQuestion{
		answer(1, "primes", claim("3", true), claim("3", false)),
	}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.CorrectCount, "contradicting claims are wrong")
}

func TestScoreSubmissionUnansweredQuestionsAreNotCredited(t *testing.T) {
	res, err := app.ScoreSubmission(arithmeticQuiz(), domain.Submission{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.CorrectCount)
	assert.Equal(t, 1, res.TotalQuestions)
}

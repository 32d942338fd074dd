package domain

import "errors"

var (
	// ErrNotFound is returned when no entity matches the key, including an owner mismatch.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyPublished is returned when a mutation targets a published quiz.
	ErrAlreadyPublished = errors.New("quiz already published")
	// ErrNotFoundOrUnpublished is returned to players for absent or draft quizzes.
	ErrNotFoundOrUnpublished = errors.New("quiz not found or not published")
	// ErrUnknownQuestionOrChoice indicates a submission references a question or choice the quiz does not have.
	ErrUnknownQuestionOrChoice = errors.New("unknown question or choice")
	// ErrAllocationExhausted is returned when no free pin was found within the retry budget.
	ErrAllocationExhausted = errors.New("pin allocation exhausted")
	// ErrInvalidQuiz rejects question sets that would make answer matching ambiguous.
	ErrInvalidQuiz = errors.New("invalid quiz content")
	// ErrUsernameTaken is returned on signup with an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthorized is returned when no valid identity accompanies a request.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is returned by stores when a unique constraint rejects a write.
	ErrConflict = errors.New("unique constraint conflict")
)

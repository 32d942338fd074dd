package domain

// DefaultQuizName is assigned to freshly created drafts.
const DefaultQuizName = "MyQuiz"

// MaxNameLength bounds quiz names and usernames, in characters.
const MaxNameLength = 100

// User is an account with cumulative play counters.
type User struct {
	ID             int64
	Username       string
	PasswordHash   string
	QuizzesDone    int
	CorrectAnswers int
}

// UserInfo is the public profile summary of a user.
type UserInfo struct {
	Username       string `json:"username"`
	QuizzesDone    int    `json:"quizzes_done"`
	CorrectAnswers int    `json:"correct_answers"`
	QuizzesMade    int    `json:"quizzes_made"`
}

// Choice is one option of a question; Correct is part of the answer key.
type Choice struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is a multiple-choice question. Number is unique within its quiz.
type Question struct {
	Number   int      `json:"number"`
	Question string   `json:"question"`
	Choices  []Choice `json:"choices"`
}

// Quiz is the authoring aggregate. Questions is only populated when loaded explicitly.
type Quiz struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Pin       string     `json:"pin"`
	Published bool       `json:"published"`
	OwnerID   int64      `json:"user_id"`
	Questions []Question `json:"choice_questions"`
}

// QuizSummary lists a quiz without its content.
type QuizSummary struct {
	Name      string `json:"name"`
	Pin       string `json:"pin"`
	Published bool   `json:"published"`
}

// EditView is what an owner sees while editing a draft, answer key included.
type EditView struct {
	Name      string     `json:"name"`
	Pin       string     `json:"pin"`
	Published bool       `json:"published"`
	Questions []Question `json:"choice_questions"`
}

// PlayChoice is a choice as shown to players. It has no correctness field.
type PlayChoice struct {
	Text string `json:"text"`
}

// PlayQuestion is a question as shown to players.
type PlayQuestion struct {
	Number   int          `json:"number"`
	Question string       `json:"question"`
	Choices  []PlayChoice `json:"choices"`
}

// PlayView is a published quiz with the answer key stripped.
type PlayView struct {
	Name      string         `json:"name"`
	Pin       string         `json:"pin"`
	Published bool           `json:"published"`
	Questions []PlayQuestion `json:"choice_questions"`
}

// SubmittedChoice carries the player's claim about one choice.
type SubmittedChoice struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// SubmittedQuestion is one answered question; Number and Question together identify it.
type SubmittedQuestion struct {
	Number   int               `json:"number"`
	Question string            `json:"question"`
	Choices  []SubmittedChoice `json:"choices"`
}

// Submission is a full play of a quiz.
type Submission struct {
	Questions []SubmittedQuestion `json:"questions"`
}

// GradeResult is the outcome of grading a submission.
type GradeResult struct {
	QuizID         int64 `json:"-"`
	CorrectCount   int   `json:"correctAnswers"`
	TotalQuestions int   `json:"totalQuestions"`
	Grade          int   `json:"grade"`
}

// Status is the per-user, per-quiz leaderboard record.
type Status struct {
	ID           int64 `json:"-"`
	UserID       int64 `json:"-"`
	QuizID       int64 `json:"-"`
	Grade        int   `json:"grade"`
	AmountPlayed int   `json:"amount_played"`
}

// LeaderboardEntry is one row of a quiz leaderboard.
type LeaderboardEntry struct {
	Username     string `json:"username"`
	Grade        int    `json:"grade"`
	AmountPlayed int    `json:"amount_played"`
}

// PlayResult combines a grade with the updated status record.
type PlayResult struct {
	GradeResult
	Status Status `json:"status"`
}

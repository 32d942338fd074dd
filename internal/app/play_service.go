package app

import (
	"context"

	"pinquiz/internal/domain"
)

// PlayService grades a play and records it on the leaderboard.
type PlayService struct {
	quizzes PublishedQuizRepository
	grader  *GradingEngine
	board   *LeaderboardAggregator
}

func NewPlayService(quizzes PublishedQuizRepository, grader *GradingEngine, board *LeaderboardAggregator) *PlayService {
	return &PlayService{quizzes: quizzes, grader: grader, board: board}
}

// Play grades submission for the published quiz behind pin and records the result
// for userID. Nothing is recorded when grading fails.
func (s *PlayService) Play(ctx context.Context, userID int64, pin string, submission domain.Submission) (domain.PlayResult, error) {
	result, err := s.grader.Grade(ctx, pin, submission)
	if err != nil {
		return domain.PlayResult{}, err
	}
	status, err := s.board.RecordPlay(ctx, userID, result.QuizID, result)
	if err != nil {
		return domain.PlayResult{}, err
	}
	return domain.PlayResult{GradeResult: result, Status: status}, nil
}

// Leaderboard lists the players of the published quiz behind pin.
func (s *PlayService) Leaderboard(ctx context.Context, pin string) ([]domain.LeaderboardEntry, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, pin)
	if err != nil {
		return nil, err
	}
	return s.board.ListForQuiz(ctx, quiz.ID)
}

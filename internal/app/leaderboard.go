package app

import (
	"context"
	"errors"
	"sort"

	"pinquiz/internal/domain"
	"pinquiz/internal/platform/logger"
)

// LeaderboardAggregator keeps per-user, per-quiz best grades and play counts.
type LeaderboardAggregator struct {
	store Store
	log   *logger.Logger
}

func NewLeaderboardAggregator(store Store, log *logger.Logger) *LeaderboardAggregator {
	return &LeaderboardAggregator{store: store, log: log.With("component", "leaderboard")}
}

// RecordPlay merges result into the user's status for the quiz and bumps the user's
// cumulative counters, all in one transaction.
func (a *LeaderboardAggregator) RecordPlay(ctx context.Context, userID, quizID int64, result domain.GradeResult) (domain.Status, error) {
	var status domain.Status
	var err error
	// Two first plays racing on the same pair: the loser hits the unique
	// constraint and retries as an update.
	for attempt := 0; attempt < 2; attempt++ {
		err = a.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
			current, err := tx.FindStatus(ctx, userID, quizID, true)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				status = domain.Status{UserID: userID, QuizID: quizID, Grade: result.Grade, AmountPlayed: 1}
				if err := tx.InsertStatus(ctx, &status); err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				status = MergeStatus(current, result.Grade)
				if err := tx.UpdateStatus(ctx, status); err != nil {
					return err
				}
			}
			return tx.AddUserPlay(ctx, userID, result.CorrectCount)
		})
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
	}
	if err != nil {
		return domain.Status{}, err
	}
	a.log.Info("play recorded", "user", userID, "quiz", quizID, "grade", result.Grade, "best", status.Grade)
	return status, nil
}

// MergeStatus applies one more play: the count grows by one and the grade never regresses.
func MergeStatus(current domain.Status, grade int) domain.Status {
	current.AmountPlayed++
	if grade > current.Grade {
		current.Grade = grade
	}
	return current
}

// ListForQuiz returns one entry per player, best grade first, then fewer plays,
// then username.
func (a *LeaderboardAggregator) ListForQuiz(ctx context.Context, quizID int64) ([]domain.LeaderboardEntry, error) {
	var entries []domain.LeaderboardEntry
	err := a.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		entries, err = tx.ListStatuses(ctx, quizID)
		return err
	})
	if err != nil {
		return nil, err
	}
	SortLeaderboard(entries)
	return entries, nil
}

// SortLeaderboard orders entries the way ListForQuiz documents.
func SortLeaderboard(entries []domain.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Grade != entries[j].Grade {
			return entries[i].Grade > entries[j].Grade
		}
		if entries[i].AmountPlayed != entries[j].AmountPlayed {
			return entries[i].AmountPlayed < entries[j].AmountPlayed
		}
		return entries[i].Username < entries[j].Username
	})
}

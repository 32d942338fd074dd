package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"pinquiz/internal/domain"
	"pinquiz/internal/platform/logger"
)

// UserService handles signup, login and profile stats.
type UserService struct {
	store    Store
	hashCost int
	log      *logger.Logger
}

func NewUserService(store Store, log *logger.Logger) *UserService {
	return NewUserServiceWithCost(store, bcrypt.DefaultCost, log)
}

// NewUserServiceWithCost lets tests trade hash strength for speed.
func NewUserServiceWithCost(store Store, cost int, log *logger.Logger) *UserService {
	return &UserService{store: store, hashCost: cost, log: log.With("component", "users")}
}

// Signup creates an account; an existing username yields domain.ErrUsernameTaken.
func (s *UserService) Signup(ctx context.Context, username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, fmt.Errorf("%w: username and password are required", domain.ErrInvalidCredentials)
	}
	if utf8.RuneCountInString(username) > domain.MaxNameLength {
		return domain.User{}, fmt.Errorf("%w: username longer than %d characters", domain.ErrInvalidCredentials, domain.MaxNameLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return domain.User{}, fmt.Errorf("%w: password too long", domain.ErrInvalidCredentials)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{Username: username, PasswordHash: string(hash)}
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.CreateUser(ctx, &user)
	})
	if errors.Is(err, domain.ErrConflict) {
		return domain.User{}, domain.ErrUsernameTaken
	}
	if err != nil {
		return domain.User{}, err
	}
	s.log.Info("user signed up", "user", user.ID)
	return user, nil
}

// Login checks credentials and returns the user.
func (s *UserService) Login(ctx context.Context, username, password string) (domain.User, error) {
	var user domain.User
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		user, err = tx.FindUserByUsername(ctx, strings.TrimSpace(username))
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Info returns the cumulative stats of a user.
func (s *UserService) Info(ctx context.Context, userID int64) (domain.UserInfo, error) {
	var info domain.UserInfo
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		user, err := tx.FindUserByID(ctx, userID)
		if err != nil {
			return err
		}
		quizzes, err := tx.ListQuizzesByOwner(ctx, userID)
		if err != nil {
			return err
		}
		info = domain.UserInfo{
			Username:       user.Username,
			QuizzesDone:    user.QuizzesDone,
			CorrectAnswers: user.CorrectAnswers,
			QuizzesMade:    len(quizzes),
		}
		return nil
	})
	return info, err
}

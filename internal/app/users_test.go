package app_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinquiz/internal/domain"
)

func TestSignupAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Signup(ctx, "alice", "other")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
	_, err = f.users.Signup(ctx, "  ", "pw")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.users.Signup(ctx, strings.Repeat("u", domain.MaxNameLength+1), "pw")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.users.Signup(ctx, "carol", strings.Repeat("p", 73))
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	user, err := f.users.Login(ctx, "alice", "secret-a")
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, user.ID)
	assert.NotEqual(t, "secret-a", user.PasswordHash)

	_, err = f.users.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.users.Login(ctx, "nobody", "secret-a")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestUserInfoCountsQuizzesMade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.publishedQuiz(t, f.alice)
	_, err := f.lifecycle.Create(ctx, f.alice.ID)
	require.NoError(t, err)

	info, err := f.users.Info(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserInfo{Username: "alice", QuizzesMade: 2}, info)

	_, err = f.users.Info(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

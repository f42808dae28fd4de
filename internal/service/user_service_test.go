package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/repository"
	"yatube/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(stores repository.Set, accessTTL time.Duration) (*UserService, *memory.SessionRepository) {
	sessions := memory.NewSessionRepository()
	tokens := pkg.NewTokenIssuer("access-secret", "refresh-secret", accessTTL, time.Hour)
	return NewUserService(stores.Users, sessions, tokens), sessions
}

func TestRegisterAndLogin(t *testing.T) {
	stores := newStores()
	svc, sessions := newUserService(stores, time.Minute)
	ctx := context.Background()

	u, err := svc.Register(ctx, SignupForm{Username: "leo", Password: "password123"})
	require.NoError(t, err)
	assert.NotEqual(t, "password123", u.Password)
	assert.Equal(t, model.RoleUser, u.Role)

	_, err = svc.Register(ctx, SignupForm{Username: "leo", Password: "password123"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "username", verr.Field)

	_, _, err = svc.Login(ctx, "leo", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, pair, err := svc.Login(ctx, "leo", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, user.ID)
	stored, err := sessions.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, pair.AccessToken, stored)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newUserService(newStores(), time.Minute)
	tests := []struct {
		name  string
		form  SignupForm
		field string
	}{
		{"empty username", SignupForm{Username: " ", Password: "password123"}, "username"},
		{"bad chars", SignupForm{Username: "leo tolstoy", Password: "password123"}, "username"},
		{"short password", SignupForm{Username: "leo", Password: "123"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.form)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	stores := newStores()
	svc, _ := newUserService(stores, time.Minute)
	ctx := context.Background()
	_, err := svc.Register(ctx, SignupForm{Username: "leo", Password: "password123"})
	require.NoError(t, err)
	_, pair, err := svc.Login(ctx, "leo", "password123")
	require.NoError(t, err)

	user, rotated, err := svc.Authenticate(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "leo", user.Username)
	assert.Nil(t, rotated)

	_, _, err = svc.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, ErrAuthRequired)
	_, _, err = svc.Authenticate(ctx, "garbage", "")
	assert.ErrorIs(t, err, ErrAuthRequired)

	// 新登录挤掉旧 session
	_, second, err := svc.Login(ctx, "leo", "password123")
	require.NoError(t, err)
	if second.AccessToken != pair.AccessToken {
		_, _, err = svc.Authenticate(ctx, pair.AccessToken, "")
		assert.ErrorIs(t, err, ErrSessionInvalid)
	}

	require.NoError(t, svc.Logout(ctx, user.ID))
	_, _, err = svc.Authenticate(ctx, second.AccessToken, second.RefreshToken)
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestAuthenticateRefreshesExpiredAccess(t *testing.T) {
	stores := newStores()
	// access 签发即过期
	svc, sessions := newUserService(stores, -time.Minute)
	ctx := context.Background()
	_, err := svc.Register(ctx, SignupForm{Username: "leo", Password: "password123"})
	require.NoError(t, err)
	u, pair, err := svc.Login(ctx, "leo", "password123")
	require.NoError(t, err)

	user, rotated, err := svc.Authenticate(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, user.ID)
	require.NotNil(t, rotated)
	stored, err := sessions.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, rotated.AccessToken, stored)

	// 过期且没有 refresh
	_, _, err = svc.Authenticate(ctx, rotated.AccessToken, "")
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestPromote(t *testing.T) {
	stores := newStores()
	svc, _ := newUserService(stores, time.Minute)
	ctx := context.Background()
	_, err := svc.Register(ctx, SignupForm{Username: "leo", Password: "password123"})
	require.NoError(t, err)

	u, err := svc.Promote(ctx, "leo")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
	stored, err := stores.Users.FindByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, stored.Role)

	_, err = svc.Promote(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer() *TokenIssuer {
	return NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
}

func TestGenerateAndParse(t *testing.T) {
	iss := newIssuer()
	pair, err := iss.GeneratePair(42, 1)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := iss.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, 1, claims.Role)

	claims, err = iss.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
}

func TestParseRejectsWrongToken(t *testing.T) {
	iss := newIssuer()
	pair, err := iss.GeneratePair(1, 0)
	require.NoError(t, err)

	// refresh 不能当 access 用
	_, err = iss.ParseAccess(pair.RefreshToken)
	assert.Error(t, err)
	_, err = iss.ParseRefresh(pair.AccessToken)
	assert.Error(t, err)

	other := NewTokenIssuer("other", "other", time.Minute, time.Hour)
	_, err = other.ParseAccess(pair.AccessToken)
	assert.Error(t, err)

	_, err = iss.ParseAccess("not-a-token")
	assert.Error(t, err)
}

func TestExpiry(t *testing.T) {
	iss := newIssuer()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	iss.now = func() time.Time { return now }

	pair, err := iss.GeneratePair(7, 0)
	require.NoError(t, err)

	now = now.Add(16 * time.Minute)
	_, err = iss.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)

	claims, fresh, err := iss.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	_, err = iss.ParseAccess(fresh.AccessToken)
	assert.NoError(t, err)

	now = now.Add(25 * time.Hour)
	_, _, err = iss.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshExpired)
}

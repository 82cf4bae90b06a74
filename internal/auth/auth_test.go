package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.NoError(t, CheckPassword(hash, "password123"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrPasswordMismatch)
}

func TestIssuePairAndVerify(t *testing.T) {
	issuer := NewIssuer("secret", "test", time.Minute, time.Hour)
	user := domain.User{ID: 42, Username: "alice"}

	pair, err := issuer.IssuePair(user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	claims, err := issuer.Verify(pair.Access, TokenAccess)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "alice", claims.Username)

	_, err = issuer.Verify(pair.Access, TokenRefresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = issuer.Verify(pair.Refresh, "")
	assert.NoError(t, err)
}

func TestRefresh(t *testing.T) {
	issuer := NewIssuer("secret", "test", time.Minute, time.Hour)
	pair, err := issuer.IssuePair(domain.User{ID: 7, Username: "bob"})
	require.NoError(t, err)

	access, err := issuer.Refresh(pair.Refresh)
	require.NoError(t, err)

	claims, err := issuer.Verify(access.Access, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Username)

	_, err = issuer.Refresh(pair.Access)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	issuer := NewIssuer("secret", "test", time.Minute, time.Hour)
	pair, err := issuer.IssuePair(domain.User{ID: 1, Username: "a"})
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = issuer.Verify(pair.Access, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewIssuer("other-secret", "test", time.Minute, time.Hour)
	_, err = other.Verify(pair.Refresh, "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("not-a-token", "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUserContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), domain.User{ID: 3, Username: "c"})
	user, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(3), user.ID)
}

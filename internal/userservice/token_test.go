package userservice

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/inkpost/internal/common"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testTokens(t *testing.T) *Tokens {
	tokens, err := NewTokens("access-secret", "refresh-secret")
	require.NoError(t, err)
	return tokens
}

func TestNewTokens(t *testing.T) {
	_, err := NewTokens("", "x")
	assert.Error(t, err)

	_, err = NewTokens("same", "same")
	assert.Error(t, err)
}

func TestTokens_RoundTrip(t *testing.T) {
	tokens := testTokens(t)
	id := primitive.NewObjectID()

	access, err := tokens.NewAccessToken(id)
	require.NoError(t, err)
	got, err := tokens.VerifyAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	refresh, err := tokens.NewRefreshToken(id)
	require.NoError(t, err)
	got, err = tokens.VerifyRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokens_Lifetimes(t *testing.T) {
	tokens := testTokens(t)
	id := primitive.NewObjectID()

	access, err := tokens.NewAccessToken(id)
	require.NoError(t, err)

	var claims jwt.RegisteredClaims
	_, _, err = jwt.NewParser().ParseUnverified(access, &claims)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(3*time.Hour), claims.ExpiresAt.Time, time.Minute)

	refresh, err := tokens.NewRefreshToken(id)
	require.NoError(t, err)
	_, _, err = jwt.NewParser().ParseUnverified(refresh, &claims)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokens_Rejects(t *testing.T) {
	tokens := testTokens(t)
	id := primitive.NewObjectID()

	refresh, err := tokens.NewRefreshToken(id)
	require.NoError(t, err)

	expired := &Tokens{accessSecret: tokens.accessSecret, refreshSecret: tokens.refreshSecret, accessTTL: -time.Minute, refreshTTL: -time.Minute}
	expiredAccess, err := expired.NewAccessToken(id)
	require.NoError(t, err)

	other, err := NewTokens("other-access", "other-refresh")
	require.NoError(t, err)
	forged, err := other.NewAccessToken(id)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: id.Hex()}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	notAnID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(tokens.accessSecret)
	require.NoError(t, err)

	testCases := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "refresh used as access", token: refresh},
		{name: "expired", token: expiredAccess},
		{name: "other secret", token: forged},
		{name: "unsigned", token: none},
		{name: "subject is not an id", token: notAnID},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tokens.VerifyAccessToken(tc.token)
			assert.Equal(t, common.ErrUnauthenticated, err)
		})
	}
}

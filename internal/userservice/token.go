package userservice

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sushihentaime/inkpost/internal/common"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tokens signs and verifies the two credentials: short-lived access tokens for API
// calls and long-lived refresh tokens for renewing them. Each kind has its own secret.
type Tokens struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokens(accessSecret, refreshSecret string) (*Tokens, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets must be provided")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	return &Tokens{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     AccessTokenTime,
		refreshTTL:    RefreshTokenTime,
	}, nil
}

func (t *Tokens) NewAccessToken(id primitive.ObjectID) (string, error) {
	return sign(id, t.accessSecret, t.accessTTL)
}

func (t *Tokens) NewRefreshToken(id primitive.ObjectID) (string, error) {
	return sign(id, t.refreshSecret, t.refreshTTL)
}

func (t *Tokens) VerifyAccessToken(token string) (primitive.ObjectID, error) {
	return verify(token, t.accessSecret)
}

func (t *Tokens) VerifyRefreshToken(token string) (primitive.ObjectID, error) {
	return verify(token, t.refreshSecret)
}

func sign(id primitive.ObjectID, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   id.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// verify returns common.ErrUnauthenticated for every malformed, forged or expired token.
func verify(token string, secret []byte) (primitive.ObjectID, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return primitive.NilObjectID, common.ErrUnauthenticated
	}

	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.NilObjectID, common.ErrUnauthenticated
	}

	return id, nil
}

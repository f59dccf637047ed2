package userservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/sushihentaime/inkpost/internal/common"
	"go.mongodb.org/mongo-driver/mongo"
)

type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
	ProviderFake     Provider = "fake"

	AccessTokenTime  time.Duration = 3 * time.Hour
	RefreshTokenTime time.Duration = 30 * 24 * time.Hour

	userCacheTime time.Duration = 5 * time.Minute
)

type UserService struct {
	m         *UserModel
	mb        common.MessageProducer
	c         *common.Cache
	tokens    *Tokens
	resolvers map[Provider]Resolver
	logger    *slog.Logger
}

type UserModel struct {
	coll *mongo.Collection
}

type User struct {
	common.Base     `bson:",inline"`
	OAuthProviderID string   `bson:"oauthProviderId" json:"-"`
	OAuthProvider   Provider `bson:"oauthProvider" json:"oauthProvider"`
	Email           string   `bson:"email" json:"email"`
	Username        string   `bson:"username" json:"username"`
}

// Identity is what an OAuth provider tells us about the person signing in.
type Identity struct {
	ProviderID string
	Email      string
	Username   string
}

// Resolver turns a provider-issued token into an Identity.
type Resolver interface {
	Resolve(ctx context.Context, accessToken, idToken string) (*Identity, error)
}

type SignInResult struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Created      bool   `json:"-"`
}

// UserCreatedMessage is the body of user.created events.
type UserCreatedMessage struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

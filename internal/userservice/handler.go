package userservice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/sushihentaime/inkpost/internal/common"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func NewUserService(db *mongo.Database, mb common.MessageProducer, c *common.Cache, tokens *Tokens, resolvers map[Provider]Resolver, logger *slog.Logger) *UserService {
	return &UserService{
		m:         newUserModel(db),
		mb:        mb,
		c:         c,
		tokens:    tokens,
		resolvers: resolvers,
		logger:    logger,
	}
}

// SignIn resolves the provider identity, registers the user on first sight and
// issues both credentials. Provider failures are reported as common.ErrUnauthenticated.
func (s *UserService) SignIn(ctx context.Context, provider Provider, accessToken, idToken string) (*SignInResult, error) {
	v := common.NewValidator()
	validateProvider(v, provider)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	resolver, ok := s.resolvers[provider]
	if !ok {
		v.AddError("oauthProvider", "is not enabled")
		return nil, v.ValidationError()
	}

	ident, err := resolver.Resolve(ctx, accessToken, idToken)
	if err != nil {
		return nil, common.ErrUnauthenticated
	}

	validateIdentity(v, ident)
	if !v.Valid() {
		return nil, common.ErrUnauthenticated
	}

	user, created, err := s.findOrRegister(ctx, provider, ident)
	if err != nil {
		return nil, err
	}

	if created {
		msg, err := json.Marshal(UserCreatedMessage{ID: user.ID.Hex(), Email: user.Email, Username: user.Username})
		if err != nil {
			return nil, err
		}

		// The user is already stored; a lost event only skips the welcome email.
		err = s.mb.Publish(ctx, msg, common.UserCreatedKey, common.UserExchange)
		if err != nil {
			s.logger.Error("failed to publish user created event", slog.String("user", user.ID.Hex()), slog.String("error", err.Error()))
		}
	}

	access, err := s.tokens.NewAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.NewRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &SignInResult{User: user, AccessToken: access, RefreshToken: refresh, Created: created}, nil
}

func (s *UserService) findOrRegister(ctx context.Context, provider Provider, ident *Identity) (*User, bool, error) {
	user, err := s.m.getUserByProvider(ctx, provider, ident.ProviderID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, common.ErrRecordNotFound) {
		return nil, false, err
	}

	user = &User{
		Base:            common.Base{CreatedAt: time.Now().UTC().Truncate(time.Millisecond)},
		OAuthProviderID: ident.ProviderID,
		OAuthProvider:   provider,
		Email:           ident.Email,
		Username:        usernameFor(ident),
	}

	err = s.m.insert(ctx, user)
	switch {
	case err == nil:
		return user, true, nil
	case errors.Is(err, ErrDuplicateIdentity):
		// a concurrent sign-in registered the same identity first
		user, err = s.m.getUserByProvider(ctx, provider, ident.ProviderID)
		if err != nil {
			return nil, false, err
		}
		return user, false, nil
	default:
		return nil, false, err
	}
}

// RefreshAccessToken exchanges a refresh token for a new access token.
func (s *UserService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	user, err := s.SignedInUser(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	return s.tokens.NewAccessToken(user.ID)
}

// SignedInUser returns the user a refresh token was issued for. Tokens of users
// that no longer exist are rejected.
func (s *UserService) SignedInUser(ctx context.Context, refreshToken string) (*User, error) {
	v := common.NewValidator()
	ValidateToken(v, refreshToken)
	if !v.Valid() {
		return nil, common.ErrUnauthenticated
	}

	id, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrRecordNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, err
	}

	return user, nil
}

// VerifyAccessToken returns the user id an access token was issued for.
func (s *UserService) VerifyAccessToken(token string) (primitive.ObjectID, error) {
	return s.tokens.VerifyAccessToken(token)
}

func (s *UserService) FindByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	users, err := s.FindByIDs(ctx, []primitive.ObjectID{id})
	if err != nil {
		return nil, err
	}

	u, ok := users[id]
	if !ok {
		return nil, common.ErrRecordNotFound
	}

	return u, nil
}

// FindByIDs looks users up in one query, serving what it can from the cache.
// Unknown ids are absent from the result.
func (s *UserService) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*User, error) {
	found := make(map[primitive.ObjectID]*User, len(ids))
	var missing []primitive.ObjectID

	for _, id := range ids {
		if _, ok := found[id]; ok {
			continue
		}
		if cached, ok := s.c.Get(common.CacheKeyUser(id)); ok {
			found[id] = cached.(*User)
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return found, nil
	}

	users, err := s.m.getUsersByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}

	for i := range users {
		u := &users[i]
		found[u.ID] = u
		s.c.Set(common.CacheKeyUser(u.ID), u, userCacheTime)
	}

	return found, nil
}

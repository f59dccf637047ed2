package userservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const facebookGraphURL = "https://graph.facebook.com"

// GoogleResolver accepts Google ID tokens issued for clientID.
type GoogleResolver struct {
	clientID string
	verifier googleAuthIDTokenVerifier.Verifier
}

func NewGoogleResolver(clientID string) *GoogleResolver {
	return &GoogleResolver{clientID: clientID}
}

func (r *GoogleResolver) Resolve(ctx context.Context, _, idToken string) (*Identity, error) {
	if idToken == "" {
		return nil, errors.New("google: id token missing")
	}

	if err := r.verifier.VerifyIDToken(idToken, []string{r.clientID}); err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}

	claimSet, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}

	// the subject is stable, the email address may change
	ident := &Identity{ProviderID: claimSet.Sub, Username: claimSet.Name}
	if claimSet.EmailVerified {
		ident.Email = claimSet.Email
	}

	return ident, nil
}

// FacebookResolver checks user access tokens against the Graph API with the app's own token.
type FacebookResolver struct {
	appID    string
	graphURL string
	app      *clientcredentials.Config
	client   *http.Client
}

func NewFacebookResolver(appID, appSecret string) *FacebookResolver {
	return newFacebookResolver(appID, appSecret, facebookGraphURL)
}

func newFacebookResolver(appID, appSecret, graphURL string) *FacebookResolver {
	return &FacebookResolver{
		appID:    appID,
		graphURL: graphURL,
		app: &clientcredentials.Config{
			ClientID:     appID,
			ClientSecret: appSecret,
			TokenURL:     graphURL + "/oauth/access_token",
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type facebookDebugToken struct {
	Data struct {
		IsValid bool   `json:"is_valid"`
		AppID   string `json:"app_id"`
		UserID  string `json:"user_id"`
	} `json:"data"`
}

type facebookProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (r *FacebookResolver) Resolve(ctx context.Context, accessToken, _ string) (*Identity, error) {
	if accessToken == "" {
		return nil, errors.New("facebook: access token missing")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.client)

	var debug facebookDebugToken
	q := url.Values{"input_token": {accessToken}}
	if err := getJSON(ctx, r.app.Client(ctx), r.graphURL+"/debug_token?"+q.Encode(), &debug); err != nil {
		return nil, fmt.Errorf("facebook debug_token: %w", err)
	}

	if !debug.Data.IsValid || debug.Data.AppID != r.appID || debug.Data.UserID == "" {
		return nil, errors.New("facebook: token not valid for this app")
	}

	var profile facebookProfile
	q = url.Values{"fields": {"id,name,email"}, "access_token": {accessToken}}
	if err := getJSON(ctx, r.client, r.graphURL+"/"+url.PathEscape(debug.Data.UserID)+"?"+q.Encode(), &profile); err != nil {
		return nil, fmt.Errorf("facebook profile: %w", err)
	}

	if profile.ID != debug.Data.UserID {
		return nil, errors.New("facebook: profile does not match token")
	}

	return &Identity{ProviderID: profile.ID, Email: profile.Email, Username: profile.Name}, nil
}

func getJSON(ctx context.Context, client *http.Client, u string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	return json.NewDecoder(res.Body).Decode(dst)
}

// FakeResolver signs everyone in as the same account. It must never be registered in production.
type FakeResolver struct{}

func (FakeResolver) Resolve(ctx context.Context, _, _ string) (*Identity, error) {
	return &Identity{
		ProviderID: "FakeOAuthID",
		Email:      "FakeAccount@FakeEmailAddress.com",
		Username:   "Fake Account",
	}, nil
}

// NewResolvers builds the provider table. The fake provider is only added outside production.
func NewResolvers(googleClientID, facebookAppID, facebookAppSecret string, production bool) map[Provider]Resolver {
	resolvers := map[Provider]Resolver{}
	if googleClientID != "" {
		resolvers[ProviderGoogle] = NewGoogleResolver(googleClientID)
	}
	if facebookAppID != "" {
		resolvers[ProviderFacebook] = NewFacebookResolver(facebookAppID, facebookAppSecret)
	}
	if !production {
		resolvers[ProviderFake] = FakeResolver{}
	}

	return resolvers
}

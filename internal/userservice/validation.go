package userservice

import (
	"regexp"
	"strings"

	"github.com/sushihentaime/inkpost/internal/common"
)

var (
	EmailRX = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

func validateProvider(v *common.Validator, p Provider) {
	v.Check(p != "", "oauthProvider", "must be provided")
	v.Check(p == "" || p == ProviderGoogle || p == ProviderFacebook || p == ProviderFake, "oauthProvider", "is not supported")
}

func validateIdentity(v *common.Validator, ident *Identity) {
	v.Check(ident.ProviderID != "", "oauthProviderId", "must be provided")
	v.Check(ident.Email == "" || EmailRX.MatchString(ident.Email), "email", "must be a valid email address")
}

func ValidateToken(v *common.Validator, token string) {
	v.Check(strings.TrimSpace(token) != "", "token", "must be provided")
}

// usernameFor falls back to the local part of the email when the provider has no display name.
func usernameFor(ident *Identity) string {
	name := strings.TrimSpace(ident.Username)
	if name != "" {
		return name
	}
	if i := strings.Index(ident.Email, "@"); i > 0 {
		return ident.Email[:i]
	}
	return "user"
}

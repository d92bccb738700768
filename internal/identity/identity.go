// Package identity resolves the email of the user an access token belongs to.
package identity

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/taskiq/taskiq-auth/internal/auth/constants"
)

var (
	// ErrIdentityLookup indicates the identity endpoint could not be queried
	ErrIdentityLookup = errors.New("failed to get user info")

	// ErrMissingEmail indicates the identity endpoint answered without an email
	ErrMissingEmail = errors.New("could not retrieve user email")
)

// Fetcher resolves the authenticated email for an access token. Nothing is
// cached; every call hits the provider.
type Fetcher interface {
	FetchEmail(ctx context.Context, accessToken string) (string, error)
}

// tokenClient returns an HTTP client that authenticates with accessToken on
// top of base.
func tokenClient(ctx context.Context, base *http.Client, accessToken string) *http.Client {
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	return oauth2.NewClient(ctx, staticTokenSource(accessToken))
}

func staticTokenSource(accessToken string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   constants.TokenType,
	})
}

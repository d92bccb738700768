package providers

import (
	"context"
	"errors"

	"github.com/taskiq/taskiq-auth/internal/auth/models"
)

var (
	// ErrMisconfigured indicates the client configuration cannot produce a consent URL
	ErrMisconfigured = errors.New("oauth client is misconfigured")

	// ErrExchange indicates the authorization code could not be exchanged
	ErrExchange = errors.New("failed to exchange authorization code")
)

// Provider defines the OAuth flow operations the handlers depend on
type Provider interface {
	// AuthCodeURL returns the provider consent URL. The email hint is not
	// bound to the URL or to any server-side state.
	AuthCodeURL(email string) (string, error)

	// ExchangeCode exchanges an authorization code for a credential bundle
	ExchangeCode(ctx context.Context, code string) (*models.CredentialBundle, error)
}

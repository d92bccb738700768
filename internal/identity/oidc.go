package identity

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/taskiq/taskiq-auth/internal/logger"
	"go.uber.org/zap"
)

// OIDCFetcher reads the email from the userinfo endpoint advertised by an
// OpenID Connect issuer.
type OIDCFetcher struct {
	provider   *oidc.Provider
	httpClient *http.Client
}

// NewOIDCFetcher runs discovery against issuer
func NewOIDCFetcher(ctx context.Context, issuer string, httpClient *http.Client) (*OIDCFetcher, error) {
	if httpClient != nil {
		ctx = oidc.ClientContext(ctx, httpClient)
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	return &OIDCFetcher{
		provider:   provider,
		httpClient: httpClient,
	}, nil
}

func (f *OIDCFetcher) FetchEmail(ctx context.Context, accessToken string) (string, error) {
	if f.httpClient != nil {
		ctx = oidc.ClientContext(ctx, f.httpClient)
	}

	info, err := f.provider.UserInfo(ctx, staticTokenSource(accessToken))
	if err != nil {
		logger.Error("Failed to call OIDC userinfo endpoint", zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrIdentityLookup, err)
	}

	if info.Email == "" {
		return "", ErrMissingEmail
	}
	return info.Email, nil
}

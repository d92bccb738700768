package identity

import (
	"context"
	"fmt"
	"net/http"

	"github.com/taskiq/taskiq-auth/internal/config"
	"go.uber.org/fx"
)

// NewFromConfig picks the fetcher named by identity.source
func NewFromConfig(cfg *config.Config) (Fetcher, error) {
	httpClient := &http.Client{Timeout: cfg.OAuth.HTTPTimeout}

	switch cfg.Identity.Source {
	case config.IdentitySourceGoogle, "":
		return NewGoogleFetcher(httpClient, cfg.Identity.Endpoint), nil
	case config.IdentitySourceOIDC:
		f, err := NewOIDCFetcher(context.Background(), cfg.Identity.Issuer, httpClient)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported identity source: %q", cfg.Identity.Source)
	}
}

// Module provides the identity fetcher
var Module = fx.Module("identity",
	fx.Provide(NewFromConfig),
)

package identity

import (
	"context"
	"fmt"
	"net/http"

	"github.com/taskiq/taskiq-auth/internal/logger"
	"go.uber.org/zap"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// GoogleFetcher reads the email from Google's OAuth2 v2 userinfo endpoint
type GoogleFetcher struct {
	httpClient *http.Client
	endpoint   string
}

// NewGoogleFetcher creates a fetcher. An empty endpoint uses the library
// default (https://www.googleapis.com/).
func NewGoogleFetcher(httpClient *http.Client, endpoint string) *GoogleFetcher {
	return &GoogleFetcher{
		httpClient: httpClient,
		endpoint:   endpoint,
	}
}

func (f *GoogleFetcher) FetchEmail(ctx context.Context, accessToken string) (string, error) {
	opts := []option.ClientOption{
		option.WithHTTPClient(tokenClient(ctx, f.httpClient, accessToken)),
	}
	if f.endpoint != "" {
		opts = append(opts, option.WithEndpoint(f.endpoint))
	}

	svc, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIdentityLookup, err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		logger.Error("Failed to call userinfo endpoint", zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrIdentityLookup, err)
	}

	if info.Email == "" {
		return "", ErrMissingEmail
	}
	return info.Email, nil
}

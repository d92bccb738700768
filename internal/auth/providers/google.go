package providers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/taskiq/taskiq-auth/internal/auth/constants"
	"github.com/taskiq/taskiq-auth/internal/auth/models"
	"github.com/taskiq/taskiq-auth/internal/config"
	"github.com/taskiq/taskiq-auth/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type GoogleProvider struct {
	oauth2Config *oauth2.Config
	httpClient   *http.Client
}

// NewGoogleProvider builds the flow adapter from a client secrets document
// (the JSON downloaded from the Google Cloud console).
func NewGoogleProvider(secrets []byte, redirectURL string, httpClient *http.Client) (*GoogleProvider, error) {
	oauth2Cfg, err := google.ConfigFromJSON(secrets, constants.DefaultScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secrets: %w", err)
	}
	if redirectURL != "" {
		oauth2Cfg.RedirectURL = redirectURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &GoogleProvider{
		oauth2Config: oauth2Cfg,
		httpClient:   httpClient,
	}, nil
}

// NewGoogleProviderFromConfig reads the client secrets file named in cfg
func NewGoogleProviderFromConfig(cfg *config.Config) (*GoogleProvider, error) {
	secrets, err := os.ReadFile(cfg.OAuth.ClientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secrets file %s: %w", cfg.OAuth.ClientSecretsFile, err)
	}

	p, err := NewGoogleProvider(secrets, cfg.OAuth.RedirectURL, &http.Client{Timeout: cfg.OAuth.HTTPTimeout})
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded OAuth client",
		zap.String("client_secrets_file", cfg.OAuth.ClientSecretsFile),
		zap.String("redirect_url", p.oauth2Config.RedirectURL),
	)
	return p, nil
}

func (p *GoogleProvider) AuthCodeURL(email string) (string, error) {
	cfg := p.oauth2Config
	if cfg.ClientID == "" || cfg.Endpoint.AuthURL == "" || cfg.RedirectURL == "" {
		return "", ErrMisconfigured
	}

	// state is random and not kept; the callback does not check it
	state := uuid.NewString()
	url := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)

	logger.Debug("Generated authorization URL", zap.String("email", email), zap.String("state", state))
	return url, nil
}

func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (*models.CredentialBundle, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExchange, err)
	}

	return &models.CredentialBundle{
		Token:        token,
		ClientID:     p.oauth2Config.ClientID,
		ClientSecret: p.oauth2Config.ClientSecret,
		TokenURI:     p.oauth2Config.Endpoint.TokenURL,
		Scopes:       p.grantedScopes(token),
	}, nil
}

// grantedScopes prefers the scope list returned with the token and falls
// back to the requested scopes.
func (p *GoogleProvider) grantedScopes(token *oauth2.Token) []string {
	if raw, ok := token.Extra("scope").(string); ok && strings.TrimSpace(raw) != "" {
		return strings.Fields(raw)
	}
	scopes := make([]string, len(p.oauth2Config.Scopes))
	copy(scopes, p.oauth2Config.Scopes)
	return scopes
}

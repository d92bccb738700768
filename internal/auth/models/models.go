package models

import (
	"encoding/json"
	"time"

	"github.com/taskiq/taskiq-auth/internal/auth/constants"
	"golang.org/x/oauth2"
)

// AuthorizationRequest is the result of /generate-auth-url. It is never stored.
type AuthorizationRequest struct {
	AuthURL string `json:"auth_url"`
	Email   string `json:"email"`
}

// CredentialBundle is the outcome of a successful code exchange
type CredentialBundle struct {
	Token        *oauth2.Token
	ClientID     string
	ClientSecret string
	TokenURI     string
	Scopes       []string
}

type serializedCredentials struct {
	Type           string   `json:"type"`
	Token          string   `json:"token"`
	RefreshToken   string   `json:"refresh_token,omitempty"`
	TokenURI       string   `json:"token_uri"`
	ClientID       string   `json:"client_id"`
	ClientSecret   string   `json:"client_secret"`
	Scopes         []string `json:"scopes"`
	UniverseDomain string   `json:"universe_domain"`
	Expiry         string   `json:"expiry,omitempty"`
}

// Serialize renders the bundle in Google's authorized_user format, so the
// stored string can be handed back to google.CredentialsFromJSON.
func (b *CredentialBundle) Serialize() (string, error) {
	sc := serializedCredentials{
		Type:           constants.AuthorizedUserType,
		TokenURI:       b.TokenURI,
		ClientID:       b.ClientID,
		ClientSecret:   b.ClientSecret,
		Scopes:         b.Scopes,
		UniverseDomain: constants.UniverseDomain,
	}
	if b.Token != nil {
		sc.Token = b.Token.AccessToken
		sc.RefreshToken = b.Token.RefreshToken
		if !b.Token.Expiry.IsZero() {
			sc.Expiry = b.Token.Expiry.UTC().Format(time.RFC3339)
		}
	}
	if sc.Scopes == nil {
		sc.Scopes = []string{}
	}

	data, err := json.Marshal(sc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// TokenRecord is the persisted unit, one file per user identifier
type TokenRecord struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenStatus is the answer of the token presence lookup
type TokenStatus struct {
	HasToken  bool    `json:"has_token"`
	CreatedAt *string `json:"created_at,omitempty"`
	Message   string  `json:"message"`
}

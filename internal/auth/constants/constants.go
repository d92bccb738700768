package constants

import "github.com/coreos/go-oidc/v3/oidc"

const (
	// TokenType for Bearer authentication
	TokenType = "Bearer"

	// AtMarker replaces "@" in user identifiers to build token file names
	AtMarker = "_at_"

	// TokenFileExt is appended to sanitized identifiers
	TokenFileExt = ".json"

	// UniverseDomain is the default Google API universe
	UniverseDomain = "googleapis.com"

	// AuthorizedUserType marks serialized credentials loadable by google.CredentialsFromJSON
	AuthorizedUserType = "authorized_user"

	// RequestIDHeader carries the per-request correlation id
	RequestIDHeader = "X-Request-ID"
)

// Query parameters of the provider callback
const (
	CodeQueryParam  = "code"
	StateQueryParam = "state"
	ErrorQueryParam = "error"
	EmailQueryParam = "email"
)

// Routes served by the auth server
const (
	RootPath            = "/"
	GenerateAuthURLPath = "/generate-auth-url"
	CallbackPath        = "/auth/google"
	TokenStatusPath     = "/token/{user_id}"
	UserIDPathValue     = "user_id"
)

// DefaultScopes is the fixed scope set requested from Google: identity, email, mail and calendar
var DefaultScopes = []string{
	oidc.ScopeOpenID,
	"https://www.googleapis.com/auth/userinfo.email",
	"https://mail.google.com/",
	"https://www.googleapis.com/auth/calendar",
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("taskiq-auth version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	Identity IdentityConfig `mapstructure:"identity"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	Host         string   `mapstructure:"host"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

type OAuthConfig struct {
	ClientSecretsFile string        `mapstructure:"client_secrets_file"`
	RedirectURL       string        `mapstructure:"redirect_url"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
}

// IdentitySource selects how the authenticated email is resolved
type IdentitySource string

const (
	IdentitySourceGoogle IdentitySource = "google"
	IdentitySourceOIDC   IdentitySource = "oidc"
)

type IdentityConfig struct {
	Source   IdentitySource `mapstructure:"source"`
	Endpoint string         `mapstructure:"endpoint"` // base URL of the Google API, empty for the library default
	Issuer   string         `mapstructure:"issuer"`   // OIDC issuer used when source is oidc
}

type StorageConfig struct {
	TokenDir string `mapstructure:"token_dir"`
}

// envAliases binds the plain variable names the server has always honoured
// alongside the prefixed ones.
var envAliases = map[string][]string{
	"oauth.client_secrets_file": {"TASKIQ_AUTH_OAUTH_CLIENT_SECRETS_FILE", "CLIENT_SECRETS_FILE"},
	"oauth.redirect_url":        {"TASKIQ_AUTH_OAUTH_REDIRECT_URL", "REDIRECT_URI"},
	"storage.token_dir":         {"TASKIQ_AUTH_STORAGE_TOKEN_DIR", "TOKEN_STORAGE_DIR"},
	"server.host":               {"TASKIQ_AUTH_SERVER_HOST", "HOST"},
	"server.port":               {"TASKIQ_AUTH_SERVER_PORT", "PORT"},
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"host":                "server.host",
	"port":                "server.port",
	"client-secrets-file": "oauth.client_secrets_file",
	"redirect-uri":        "oauth.redirect_url",
	"token-storage-dir":   "storage.token_dir",
	"log-level":           "logging.level",
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.allow_origins", []string{"*"})

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("logging.color", true)

	viper.SetDefault("oauth.client_secrets_file", "../.gauth.json")
	viper.SetDefault("oauth.redirect_url", "https://taskiq.io/auth/google")
	viper.SetDefault("oauth.http_timeout", 30*time.Second)

	viper.SetDefault("identity.source", string(IdentitySourceGoogle))
	viper.SetDefault("identity.issuer", "https://accounts.google.com")

	viper.SetDefault("storage.token_dir", "./tokens")
}

// InitFlags registers the command line flags understood by Load (without parsing)
func InitFlags(flags *pflag.FlagSet) {
	flags.String("host", "", "Host to bind the HTTP server to")
	flags.Int("port", 0, "Port to bind the HTTP server to")
	flags.String("client-secrets-file", "", "Path to the Google client secrets JSON file")
	flags.String("redirect-uri", "", "OAuth redirect URI registered with the provider")
	flags.String("token-storage-dir", "", "Directory where user tokens are written")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
}

// Load reads configuration from .env, config.yaml, environment variables and
// the given flags, in increasing order of precedence. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	viper.Reset() // Ensure clean state

	// Missing .env is fine
	_ = godotenv.Load()

	setDefaults()

	viper.SetEnvPrefix("TASKIQ_AUTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	for key, names := range envAliases {
		if err := viper.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, err
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := viper.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/taskiq-auth")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks that the configuration can start a server
func (c *Config) Validate() error {
	if c.OAuth.ClientSecretsFile == "" {
		return fmt.Errorf("oauth.client_secrets_file is required, please adjust the config or set CLIENT_SECRETS_FILE")
	}
	if c.OAuth.RedirectURL == "" {
		return fmt.Errorf("oauth.redirect_url is required, please adjust the config or set REDIRECT_URI")
	}
	if c.Storage.TokenDir == "" {
		return fmt.Errorf("storage.token_dir is required, please adjust the config or set TOKEN_STORAGE_DIR")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Identity.Source {
	case IdentitySourceGoogle:
	case IdentitySourceOIDC:
		if c.Identity.Issuer == "" {
			return fmt.Errorf("identity.issuer is required when identity.source is %q", IdentitySourceOIDC)
		}
	default:
		return fmt.Errorf("unsupported identity source: %q", c.Identity.Source)
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// isolate runs the test from an empty directory with every recognised
// environment variable blanked. viper treats empty values as unset.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, names := range envAliases {
		for _, name := range names {
			t.Setenv(name, "")
		}
	}
	for _, name := range []string{
		"TASKIQ_AUTH_LOGGING_LEVEL",
		"TASKIQ_AUTH_LOGGING_FORMAT",
		"TASKIQ_AUTH_IDENTITY_SOURCE",
		"TASKIQ_AUTH_IDENTITY_ISSUER",
		"TASKIQ_AUTH_OAUTH_HTTP_TIMEOUT",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, []string{"*"}, cfg.Server.AllowOrigins)
	assert.Equal(t, "../.gauth.json", cfg.OAuth.ClientSecretsFile)
	assert.Equal(t, "https://taskiq.io/auth/google", cfg.OAuth.RedirectURL)
	assert.Equal(t, 30*time.Second, cfg.OAuth.HTTPTimeout)
	assert.Equal(t, "./tokens", cfg.Storage.TokenDir)
	assert.Equal(t, IdentitySourceGoogle, cfg.Identity.Source)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_EnvAliases(t *testing.T) {
	isolate(t)
	t.Setenv("CLIENT_SECRETS_FILE", "/secrets/gauth.json")
	t.Setenv("REDIRECT_URI", "http://localhost:8000/auth/google")
	t.Setenv("TOKEN_STORAGE_DIR", "/var/lib/tokens")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9000")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "/secrets/gauth.json", cfg.OAuth.ClientSecretsFile)
	assert.Equal(t, "http://localhost:8000/auth/google", cfg.OAuth.RedirectURL)
	assert.Equal(t, "/var/lib/tokens", cfg.Storage.TokenDir)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr())
}

func TestLoad_PrefixedEnvWins(t *testing.T) {
	isolate(t)
	t.Setenv("TOKEN_STORAGE_DIR", "/plain")
	t.Setenv("TASKIQ_AUTH_STORAGE_TOKEN_DIR", "/prefixed")
	t.Setenv("TASKIQ_AUTH_LOGGING_LEVEL", "debug")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "/prefixed", cfg.Storage.TokenDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "9000")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	InitFlags(flags)
	require.NoError(t, flags.Parse([]string{"--port", "9100", "--token-storage-dir", "/flag/tokens"}))

	cfg, err := Load(flags)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "/flag/tokens", cfg.Storage.TokenDir)
	// unset flags leave defaults alone
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	isolate(t)

	doc := map[string]interface{}{
		"server": map[string]interface{}{
			"port":          8100,
			"allow_origins": []string{"https://app.taskiq.io"},
		},
		"oauth": map[string]interface{}{
			"client_secrets_file": "/etc/taskiq-auth/gauth.json",
			"http_timeout":        "10s",
		},
		"identity": map[string]interface{}{
			"source": "oidc",
			"issuer": "https://issuer.example.com",
		},
		"logging": map[string]interface{}{
			"format": "json",
		},
	}
	data, err := yaml.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile("config.yaml", data, 0o600))

	t.Setenv("PORT", "8200")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 8200, cfg.Server.Port, "environment beats the config file")
	assert.Equal(t, []string{"https://app.taskiq.io"}, cfg.Server.AllowOrigins)
	assert.Equal(t, "/etc/taskiq-auth/gauth.json", cfg.OAuth.ClientSecretsFile)
	assert.Equal(t, 10*time.Second, cfg.OAuth.HTTPTimeout)
	assert.Equal(t, IdentitySourceOIDC, cfg.Identity.Source)
	assert.Equal(t, "https://issuer.example.com", cfg.Identity.Issuer)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("config.yaml", []byte("server: [unclosed"), 0o600))

	_, err := Load(nil)
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	// godotenv never overrides variables that are already set, even when empty
	require.NoError(t, os.Unsetenv("TOKEN_STORAGE_DIR"))
	t.Cleanup(func() { _ = os.Unsetenv("TOKEN_STORAGE_DIR") })

	require.NoError(t, os.WriteFile(filepath.Join(".", ".env"), []byte("TOKEN_STORAGE_DIR=/from/dotenv\n"), 0o600))

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.Storage.TokenDir)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Host: "0.0.0.0", Port: 8000},
			OAuth:    OAuthConfig{ClientSecretsFile: "gauth.json", RedirectURL: "https://taskiq.io/auth/google"},
			Identity: IdentityConfig{Source: IdentitySourceGoogle},
			Storage:  StorageConfig{TokenDir: "./tokens"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "no secrets file", mutate: func(c *Config) { c.OAuth.ClientSecretsFile = "" }, wantErr: "oauth.client_secrets_file"},
		{name: "no redirect", mutate: func(c *Config) { c.OAuth.RedirectURL = "" }, wantErr: "oauth.redirect_url"},
		{name: "no token dir", mutate: func(c *Config) { c.Storage.TokenDir = "" }, wantErr: "storage.token_dir"},
		{name: "port zero", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "port too large", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
		{name: "oidc without issuer", mutate: func(c *Config) { c.Identity.Source = IdentitySourceOIDC }, wantErr: "identity.issuer"},
		{name: "oidc with issuer", mutate: func(c *Config) {
			c.Identity.Source = IdentitySourceOIDC
			c.Identity.Issuer = "https://accounts.google.com"
		}},
		{name: "unknown source", mutate: func(c *Config) { c.Identity.Source = "ldap" }, wantErr: "unsupported identity source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment does not
// leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "NODE_ENV", "CONFIG_FILE", "PORT", "DATABASE_URL", "REDIS_URL",
		"ADMIN_API_KEY", "FRONTEND_URL", "LOG_LEVEL",
		"EMAIL_SERVICE_URL", "EMAIL_SERVICE_API_KEY", "EMAIL_SERVICE_TIMEOUT",
		"EMAIL_SERVICE_RETRY_ATTEMPTS", "EMAIL_SERVICE_RETRY_DELAY",
		"EMAIL_SERVICE_OAUTH_TOKEN_URL", "EMAIL_SERVICE_OAUTH_SCOPES",
		"EMAIL_TRANSPORT", "EMAIL_DISPATCH", "SMTP_HOST", "SMTP_PORT", "SMTP_SSL",
		"AWS_REGION", "SENDGRID_API_KEY", "RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW",
		"DEV_EMAIL_SERVICE_URL", "PROD_EMAIL_SERVICE_URL", "PROD_EMAIL_SERVICE_API_KEY",
		"STAGING_EMAIL_SERVICE_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_DevelopmentDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "http://localhost:3030", cfg.EmailService.URL)
	assert.Equal(t, "dev-api-key", cfg.EmailService.APIKey)
	assert.Equal(t, 10*time.Second, cfg.EmailService.Timeout())
	assert.Equal(t, 3, cfg.EmailService.RetryAttempts)
	assert.Equal(t, time.Second, cfg.EmailService.RetryDelay())
	assert.Equal(t, TransportHTTP, cfg.Email.Transport)
	assert.Equal(t, DispatchInline, cfg.Email.Dispatch)
}

func TestLoad_NodeEnvFallbackSelectsStaging(t *testing.T) {
	clearEnv(t)
	t.Setenv("NODE_ENV", "staging")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvStaging, cfg.Env)
	assert.Equal(t, 15000, cfg.EmailService.TimeoutMS)
}

func TestLoad_PrefixedThenUnprefixed(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "staging")
	t.Setenv("STAGING_EMAIL_SERVICE_TIMEOUT", "12000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12000, cfg.EmailService.TimeoutMS)

	t.Setenv("EMAIL_SERVICE_TIMEOUT", "5000")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.EmailService.TimeoutMS)
}

func TestLoad_ProductionRequiresServiceCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMAIL_SERVICE_URL")

	t.Setenv("PROD_EMAIL_SERVICE_URL", "https://mail.internal")
	t.Setenv("PROD_EMAIL_SERVICE_API_KEY", "secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://mail.internal", cfg.EmailService.URL)
	assert.Equal(t, 20000, cfg.EmailService.TimeoutMS)
}

func TestLoad_InvalidInteger(t *testing.T) {
	clearEnv(t)
	t.Setenv("EMAIL_SERVICE_RETRY_ATTEMPTS", "three")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMAIL_SERVICE_RETRY_ATTEMPTS")
}

func TestLoad_ZeroAttemptsRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("EMAIL_SERVICE_RETRY_ATTEMPTS", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_TooManyAttemptsRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("EMAIL_SERVICE_RETRY_ATTEMPTS", "64")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMAIL_SERVICE_RETRY_ATTEMPTS")
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "courier.yaml")
	body := `
port: "9090"
email:
  transport: smtp
  smtp:
    host: smtp.example.com
    port: 465
    ssl: true
environments:
  development:
    email_service_url: http://mail.local:4000
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, TransportSMTP, cfg.Email.Transport)
	assert.Equal(t, "smtp.example.com", cfg.Email.SMTP.Host)
	assert.True(t, cfg.Email.SMTP.SSL)
	assert.Equal(t, "http://mail.local:4000", cfg.EmailService.URL)
	// values the file does not mention keep their defaults
	assert.Equal(t, 3, cfg.EmailService.RetryAttempts)
}

func TestValidate_UnknownTransport(t *testing.T) {
	cfg := defaults(EnvDevelopment)
	cfg.Email.Transport = "pigeon"
	assert.Error(t, cfg.Validate())
}

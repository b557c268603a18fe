package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Email transports.
const (
	TransportHTTP     = "http"
	TransportSMTP     = "smtp"
	TransportSES      = "ses"
	TransportSendGrid = "sendgrid"
)

// Notification dispatch modes.
const (
	DispatchInline = "inline"
	DispatchQueue  = "queue"
)

// MaxRetryAttempts bounds EMAIL_SERVICE_RETRY_ATTEMPTS.
const MaxRetryAttempts = 10

// Config is resolved once at startup and passed by value to constructors.
type Config struct {
	Env         string `yaml:"-"`
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`
	AdminAPIKey string `yaml:"admin_api_key"`
	FrontendURL string `yaml:"frontend_url"`
	LogLevel    string `yaml:"log_level"`

	EmailService EmailServiceConfig `yaml:"email_service"`
	Email        EmailConfig        `yaml:"email"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
}

// EmailServiceConfig configures the HTTP client for the external mail service.
type EmailServiceConfig struct {
	URL           string      `yaml:"url"`
	APIKey        string      `yaml:"api_key"`
	TimeoutMS     int         `yaml:"timeout_ms"`
	RetryAttempts int         `yaml:"retry_attempts"`
	RetryDelayMS  int         `yaml:"retry_delay_ms"`
	OAuth         OAuthConfig `yaml:"oauth"`
}

func (c EmailServiceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func (c EmailServiceConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// OAuthConfig enables client-credentials bearer auth when TokenURL is set.
type OAuthConfig struct {
	TokenURL     string   `yaml:"token_url"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
}

func (c OAuthConfig) Enabled() bool { return c.TokenURL != "" }

// EmailConfig selects how transactional email leaves the process.
type EmailConfig struct {
	Transport      string     `yaml:"transport"`
	Dispatch       string     `yaml:"dispatch"`
	FromEmail      string     `yaml:"from_email"`
	AdminEmail     string     `yaml:"admin_email"`
	SMTP           SMTPConfig `yaml:"smtp"`
	AWSRegion      string     `yaml:"aws_region"`
	SendGridAPIKey string     `yaml:"sendgrid_api_key"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSL      bool   `yaml:"ssl"`
}

type RateLimitConfig struct {
	Max           int `yaml:"max"`
	WindowSeconds int `yaml:"window_seconds"`
}

func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// Load resolves the configuration. Later sources win:
//
//  1. .env file, if present
//  2. built-in table for the selected environment
//  3. YAML file named by CONFIG_FILE
//  4. environment-prefixed variables (DEV_, STAGING_, PROD_)
//  5. unprefixed variables
func Load() (Config, error) {
	_ = godotenv.Load()

	env := resolveEnv(os.Getenv("APP_ENV"), os.Getenv("NODE_ENV"))
	cfg := defaults(env)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg, envPrefix(env)); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, ""); err != nil {
		return Config{}, err
	}
	cfg.Env = env

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the resolved values for consistency.
func (c Config) Validate() error {
	var errs []error

	if c.EmailService.RetryAttempts < 1 || c.EmailService.RetryAttempts > MaxRetryAttempts {
		errs = append(errs, fmt.Errorf("EMAIL_SERVICE_RETRY_ATTEMPTS must be between 1 and %d", MaxRetryAttempts))
	}
	if c.EmailService.RetryDelayMS < 0 {
		errs = append(errs, errors.New("EMAIL_SERVICE_RETRY_DELAY must not be negative"))
	}
	if c.EmailService.TimeoutMS <= 0 {
		errs = append(errs, errors.New("EMAIL_SERVICE_TIMEOUT must be positive"))
	}

	switch c.Email.Transport {
	case TransportHTTP:
		if c.EmailService.URL == "" {
			errs = append(errs, errors.New("EMAIL_SERVICE_URL is required for the http transport"))
		}
		if c.Env == EnvProduction && c.EmailService.APIKey == "" {
			errs = append(errs, errors.New("EMAIL_SERVICE_API_KEY is required in production"))
		}
	case TransportSMTP:
		if c.Email.SMTP.Host == "" {
			errs = append(errs, errors.New("SMTP_HOST is required for the smtp transport"))
		}
	case TransportSES:
		if c.Email.AWSRegion == "" {
			errs = append(errs, errors.New("AWS_REGION is required for the ses transport"))
		}
	case TransportSendGrid:
		if c.Email.SendGridAPIKey == "" {
			errs = append(errs, errors.New("SENDGRID_API_KEY is required for the sendgrid transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EMAIL_TRANSPORT %q", c.Email.Transport))
	}

	switch c.Email.Dispatch {
	case DispatchInline, DispatchQueue:
	default:
		errs = append(errs, fmt.Errorf("unknown EMAIL_DISPATCH %q", c.Email.Dispatch))
	}

	if c.RateLimit.Max < 0 || c.RateLimit.WindowSeconds <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX must be >= 0 and RATE_LIMIT_WINDOW > 0"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func resolveEnv(values ...string) string {
	for _, v := range values {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "":
			continue
		case "production", "prod":
			return EnvProduction
		case "staging", "stage":
			return EnvStaging
		default:
			return EnvDevelopment
		}
	}
	return EnvDevelopment
}

func envPrefix(env string) string {
	switch env {
	case EnvProduction:
		return "PROD_"
	case EnvStaging:
		return "STAGING_"
	default:
		return "DEV_"
	}
}

// fileConfig is the YAML layout accepted by CONFIG_FILE. Top-level keys map
// onto Config; environments holds per-environment tables.
type fileConfig struct {
	Environments map[string]envTable `yaml:"environments"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if t, ok := fc.Environments[cfg.Env]; ok {
		t.apply(cfg)
	}
	return nil
}

func applyEnv(cfg *Config, prefix string) error {
	var err error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(prefix + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		v, ok := os.LookupEnv(prefix + key)
		if !ok || v == "" {
			return
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(v))
		if convErr != nil {
			err = errors.Join(err, fmt.Errorf("%s%s: %q is not an integer", prefix, key, v))
			return
		}
		*dst = n
	}

	str("DATABASE_URL", &cfg.DatabaseURL)
	str("FRONTEND_URL", &cfg.FrontendURL)
	str("EMAIL_SERVICE_URL", &cfg.EmailService.URL)
	str("EMAIL_SERVICE_API_KEY", &cfg.EmailService.APIKey)
	num("EMAIL_SERVICE_TIMEOUT", &cfg.EmailService.TimeoutMS)

	if prefix != "" {
		return err
	}

	str("PORT", &cfg.Port)
	str("REDIS_URL", &cfg.RedisURL)
	str("ADMIN_API_KEY", &cfg.AdminAPIKey)
	str("LOG_LEVEL", &cfg.LogLevel)
	num("EMAIL_SERVICE_RETRY_ATTEMPTS", &cfg.EmailService.RetryAttempts)
	num("EMAIL_SERVICE_RETRY_DELAY", &cfg.EmailService.RetryDelayMS)
	str("EMAIL_SERVICE_OAUTH_TOKEN_URL", &cfg.EmailService.OAuth.TokenURL)
	str("EMAIL_SERVICE_OAUTH_CLIENT_ID", &cfg.EmailService.OAuth.ClientID)
	str("EMAIL_SERVICE_OAUTH_CLIENT_SECRET", &cfg.EmailService.OAuth.ClientSecret)
	if v := os.Getenv("EMAIL_SERVICE_OAUTH_SCOPES"); v != "" {
		cfg.EmailService.OAuth.Scopes = strings.Fields(strings.ReplaceAll(v, ",", " "))
	}

	str("EMAIL_TRANSPORT", &cfg.Email.Transport)
	str("EMAIL_DISPATCH", &cfg.Email.Dispatch)
	str("FROM_EMAIL", &cfg.Email.FromEmail)
	str("ADMIN_EMAIL", &cfg.Email.AdminEmail)
	str("SMTP_HOST", &cfg.Email.SMTP.Host)
	num("SMTP_PORT", &cfg.Email.SMTP.Port)
	str("SMTP_USER", &cfg.Email.SMTP.Username)
	str("SMTP_PASSWORD", &cfg.Email.SMTP.Password)
	if v := os.Getenv("SMTP_SSL"); v != "" {
		cfg.Email.SMTP.SSL = v == "true" || v == "1"
	}
	str("AWS_REGION", &cfg.Email.AWSRegion)
	str("SENDGRID_API_KEY", &cfg.Email.SendGridAPIKey)

	num("RATE_LIMIT_MAX", &cfg.RateLimit.Max)
	num("RATE_LIMIT_WINDOW", &cfg.RateLimit.WindowSeconds)

	return err
}

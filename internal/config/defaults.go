package config

// envTable holds the values that differ between deployment environments.
type envTable struct {
	DatabaseURL           string `yaml:"database_url"`
	FrontendURL           string `yaml:"frontend_url"`
	EmailServiceURL       string `yaml:"email_service_url"`
	EmailServiceAPIKey    string `yaml:"email_service_api_key"`
	EmailServiceTimeoutMS int    `yaml:"email_service_timeout_ms"`
}

func (t envTable) apply(cfg *Config) {
	if t.DatabaseURL != "" {
		cfg.DatabaseURL = t.DatabaseURL
	}
	if t.FrontendURL != "" {
		cfg.FrontendURL = t.FrontendURL
	}
	if t.EmailServiceURL != "" {
		cfg.EmailService.URL = t.EmailServiceURL
	}
	if t.EmailServiceAPIKey != "" {
		cfg.EmailService.APIKey = t.EmailServiceAPIKey
	}
	if t.EmailServiceTimeoutMS > 0 {
		cfg.EmailService.TimeoutMS = t.EmailServiceTimeoutMS
	}
}

var builtinTables = map[string]envTable{
	EnvDevelopment: {
		DatabaseURL:           "postgres://postgres@localhost:5432/blog_cms?sslmode=disable",
		FrontendURL:           "http://localhost:3000",
		EmailServiceURL:       "http://localhost:3030",
		EmailServiceAPIKey:    "dev-api-key",
		EmailServiceTimeoutMS: 10000,
	},
	EnvStaging: {
		FrontendURL:           "https://staging.thecodemuse.com",
		EmailServiceURL:       "https://staging-email.example.com",
		EmailServiceAPIKey:    "staging-api-key",
		EmailServiceTimeoutMS: 15000,
	},
	EnvProduction: {
		FrontendURL:           "https://thecodemuse.com",
		EmailServiceTimeoutMS: 20000,
	},
}

func defaults(env string) Config {
	cfg := Config{
		Env:      env,
		Port:     "8080",
		LogLevel: "info",
		EmailService: EmailServiceConfig{
			TimeoutMS:     10000,
			RetryAttempts: 3,
			RetryDelayMS:  1000,
		},
		Email: EmailConfig{
			Transport: TransportHTTP,
			Dispatch:  DispatchInline,
			FromEmail: "noreply@thecodemuse.com",
			SMTP:      SMTPConfig{Port: 587},
		},
		RateLimit: RateLimitConfig{Max: 20, WindowSeconds: 60},
	}
	builtinTables[env].apply(&cfg)
	return cfg
}

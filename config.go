package accounts

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// Config carries everything the package's constructors need. It is loaded
// once at process start and passed in explicitly; request handlers never
// read the environment.
type Config struct {
	BaseURL    string `env:"ACCOUNTS_BASE_URL" envDefault:"http://localhost:3000"`
	ListenAddr string `env:"ACCOUNTS_LISTEN_ADDR" envDefault:":3000"`

	DatabaseDSN string `env:"ACCOUNTS_DATABASE_DSN" envDefault:"file:accounts.db?cache=shared&mode=rwc"`

	SessionTTL    time.Duration `env:"ACCOUNTS_SESSION_TTL" envDefault:"24h"`
	SweepInterval time.Duration `env:"ACCOUNTS_SESSION_SWEEP_INTERVAL" envDefault:"1h"`

	CookieName     string `env:"ACCOUNTS_COOKIE_NAME" envDefault:"account_session"`
	CookieSecure   bool   `env:"ACCOUNTS_COOKIE_SECURE" envDefault:"true"`
	CookieSameSite string `env:"ACCOUNTS_COOKIE_SAMESITE" envDefault:"Lax"`

	GoogleClientID     string `env:"ACCOUNTS_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"ACCOUNTS_GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"ACCOUNTS_GOOGLE_CALLBACK_URL"`

	LoginRatePerMinute int `env:"ACCOUNTS_LOGIN_RATE_PER_MINUTE" envDefault:"30"`
	LoginRateBurst     int `env:"ACCOUNTS_LOGIN_RATE_BURST" envDefault:"10"`

	LogLevel  string `env:"ACCOUNTS_LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"ACCOUNTS_LOG_PRETTY" envDefault:"false"`
}

// LoadConfigFromEnv loads configuration from environment variables.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, errors.CategoryBadInput, "failed to parse environment configuration")
	}
	return cfg, nil
}

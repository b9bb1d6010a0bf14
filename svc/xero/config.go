package xero

import (
	"errors"
	"time"

	"github.com/staffpulse/billing/pkg/secrets"
)

// Config holds the Xero OAuth app credentials. The integration is optional:
// all of ClientID, ClientSecret, RedirectURL and TokenKey set enables it,
// none set disables it, anything in between is a configuration error.
type Config struct {
	ClientID     string        `env:"XERO_CLIENT_ID"`
	ClientSecret string        `env:"XERO_CLIENT_SECRET"`
	RedirectURL  string        `env:"XERO_REDIRECT_URL"`
	Scopes       []string      `env:"XERO_SCOPES" envSeparator:" " envDefault:"openid profile email accounting.transactions offline_access"`
	StateTTL     time.Duration `env:"XERO_STATE_TTL" envDefault:"10m"`
	AuthURL      string        `env:"XERO_AUTH_URL" envDefault:"https://login.xero.com/identity/connect/authorize"`
	TokenURL     string        `env:"XERO_TOKEN_URL" envDefault:"https://identity.xero.com/connect/token"`

	// TokenKey is the base64 master key tokens are encrypted with at rest.
	TokenKey string `env:"XERO_TOKEN_KEY"`
}

// Enabled reports whether any credential is set.
func (c Config) Enabled() bool {
	return c.ClientID != "" || c.ClientSecret != "" || c.RedirectURL != "" || c.TokenKey != ""
}

// Validate rejects a partially configured integration.
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	var errs []error
	if c.ClientID == "" {
		errs = append(errs, errors.New("XERO_CLIENT_ID is required"))
	}
	if c.ClientSecret == "" {
		errs = append(errs, errors.New("XERO_CLIENT_SECRET is required"))
	}
	if c.RedirectURL == "" {
		errs = append(errs, errors.New("XERO_REDIRECT_URL is required"))
	}
	if _, err := secrets.ParseKey(c.TokenKey); err != nil {
		errs = append(errs, errors.New("XERO_TOKEN_KEY must be a base64 encoded 32-byte key"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrIncompleteConfig}, errs...)...)
	}
	return nil
}

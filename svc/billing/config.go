package billing

import "time"

// Config is the billing service configuration.
type Config struct {
	Stripe StripeConfig

	// CatalogPath overrides the embedded plan catalog.
	CatalogPath string `env:"BILLING_CATALOG_PATH"`
	// PendingReuseWindow lets a repeated checkout reuse a recent pending row.
	// Zero inserts a new row on every call.
	PendingReuseWindow time.Duration `env:"BILLING_PENDING_REUSE_WINDOW" envDefault:"30m"`
	// GrantYears is the length of fixed-term grants (one-time purchases and
	// approved invoices).
	GrantYears    int           `env:"BILLING_GRANT_YEARS" envDefault:"3"`
	RoleCacheTTL  time.Duration `env:"BILLING_ROLE_CACHE_TTL" envDefault:"5m"`
	RoleCacheSize int           `env:"BILLING_ROLE_CACHE_SIZE" envDefault:"1024"`
}

// Options converts the tunables into service options.
func (c Config) Options() []ServiceOption {
	return []ServiceOption{
		WithPendingReuseWindow(c.PendingReuseWindow),
		WithGrantYears(c.GrantYears),
	}
}

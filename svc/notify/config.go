package notify

// Config holds notification and CRM settings.
type Config struct {
	ProductName  string `env:"PRODUCT_NAME" envDefault:"StaffPulse"`
	DashboardURL string `env:"DASHBOARD_URL" envDefault:"http://localhost:3000/dashboard"`
	// AdminEmail receives invoice requests. Empty disables the admin notice.
	AdminEmail string `env:"BILLING_ADMIN_EMAIL"`

	// HubSpotToken is a private app access token. Empty disables CRM sync.
	HubSpotToken   string `env:"HUBSPOT_ACCESS_TOKEN"`
	HubSpotBaseURL string `env:"HUBSPOT_BASE_URL" envDefault:"https://api.hubapi.com"`
}

// CRMEnabled reports whether a HubSpot token is configured.
func (c Config) CRMEnabled() bool {
	return c.HubSpotToken != ""
}

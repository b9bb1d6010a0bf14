package email

// Config holds the outbound email settings.
//
// When PostmarkServerToken is empty the service falls back to DevSender,
// which writes messages to DevDir instead of sending them. That is only
// allowed in development; the binary enforces it.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	PostmarkBaseURL      string `env:"POSTMARK_BASE_URL"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

// UsesPostmark reports whether real delivery is configured.
func (c Config) UsesPostmark() bool {
	return c.PostmarkServerToken != ""
}

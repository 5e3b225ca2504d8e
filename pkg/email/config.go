package email

import (
	"time"

	"github.com/Alijeyrad/odonto_backend/config"
)

type Config struct {
	Enabled bool
	From    string

	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	SMTPUseTLS         bool
	SMTPTimeoutSeconds int
	MaxAttempts        int
	// RetryBackoff is the wait before the second attempt. It doubles for
	// each further attempt.
	RetryBackoff time.Duration

	// AppName and LoginURL are filled into the credential templates.
	AppName  string
	LoginURL string
	Language string
}

func DefaultConfig() Config {
	return Config{
		SMTPPort:           587,
		SMTPTimeoutSeconds: 30,
		MaxAttempts:        3,
		RetryBackoff:       time.Second,
		AppName:            defaultAppName,
		Language:           "es",
	}
}

func (c Config) SMTPTimeout() time.Duration {
	return time.Duration(c.SMTPTimeoutSeconds) * time.Second
}

// FromCentralConfig maps the email section, keeping defaults for unset
// numeric values.
func FromCentralConfig(c config.EmailConfig) Config {
	out := DefaultConfig()
	out.Enabled = c.Enabled
	out.From = c.From
	out.SMTPHost = c.SMTP.Host
	out.SMTPUsername = c.SMTP.Username
	out.SMTPPassword = c.SMTP.Password
	out.SMTPUseTLS = c.SMTP.UseTLS
	out.LoginURL = c.LoginURL
	if c.SMTP.Port > 0 {
		out.SMTPPort = c.SMTP.Port
	}
	if c.SMTP.TimeoutSeconds > 0 {
		out.SMTPTimeoutSeconds = c.SMTP.TimeoutSeconds
	}
	if c.SMTP.MaxAttempts > 0 {
		out.MaxAttempts = c.SMTP.MaxAttempts
	}
	if c.AppName != "" {
		out.AppName = c.AppName
	}
	if c.Language != "" {
		out.Language = c.Language
	}
	return out
}

package email

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/textproto"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/Alijeyrad/odonto_backend/config"
)

// Client sends mail through one SMTP relay.
type Client struct {
	cfg  Config
	send func(*gomail.Message) error
}

func NewFromCentral(cfg config.EmailConfig) (*Client, error) {
	return New(FromCentralConfig(cfg))
}

func New(cfg Config) (*Client, error) {
	if cfg.Enabled && cfg.SMTPHost == "" {
		return nil, errors.New("email: smtp host is required when enabled")
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	c := &Client{cfg: cfg}
	c.send = func(m *gomail.Message) error { return c.dialer().DialAndSend(m) }
	return c, nil
}

// Send delivers m, retrying transient failures. SMTP 5xx replies are
// permanent and end the attempts early.
func (c *Client) Send(ctx context.Context, m Message) error {
	if !c.cfg.Enabled {
		return ErrDisabled
	}
	msg, err := buildMessage(c.cfg.From, m)
	if err != nil {
		return err
	}

	backoff := c.cfg.RetryBackoff
	attempt := 1
	for ; ; attempt++ {
		err = c.sendOnce(ctx, msg)
		if err == nil || ctx.Err() != nil {
			break
		}
		if permanent(err) || attempt == c.cfg.MaxAttempts {
			break
		}
		slog.Debug("smtp send failed, retrying", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return ErrSend{Attempts: attempt, Err: err}
	}
	return nil
}

// sendOnce bounds one dial-and-send by the SMTP timeout or the context
// deadline, whichever is sooner.
func (c *Client) sendOnce(ctx context.Context, msg *gomail.Message) error {
	done := make(chan error, 1)
	go func() { done <- c.send(msg) }()

	timer := time.NewTimer(c.cfg.SMTPTimeout())
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return context.DeadlineExceeded
	}
}

func permanent(err error) bool {
	var tp *textproto.Error
	return errors.As(err, &tp) && tp.Code >= 500
}

func (c *Client) dialer() *gomail.Dialer {
	d := gomail.NewDialer(c.cfg.SMTPHost, c.cfg.SMTPPort, c.cfg.SMTPUsername, c.cfg.SMTPPassword)
	// Port 465 speaks TLS from the first byte; other ports upgrade with
	// STARTTLS when the server offers it.
	d.SSL = c.cfg.SMTPUseTLS && c.cfg.SMTPPort == 465
	if c.cfg.SMTPUseTLS {
		d.TLSConfig = &tls.Config{ServerName: c.cfg.SMTPHost, MinVersion: tls.VersionTLS12}
	}
	return d
}

func buildMessage(from string, m Message) (*gomail.Message, error) {
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, ErrInvalidMessage{Field: "from"}
	}
	to := cleanAddrs(m.To)
	if len(to) == 0 {
		return nil, ErrInvalidMessage{Field: "to"}
	}
	subject := strings.TrimSpace(m.Subject)
	if subject == "" {
		return nil, ErrInvalidMessage{Field: "subject"}
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	if cc := cleanAddrs(m.CC); len(cc) > 0 {
		msg.SetHeader("Cc", cc...)
	}
	if bcc := cleanAddrs(m.BCC); len(bcc) > 0 {
		msg.SetHeader("Bcc", bcc...)
	}
	msg.SetHeader("Subject", subject)
	for k, v := range m.Headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			msg.SetHeader(k, v)
		}
	}

	text := strings.TrimSpace(m.TextBody) != ""
	html := strings.TrimSpace(m.HTMLBody) != ""
	switch {
	case text && html:
		msg.SetBody("text/plain", m.TextBody)
		msg.AddAlternative("text/html", m.HTMLBody)
	case html:
		msg.SetBody("text/html", m.HTMLBody)
	case text:
		msg.SetBody("text/plain", m.TextBody)
	default:
		return nil, ErrInvalidMessage{Field: "body"}
	}
	return msg, nil
}

func cleanAddrs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

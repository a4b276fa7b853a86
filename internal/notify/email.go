package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"graminsetu/internal/platform/config"
)

// EmailChannel delivers messages over SMTP. An unconfigured channel fails
// fast so the dispatcher falls through to the next channel.
type EmailChannel struct {
	cfg config.SMTPConfig
	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailChannel builds the SMTP channel from config.
func NewEmailChannel(cfg config.SMTPConfig) *EmailChannel {
	return &EmailChannel{cfg: cfg, send: smtp.SendMail}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Send(ctx context.Context, dest Destination, msg Message) error {
	if c.cfg.Host == "" || c.cfg.From == "" {
		return fmt.Errorf("email channel not configured")
	}
	if dest.Email == "" {
		return fmt.Errorf("no email address for recipient")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", c.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", dest.Email)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	auth := smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	addr := c.cfg.Host + ":" + c.cfg.Port

	// net/smtp has no context support; run the send in a goroutine and
	// abandon it on timeout. The dispatcher's per-attempt deadline is the
	// real bound.
	done := make(chan error, 1)
	go func() {
		done <- c.send(addr, auth, c.cfg.From, []string{dest.Email}, []byte(b.String()))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

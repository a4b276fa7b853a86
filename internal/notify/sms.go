package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"graminsetu/internal/platform/config"
)

// SMSChannel delivers messages through the Fast2SMS bulk API.
type SMSChannel struct {
	cfg    config.SMSConfig
	client *http.Client
}

// NewSMSChannel builds the Fast2SMS channel from config.
func NewSMSChannel(cfg config.SMSConfig) *SMSChannel {
	return &SMSChannel{cfg: cfg, client: &http.Client{}}
}

func (c *SMSChannel) Name() string { return "sms" }

type fast2smsRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
	Route    string `json:"route"`
	Numbers  string `json:"numbers"`
}

func (c *SMSChannel) Send(ctx context.Context, dest Destination, msg Message) error {
	if c.cfg.APIKey == "" {
		return fmt.Errorf("sms channel not configured")
	}
	number := cleanPhone(dest.Phone)
	if number == "" {
		return fmt.Errorf("no phone number for recipient")
	}

	payload, err := json.Marshal(fast2smsRequest{
		Message:  msg.Body,
		Language: "english",
		Route:    "q",
		Numbers:  number,
	})
	if err != nil {
		return fmt.Errorf("marshal sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authorization", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms provider returned status %d", resp.StatusCode)
	}
	return nil
}

// cleanPhone strips non-digits and keeps the last 10 digits, the format the
// provider expects for domestic numbers.
func cleanPhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

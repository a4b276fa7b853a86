// Package notify delivers one-time codes to users. Delivery is strictly
// best-effort: the workflow engine never fails a request because a channel
// was down, and it never blocks beyond a fixed timeout per attempt.
package notify

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Destination addresses a recipient across channels. A channel ignores the
// fields it does not understand.
type Destination struct {
	Email string
	Phone string
}

// Message is a channel-agnostic notification payload.
type Message struct {
	Subject string
	Body    string
}

// Channel attempts delivery through one medium.
type Channel interface {
	// Name identifies the channel in dispatch reports ("email", "sms").
	Name() string
	// Send delivers msg to dest or returns an error. Implementations must
	// honor ctx cancellation.
	Send(ctx context.Context, dest Destination, msg Message) error
}

// MethodConsole is reported when no channel delivered; the message is
// still logged so development setups stay usable.
const MethodConsole = "console"

// Dispatcher fans a message out to all channels concurrently, each attempt
// bounded by the configured timeout. Failures are swallowed and logged.
type Dispatcher struct {
	channels []Channel
	timeout  time.Duration
	logger   *slog.Logger
}

// NewDispatcher builds a dispatcher. Channel order sets reporting priority:
// when several channels succeed, the earliest one is reported.
func NewDispatcher(timeout time.Duration, logger *slog.Logger, channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels, timeout: timeout, logger: logger}
}

// Dispatch attempts delivery through every channel and reports the method
// that succeeded, or MethodConsole when none did. It never returns an
// error: "never block the user" is the contract here, and callers tell the
// user the message was sent regardless.
func (d *Dispatcher) Dispatch(ctx context.Context, dest Destination, msg Message) string {
	succeeded := make([]bool, len(d.channels))

	g, gctx := errgroup.WithContext(ctx)
	for i, ch := range d.channels {
		g.Go(func() error {
			attemptCtx, cancel := context.WithTimeout(gctx, d.timeout)
			defer cancel()
			if err := ch.Send(attemptCtx, dest, msg); err != nil {
				d.logger.WarnContext(ctx, "notification channel failed",
					"channel", ch.Name(),
					"error", err,
				)
				return nil // swallowed: one channel failing must not cancel the others
			}
			succeeded[i] = true
			return nil
		})
	}
	_ = g.Wait()

	for i, ch := range d.channels {
		if succeeded[i] {
			return ch.Name()
		}
	}

	// Dev fallback: keep the flow alive with no channels configured.
	d.logger.InfoContext(ctx, "notification fell back to console",
		"email", dest.Email,
		"phone", dest.Phone,
		"body", msg.Body,
	)
	return MethodConsole
}

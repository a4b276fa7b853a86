// Package audit captures key domain actions for compliance and operations
// visibility. Events always go to the structured log; when a Kafka producer
// is configured they are also published to a category topic so downstream
// consumers can apply per-category retention.
package audit

import (
	"context"
	"log/slog"
	"time"

	"graminsetu/pkg/requestcontext"
)

// Category classifies audit events by their primary purpose.
type Category string

const (
	// CategoryCompliance covers events with regulatory significance:
	// account creation, benefit decisions, approvals.
	CategoryCompliance Category = "compliance"
	// CategorySecurity covers events relevant to security monitoring:
	// failed verifications, legacy-auth usage.
	CategorySecurity Category = "security"
	// CategoryOperations covers events useful for debugging:
	// code issuance, notification outcomes.
	CategoryOperations Category = "operations"
)

// Event is emitted from domain logic to capture a key action. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Category  Category  `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// Action names used across modules.
const (
	ActionUserCreated           = "user_created"
	ActionCodeIssued            = "code_issued"
	ActionCodeVerifyFailed      = "code_verify_failed"
	ActionLoginSucceeded        = "login_succeeded"
	ActionLoginFailed           = "login_failed"
	ActionLegacyHeaderAuth      = "legacy_header_auth"
	ActionSoilTestApproved      = "soil_test_approved"
	ActionPlanIssued            = "plan_issued"
	ActionPlanLandInconsistent  = "plan_land_inconsistent"
	ActionHousingApplied        = "housing_application_submitted"
	ActionHousingStatusChanged  = "housing_status_changed"
	ActionHousingTerminalChange = "housing_terminal_state_left"
)

// Publisher delivers events to an external sink. Implementations must not
// block the caller beyond handing the event off.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Emitter attaches the logger and optional publisher services use to emit
// events. A zero Emitter is safe and logs nothing.
type Emitter struct {
	logger    *slog.Logger
	publisher Publisher
}

// NewEmitter builds an emitter. publisher may be nil for log-only setups.
func NewEmitter(logger *slog.Logger, publisher Publisher) *Emitter {
	return &Emitter{logger: logger, publisher: publisher}
}

// Emit stamps, logs and publishes the event. Nil-safe.
func (e *Emitter) Emit(ctx context.Context, event Event) {
	if e == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if e.logger != nil {
		e.logger.InfoContext(ctx, "audit",
			"category", event.Category,
			"action", event.Action,
			"actor_id", event.ActorID,
			"subject", event.Subject,
			"detail", event.Detail,
			"request_id", event.RequestID,
		)
	}
	if e.publisher != nil {
		e.publisher.Publish(ctx, event)
	}
}

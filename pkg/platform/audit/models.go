package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events that change a member's standing in a group.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers rejected attempts and alt detections, which feed
	// moderator review.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity that can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Subject is the platform member the event concerns.
	Subject  string
	GroupID  string
	Action   string
	Decision string
	Reason   string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
	// ActorID tracks who performed the action when it was not the subject,
	// e.g. a moderator looking up recorded identities.
	ActorID string
}

type AuditEvent string

const (
	EventTokenIssued          AuditEvent = "token_issued"
	EventTokensSwept          AuditEvent = "tokens_swept"
	EventVerificationAccepted AuditEvent = "verification_accepted"
	EventVerificationRejected AuditEvent = "verification_rejected"
	EventAltDetected          AuditEvent = "alt_detected"
	EventIdentityLookup       AuditEvent = "identity_lookup"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventVerificationAccepted: CategoryCompliance,

	EventVerificationRejected: CategorySecurity,
	EventAltDetected:          CategorySecurity,
	EventIdentityLookup:       CategorySecurity,

	EventTokenIssued: CategoryOperations,
	EventTokensSwept: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

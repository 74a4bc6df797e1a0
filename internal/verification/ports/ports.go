// Package ports defines the verification module's boundaries with the chat platform
// and the audit trail.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"altguard/internal/verification/models"
	"altguard/pkg/platform/audit"
)

// Sink carries enforcement and notification instructions to the chat platform.
// Every call is best-effort: callers log failures and never undo a decision because
// of one.
type Sink interface {
	GrantVerifiedState(ctx context.Context, subjectID, groupID string) error
	DenyAndRemove(ctx context.Context, subjectID, groupID, reason string) error
	NotifyModerators(ctx context.Context, alert models.AltAlert) error
	NotifySubject(ctx context.Context, subjectID, message string) error
	LinkDeliverer
}

// LinkDeliverer hands a fresh verification link to a joining subject and puts them
// in the unverified state.
type LinkDeliverer interface {
	DeliverVerificationLink(ctx context.Context, subjectID, groupID, link string, expiresAt time.Time) error
}

// AuditPublisher emits audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

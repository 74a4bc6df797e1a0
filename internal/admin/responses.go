package admin

import (
	"encoding/json"
	"time"

	"altguard/internal/verification/models"
	"altguard/pkg/platform/audit"
)

// IdentityResponse is the moderator view of a recorded identity.
type IdentityResponse struct {
	ID            string            `json:"id"`
	SubjectID     string            `json:"subject_id"`
	Fingerprint   string            `json:"fingerprint"`
	SourceAddress string            `json:"source_address"`
	UserAgent     string            `json:"user_agent,omitempty"`
	Client        models.ClientInfo `json:"client"`
	Components    json.RawMessage   `json:"components,omitempty"`
	RecordedAt    time.Time         `json:"recorded_at"`
}

// IdentitiesListResponse wraps the identities recorded for the requested subjects.
type IdentitiesListResponse struct {
	Identities []*IdentityResponse `json:"identities"`
	Total      int                 `json:"total"`
}

// SweepResponse reports how many expired tokens an on-demand sweep removed.
type SweepResponse struct {
	Deleted int `json:"deleted"`
}

// AuditEventResponse is one audit trail entry.
type AuditEventResponse struct {
	Action    string    `json:"action"`
	Category  string    `json:"category"`
	Subject   string    `json:"subject"`
	GroupID   string    `json:"group_id,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditListResponse wraps a subject's audit trail.
type AuditListResponse struct {
	Events []*AuditEventResponse `json:"events"`
	Total  int                   `json:"total"`
}

func toIdentitiesListResponse(identities []*models.Identity) *IdentitiesListResponse {
	out := make([]*IdentityResponse, len(identities))
	for i, ident := range identities {
		out[i] = &IdentityResponse{
			ID:            ident.ID,
			SubjectID:     ident.SubjectID,
			Fingerprint:   ident.Fingerprint,
			SourceAddress: ident.SourceAddress,
			UserAgent:     ident.Metadata.UserAgent,
			Client:        ident.Metadata.Client,
			Components:    ident.Metadata.Components,
			RecordedAt:    ident.RecordedAt,
		}
	}
	return &IdentitiesListResponse{Identities: out, Total: len(out)}
}

func toAuditListResponse(events []audit.Event) *AuditListResponse {
	out := make([]*AuditEventResponse, len(events))
	for i, e := range events {
		out[i] = &AuditEventResponse{
			Action:    e.Action,
			Category:  string(e.Category),
			Subject:   e.Subject,
			GroupID:   e.GroupID,
			Decision:  e.Decision,
			Reason:    e.Reason,
			ActorID:   e.ActorID,
			RequestID: e.RequestID,
			Timestamp: e.Timestamp,
		}
	}
	return &AuditListResponse{Events: out, Total: len(out)}
}

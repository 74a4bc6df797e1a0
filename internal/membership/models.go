package membership

import (
	"strings"
	"time"

	dErrors "altguard/pkg/domain-errors"
)

// JoinRequest is the body of POST /members/joined and the value of a member_joined
// Kafka record.
type JoinRequest struct {
	Type      string `json:"type,omitempty"`
	SubjectID string `json:"subject_id"`
	GroupID   string `json:"group_id"`
	Bot       bool   `json:"bot"`
}

func (r *JoinRequest) Normalize() {
	r.Type = strings.TrimSpace(r.Type)
	r.SubjectID = strings.TrimSpace(r.SubjectID)
	r.GroupID = strings.TrimSpace(r.GroupID)
}

func (r *JoinRequest) Validate() error {
	if r.SubjectID == "" {
		return dErrors.New(dErrors.CodeValidation, "subject_id is required")
	}
	if r.GroupID == "" {
		return dErrors.New(dErrors.CodeValidation, "group_id is required")
	}
	return nil
}

func (r *JoinRequest) toEvent() Event {
	return Event{SubjectID: r.SubjectID, GroupID: r.GroupID, Bot: r.Bot}
}

// JoinResponse acknowledges a join event.
type JoinResponse struct {
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

const (
	statusIssued  = "issued"
	statusIgnored = "ignored"
)

func toJoinResponse(result *JoinResult) JoinResponse {
	if result.Ignored {
		return JoinResponse{Status: statusIgnored}
	}
	expires := result.ExpiresAt
	return JoinResponse{Status: statusIssued, ExpiresAt: &expires}
}

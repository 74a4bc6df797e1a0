// Package enforcement carries verification decisions to the chat platform.
//
// Commands are self-describing JSON documents. The Kafka sink publishes them for the
// platform bot to execute; the log sink records them when no broker is configured.
package enforcement

import (
	"time"

	"github.com/google/uuid"

	"altguard/internal/verification/models"
)

// CommandType names the platform action a command asks for.
type CommandType string

const (
	CommandDeliverLink      CommandType = "deliver_verification_link"
	CommandGrantVerified    CommandType = "grant_verified_state"
	CommandDenyAndRemove    CommandType = "deny_and_remove"
	CommandNotifyModerators CommandType = "notify_moderators"
	CommandNotifySubject    CommandType = "notify_subject"
)

// Command is one instruction for the platform bot.
type Command struct {
	ID        string      `json:"id"`
	Type      CommandType `json:"type"`
	IssuedAt  time.Time   `json:"issued_at"`
	SubjectID string      `json:"subject_id"`
	GroupID   string      `json:"group_id,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Message   string      `json:"message,omitempty"`
	Link      string      `json:"link,omitempty"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
	Alert     *Alert      `json:"alert,omitempty"`
}

// Alert is the moderator-facing description of an alt detection.
type Alert struct {
	NewSubjectID      string    `json:"new_subject_id"`
	MatchedSubjectID  string    `json:"matched_subject_id"`
	MatchType         string    `json:"match_type"`
	MatchedAddress    string    `json:"matched_address"`
	MatchedRecordedAt time.Time `json:"matched_recorded_at"`
}

func newCommand(kind CommandType, subjectID, groupID string, now time.Time) Command {
	return Command{
		ID:        uuid.NewString(),
		Type:      kind,
		IssuedAt:  now,
		SubjectID: subjectID,
		GroupID:   groupID,
	}
}

func alertCommand(alert models.AltAlert, now time.Time) Command {
	cmd := newCommand(CommandNotifyModerators, alert.NewSubjectID, alert.GroupID, now)
	cmd.Alert = &Alert{
		NewSubjectID:      alert.NewSubjectID,
		MatchedSubjectID:  alert.MatchedSubjectID,
		MatchType:         string(alert.MatchType),
		MatchedAddress:    alert.MatchedAddress,
		MatchedRecordedAt: alert.MatchedRecordedAt,
	}
	return cmd
}

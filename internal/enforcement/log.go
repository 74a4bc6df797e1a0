package enforcement

import (
	"context"
	"log/slog"
	"time"

	"altguard/internal/verification/models"
	"altguard/pkg/platform/privacy"
)

// LogSink records enforcement commands in the process log. It is the development
// binding used when no broker is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) DeliverVerificationLink(ctx context.Context, subjectID, groupID, link string, expiresAt time.Time) error {
	s.logger.InfoContext(ctx, "enforcement: deliver verification link",
		"subject_id", subjectID,
		"group_id", groupID,
		"link", link,
		"expires_at", expiresAt,
	)
	return nil
}

func (s *LogSink) GrantVerifiedState(ctx context.Context, subjectID, groupID string) error {
	s.logger.InfoContext(ctx, "enforcement: grant verified state",
		"subject_id", subjectID,
		"group_id", groupID,
	)
	return nil
}

func (s *LogSink) DenyAndRemove(ctx context.Context, subjectID, groupID, reason string) error {
	s.logger.WarnContext(ctx, "enforcement: deny and remove",
		"subject_id", subjectID,
		"group_id", groupID,
		"reason", reason,
	)
	return nil
}

func (s *LogSink) NotifyModerators(ctx context.Context, alert models.AltAlert) error {
	s.logger.WarnContext(ctx, "enforcement: alt account alert",
		"group_id", alert.GroupID,
		"new_subject_id", alert.NewSubjectID,
		"matched_subject_id", alert.MatchedSubjectID,
		"match_type", alert.MatchType,
		"matched_address", privacy.AnonymizeIP(alert.MatchedAddress),
		"matched_recorded_at", alert.MatchedRecordedAt,
	)
	return nil
}

func (s *LogSink) NotifySubject(ctx context.Context, subjectID, message string) error {
	s.logger.InfoContext(ctx, "enforcement: notify subject",
		"subject_id", subjectID,
		"message", message,
	)
	return nil
}

package enforcement

import (
	"context"
	"log/slog"
	"time"

	"altguard/internal/verification/models"
	"altguard/internal/verification/ports"
	"altguard/pkg/platform/circuit"
)

// FallbackSink always tries primary. Once the breaker opens, failed commands are
// handed to fallback so they are at least recorded.
type FallbackSink struct {
	primary  ports.Sink
	fallback ports.Sink
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewFallbackSink(primary, fallback ports.Sink, breaker *circuit.Breaker, logger *slog.Logger) *FallbackSink {
	return &FallbackSink{
		primary:  primary,
		fallback: fallback,
		breaker:  breaker,
		logger:   logger,
	}
}

func (s *FallbackSink) DeliverVerificationLink(ctx context.Context, subjectID, groupID, link string, expiresAt time.Time) error {
	return s.do(ctx, "deliver_verification_link", func(sink ports.Sink) error {
		return sink.DeliverVerificationLink(ctx, subjectID, groupID, link, expiresAt)
	})
}

func (s *FallbackSink) GrantVerifiedState(ctx context.Context, subjectID, groupID string) error {
	return s.do(ctx, "grant_verified_state", func(sink ports.Sink) error {
		return sink.GrantVerifiedState(ctx, subjectID, groupID)
	})
}

func (s *FallbackSink) DenyAndRemove(ctx context.Context, subjectID, groupID, reason string) error {
	return s.do(ctx, "deny_and_remove", func(sink ports.Sink) error {
		return sink.DenyAndRemove(ctx, subjectID, groupID, reason)
	})
}

func (s *FallbackSink) NotifyModerators(ctx context.Context, alert models.AltAlert) error {
	return s.do(ctx, "notify_moderators", func(sink ports.Sink) error {
		return sink.NotifyModerators(ctx, alert)
	})
}

func (s *FallbackSink) NotifySubject(ctx context.Context, subjectID, message string) error {
	return s.do(ctx, "notify_subject", func(sink ports.Sink) error {
		return sink.NotifySubject(ctx, subjectID, message)
	})
}

func (s *FallbackSink) do(ctx context.Context, op string, call func(ports.Sink) error) error {
	err := call(s.primary)
	if err == nil {
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.InfoContext(ctx, "enforcement circuit closed", "breaker", s.breaker.Name())
		}
		return nil
	}

	useFallback, change := s.breaker.RecordFailure()
	if change.Opened {
		s.logger.ErrorContext(ctx, "enforcement circuit opened",
			"breaker", s.breaker.Name(),
			"error", err,
		)
	}
	if !useFallback {
		return err
	}
	s.logger.WarnContext(ctx, "enforcement command diverted to fallback",
		"operation", op,
		"error", err,
	)
	return call(s.fallback)
}

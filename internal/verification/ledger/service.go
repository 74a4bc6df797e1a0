// Package ledger issues, consumes and sweeps verification tokens.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"altguard/internal/verification/metrics"
	"altguard/internal/verification/models"
	"altguard/internal/verification/ports"
	dErrors "altguard/pkg/domain-errors"
	"altguard/pkg/platform/audit"
	"altguard/pkg/platform/sentinel"
	"altguard/pkg/requestcontext"
)

// Store is the token persistence contract. Consume must validate and flip the
// consumed flag atomically per token.
type Store interface {
	Create(ctx context.Context, token *models.Token) error
	Consume(ctx context.Context, value string, now time.Time, ttl time.Duration) (*models.Token, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Service owns the token lifecycle.
type Service struct {
	store          Store
	ttl            time.Duration
	clock          func(ctx context.Context) time.Time
	newValue       func() string
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher ports.AuditPublisher
	tracer         trace.Tracer
}

type Option func(*Service)

// WithTTL overrides the token validity window. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock fixes the time source. By default the request time carried on the
// context is used.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = func(context.Context) time.Time { return now() }
		}
	}
}

// WithValueGenerator replaces the token value generator.
func WithValueGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newValue = gen
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// New constructs a ledger over store.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		ttl:      models.DefaultTokenTTL,
		clock:    requestcontext.Now,
		newValue: uuid.NewString,
		logger:   slog.Default(),
		tracer:   otel.Tracer("altguard/verification/ledger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured validity window.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue mints a fresh token bound to subjectID and groupID. Earlier tokens for the
// same subject stay valid.
func (s *Service) Issue(ctx context.Context, subjectID, groupID string) (*models.Token, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Issue", trace.WithAttributes(
		attribute.String("group_id", groupID),
	))
	defer span.End()

	now := s.clock(ctx)
	token, err := models.NewToken(s.newValue(), subjectID, groupID, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}

	if err := s.store.Create(ctx, token); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create token")
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "token value collision")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store verification token")
	}

	s.metrics.IncrementIssued()
	s.emitAudit(ctx, audit.Event{
		Action:  string(audit.EventTokenIssued),
		Subject: subjectID,
		GroupID: groupID,
	})
	s.logger.InfoContext(ctx, "verification token issued",
		"subject_id", subjectID,
		"group_id", groupID,
		"expires_at", now.Add(s.ttl),
		"request_id", requestcontext.RequestID(ctx),
	)
	return token, nil
}

// Consume marks the token used and returns it. Failures carry CodeNotFound,
// CodeExpired or CodeAlreadyUsed, checked in that order; anything else is
// CodeInternal.
func (s *Service) Consume(ctx context.Context, value string) (*models.Token, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Consume")
	defer span.End()

	if value == "" {
		s.metrics.IncrementConsume(string(models.TokenFailureNotFound))
		return nil, dErrors.New(dErrors.CodeNotFound, "verification token not found")
	}

	token, err := s.store.Consume(ctx, value, s.clock(ctx), s.ttl)
	if err != nil {
		mapped := translateConsumeError(err)
		code := dErrors.CodeOf(mapped)
		s.metrics.IncrementConsume(consumeResult(code))
		if code == dErrors.CodeInternal {
			span.RecordError(err)
			span.SetStatus(codes.Error, "consume token")
		}
		span.SetAttributes(attribute.String("result", string(code)))
		return nil, mapped
	}

	s.metrics.IncrementConsume("ok")
	span.SetAttributes(attribute.String("result", "ok"))
	return token, nil
}

// SweepExpired deletes every token created at or before now-TTL, consumed or not.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.SweepExpired")
	defer span.End()

	cutoff := s.clock(ctx).Add(-s.ttl)
	deleted, err := s.store.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sweep tokens")
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sweep expired tokens")
	}

	span.SetAttributes(attribute.Int("deleted", deleted))
	s.metrics.AddSwept(deleted)
	if deleted > 0 {
		s.emitAudit(ctx, audit.Event{
			Action:   string(audit.EventTokensSwept),
			Subject:  "system",
			Decision: "deleted",
		})
		s.logger.InfoContext(ctx, "expired verification tokens swept", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}

func translateConsumeError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "verification token not found")
	case errors.Is(err, sentinel.ErrExpired):
		return dErrors.Wrap(err, dErrors.CodeExpired, "verification token expired")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeAlreadyUsed, "verification token already used")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume verification token")
	}
}

func consumeResult(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return string(models.TokenFailureNotFound)
	case dErrors.CodeExpired:
		return string(models.TokenFailureExpired)
	case dErrors.CodeAlreadyUsed:
		return string(models.TokenFailureAlreadyUsed)
	default:
		return "error"
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}

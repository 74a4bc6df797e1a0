// Package coordinator runs one verification attempt end to end: it consumes the
// token, correlates the submitted identity and dispatches the resulting enforcement.
package coordinator

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"altguard/internal/verification/metrics"
	"altguard/internal/verification/models"
	"altguard/internal/verification/ports"
	dErrors "altguard/pkg/domain-errors"
	"altguard/pkg/platform/audit"
	"altguard/pkg/platform/privacy"
	"altguard/pkg/requestcontext"
)

const (
	// DenyReason is passed to the sink when an alt account is removed.
	DenyReason = "Alt account detected"
	// WelcomeMessage is sent to a subject once verified.
	WelcomeMessage = "You have been verified! Welcome to the server."

	defaultDispatchTimeout = 10 * time.Second
)

// TokenLedger consumes verification tokens.
type TokenLedger interface {
	Consume(ctx context.Context, value string) (*models.Token, error)
}

// Correlator atomically matches a candidate or records it.
type Correlator interface {
	CorrelateOrRecord(ctx context.Context, subjectID string, candidate models.Candidate) (models.CorrelationResult, *models.Identity, error)
}

// Service coordinates verification attempts.
type Service struct {
	ledger          TokenLedger
	correlator      Correlator
	sink            ports.Sink
	logger          *slog.Logger
	metrics         *metrics.Metrics
	auditPublisher  ports.AuditPublisher
	digester        *privacy.Digester
	dispatchTimeout time.Duration
	tracer          trace.Tracer

	inflight sync.WaitGroup
}

type Option func(*Service)

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

func WithDigester(d *privacy.Digester) Option {
	return func(s *Service) {
		s.digester = d
	}
}

// WithDispatchTimeout bounds each sink dispatch after the decision is made.
func WithDispatchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.dispatchTimeout = d
		}
	}
}

func New(ledger TokenLedger, correlator Correlator, sink ports.Sink, opts ...Option) *Service {
	s := &Service{
		ledger:          ledger,
		correlator:      correlator,
		sink:            sink,
		logger:          slog.Default(),
		dispatchTimeout: defaultDispatchTimeout,
		tracer:          otel.Tracer("altguard/verification/coordinator"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attempt decides one verification submission. Token failures and alt detections are
// rejections in the returned Outcome; an error means the attempt could not be decided
// and carries a domain error code. Enforcement is dispatched after the decision and
// never changes it.
func (s *Service) Attempt(ctx context.Context, req models.AttemptRequest) (*models.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "coordinator.Attempt")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.ObserveAttemptLatency(time.Since(start))
	}()

	if err := req.Candidate.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}

	token, err := s.ledger.Consume(ctx, req.Token)
	if err != nil {
		if failure, ok := tokenFailure(err); ok {
			return s.rejectInvalidToken(ctx, span, failure), nil
		}
		return nil, s.fail(ctx, span, err, "token consume failed")
	}

	logger := s.logger.With(
		"subject_id", token.SubjectID,
		"group_id", token.GroupID,
		"request_id", requestcontext.RequestID(ctx),
	)

	result, recorded, err := s.correlator.CorrelateOrRecord(ctx, token.SubjectID, req.Candidate)
	if err != nil {
		// The token is spent and nothing was recorded; the subject stays unverified.
		return nil, s.fail(ctx, span, err, "identity correlation failed", "subject_id", token.SubjectID)
	}

	if result.IsMatch() {
		outcome := &models.Outcome{
			Status:    models.StatusRejected,
			Reason:    models.ReasonAltDetected,
			MatchType: result.Match,
			SubjectID: token.SubjectID,
			GroupID:   token.GroupID,
			Matched:   result.Existing,
		}
		span.SetAttributes(attribute.String("outcome", string(models.ReasonAltDetected)))
		s.metrics.IncrementOutcome(string(models.ReasonAltDetected))
		s.metrics.IncrementAltMatch(string(result.Match))
		logger.WarnContext(ctx, "alt account detected",
			"match_type", result.Match,
			"matched_subject_id", result.Existing.SubjectID,
			"fingerprint_digest", s.digester.Digest(req.Candidate.Fingerprint),
			"source_address", privacy.AnonymizeIP(req.Candidate.SourceAddress),
		)
		s.emitAudit(ctx, audit.Event{
			Action:   string(audit.EventAltDetected),
			Subject:  token.SubjectID,
			GroupID:  token.GroupID,
			Decision: "denied",
			Reason:   string(result.Match) + " matches " + result.Existing.SubjectID,
		})
		s.dispatchAltDetected(ctx, outcome)
		return outcome, nil
	}

	outcome := &models.Outcome{
		Status:    models.StatusAccepted,
		SubjectID: token.SubjectID,
		GroupID:   token.GroupID,
		Recorded:  recorded,
	}
	span.SetAttributes(attribute.String("outcome", string(models.StatusAccepted)))
	s.metrics.IncrementOutcome(string(models.StatusAccepted))
	logger.InfoContext(ctx, "verification accepted")
	s.emitAudit(ctx, audit.Event{
		Action:   string(audit.EventVerificationAccepted),
		Subject:  token.SubjectID,
		GroupID:  token.GroupID,
		Decision: "granted",
	})
	s.dispatchAccepted(ctx, outcome)
	return outcome, nil
}

// Wait blocks until every dispatched side effect has finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

func (s *Service) rejectInvalidToken(ctx context.Context, span trace.Span, failure models.TokenFailure) *models.Outcome {
	span.SetAttributes(
		attribute.String("outcome", string(models.ReasonInvalidToken)),
		attribute.String("token_failure", string(failure)),
	)
	s.metrics.IncrementOutcome(string(models.ReasonInvalidToken))
	s.logger.InfoContext(ctx, "verification rejected: invalid token",
		"detail", failure,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emitAudit(ctx, audit.Event{
		Action:   string(audit.EventVerificationRejected),
		Subject:  "unknown",
		Decision: "rejected",
		Reason:   string(failure),
	})
	return &models.Outcome{
		Status:       models.StatusRejected,
		Reason:       models.ReasonInvalidToken,
		TokenFailure: failure,
	}
}

func (s *Service) fail(ctx context.Context, span trace.Span, err error, msg string, attrs ...any) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	s.metrics.IncrementOutcome(string(dErrors.CodeInternal))
	args := append([]any{"error", err, "request_id", requestcontext.RequestID(ctx)}, attrs...)
	s.logger.ErrorContext(ctx, msg, args...)
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func tokenFailure(err error) (models.TokenFailure, bool) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNotFound:
		return models.TokenFailureNotFound, true
	case dErrors.CodeExpired:
		return models.TokenFailureExpired, true
	case dErrors.CodeAlreadyUsed:
		return models.TokenFailureAlreadyUsed, true
	default:
		return models.TokenFailureNone, false
	}
}

func (s *Service) dispatchAltDetected(ctx context.Context, outcome *models.Outcome) {
	alert := models.AltAlert{
		GroupID:           outcome.GroupID,
		NewSubjectID:      outcome.SubjectID,
		MatchedSubjectID:  outcome.Matched.SubjectID,
		MatchType:         outcome.MatchType,
		MatchedAddress:    outcome.Matched.SourceAddress,
		MatchedRecordedAt: outcome.Matched.RecordedAt,
	}
	s.dispatch(ctx, outcome,
		step{"notify_moderators", func(ctx context.Context) error { return s.sink.NotifyModerators(ctx, alert) }},
		step{"deny_and_remove", func(ctx context.Context) error {
			return s.sink.DenyAndRemove(ctx, outcome.SubjectID, outcome.GroupID, DenyReason)
		}},
	)
}

func (s *Service) dispatchAccepted(ctx context.Context, outcome *models.Outcome) {
	s.dispatch(ctx, outcome,
		step{"grant_verified_state", func(ctx context.Context) error {
			return s.sink.GrantVerifiedState(ctx, outcome.SubjectID, outcome.GroupID)
		}},
		step{"notify_subject", func(ctx context.Context) error {
			return s.sink.NotifySubject(ctx, outcome.SubjectID, WelcomeMessage)
		}},
	)
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

// dispatch runs steps in order on a context detached from the request. Each step is
// attempted once, logged on failure, and does not stop the steps after it.
func (s *Service) dispatch(ctx context.Context, outcome *models.Outcome, steps ...step) {
	detached := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		for _, st := range steps {
			stepCtx, cancel := context.WithTimeout(detached, s.dispatchTimeout)
			err := st.run(stepCtx)
			cancel()
			if err != nil {
				s.metrics.IncrementSinkFailure(st.name)
				s.logger.ErrorContext(detached, "sink dispatch failed",
					"operation", st.name,
					"subject_id", outcome.SubjectID,
					"group_id", outcome.GroupID,
					"error", err,
				)
				continue
			}
			s.logger.DebugContext(detached, "sink dispatch completed",
				"operation", st.name,
				"subject_id", outcome.SubjectID,
			)
		}
	}()
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

// Package membership turns member-join events into verification links.
package membership

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"altguard/internal/verification/metrics"
	"altguard/internal/verification/models"
	"altguard/internal/verification/ports"
	dErrors "altguard/pkg/domain-errors"
	"altguard/pkg/requestcontext"
)

// TokenIssuer mints verification tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, subjectID, groupID string) (*models.Token, error)
	TTL() time.Duration
}

// Event is a member joining a group.
type Event struct {
	SubjectID string
	GroupID   string
	Bot       bool
}

// Validate rejects events that cannot be bound to a token.
func (e Event) Validate() error {
	if e.SubjectID == "" {
		return dErrors.New(dErrors.CodeValidation, "subject_id is required")
	}
	if e.GroupID == "" {
		return dErrors.New(dErrors.CodeValidation, "group_id is required")
	}
	return nil
}

// JoinResult reports what happened to a join event. Token values are never part of
// it; only the subject receives the link.
type JoinResult struct {
	Ignored   bool
	ExpiresAt time.Time
	Delivered bool
}

// Service issues a token per human join and hands the link to the platform.
type Service struct {
	issuer     TokenIssuer
	deliverer  ports.LinkDeliverer
	websiteURL string
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
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

// New builds the service. Links take the form <websiteURL>/verify?token=<value>.
func New(issuer TokenIssuer, deliverer ports.LinkDeliverer, websiteURL string, opts ...Option) *Service {
	s := &Service{
		issuer:     issuer,
		deliverer:  deliverer,
		websiteURL: strings.TrimRight(websiteURL, "/"),
		logger:     slog.Default(),
		tracer:     otel.Tracer("altguard/membership"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleJoin ignores bots. For everyone else it issues a token and delivers the link.
// A failed delivery is logged and reported in the result; the token stays issued.
func (s *Service) HandleJoin(ctx context.Context, ev Event) (*JoinResult, error) {
	ctx, span := s.tracer.Start(ctx, "membership.HandleJoin")
	defer span.End()
	span.SetAttributes(
		attribute.String("group_id", ev.GroupID),
		attribute.Bool("bot", ev.Bot),
	)

	if ev.Bot {
		s.logger.DebugContext(ctx, "ignoring bot join",
			"request_id", requestcontext.RequestID(ctx),
			"subject_id", ev.SubjectID,
			"group_id", ev.GroupID,
		)
		return &JoinResult{Ignored: true}, nil
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	token, err := s.issuer.Issue(ctx, ev.SubjectID, ev.GroupID)
	if err != nil {
		return nil, err
	}

	result := &JoinResult{ExpiresAt: token.CreatedAt.Add(s.issuer.TTL())}
	if err := s.deliverer.DeliverVerificationLink(ctx, ev.SubjectID, ev.GroupID, s.Link(token.Value), result.ExpiresAt); err != nil {
		s.metrics.IncrementSinkFailure("deliver_verification_link")
		s.logger.ErrorContext(ctx, "verification link delivery failed",
			"request_id", requestcontext.RequestID(ctx),
			"subject_id", ev.SubjectID,
			"group_id", ev.GroupID,
			"error", err,
		)
		return result, nil
	}
	result.Delivered = true

	s.logger.InfoContext(ctx, "verification link delivered",
		"request_id", requestcontext.RequestID(ctx),
		"subject_id", ev.SubjectID,
		"group_id", ev.GroupID,
		"expires_at", result.ExpiresAt,
	)
	return result, nil
}

// Link renders the verification URL for a token value.
func (s *Service) Link(value string) string {
	return s.websiteURL + "/verify?token=" + url.QueryEscape(value)
}

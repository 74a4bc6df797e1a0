// Package admin serves moderator tooling: identity lookup, the audit trail and
// on-demand token sweeps.
package admin

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"log/slog"

	"altguard/internal/verification/models"
	"altguard/internal/verification/ports"
	dErrors "altguard/pkg/domain-errors"
	"altguard/pkg/platform/audit"
	"altguard/pkg/requestcontext"
)

const (
	// maxLookupSubjects bounds a single identity lookup.
	maxLookupSubjects = 50
	recentAuditLimit  = 100
)

// IdentityLister reads recorded identities.
type IdentityLister interface {
	ListBySubjects(ctx context.Context, subjectIDs []string) ([]*models.Identity, error)
}

// TokenSweeper removes expired tokens.
type TokenSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// AuditReader reads the audit trail.
type AuditReader interface {
	ListBySubject(ctx context.Context, subject string) ([]audit.Event, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// Service backs the admin endpoints.
type Service struct {
	identities IdentityLister
	sweeper    TokenSweeper
	trail      AuditReader
	auditor    ports.AuditPublisher
	logger     *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func New(identities IdentityLister, sweeper TokenSweeper, trail AuditReader, opts ...Option) *Service {
	s := &Service{
		identities: identities,
		sweeper:    sweeper,
		trail:      trail,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LookupIdentities returns every identity recorded for subjectIDs and records who
// looked them up.
func (s *Service) LookupIdentities(ctx context.Context, subjectIDs []string) ([]*models.Identity, error) {
	if len(subjectIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one subject_id is required")
	}
	if len(subjectIDs) > maxLookupSubjects {
		return nil, dErrors.New(dErrors.CodeValidation, "too many subject_id values")
	}

	identities, err := s.identities.ListBySubjects(ctx, subjectIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list identities")
	}

	actor := requestcontext.ModeratorID(ctx)
	for _, subjectID := range subjectIDs {
		s.emitAudit(ctx, audit.Event{
			Subject: subjectID,
			Action:  string(audit.EventIdentityLookup),
			ActorID: actor,
		})
	}
	return identities, nil
}

// AuditTrail returns the audit events recorded for subjectID, newest first. Without
// a subject it returns the most recent events across all subjects.
func (s *Service) AuditTrail(ctx context.Context, subjectID string) ([]audit.Event, error) {
	var (
		events []audit.Event
		err    error
	)
	if subjectID == "" {
		events, err = s.trail.ListRecent(ctx, recentAuditLimit)
	} else {
		events, err = s.trail.ListBySubject(ctx, subjectID)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events")
	}
	return events, nil
}

// Sweep runs an immediate expired-token sweep.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	deleted, err := s.sweeper.SweepExpired(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "on-demand token sweep",
		"request_id", requestcontext.RequestID(ctx),
		"moderator_id", requestcontext.ModeratorID(ctx),
		"deleted", deleted,
	)
	return deleted, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}

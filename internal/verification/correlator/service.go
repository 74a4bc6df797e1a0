// Package correlator matches verification candidates against recorded identities
// and records new ones.
package correlator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"altguard/internal/verification/models"
	dErrors "altguard/pkg/domain-errors"
	"altguard/pkg/platform/privacy"
	"altguard/pkg/platform/sentinel"
	"altguard/pkg/requestcontext"
)

// Store is the identity persistence contract. RunInTx runs fn as the only identity
// writer; reads and writes made through the context passed to fn belong to that unit.
type Store interface {
	FindEarliestByFingerprint(ctx context.Context, fingerprint string) (*models.Identity, error)
	FindEarliestByAddress(ctx context.Context, address string) (*models.Identity, error)
	Create(ctx context.Context, identity *models.Identity) error
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service decides whether a candidate duplicates a recorded identity.
type Service struct {
	store    Store
	clock    func(ctx context.Context) time.Time
	logger   *slog.Logger
	digester *privacy.Digester
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock fixes the time source used for RecordedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = func(context.Context) time.Time { return now() }
		}
	}
}

// WithDigester sets the keyed digest used to log fingerprints.
func WithDigester(d *privacy.Digester) Option {
	return func(s *Service) {
		s.digester = d
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		clock:  requestcontext.Now,
		logger: slog.Default(),
		tracer: otel.Tracer("altguard/verification/correlator"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Correlate reports whether candidate duplicates a recorded identity. The
// fingerprint is checked first and reported exclusively; the address is only
// consulted when no fingerprint matches. It never writes.
func (s *Service) Correlate(ctx context.Context, candidate models.Candidate) (models.CorrelationResult, error) {
	ctx, span := s.tracer.Start(ctx, "correlator.Correlate")
	defer span.End()

	result, err := s.correlate(ctx, candidate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "correlate")
		return models.NoMatch(), err
	}
	span.SetAttributes(attribute.String("match_type", string(result.Match)))
	return result, nil
}

// Record persists candidate as a new identity first presented by subjectID.
func (s *Service) Record(ctx context.Context, subjectID string, candidate models.Candidate) (*models.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "correlator.Record")
	defer span.End()

	identity, err := s.record(ctx, subjectID, candidate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record")
		return nil, err
	}
	return identity, nil
}

// CorrelateOrRecord correlates candidate and, only when nothing matches, records it,
// holding the identity writer lock across both steps. Two concurrent calls presenting
// the same fingerprint therefore yield one recorded identity and one match.
func (s *Service) CorrelateOrRecord(ctx context.Context, subjectID string, candidate models.Candidate) (models.CorrelationResult, *models.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "correlator.CorrelateOrRecord")
	defer span.End()

	if err := validate(subjectID, candidate); err != nil {
		return models.NoMatch(), nil, err
	}

	var (
		result   models.CorrelationResult
		recorded *models.Identity
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.correlate(ctx, candidate)
		if err != nil {
			return err
		}
		if result.IsMatch() {
			return nil
		}
		recorded, err = s.record(ctx, subjectID, candidate)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "correlate or record")
		var coded *dErrors.Error
		if !errors.As(err, &coded) {
			err = dErrors.Wrap(err, dErrors.CodeInternal, "identity transaction failed")
		}
		return models.NoMatch(), nil, err
	}
	span.SetAttributes(attribute.String("match_type", string(result.Match)))
	return result, recorded, nil
}

func (s *Service) correlate(ctx context.Context, candidate models.Candidate) (models.CorrelationResult, error) {
	if candidate.Fingerprint != "" {
		existing, err := s.store.FindEarliestByFingerprint(ctx, candidate.Fingerprint)
		switch {
		case err == nil:
			return models.CorrelationResult{Match: models.MatchFingerprint, Existing: existing}, nil
		case !errors.Is(err, sentinel.ErrNotFound):
			return models.NoMatch(), dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up fingerprint")
		}
	}

	if candidate.SourceAddress != "" {
		existing, err := s.store.FindEarliestByAddress(ctx, candidate.SourceAddress)
		switch {
		case err == nil:
			return models.CorrelationResult{Match: models.MatchAddress, Existing: existing}, nil
		case !errors.Is(err, sentinel.ErrNotFound):
			return models.NoMatch(), dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up source address")
		}
	}
	return models.NoMatch(), nil
}

func (s *Service) record(ctx context.Context, subjectID string, candidate models.Candidate) (*models.Identity, error) {
	if err := validate(subjectID, candidate); err != nil {
		return nil, err
	}
	identity, err := models.NewIdentity(subjectID, candidate, s.clock(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}
	if err := s.store.Create(ctx, identity); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record identity")
	}
	s.logger.InfoContext(ctx, "identity recorded",
		"subject_id", subjectID,
		"fingerprint_digest", s.digester.Digest(candidate.Fingerprint),
		"source_address", privacy.AnonymizeIP(candidate.SourceAddress),
		"request_id", requestcontext.RequestID(ctx),
	)
	return identity, nil
}

func validate(subjectID string, candidate models.Candidate) error {
	if subjectID == "" {
		return dErrors.New(dErrors.CodeValidation, "subject id is required")
	}
	if err := candidate.Validate(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}
	return nil
}

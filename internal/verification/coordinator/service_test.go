package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"altguard/internal/verification/coordinator/mocks"
	"altguard/internal/verification/metrics"
	"altguard/internal/verification/models"
	portmocks "altguard/internal/verification/ports/mocks"
	dErrors "altguard/pkg/domain-errors"
)

type CoordinatorSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	ledger     *mocks.MockTokenLedger
	correlator *mocks.MockCorrelator
	sink       *portmocks.MockSink
	audit      *portmocks.MockAuditPublisher
	metrics    *metrics.Metrics
	service    *Service
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ledger = mocks.NewMockTokenLedger(s.ctrl)
	s.correlator = mocks.NewMockCorrelator(s.ctrl)
	s.sink = portmocks.NewMockSink(s.ctrl)
	s.audit = portmocks.NewMockAuditPublisher(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.ledger, s.correlator, s.sink,
		WithMetrics(s.metrics),
		WithAuditPublisher(s.audit),
		WithDispatchTimeout(time.Second),
	)
}

var validCandidate = models.Candidate{Fingerprint: "fp-A", SourceAddress: "1.2.3.4"}

func consumed(subject string) *models.Token {
	return &models.Token{Value: "tok", SubjectID: subject, GroupID: "G1", Consumed: true}
}

func (s *CoordinatorSuite) TestValidation() {
	s.Run("missing fingerprint never consumes the token", func() {
		_, err := s.service.Attempt(context.Background(), models.AttemptRequest{
			Token:     "tok",
			Candidate: models.Candidate{SourceAddress: "1.2.3.4"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing source address never consumes the token", func() {
		_, err := s.service.Attempt(context.Background(), models.AttemptRequest{
			Token:     "tok",
			Candidate: models.Candidate{Fingerprint: "fp"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *CoordinatorSuite) TestInvalidTokenShortCircuits() {
	cases := []struct {
		code    dErrors.Code
		failure models.TokenFailure
	}{
		{dErrors.CodeNotFound, models.TokenFailureNotFound},
		{dErrors.CodeExpired, models.TokenFailureExpired},
		{dErrors.CodeAlreadyUsed, models.TokenFailureAlreadyUsed},
	}
	for _, tc := range cases {
		s.Run(string(tc.failure), func() {
			s.ledger.EXPECT().Consume(gomock.Any(), "tok").Return(nil, dErrors.New(tc.code, "nope"))
			s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

			outcome, err := s.service.Attempt(context.Background(), models.AttemptRequest{Token: "tok", Candidate: validCandidate})
			s.Require().NoError(err)
			s.service.Wait()
			s.Equal(models.StatusRejected, outcome.Status)
			s.Equal(models.ReasonInvalidToken, outcome.Reason)
			s.Equal(tc.failure, outcome.TokenFailure)
		})
	}
	s.Equal(3.0, testutil.ToFloat64(s.metrics.AttemptOutcome.WithLabelValues(string(models.ReasonInvalidToken))))
}

func (s *CoordinatorSuite) TestInternalFailures() {
	s.Run("ledger failure is internal and skips correlation", func() {
		s.ledger.EXPECT().Consume(gomock.Any(), "tok").
			Return(nil, dErrors.Wrap(errors.New("db down"), dErrors.CodeInternal, "consume"))

		outcome, err := s.service.Attempt(context.Background(), models.AttemptRequest{Token: "tok", Candidate: validCandidate})
		s.Nil(outcome)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("correlation failure is internal and dispatches nothing", func() {
		s.ledger.EXPECT().Consume(gomock.Any(), "tok").Return(consumed("U1"), nil)
		s.correlator.EXPECT().CorrelateOrRecord(gomock.Any(), "U1", validCandidate).
			Return(models.NoMatch(), nil, errors.New("lock timeout"))

		outcome, err := s.service.Attempt(context.Background(), models.AttemptRequest{Token: "tok", Candidate: validCandidate})
		s.service.Wait()
		s.Nil(outcome)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.Equal(2.0, testutil.ToFloat64(s.metrics.AttemptOutcome.WithLabelValues(string(dErrors.CodeInternal))))
	})
}

func (s *CoordinatorSuite) TestSinkFailuresNeverChangeTheOutcome() {
	s.Run("accepted stays accepted when granting fails", func() {
		s.ledger.EXPECT().Consume(gomock.Any(), "tok").Return(consumed("U1"), nil)
		s.correlator.EXPECT().CorrelateOrRecord(gomock.Any(), "U1", validCandidate).
			Return(models.NoMatch(), &models.Identity{ID: "id-1", SubjectID: "U1"}, nil)
		s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("audit down"))
		gomock.InOrder(
			s.sink.EXPECT().GrantVerifiedState(gomock.Any(), "U1", "G1").Return(errors.New("missing permission")),
			s.sink.EXPECT().NotifySubject(gomock.Any(), "U1", WelcomeMessage).Return(nil),
		)

		outcome, err := s.service.Attempt(context.Background(), models.AttemptRequest{Token: "tok", Candidate: validCandidate})
		s.Require().NoError(err)
		s.True(outcome.Accepted())
		s.service.Wait()
		s.Equal(1.0, testutil.ToFloat64(s.metrics.SinkFailures.WithLabelValues("grant_verified_state")))
	})

	s.Run("alt removal still runs when the moderator alert fails", func() {
		matched := &models.Identity{SubjectID: "U1", SourceAddress: "1.2.3.4"}
		s.ledger.EXPECT().Consume(gomock.Any(), "tok").Return(consumed("U2"), nil)
		s.correlator.EXPECT().CorrelateOrRecord(gomock.Any(), "U2", validCandidate).
			Return(models.CorrelationResult{Match: models.MatchFingerprint, Existing: matched}, nil, nil)
		s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
		gomock.InOrder(
			s.sink.EXPECT().NotifyModerators(gomock.Any(), gomock.Any()).Return(errors.New("channel gone")),
			s.sink.EXPECT().DenyAndRemove(gomock.Any(), "U2", "G1", DenyReason).Return(nil),
		)

		outcome, err := s.service.Attempt(context.Background(), models.AttemptRequest{Token: "tok", Candidate: validCandidate})
		s.Require().NoError(err)
		s.Equal(models.ReasonAltDetected, outcome.Reason)
		s.service.Wait()
	})
}

func (s *CoordinatorSuite) TestDispatchOutlivesTheRequest() {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})

	s.ledger.EXPECT().Consume(gomock.Any(), "tok").Return(consumed("U1"), nil)
	s.correlator.EXPECT().CorrelateOrRecord(gomock.Any(), "U1", validCandidate).
		Return(models.NoMatch(), &models.Identity{SubjectID: "U1"}, nil)
	s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
	s.sink.EXPECT().GrantVerifiedState(gomock.Any(), "U1", "G1").
		DoAndReturn(func(ctx context.Context, _, _ string) error {
			<-release
			s.NoError(ctx.Err(), "dispatch context must not inherit request cancellation")
			_, hasDeadline := ctx.Deadline()
			s.True(hasDeadline)
			return nil
		})
	s.sink.EXPECT().NotifySubject(gomock.Any(), "U1", WelcomeMessage).Return(nil)

	outcome, err := s.service.Attempt(ctx, models.AttemptRequest{Token: "tok", Candidate: validCandidate})
	s.Require().NoError(err)
	s.True(outcome.Accepted(), "decision is returned before dispatch completes")

	cancel()
	close(release)
	s.service.Wait()
}

package membership

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"altguard/internal/membership/mocks"
	"altguard/internal/verification/models"
	portmocks "altguard/internal/verification/ports/mocks"
	dErrors "altguard/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	issuer    *mocks.MockTokenIssuer
	deliverer *portmocks.MockLinkDeliverer
	service   *Service
	created   time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.issuer = mocks.NewMockTokenIssuer(ctrl)
	s.deliverer = portmocks.NewMockLinkDeliverer(ctrl)
	s.created = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.service = New(s.issuer, s.deliverer, "https://verify.example.test/",
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (s *ServiceSuite) token() *models.Token {
	return &models.Token{Value: "tok-1", SubjectID: "u1", GroupID: "g1", CreatedAt: s.created}
}

func (s *ServiceSuite) TestIssuesAndDeliversLink() {
	s.issuer.EXPECT().Issue(gomock.Any(), "u1", "g1").Return(s.token(), nil)
	s.issuer.EXPECT().TTL().Return(10 * time.Minute)
	s.deliverer.EXPECT().DeliverVerificationLink(gomock.Any(), "u1", "g1",
		"https://verify.example.test/verify?token=tok-1", s.created.Add(10*time.Minute)).Return(nil)

	result, err := s.service.HandleJoin(context.Background(), Event{SubjectID: "u1", GroupID: "g1"})

	s.Require().NoError(err)
	s.False(result.Ignored)
	s.True(result.Delivered)
	s.Equal(s.created.Add(10*time.Minute), result.ExpiresAt)
}

func (s *ServiceSuite) TestBotsAreIgnored() {
	result, err := s.service.HandleJoin(context.Background(), Event{SubjectID: "b1", GroupID: "g1", Bot: true})

	s.Require().NoError(err)
	s.True(result.Ignored)
}

func (s *ServiceSuite) TestMissingIdentifiers() {
	_, err := s.service.HandleJoin(context.Background(), Event{GroupID: "g1"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.HandleJoin(context.Background(), Event{SubjectID: "u1"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestIssueFailureIsReturned() {
	s.issuer.EXPECT().Issue(gomock.Any(), "u1", "g1").
		Return(nil, dErrors.New(dErrors.CodeInternal, "failed to store token"))

	_, err := s.service.HandleJoin(context.Background(), Event{SubjectID: "u1", GroupID: "g1"})

	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestDeliveryFailureKeepsToken() {
	s.issuer.EXPECT().Issue(gomock.Any(), "u1", "g1").Return(s.token(), nil)
	s.issuer.EXPECT().TTL().Return(10 * time.Minute)
	s.deliverer.EXPECT().DeliverVerificationLink(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("dm closed"))

	result, err := s.service.HandleJoin(context.Background(), Event{SubjectID: "u1", GroupID: "g1"})

	s.Require().NoError(err)
	s.False(result.Delivered)
}

func (s *ServiceSuite) TestLinkEscapesValue() {
	s.Equal("https://verify.example.test/verify?token=a%2Bb", s.service.Link("a+b"))
}

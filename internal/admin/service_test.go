package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"altguard/internal/admin/mocks"
	"altguard/internal/verification/models"
	dErrors "altguard/pkg/domain-errors"
	"altguard/pkg/platform/audit"
	"altguard/pkg/platform/audit/publisher"
	auditmemory "altguard/pkg/platform/audit/store/memory"
	"altguard/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	identities *mocks.MockIdentityLister
	sweeper    *mocks.MockTokenSweeper
	auditStore *auditmemory.InMemoryStore
	service    *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.identities = mocks.NewMockIdentityLister(ctrl)
	s.sweeper = mocks.NewMockTokenSweeper(ctrl)
	s.auditStore = auditmemory.NewInMemoryStore()
	s.service = New(s.identities, s.sweeper, s.auditStore,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
	)
}

func (s *ServiceSuite) TestLookupRecordsModerator() {
	recorded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.identities.EXPECT().ListBySubjects(gomock.Any(), []string{"u1", "u2"}).Return([]*models.Identity{
		{ID: "i1", SubjectID: "u1", Fingerprint: "fp-A", SourceAddress: "1.2.3.4", RecordedAt: recorded},
	}, nil)
	ctx := requestcontext.WithModeratorID(context.Background(), "mod-1")

	identities, err := s.service.LookupIdentities(ctx, []string{"u1", "u2"})

	s.Require().NoError(err)
	s.Len(identities, 1)
	events, err := s.auditStore.ListBySubject(context.Background(), "u2")
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventIdentityLookup), events[0].Action)
	s.Equal("mod-1", events[0].ActorID)
	s.Equal(audit.CategorySecurity, events[0].Category)
}

func (s *ServiceSuite) TestLookupValidation() {
	_, err := s.service.LookupIdentities(context.Background(), nil)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	tooMany := make([]string, maxLookupSubjects+1)
	for i := range tooMany {
		tooMany[i] = "u"
	}
	_, err = s.service.LookupIdentities(context.Background(), tooMany)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestLookupStoreFailure() {
	s.identities.EXPECT().ListBySubjects(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	_, err := s.service.LookupIdentities(context.Background(), []string{"u1"})

	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestAuditTrail() {
	s.Require().NoError(s.auditStore.Append(context.Background(), audit.Event{Subject: "u1", Action: "alt_detected"}))

	events, err := s.service.AuditTrail(context.Background(), "u1")
	s.Require().NoError(err)
	s.Len(events, 1)

	s.Require().NoError(s.auditStore.Append(context.Background(), audit.Event{Subject: "u2", Action: "token_issued"}))
	recent, err := s.service.AuditTrail(context.Background(), "")
	s.Require().NoError(err)
	s.Len(recent, 2)
}

func (s *ServiceSuite) TestSweep() {
	s.sweeper.EXPECT().SweepExpired(gomock.Any()).Return(3, nil)

	deleted, err := s.service.Sweep(context.Background())

	s.Require().NoError(err)
	s.Equal(3, deleted)
}

package admin

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "altguard/internal/jwt_token"
	"altguard/internal/verification/models"
	dErrors "altguard/pkg/domain-errors"
	"altguard/pkg/platform/audit"
	"altguard/pkg/platform/middleware/auth"
	"altguard/pkg/requestcontext"
	"altguard/pkg/testutil"
)

type stubAdminService struct {
	lookedUp []string
	actor    string
	err      error
}

func (s *stubAdminService) LookupIdentities(ctx context.Context, subjectIDs []string) ([]*models.Identity, error) {
	s.lookedUp = subjectIDs
	s.actor = requestcontext.ModeratorID(ctx)
	if s.err != nil {
		return nil, s.err
	}
	return []*models.Identity{{ID: "i1", SubjectID: subjectIDs[0], Fingerprint: "fp-A", SourceAddress: "1.2.3.4"}}, nil
}

func (s *stubAdminService) AuditTrail(_ context.Context, subjectID string) ([]audit.Event, error) {
	return []audit.Event{{Subject: subjectID, Action: "token_issued", Category: audit.CategoryOperations}}, nil
}

func (s *stubAdminService) Sweep(context.Context) (int, error) {
	return 2, nil
}

func TestAdminHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtSvc := jwttoken.NewJWTService("test-signing-key", "altguard")
	token, err := jwtSvc.GenerateModeratorToken("mod-1", time.Hour)
	require.NoError(t, err)

	setup := func(svc AdminService) chi.Router {
		r := chi.NewRouter()
		NewHandler(svc, logger).Register(r, auth.RequireRole(jwtSvc, jwttoken.RoleModerator, logger))
		return r
	}
	do := func(r chi.Router, method, target, bearer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	t.Run("requires a moderator token", func(t *testing.T) {
		rec := do(setup(&stubAdminService{}), http.MethodGet, "/admin/identities?subject_id=u1", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("lists identities for deduplicated subjects", func(t *testing.T) {
		svc := &stubAdminService{}
		rec := do(setup(svc), http.MethodGet, "/admin/identities?subject_id=u1&subject_id=u2&subject_id=u1", token)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"u1", "u2"}, svc.lookedUp)
		assert.Equal(t, "mod-1", svc.actor)

		var resp IdentitiesListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Total)
		assert.Equal(t, "fp-A", resp.Identities[0].Fingerprint)
	})

	t.Run("validation error maps to 400", func(t *testing.T) {
		svc := &stubAdminService{err: dErrors.New(dErrors.CodeValidation, "at least one subject_id is required")}
		rec := do(setup(svc), http.MethodGet, "/admin/identities", token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("audit trail", func(t *testing.T) {
		rec := do(setup(&stubAdminService{}), http.MethodGet, "/admin/audit?subject_id=u1", token)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp AuditListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Events, 1)
		assert.Equal(t, "token_issued", resp.Events[0].Action)
	})

	t.Run("handler reads the moderator from context", func(t *testing.T) {
		svc := &stubAdminService{}
		req := testutil.WithModerator(httptest.NewRequest(http.MethodGet, "/admin/identities?subject_id=u9", nil), "mod-7")
		rec := testutil.DoRequest(http.HandlerFunc(NewHandler(svc, logger).HandleListIdentities), req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "mod-7", svc.actor)
		resp := testutil.UnmarshalResponse[IdentitiesListResponse](t, rec)
		assert.Equal(t, "u9", resp.Identities[0].SubjectID)
	})

	t.Run("sweep", func(t *testing.T) {
		rec := do(setup(&stubAdminService{}), http.MethodPost, "/admin/tokens/sweep", token)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"deleted":2}`, rec.Body.String())
	})
}

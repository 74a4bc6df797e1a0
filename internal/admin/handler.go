package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"altguard/internal/verification/models"
	"altguard/pkg/platform/audit"
	"altguard/pkg/platform/httputil"
	platformstrings "altguard/pkg/platform/strings"
	"altguard/pkg/requestcontext"
)

// AdminService is what the handler needs from Service.
type AdminService interface {
	LookupIdentities(ctx context.Context, subjectIDs []string) ([]*models.Identity, error)
	AuditTrail(ctx context.Context, subjectID string) ([]audit.Event, error)
	Sweep(ctx context.Context) (int, error)
}

// Handler serves /admin routes.
type Handler struct {
	service AdminService
	logger  *slog.Logger
}

func NewHandler(service AdminService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the admin routes behind guard, which must authenticate a moderator.
func (h *Handler) Register(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(guard)
		r.Get("/identities", h.HandleListIdentities)
		r.Get("/audit", h.HandleAuditTrail)
		r.Post("/tokens/sweep", h.HandleSweep)
	})
}

// HandleListIdentities serves GET /admin/identities?subject_id=..&subject_id=..
func (h *Handler) HandleListIdentities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identities, err := h.service.LookupIdentities(ctx, subjectIDs(r))
	if err != nil {
		h.fail(ctx, w, "identity lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIdentitiesListResponse(identities))
}

// HandleAuditTrail serves GET /admin/audit with an optional subject_id.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := h.service.AuditTrail(ctx, strings.TrimSpace(r.URL.Query().Get("subject_id")))
	if err != nil {
		h.fail(ctx, w, "audit trail lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuditListResponse(events))
}

// HandleSweep serves POST /admin/tokens/sweep.
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	deleted, err := h.service.Sweep(ctx)
	if err != nil {
		h.fail(ctx, w, "token sweep failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SweepResponse{Deleted: deleted})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"moderator_id", requestcontext.ModeratorID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

func subjectIDs(r *http.Request) []string {
	return platformstrings.DedupeAndTrim(r.URL.Query()["subject_id"])
}

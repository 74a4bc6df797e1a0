package membership

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"altguard/pkg/platform/httputil"
	"altguard/pkg/requestcontext"
)

// JoinService handles member-join events.
type JoinService interface {
	HandleJoin(ctx context.Context, ev Event) (*JoinResult, error)
}

// Handler serves the HTTP membership intake.
type Handler struct {
	service JoinService
	logger  *slog.Logger
}

func NewHandler(service JoinService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts POST /members/joined.
func (h *Handler) Register(r chi.Router) {
	r.Post("/members/joined", h.HandleJoined)
}

// HandleJoined returns 202 once a link has been issued and 200 for ignored bots.
func (h *Handler) HandleJoined(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[JoinRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.HandleJoin(ctx, req.toEvent())
	if err != nil {
		h.logger.ErrorContext(ctx, "member join failed",
			"request_id", requestID,
			"subject_id", req.SubjectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusAccepted
	if result.Ignored {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, toJoinResponse(result))
}

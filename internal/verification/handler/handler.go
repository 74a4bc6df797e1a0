package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"altguard/internal/verification/models"
	dErrors "altguard/pkg/domain-errors"
	"altguard/pkg/platform/httputil"
	"altguard/pkg/requestcontext"
)

const maxVerifyBodyBytes = 256 << 10

// Service decides verification attempts.
type Service interface {
	Attempt(ctx context.Context, req models.AttemptRequest) (*models.Outcome, error)
}

// Handler serves the verification submission endpoint.
type Handler struct {
	logger  *slog.Logger
	service Service
	limiter func(http.Handler) http.Handler
}

// New creates a verification Handler. limiter may be nil.
func New(service Service, logger *slog.Logger, limiter func(http.Handler) http.Handler) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		limiter: limiter,
	}
}

// Register mounts POST /api/verify. Client metadata must already be on the request
// context.
func (h *Handler) Register(r chi.Router) {
	if h.limiter != nil {
		r.With(h.limiter).Post("/api/verify", h.HandleVerify)
		return
	}
	r.Post("/api/verify", h.HandleVerify)
}

// HandleVerify decodes a submission, runs the attempt and renders the decision.
// Rejections are decisions and return 200; only undecidable attempts return 5xx.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req VerifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxVerifyBodyBytes)).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid verification request body",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteJSON(w, http.StatusBadRequest, VerifyResponse{Reason: reasonBadRequest})
		return
	}
	req.Normalize()

	userAgent := requestcontext.UserAgent(ctx)
	outcome, err := h.service.Attempt(ctx, models.AttemptRequest{
		Token: req.Token,
		Candidate: models.Candidate{
			Fingerprint:   req.Fingerprint,
			SourceAddress: requestcontext.ClientIP(ctx),
			Metadata:      models.NewMetadata(req.Components, userAgent),
		},
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			h.logger.WarnContext(ctx, "verification request rejected",
				"request_id", requestID,
				"error", err,
			)
			httputil.WriteJSON(w, http.StatusBadRequest, VerifyResponse{Reason: reasonBadRequest, Detail: dErrors.Message(err)})
			return
		}
		h.logger.ErrorContext(ctx, "verification attempt failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteJSON(w, http.StatusInternalServerError, VerifyResponse{Reason: reasonInternalError})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toVerifyResponse(outcome))
}

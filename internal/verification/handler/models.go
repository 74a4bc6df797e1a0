package handler

import (
	"encoding/json"
	"strings"

	"altguard/internal/verification/models"
)

// VerifyRequest is the body posted by the verification page.
type VerifyRequest struct {
	Token       string          `json:"token"`
	Fingerprint string          `json:"fingerprint"`
	Components  json.RawMessage `json:"components,omitempty"`
}

// Normalize trims surrounding whitespace. Fingerprints are compared byte for byte
// after this, so case is preserved.
func (r *VerifyRequest) Normalize() {
	r.Token = strings.TrimSpace(r.Token)
	r.Fingerprint = strings.TrimSpace(r.Fingerprint)
}

// VerifyResponse is the verification result shown to the member.
type VerifyResponse struct {
	Success   bool   `json:"success"`
	Reason    string `json:"reason,omitempty"`
	Detail    string `json:"detail,omitempty"`
	MatchType string `json:"matchType,omitempty"`
}

const (
	reasonBadRequest    = "bad_request"
	reasonInternalError = "internal_error"
)

func toVerifyResponse(outcome *models.Outcome) VerifyResponse {
	if outcome.Accepted() {
		return VerifyResponse{Success: true}
	}
	switch outcome.Reason {
	case models.ReasonInvalidToken:
		return VerifyResponse{Reason: string(models.ReasonInvalidToken), Detail: string(outcome.TokenFailure)}
	case models.ReasonAltDetected:
		return VerifyResponse{Reason: string(models.ReasonAltDetected), MatchType: string(outcome.MatchType)}
	default:
		return VerifyResponse{Reason: reasonInternalError}
	}
}

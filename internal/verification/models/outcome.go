package models

import "time"

// Status is the terminal state of a verification attempt.
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Reason discriminates rejections.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonInvalidToken Reason = "invalid_token"
	ReasonAltDetected  Reason = "alt_detected"
)

// TokenFailure narrows an invalid_token rejection.
type TokenFailure string

const (
	TokenFailureNone        TokenFailure = ""
	TokenFailureNotFound    TokenFailure = "not_found"
	TokenFailureExpired     TokenFailure = "expired"
	TokenFailureAlreadyUsed TokenFailure = "already_used"
)

// AttemptRequest is one verification submission.
type AttemptRequest struct {
	Token     string
	Candidate Candidate
}

// Outcome is the decision for one attempt. Internal failures are returned as errors,
// never as an Outcome.
type Outcome struct {
	Status       Status
	Reason       Reason
	TokenFailure TokenFailure
	MatchType    MatchType
	SubjectID    string
	GroupID      string
	// Matched is the pre-existing identity for alt_detected.
	Matched *Identity
	// Recorded is the new identity for accepted.
	Recorded *Identity
}

// Accepted reports whether the subject was verified.
func (o *Outcome) Accepted() bool {
	return o != nil && o.Status == StatusAccepted
}

// AltAlert is what moderators receive when an alt account is detected.
type AltAlert struct {
	GroupID           string
	NewSubjectID      string
	MatchedSubjectID  string
	MatchType         MatchType
	MatchedAddress    string
	MatchedRecordedAt time.Time
}

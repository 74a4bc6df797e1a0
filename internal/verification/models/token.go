package models

import (
	"errors"
	"time"
)

// DefaultTokenTTL is the validity window of a verification token.
const DefaultTokenTTL = 10 * time.Minute

// Token binds a joining subject to a single verification attempt.
type Token struct {
	Value      string
	SubjectID  string
	GroupID    string
	CreatedAt  time.Time
	Consumed   bool
	ConsumedAt *time.Time
}

// Errors returned by ValidateForConsume. Stores translate them into sentinel errors.
var (
	errTokenExpired  = errors.New("verification token expired")
	errTokenConsumed = errors.New("verification token already used")
)

// NewToken builds an unconsumed token created at now.
func NewToken(value, subjectID, groupID string, now time.Time) (*Token, error) {
	if value == "" {
		return nil, errors.New("token value is required")
	}
	if subjectID == "" {
		return nil, errors.New("subject id is required")
	}
	if groupID == "" {
		return nil, errors.New("group id is required")
	}
	return &Token{
		Value:     value,
		SubjectID: subjectID,
		GroupID:   groupID,
		CreatedAt: now,
	}, nil
}

// IsExpiredAt reports whether ttl has fully elapsed since creation.
// A token at exactly ttl is expired.
func (t *Token) IsExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(t.CreatedAt) >= ttl
}

// IsUsableAt reports whether the token can still be consumed.
func (t *Token) IsUsableAt(now time.Time, ttl time.Duration) bool {
	return !t.Consumed && !t.IsExpiredAt(now, ttl)
}

// ValidateForConsume checks expiry before consumption so an old, already used token
// reports as expired.
func (t *Token) ValidateForConsume(now time.Time, ttl time.Duration) error {
	if t.IsExpiredAt(now, ttl) {
		return errTokenExpired
	}
	if t.Consumed {
		return errTokenConsumed
	}
	return nil
}

// MarkConsumed flips the one-way consumed flag.
func (t *Token) MarkConsumed(now time.Time) {
	if t.Consumed {
		return
	}
	t.Consumed = true
	t.ConsumedAt = &now
}

// IsExpiredError and IsConsumedError classify ValidateForConsume failures.
func IsExpiredError(err error) bool  { return errors.Is(err, errTokenExpired) }
func IsConsumedError(err error) bool { return errors.Is(err, errTokenConsumed) }

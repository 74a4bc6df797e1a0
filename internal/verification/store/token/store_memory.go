package token

import (
	"context"
	"fmt"
	"sync"
	"time"

	"altguard/internal/verification/models"
	"altguard/pkg/platform/sentinel"
)

// translateConsumeError converts domain errors from ValidateForConsume to sentinel errors.
func translateConsumeError(err error) error {
	switch {
	case err == nil:
		return nil
	case models.IsExpiredError(err):
		return fmt.Errorf("%s: %w", err.Error(), sentinel.ErrExpired)
	case models.IsConsumedError(err):
		return fmt.Errorf("%s: %w", err.Error(), sentinel.ErrAlreadyUsed)
	default:
		return err
	}
}

// Error Contract:
// - Create returns ErrConflict when the value is already stored
// - Find and Consume return ErrNotFound when the value does not exist
// - Consume returns ErrExpired or ErrAlreadyUsed, checked in that order

// InMemoryStore keeps verification tokens in memory for tests and single-instance
// deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*models.Token
}

// New constructs an empty in-memory token store.
func New() *InMemoryStore {
	return &InMemoryStore{
		tokens: make(map[string]*models.Token),
	}
}

func (s *InMemoryStore) Create(_ context.Context, token *models.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[token.Value]; exists {
		return fmt.Errorf("verification token exists: %w", sentinel.ErrConflict)
	}
	stored := *token
	s.tokens[token.Value] = &stored
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, value string) (*models.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[value]
	if !ok {
		return nil, fmt.Errorf("verification token not found: %w", sentinel.ErrNotFound)
	}
	out := *token
	return &out, nil
}

// Consume validates and marks the token consumed under the write lock, so of two
// concurrent calls for the same value exactly one succeeds.
func (s *InMemoryStore) Consume(_ context.Context, value string, now time.Time, ttl time.Duration) (*models.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[value]
	if !ok {
		return nil, fmt.Errorf("verification token not found: %w", sentinel.ErrNotFound)
	}
	if err := token.ValidateForConsume(now, ttl); err != nil {
		return nil, translateConsumeError(err)
	}
	token.MarkConsumed(now)
	out := *token
	return &out, nil
}

// DeleteCreatedBefore removes every token created at or before cutoff, consumed or not.
func (s *InMemoryStore) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for value, token := range s.tokens {
		if !token.CreatedAt.After(cutoff) {
			delete(s.tokens, value)
			deleted++
		}
	}
	return deleted, nil
}

package identity

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"altguard/internal/verification/models"
	"altguard/pkg/platform/sentinel"
)

// Error Contract:
// - FindEarliestBy* return ErrNotFound when no identity matches
// - Create returns ErrConflict when the record ID is already stored

// InMemoryStore keeps identity records in memory. Records are append-only.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []*models.Identity
	ids     map[string]struct{}

	// writer serializes RunInTx callers; it is independent of mu so the callback can
	// use the regular read and write methods.
	writer sync.Mutex
}

// New constructs an empty in-memory identity store.
func New() *InMemoryStore {
	return &InMemoryStore{
		ids: make(map[string]struct{}),
	}
}

// RunInTx runs fn as the single writer. Identities are never updated, so the lock is
// all the isolation correlate-then-record needs.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.writer.Lock()
	defer s.writer.Unlock()
	return fn(ctx)
}

func (s *InMemoryStore) Create(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ids[identity.ID]; exists {
		return fmt.Errorf("identity exists: %w", sentinel.ErrConflict)
	}
	stored := *identity
	s.records = append(s.records, &stored)
	s.ids[identity.ID] = struct{}{}
	return nil
}

func (s *InMemoryStore) FindEarliestByFingerprint(_ context.Context, fingerprint string) (*models.Identity, error) {
	return s.findEarliest(func(i *models.Identity) bool { return i.Fingerprint == fingerprint })
}

func (s *InMemoryStore) FindEarliestByAddress(_ context.Context, address string) (*models.Identity, error) {
	return s.findEarliest(func(i *models.Identity) bool { return i.SourceAddress == address })
}

// findEarliest returns the match with the smallest RecordedAt; ties go to the record
// stored first.
func (s *InMemoryStore) findEarliest(match func(*models.Identity) bool) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.Identity
	for _, record := range s.records {
		if !match(record) {
			continue
		}
		if found == nil || record.RecordedAt.Before(found.RecordedAt) {
			found = record
		}
	}
	if found == nil {
		return nil, fmt.Errorf("identity not found: %w", sentinel.ErrNotFound)
	}
	out := *found
	return &out, nil
}

// ListBySubjects returns every identity first presented by one of subjectIDs, oldest
// first.
func (s *InMemoryStore) ListBySubjects(_ context.Context, subjectIDs []string) ([]*models.Identity, error) {
	wanted := make(map[string]struct{}, len(subjectIDs))
	for _, id := range subjectIDs {
		wanted[id] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Identity
	for _, record := range s.records {
		if _, ok := wanted[record.SubjectID]; ok {
			cp := *record
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.Before(out[j].RecordedAt)
	})
	return out, nil
}

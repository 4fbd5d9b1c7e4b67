package payment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.RWMutex
	payments map[string]PaymentRequest
}

// NewMemoryStore builds an in-memory payment store for testing.
func NewMemoryStore() Store {
	return &memoryStore{payments: make(map[string]PaymentRequest)}
}

func (s *memoryStore) Create(_ context.Context, p PaymentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.payments[p.ID]; exists {
		return errors.New("payment request exists")
	}
	s.payments[p.ID] = p
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (PaymentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return PaymentRequest{}, ErrNotFound
	}
	return p, nil
}

func (s *memoryStore) ListByUser(_ context.Context, userID string) ([]PaymentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var payments []PaymentRequest
	for _, p := range s.payments {
		if p.UserID == userID {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
	return payments, nil
}

func (s *memoryStore) TransitionFromPending(_ context.Context, id, status string, decidedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return false, ErrNotFound
	}
	if p.Status != StatusPending {
		return false, nil
	}
	p.Status = status
	at := decidedAt.UTC()
	p.DecidedAt = &at
	s.payments[id] = p
	return true, nil
}

// Package memory provides in-memory repositories used for tests and
// ephemeral deployments.
package memory

import (
	"context"
	"sync"

	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/repository"
)

var (
	_ repository.BatchRepository  = (*BatchStore)(nil)
	_ repository.FarmerRepository = (*FarmerStore)(nil)
	_ repository.EventRepository  = (*EventStore)(nil)
)

// BatchStore keeps batches in a map keyed by id. Every read and write copies
// the batch so callers cannot mutate stored state.
type BatchStore struct {
	mu      sync.RWMutex
	batches map[string]*domain.Batch
}

func NewBatchStore() *BatchStore {
	return &BatchStore{batches: make(map[string]*domain.Batch)}
}

func (s *BatchStore) Get(_ context.Context, id string) (*domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, ok := s.batches[id]
	if !ok {
		return nil, domain.ErrBatchNotFound
	}
	return batch.Clone(), nil
}

func (s *BatchStore) Upsert(_ context.Context, batch *domain.Batch) error {
	if batch == nil || batch.ID == "" {
		return domain.ErrInvalidPayload
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[batch.ID] = batch.Clone()
	return nil
}

func (s *BatchStore) List(_ context.Context) ([]domain.Batch, error) {
	return s.collect(func(*domain.Batch) bool { return true }), nil
}

func (s *BatchStore) ListByFarmer(_ context.Context, farmerID string) ([]domain.Batch, error) {
	return s.collect(func(b *domain.Batch) bool { return b.HasFarmer(farmerID) }), nil
}

func (s *BatchStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.batches), nil
}

func (s *BatchStore) collect(keep func(*domain.Batch) bool) []domain.Batch {
	s.mu.RLock()
	out := make([]domain.Batch, 0, len(s.batches))
	for _, batch := range s.batches {
		if keep(batch) {
			out = append(out, *batch.Clone())
		}
	}
	s.mu.RUnlock()
	repository.SortBatches(out)
	return out
}

type FarmerStore struct {
	mu      sync.RWMutex
	farmers map[string]domain.Farmer
}

func NewFarmerStore() *FarmerStore {
	return &FarmerStore{farmers: make(map[string]domain.Farmer)}
}

func (s *FarmerStore) Get(_ context.Context, id string) (*domain.Farmer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	farmer, ok := s.farmers[id]
	if !ok {
		return nil, domain.ErrFarmerNotFound
	}
	return &farmer, nil
}

func (s *FarmerStore) Create(_ context.Context, farmer *domain.Farmer) error {
	if farmer == nil || farmer.ID == "" {
		return domain.ErrInvalidPayload
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.farmers[farmer.ID]; exists {
		return domain.ErrDuplicateFarmerID
	}
	s.farmers[farmer.ID] = *farmer
	return nil
}

func (s *FarmerStore) Update(_ context.Context, farmer *domain.Farmer) error {
	if farmer == nil || farmer.ID == "" {
		return domain.ErrInvalidPayload
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.farmers[farmer.ID]; !exists {
		return domain.ErrFarmerNotFound
	}
	s.farmers[farmer.ID] = *farmer
	return nil
}

func (s *FarmerStore) List(_ context.Context) ([]domain.Farmer, error) {
	s.mu.RLock()
	out := make([]domain.Farmer, 0, len(s.farmers))
	for _, farmer := range s.farmers {
		out = append(out, farmer)
	}
	s.mu.RUnlock()
	repository.SortFarmers(out)
	return out, nil
}

// EventStore is an append-only slice of ledger events.
type EventStore struct {
	mu     sync.RWMutex
	events []domain.LedgerEvent
}

func NewEventStore() *EventStore {
	return &EventStore{}
}

func (s *EventStore) Append(_ context.Context, event domain.LedgerEvent) error {
	if event.ID == "" || event.BatchID == "" {
		return domain.ErrInvalidPayload
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.events {
		if existing.ID == event.ID {
			return nil
		}
	}
	event.Payload = append([]byte(nil), event.Payload...)
	s.events = append(s.events, event)
	return nil
}

func (s *EventStore) ListByBatch(_ context.Context, batchID string) ([]domain.LedgerEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LedgerEvent, 0)
	for _, event := range s.events {
		if event.BatchID == batchID {
			out = append(out, event)
		}
	}
	return out, nil
}

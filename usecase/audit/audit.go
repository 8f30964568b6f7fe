package audit

import (
	"context"

	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/repository"
)

// UseCase exposes the ledger event history of a batch to regulators.
type UseCase struct {
	batches repository.BatchRepository
	events  repository.EventRepository
}

func New(batches repository.BatchRepository, events repository.EventRepository) *UseCase {
	return &UseCase{batches: batches, events: events}
}

// Trail returns the events of batchID in the order they were recorded.
func (uc *UseCase) Trail(ctx context.Context, batchID string) ([]domain.LedgerEvent, error) {
	if _, err := uc.batches.Get(ctx, batchID); err != nil {
		return nil, err
	}
	return uc.events.ListByBatch(ctx, batchID)
}

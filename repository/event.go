package repository

import (
	"context"

	"github.com/sanrakshak/herbtrace/domain"
)

// EventRepository keeps the append-only audit trail of ledger events.
type EventRepository interface {
	Append(ctx context.Context, event domain.LedgerEvent) error
	ListByBatch(ctx context.Context, batchID string) ([]domain.LedgerEvent, error)
}

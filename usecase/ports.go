package usecase

import (
	"context"

	"github.com/sanrakshak/herbtrace/domain"
)

// EventPublisher abstracts the audit outbox so use cases stay storage-agnostic.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.LedgerEvent) error
}

// Metrics receives ledger outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveTransition(operation domain.Operation, status domain.BatchStatus)
	ObserveRejection(reason domain.RejectionReason)
}

type NopMetrics struct{}

func (NopMetrics) ObserveTransition(domain.Operation, domain.BatchStatus) {}
func (NopMetrics) ObserveRejection(domain.RejectionReason)                {}

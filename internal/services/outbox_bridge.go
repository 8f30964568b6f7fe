package services

import (
	"context"
	"encoding/json"

	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/internal/infrastructure/outbox"
	"github.com/sanrakshak/herbtrace/usecase"
)

const (
	priorityLedgerEvent = 2
	priorityArchive     = 4
)

// OutboxBridge turns ledger events into outbox items.
type OutboxBridge struct {
	processor *OutboxProcessor
	archive   bool
}

// NewOutboxBridge returns a publisher feeding processor. With archive set,
// finalized batches are also queued for the provenance archive.
func NewOutboxBridge(processor *OutboxProcessor, archive bool) *OutboxBridge {
	return &OutboxBridge{processor: processor, archive: archive}
}

func (b *OutboxBridge) Publish(ctx context.Context, event domain.LedgerEvent) error {
	if b.processor == nil || event.BatchID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := b.processor.Submit(ctx, outbox.Item{
		ID:       event.ID,
		BatchID:  event.BatchID,
		Kind:     outbox.KindLedgerEvent,
		Data:     payload,
		Priority: priorityLedgerEvent,
	}); err != nil {
		return err
	}

	if !b.archive || event.Name != domain.EventBatchFinalized {
		return nil
	}
	return b.processor.Submit(ctx, outbox.Item{
		BatchID:  event.BatchID,
		Kind:     outbox.KindArchive,
		Data:     event.Payload,
		Priority: priorityArchive,
	})
}

var _ usecase.EventPublisher = (*OutboxBridge)(nil)

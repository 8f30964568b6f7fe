package domain

import (
	"encoding/json"
	"time"
)

// Ledger event names.
const (
	EventBatchCreated   = "batch.created"
	EventTestRecorded   = "batch.test_recorded"
	EventStepRecorded   = "batch.step_recorded"
	EventBatchFinalized = "batch.finalized"
	EventBatchRejected  = "batch.rejected"
)

// LedgerEvent is an audit trail entry emitted after a committed batch mutation.
// Payload holds the batch snapshot as it was right after the change.
type LedgerEvent struct {
	ID        string          `json:"id"`
	BatchID   string          `json:"batchId"`
	Name      string          `json:"name"`
	Status    BatchStatus     `json:"status"`
	Actor     string          `json:"actor,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewLedgerEvent snapshots batch into an event. The id is left for the caller.
func NewLedgerEvent(name string, batch *Batch, actor string, at time.Time) (LedgerEvent, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return LedgerEvent{}, err
	}
	return LedgerEvent{
		BatchID:   batch.ID,
		Name:      name,
		Status:    batch.Status,
		Actor:     actor,
		Payload:   payload,
		CreatedAt: at,
	}, nil
}

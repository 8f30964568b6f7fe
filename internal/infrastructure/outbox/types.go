package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	KindLedgerEvent = "ledger_event"
	KindArchive     = "archive"
)

// Item is a ledger event waiting to reach the audit store (or the archive).
type Item struct {
	ID        string          `json:"id"`
	BatchID   string          `json:"batch_id"`
	Kind      string          `json:"kind"`
	Data      json.RawMessage `json:"data"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > 5 {
		i.Priority = 3
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}

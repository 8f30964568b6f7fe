package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/repository"
)

type EventRepository struct {
	db *sql.DB
}

var _ repository.EventRepository = (*EventRepository)(nil)

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Append(ctx context.Context, event domain.LedgerEvent) error {
	if event.ID == "" || event.BatchID == "" {
		return domain.ErrInvalidPayload
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO batch_events(id, seq, batch_id, name, status, actor, payload, created_at)
		VALUES(?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM batch_events), ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		event.ID, event.BatchID, event.Name, string(event.Status), event.Actor, []byte(event.Payload), unixNano(event.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *EventRepository) ListByBatch(ctx context.Context, batchID string) ([]domain.LedgerEvent, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, batch_id, name, status, actor, payload, created_at
		FROM batch_events WHERE batch_id = ? ORDER BY seq`, batchID)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]domain.LedgerEvent, 0)
	for rows.Next() {
		var (
			event   domain.LedgerEvent
			status  string
			payload []byte
			created int64
		)
		if err := rows.Scan(&event.ID, &event.BatchID, &event.Name, &status, &event.Actor, &payload, &created); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		event.Status = domain.BatchStatus(status)
		event.Payload = append([]byte(nil), payload...)
		event.CreatedAt = fromUnixNano(created)
		events = append(events, event)
	}
	return events, rows.Err()
}

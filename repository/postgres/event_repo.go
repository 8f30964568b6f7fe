package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/repository"
)

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a Postgres-backed audit trail.
func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{pool: pool}
}

// Append ignores events whose id is already stored so outbox retries stay safe.
func (r *eventRepository) Append(ctx context.Context, event domain.LedgerEvent) error {
	if event.ID == "" || event.BatchID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO batch_events (id, batch_id, name, status, actor, payload, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
	ON CONFLICT (id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.BatchID,
		event.Name,
		string(event.Status),
		event.Actor,
		[]byte(event.Payload),
		nullTime(event.CreatedAt),
	)
	return err
}

func (r *eventRepository) ListByBatch(ctx context.Context, batchID string) ([]domain.LedgerEvent, error) {
	const query = `
	SELECT id, batch_id, name, status, actor, payload, created_at
	FROM batch_events
	WHERE batch_id = $1
	ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.LedgerEvent, 0)
	for rows.Next() {
		var (
			event   domain.LedgerEvent
			status  string
			payload []byte
		)
		if err := rows.Scan(&event.ID, &event.BatchID, &event.Name, &status, &event.Actor, &payload, &event.CreatedAt); err != nil {
			return nil, err
		}
		event.Status = domain.BatchStatus(status)
		event.Payload = make([]byte, len(payload))
		copy(event.Payload, payload)
		events = append(events, event)
	}
	return events, rows.Err()
}
